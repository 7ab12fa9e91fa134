package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/visaprep-ai/backend/internal/models"
	"github.com/visaprep-ai/backend/internal/storage"
)

// Edge synthesizes speech through an edge-tts compatible HTTP service and
// stores the result via an Uploader.
type Edge struct {
	client       *resty.Client
	uploader     storage.Uploader
	defaultVoice string
	format       string
	voiceOptions []string
	log          *logrus.Logger
}

func NewEdge(endpoint, defaultVoice, format string, voiceOptions []string, up storage.Uploader, log *logrus.Logger) *Edge {
	if format == "" {
		format = "mp3"
	}
	c := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(30 * time.Second)

	return &Edge{
		client:       c,
		uploader:     up,
		defaultVoice: defaultVoice,
		format:       format,
		voiceOptions: voiceOptions,
		log:          log,
	}
}

type edgeSynthRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
	Format string `json:"format"`
}

// Synthesize returns the sentinel error clip on any failure; callers never
// see a synthesis error.
func (e *Edge) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	voice := voiceID
	if voice == "" {
		voice = e.defaultVoice
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = "No text provided."
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(edgeSynthRequest{Text: text, Voice: voice, Rate: "+0%", Volume: "+0%", Format: e.format}).
		Post("/synthesize")
	if err != nil || resp.StatusCode() != 200 || len(resp.Body()) == 0 {
		if err != nil {
			e.log.WithError(err).Error("tts synthesis failed")
		} else {
			e.log.WithField("status", resp.StatusCode()).Error("tts synthesis failed")
		}
		return ErrorAudioURL, nil
	}

	objectName := fmt.Sprintf("%s.%s", uuid.NewString(), e.format)
	url, err := e.uploader.Upload(ctx, objectName, "audio/mpeg", bytes.NewReader(resp.Body()))
	if err != nil {
		e.log.WithError(err).Error("tts upload failed")
		return ErrorAudioURL, nil
	}

	e.log.WithField("audio_url", url).Info("generated audio")
	return url, nil
}

type edgeVoice struct {
	ShortName string `json:"ShortName"`
	Locale    string `json:"Locale"`
	Gender    string `json:"Gender"`
}

// ListVoices falls back to the configured voice id list when the service
// cannot be reached.
func (e *Edge) ListVoices(ctx context.Context) ([]models.VoiceOption, error) {
	resp, err := e.client.R().SetContext(ctx).Get("/voices")
	if err != nil || resp.StatusCode() != 200 {
		return e.fallbackVoices(), nil
	}

	var raw []edgeVoice
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return e.fallbackVoices(), nil
	}

	out := make([]models.VoiceOption, 0, len(raw))
	for _, v := range raw {
		parts := strings.Split(v.ShortName, "-")
		out = append(out, models.VoiceOption{
			VoiceID:  v.ShortName,
			Name:     parts[len(parts)-1],
			Language: strings.Split(v.Locale, "-")[0],
			Gender:   v.Gender,
		})
	}
	return out, nil
}

func (e *Edge) fallbackVoices() []models.VoiceOption {
	out := make([]models.VoiceOption, 0, len(e.voiceOptions))
	for _, id := range e.voiceOptions {
		parts := strings.Split(id, "-")
		lang := id
		if len(parts) >= 2 {
			lang = strings.Join(parts[:2], "-")
		}
		out = append(out, models.VoiceOption{
			VoiceID:  id,
			Name:     parts[len(parts)-1],
			Language: lang,
		})
	}
	return out
}
