package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const minAudioBytes = 1000 // anything smaller is noise, not speech

// Whisper transcribes audio via Groq's hosted Whisper endpoint.
type Whisper struct {
	client *resty.Client
	model  string
	log    *logrus.Logger
}

func NewWhisper(endpoint, apiKey, model string, log *logrus.Logger) *Whisper {
	if model == "" {
		model = "whisper-large-v3"
	}

	c := resty.New().
		SetBaseURL(endpoint).
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second).
		SetRetryCount(2). // 3 attempts total
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Whisper{client: c, model: model, log: log}
}

func (w *Whisper) Close() error { return nil }

// Transcribe never returns an error: upstream failures are encoded into the
// returned text so the caller can treat it as the answer.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	if len(audio) < minAudioBytes {
		w.log.WithField("size", len(audio)).Warn("audio too small to transcribe")
		return "Audio too short to transcribe.", nil
	}

	req := w.client.R().
		SetContext(ctx).
		SetFileReader("file", "audio.webm", bytes.NewReader(audio)).
		SetFormData(map[string]string{
			"model":           w.model,
			"response_format": "json",
		})
	if language != "" {
		req.SetFormData(map[string]string{"language": language})
	}

	resp, err := req.Post("")
	if err != nil {
		w.log.WithError(err).Error("transcription request failed")
		return "Error processing audio.", nil
	}
	if resp.StatusCode() != 200 {
		w.log.WithFields(logrus.Fields{
			"status": resp.StatusCode(),
			"body":   strings.TrimSpace(string(resp.Body())),
		}).Error("transcription API error")
		return fmt.Sprintf("Error transcribing audio (HTTP %d).", resp.StatusCode()), nil
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		w.log.WithError(err).Error("transcription response decode failed")
		return "Error processing audio.", nil
	}

	text := strings.TrimSpace(out.Text)
	w.log.WithField("chars", len(text)).Info("transcription successful")
	return text, nil
}
