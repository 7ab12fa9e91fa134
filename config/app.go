package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/visaprep-ai/backend/internal/models"
)

// App holds all environment-driven application configuration.
type App struct {
	Port string

	// Transcription (Groq Whisper by default, Google Speech optional)
	STTProvider  string // "whisper" | "google"
	GroqAPIKey   string
	GroqEndpoint string
	WhisperModel string

	// Evaluation LLM (Mistral by default, Vertex Gemini optional)
	LLMProvider     string // "mistral" | "vertex"
	MistralAPIKey   string
	MistralEndpoint string
	MistralModel    string
	VertexProject   string
	VertexLocation  string
	VertexModel     string

	// Text to speech
	EdgeTTSURL   string
	DefaultVoice string
	AudioFormat  string
	AudioDir     string
	GCSBucket    string // when set, synthesized audio is uploaded instead of stored locally
	VoiceOptions []string

	// Subscription tier -> question count
	SubscriptionCaps map[models.SubscriptionLevel]int
}

// Load reads configuration from environment variables. An unknown or
// non-positive subscription cap is a configuration error, caught here rather
// than per request.
func Load() (*App, error) {
	cfg := &App{
		Port: getEnv("PORT", "8000"),

		STTProvider:  getEnv("STT_PROVIDER", "whisper"),
		GroqAPIKey:   os.Getenv("GROQ_API_KEY"),
		GroqEndpoint: getEnv("GROQ_ENDPOINT", "https://api.groq.com/openai/v1/audio/transcriptions"),
		WhisperModel: getEnv("WHISPER_MODEL", "whisper-large-v3"),

		LLMProvider:     getEnv("LLM_PROVIDER", "mistral"),
		MistralAPIKey:   os.Getenv("MISTRAL_API_KEY"),
		MistralEndpoint: getEnv("MISTRAL_ENDPOINT", "https://api.mistral.ai/v1/chat/completions"),
		MistralModel:    getEnv("MISTRAL_MODEL", "mistral-large-latest"),
		VertexProject:   os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:  getEnv("VERTEX_LOCATION", "us-central1"),
		VertexModel:     getEnv("VERTEX_MODEL", "gemini-1.5-flash"),

		EdgeTTSURL:   os.Getenv("EDGE_TTS_URL"),
		DefaultVoice: getEnv("DEFAULT_VOICE", "en-US-AriaNeural"),
		AudioFormat:  getEnv("AUDIO_FORMAT", "mp3"),
		AudioDir:     getEnv("AUDIO_DIR", "audio_output"),
		GCSBucket:    os.Getenv("GCS_BUCKET"),
		VoiceOptions: splitList(getEnv("VOICE_OPTIONS",
			"en-US-AriaNeural,en-US-GuyNeural,en-GB-SoniaNeural,en-AU-NatashaNeural")),

		SubscriptionCaps: map[models.SubscriptionLevel]int{},
	}

	caps := getEnv("SUBSCRIPTION_CAPS", "free=5,super=10,premium=15")
	for _, pair := range splitList(caps) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid SUBSCRIPTION_CAPS entry %q", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid SUBSCRIPTION_CAPS value %q: %w", pair, err)
		}
		cfg.SubscriptionCaps[models.SubscriptionLevel(strings.TrimSpace(k))] = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the parts of the configuration the server cannot run without.
func (c *App) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.AudioDir == "" {
		return fmt.Errorf("AUDIO_DIR cannot be empty")
	}
	for level, cap := range c.SubscriptionCaps {
		if !level.Valid() {
			return fmt.Errorf("unknown subscription level %q in SUBSCRIPTION_CAPS", level)
		}
		if cap <= 0 {
			return fmt.Errorf("subscription cap for %q must be > 0", level)
		}
	}
	for _, level := range []models.SubscriptionLevel{
		models.SubscriptionFree, models.SubscriptionSuper, models.SubscriptionPremium,
	} {
		if _, ok := c.SubscriptionCaps[level]; !ok {
			return fmt.Errorf("SUBSCRIPTION_CAPS missing level %q", level)
		}
	}
	switch c.STTProvider {
	case "whisper", "google":
	default:
		return fmt.Errorf("unknown STT_PROVIDER %q", c.STTProvider)
	}
	switch c.LLMProvider {
	case "mistral", "vertex":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
