package tts

import (
	"context"

	"github.com/visaprep-ai/backend/internal/models"
)

// ErrorAudioURL is the sentinel reference returned when synthesis fails; the
// session keeps moving and the client plays a canned error clip.
const ErrorAudioURL = "/audio/error.mp3"

// Synthesizer converts text into a playable audio reference.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) (audioURL string, err error)
	ListVoices(ctx context.Context) ([]models.VoiceOption, error)
}
