package stt

import "context"

// Provider turns raw audio bytes into text. Implementations degrade to a
// human-readable sentinel transcript instead of returning transport errors,
// so a failed transcription still produces an answer string.
type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
	Close() error
}
