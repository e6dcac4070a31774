package ai

import (
	"context"
	"strings"

	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
)

// Transcription is the output of a speech-to-text attempt.
type Transcription struct {
	Text string
	// Duration is the audio length in seconds. Zero when the provider
	// cannot report one; callers may estimate instead.
	Duration int
}

// Provider is a single strategy variant capable of the three pipeline
// capabilities. Variants are constructed explicitly and injected into the
// chain; there is no process-wide client state.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Transcribe converts the audio behind a (signed) URL into text.
	Transcribe(ctx context.Context, audioURL, fileName string) (*Transcription, error)

	// Summarize produces a concise summary of a transcript.
	Summarize(ctx context.Context, transcript string) (string, error)

	// ExtractActionItems extracts a structured action item list from a
	// transcript.
	ExtractActionItems(ctx context.Context, transcript string) (domain.ActionItems, error)
}

// estimateDuration approximates audio length in seconds from transcript
// word count at a conversational 150 words per minute. Used when a
// provider cannot report the real duration.
func estimateDuration(transcript string) int {
	words := len(strings.Fields(transcript))
	if words == 0 {
		return 0
	}
	return words * 60 / 150
}
