package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/shahadulhaider/meeting-note-taker/internal/ai"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/logger"
)

// Progress milestones reported while a recording moves through the
// pipeline. The final 100 is reported by the worker once results are
// persisted, not here.
const (
	ProgressTranscribing = 20
	ProgressTranscribed  = 50
	ProgressSummarizing  = 60
	ProgressSummarized   = 80
	ProgressExtracting   = 90
)

// ProgressFunc receives milestone updates as the pipeline advances.
// Implementations must not block for long; they run inline.
type ProgressFunc func(progress int, status domain.MeetingStatus, message string)

// Result is the outcome of a completed pipeline run.
type Result struct {
	Transcript     string
	Summary        string
	ActionItems    domain.ActionItems
	AudioLength    int // seconds
	ProcessingTime time.Duration
}

// Pipeline turns an uploaded recording into a transcript, summary and
// action items. Transcription failure aborts the run; the later stages
// degrade to deterministic output instead of failing.
type Pipeline struct {
	chain *ai.Chain
}

// New creates a pipeline backed by the given provider chain.
func New(chain *ai.Chain) *Pipeline {
	return &Pipeline{chain: chain}
}

// Process runs the full pipeline for one recording.
// Parameters:
//   - ctx: cancellation context.
//   - audioURL: fetchable (signed) URL of the uploaded audio.
//   - fileName: original file name, used for content-type hints.
//   - onProgress: milestone callback; may be nil.
// Returns:
//   - *Result: transcript, summary, action items and timings.
//   - error: non-nil only when transcription failed.
func (p *Pipeline) Process(ctx context.Context, audioURL, fileName string, onProgress ProgressFunc) (*Result, error) {
	started := time.Now()
	report := func(progress int, status domain.MeetingStatus, message string) {
		if onProgress != nil {
			onProgress(progress, status, message)
		}
	}

	report(ProgressTranscribing, domain.MeetingStatusTranscribing, "Transcribing audio...")

	transcription, err := p.chain.Transcribe(ctx, audioURL, fileName)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	logger.CtxInfo(ctx, "Transcription finished, %d chars, ~%ds of audio",
		len(transcription.Text), transcription.Duration)

	report(ProgressTranscribed, domain.MeetingStatusTranscribing, "Transcription completed")
	report(ProgressSummarizing, domain.MeetingStatusSummarizing, "Generating summary...")

	summary, err := p.chain.Summarize(ctx, transcription.Text)
	if err != nil {
		// The chain degrades instead of failing; treat an error as
		// empty output rather than aborting a transcribed recording.
		logger.CtxWarn(ctx, "Summarization returned error: %v", err)
	}

	report(ProgressSummarized, domain.MeetingStatusSummarizing, "Summary generated")
	report(ProgressExtracting, domain.MeetingStatusSummarizing, "Extracting action items...")

	items, err := p.chain.ExtractActionItems(ctx, transcription.Text)
	if err != nil {
		logger.CtxWarn(ctx, "Action item extraction returned error: %v", err)
	}

	return &Result{
		Transcript:     transcription.Text,
		Summary:        summary,
		ActionItems:    items,
		AudioLength:    transcription.Duration,
		ProcessingTime: time.Since(started),
	}, nil
}
