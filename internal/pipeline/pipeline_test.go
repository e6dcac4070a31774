package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/shahadulhaider/meeting-note-taker/internal/ai"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
)

// failingProvider fails every operation; used to force the hard-fail
// transcription path.
type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Transcribe(ctx context.Context, audioURL, fileName string) (*ai.Transcription, error) {
	return nil, errors.New("transcription backend down")
}

func (failingProvider) Summarize(ctx context.Context, transcript string) (string, error) {
	return "", errors.New("summary backend down")
}

func (failingProvider) ExtractActionItems(ctx context.Context, transcript string) (domain.ActionItems, error) {
	return nil, errors.New("extraction backend down")
}

type milestone struct {
	progress int
	status   domain.MeetingStatus
}

func TestPipeline_ProcessMilestoneOrder(t *testing.T) {
	// No providers configured: every stage runs on deterministic output,
	// so the full milestone sequence is observable without any network.
	p := New(ai.NewChain())

	var seen []milestone
	result, err := p.Process(context.Background(), "http://example.com/a.mp3", "a.mp3",
		func(progress int, status domain.MeetingStatus, message string) {
			seen = append(seen, milestone{progress: progress, status: status})
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []milestone{
		{20, domain.MeetingStatusTranscribing},
		{50, domain.MeetingStatusTranscribing},
		{60, domain.MeetingStatusSummarizing},
		{80, domain.MeetingStatusSummarizing},
		{90, domain.MeetingStatusSummarizing},
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d milestones, got %d: %v", len(want), len(seen), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("milestone %d: got %+v, want %+v", i, seen[i], want[i])
		}
	}

	if result.Transcript == "" || result.Summary == "" {
		t.Error("expected non-empty transcript and summary")
	}
	if len(result.ActionItems) == 0 {
		t.Error("expected action items")
	}
	if result.AudioLength <= 0 {
		t.Errorf("expected positive audio length, got %d", result.AudioLength)
	}
}

func TestPipeline_ProcessTranscriptionFailure(t *testing.T) {
	// A configured but broken provider must abort the run; the canned
	// transcript only covers the unconfigured case.
	p := New(ai.NewChain(failingProvider{}))

	var seen []milestone
	_, err := p.Process(context.Background(), "http://example.com/a.mp3", "a.mp3",
		func(progress int, status domain.MeetingStatus, message string) {
			seen = append(seen, milestone{progress: progress, status: status})
		})
	if err == nil {
		t.Fatal("expected transcription failure to abort the pipeline")
	}

	if len(seen) != 1 || seen[0].progress != 20 {
		t.Errorf("expected only the transcribing milestone, got %v", seen)
	}
}

func TestPipeline_ProcessNilCallback(t *testing.T) {
	p := New(ai.NewChain())

	if _, err := p.Process(context.Background(), "http://example.com/a.mp3", "a.mp3", nil); err != nil {
		t.Fatalf("unexpected error with nil callback: %v", err)
	}
}
