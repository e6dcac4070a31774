package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shahadulhaider/meeting-note-taker/internal/ai"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/pipeline"
	"github.com/shahadulhaider/meeting-note-taker/internal/realtime"
)

type fakeQueue struct {
	mu        sync.Mutex
	jobs      []*domain.AudioJob
	completed []string
	failures  []string
	progress  []int
	retry     bool
}

func (f *fakeQueue) Dequeue(ctx context.Context) (*domain.AudioJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.jobs) == 0 {
		return nil, context.Canceled
	}
	job := f.jobs[0]
	f.jobs = f.jobs[1:]
	return job, nil
}

func (f *fakeQueue) Complete(ctx context.Context, job *domain.AudioJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, job.ID)
	return nil
}

func (f *fakeQueue) Fail(ctx context.Context, job *domain.AudioJob, cause error) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, job.ID)
	return f.retry, nil
}

func (f *fakeQueue) RecordProgress(ctx context.Context, jobID string, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, progress)
	return nil
}

type fakeMeetings struct {
	mu       sync.Mutex
	statuses []domain.MeetingStatus
	fields   []map[string]interface{}
}

func (f *fakeMeetings) UpdateStatus(ctx context.Context, id string, status domain.MeetingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeMeetings) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = append(f.fields, fields)
	return nil
}

type fakeTranscripts struct {
	mu      sync.Mutex
	upserts []*domain.Transcript
}

func (f *fakeTranscripts) Upsert(ctx context.Context, transcript *domain.Transcript) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, transcript)
	return nil
}

type publishedEvent struct {
	room  string
	event *domain.ProgressEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(room string, event *domain.ProgressEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{room: room, event: event})
}

func (f *fakePublisher) forRoom(room string) []*domain.ProgressEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ProgressEvent
	for _, pe := range f.events {
		if pe.room == room {
			out = append(out, pe.event)
		}
	}
	return out
}

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

func testJob() *domain.AudioJob {
	return &domain.AudioJob{
		ID:        "job-1",
		MeetingID: "meeting-1",
		UserID:    "user-1",
		AudioURL:  "http://example.com/a.mp3",
		FileName:  "a.mp3",
		Attempt:   1,
	}
}

func TestPool_RunProcessesJobToCompletion(t *testing.T) {
	fq := &fakeQueue{jobs: []*domain.AudioJob{testJob()}}
	fm := &fakeMeetings{}
	ft := &fakeTranscripts{}
	fp := &fakePublisher{}

	// An empty chain keeps the whole run deterministic and offline.
	pool := NewPool(fq, pipeline.New(ai.NewChain()), fm, ft, fp, 2)
	pool.Run(context.Background())

	if len(fq.completed) != 1 || fq.completed[0] != "job-1" {
		t.Fatalf("expected job-1 completed, got %v", fq.completed)
	}
	if len(fq.failures) != 0 {
		t.Fatalf("expected no failures, got %v", fq.failures)
	}

	if len(ft.upserts) != 1 {
		t.Fatalf("expected one transcript upsert, got %d", len(ft.upserts))
	}
	tr := ft.upserts[0]
	if tr.MeetingID != "meeting-1" {
		t.Errorf("transcript bound to %q, want meeting-1", tr.MeetingID)
	}
	if tr.Content == "" || tr.Summary == "" || len(tr.ActionItems) == 0 {
		t.Error("expected transcript, summary and action items to be populated")
	}

	// The meeting walks processing -> transcribing -> summarizing, then
	// lands on completed via the field update.
	wantStatuses := []domain.MeetingStatus{
		domain.MeetingStatusProcessing,
		domain.MeetingStatusTranscribing,
		domain.MeetingStatusSummarizing,
	}
	if len(fm.statuses) != len(wantStatuses) {
		t.Fatalf("expected statuses %v, got %v", wantStatuses, fm.statuses)
	}
	for i := range wantStatuses {
		if fm.statuses[i] != wantStatuses[i] {
			t.Errorf("status %d: got %q, want %q", i, fm.statuses[i], wantStatuses[i])
		}
	}
	if len(fm.fields) != 1 || fm.fields[0]["status"] != domain.MeetingStatusCompleted {
		t.Errorf("expected completion field update, got %v", fm.fields)
	}

	wantProgress := []int{20, 50, 60, 80, 90}
	if len(fq.progress) != len(wantProgress) {
		t.Fatalf("expected progress %v, got %v", wantProgress, fq.progress)
	}
	for i := range wantProgress {
		if fq.progress[i] != wantProgress[i] {
			t.Errorf("progress %d: got %d, want %d", i, fq.progress[i], wantProgress[i])
		}
	}
}

func TestPool_PublishesToUserAndMeetingRooms(t *testing.T) {
	fq := &fakeQueue{jobs: []*domain.AudioJob{testJob()}}
	fp := &fakePublisher{}

	pool := NewPool(fq, pipeline.New(ai.NewChain()), &fakeMeetings{}, &fakeTranscripts{}, fp, 1)
	pool.Run(context.Background())

	userEvents := fp.forRoom(realtime.UserRoom("user-1"))
	meetingEvents := fp.forRoom(realtime.MeetingRoom("meeting-1"))

	if len(userEvents) == 0 {
		t.Fatal("expected events in the user room")
	}
	if len(userEvents) != len(meetingEvents) {
		t.Fatalf("room event counts differ: user=%d meeting=%d", len(userEvents), len(meetingEvents))
	}

	final := userEvents[len(userEvents)-1]
	if final.Status != domain.MeetingStatusCompleted || final.Progress != 100 {
		t.Errorf("expected terminal completed event at 100, got %+v", final)
	}
	if final.Data == nil || final.Data.Transcript == "" {
		t.Error("expected terminal event to carry the pipeline result")
	}
}

func TestPool_HandlesFailureWithRetry(t *testing.T) {
	fq := &fakeQueue{jobs: []*domain.AudioJob{testJob()}, retry: true}
	fm := &fakeMeetings{}
	ft := &fakeTranscripts{}
	fp := &fakePublisher{}

	pool := NewPool(fq, pipeline.New(ai.NewChain(failingProvider{})), fm, ft, fp, 1)
	pool.Run(context.Background())

	if len(fq.failures) != 1 {
		t.Fatalf("expected one recorded failure, got %d", len(fq.failures))
	}
	if len(fq.completed) != 0 {
		t.Errorf("expected no completions, got %v", fq.completed)
	}
	if len(ft.upserts) != 0 {
		t.Errorf("expected no transcript writes, got %d", len(ft.upserts))
	}

	last := fm.statuses[len(fm.statuses)-1]
	if last != domain.MeetingStatusFailed {
		t.Errorf("expected meeting marked failed, got %q", last)
	}

	events := fp.forRoom(realtime.UserRoom("user-1"))
	if len(events) == 0 {
		t.Fatal("expected failure event")
	}
	final := events[len(events)-1]
	if final.Status != domain.MeetingStatusFailed || final.Error == "" {
		t.Errorf("expected failed event with error, got %+v", final)
	}
	if !strings.Contains(final.Message, "retrying") {
		t.Errorf("expected retry notice in message, got %q", final.Message)
	}
}

func TestNewPool_ClampsConcurrency(t *testing.T) {
	pool := NewPool(&fakeQueue{}, pipeline.New(ai.NewChain()), &fakeMeetings{}, &fakeTranscripts{}, &fakePublisher{}, 0)
	if pool.concurrency != 1 {
		t.Errorf("expected concurrency clamped to 1, got %d", pool.concurrency)
	}
}
