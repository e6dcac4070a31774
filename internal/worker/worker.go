package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/logger"
	"github.com/shahadulhaider/meeting-note-taker/internal/pipeline"
	"github.com/shahadulhaider/meeting-note-taker/internal/realtime"
)

// Queue is the consumer-side view of the job queue.
type Queue interface {
	Dequeue(ctx context.Context) (*domain.AudioJob, error)
	Complete(ctx context.Context, job *domain.AudioJob) error
	Fail(ctx context.Context, job *domain.AudioJob, cause error) (retried bool, err error)
	RecordProgress(ctx context.Context, jobID string, progress int) error
}

// Publisher delivers progress events to subscribed clients.
type Publisher interface {
	Publish(room string, event *domain.ProgressEvent)
}

// MeetingStore is the slice of the meeting repository the worker needs.
type MeetingStore interface {
	UpdateStatus(ctx context.Context, id string, status domain.MeetingStatus) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
}

// TranscriptStore persists pipeline results.
type TranscriptStore interface {
	Upsert(ctx context.Context, transcript *domain.Transcript) error
}

// Pool runs a fixed number of workers that drain the audio queue and
// drive recordings through the processing pipeline.
type Pool struct {
	queue       Queue
	pipe        *pipeline.Pipeline
	meetings    MeetingStore
	transcripts TranscriptStore
	publisher   Publisher
	concurrency int
}

// NewPool creates a worker pool.
// Parameters:
//   - queue: job source.
//   - pipe: processing pipeline.
//   - meetings: meeting status store.
//   - transcripts: transcript store.
//   - publisher: realtime event sink.
//   - concurrency: number of workers; values below 1 become 1.
// Returns:
//   - *Pool: initialized pool; call Run to start it.
func NewPool(queue Queue, pipe *pipeline.Pipeline, meetings MeetingStore, transcripts TranscriptStore, publisher Publisher, concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		queue:       queue,
		pipe:        pipe,
		meetings:    meetings,
		transcripts: transcripts,
		publisher:   publisher,
		concurrency: concurrency,
	}
}

// Run starts the workers and blocks until ctx is cancelled and all
// in-flight jobs have finished.
func (p *Pool) Run(ctx context.Context) {
	logger.CtxInfo(ctx, "Starting %d audio workers", p.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}
	wg.Wait()

	logger.CtxInfo(ctx, "All audio workers stopped")
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			logger.CtxError(ctx, "Worker %d failed to dequeue: %v", id, err)
			time.Sleep(time.Second)
			continue
		}
		p.process(ctx, job)
	}
}

// process drives one job through the pipeline and records the outcome.
func (p *Pool) process(ctx context.Context, job *domain.AudioJob) {
	ctx = logger.SetJobID(ctx, job.ID)
	ctx = logger.SetMeetingID(ctx, job.MeetingID)
	ctx = logger.SetUserID(ctx, job.UserID)

	logger.CtxInfo(ctx, "Processing job (attempt %d)", job.Attempt)

	if err := p.meetings.UpdateStatus(ctx, job.MeetingID, domain.MeetingStatusProcessing); err != nil {
		logger.CtxError(ctx, "Failed to mark meeting processing: %v", err)
	}

	started := time.Now()
	lastStatus := domain.MeetingStatusProcessing

	result, err := p.pipe.Process(ctx, job.AudioURL, job.FileName, func(progress int, status domain.MeetingStatus, message string) {
		if status != lastStatus {
			if uerr := p.meetings.UpdateStatus(ctx, job.MeetingID, status); uerr != nil {
				logger.CtxWarn(ctx, "Failed to update meeting status to %s: %v", status, uerr)
			}
			lastStatus = status
		}
		if perr := p.queue.RecordProgress(ctx, job.ID, progress); perr != nil {
			logger.CtxWarn(ctx, "Failed to record job progress: %v", perr)
		}
		p.publish(job, &domain.ProgressEvent{
			JobID:     job.ID,
			MeetingID: job.MeetingID,
			Status:    status,
			Progress:  progress,
			Message:   message,
		})
	})
	if err != nil {
		p.handleFailure(ctx, job, err)
		return
	}

	p.handleSuccess(ctx, job, result, started)
}

func (p *Pool) handleSuccess(ctx context.Context, job *domain.AudioJob, result *pipeline.Result, started time.Time) {
	transcript := &domain.Transcript{
		MeetingID:   job.MeetingID,
		Content:     result.Transcript,
		Summary:     result.Summary,
		ActionItems: result.ActionItems,
		Meta: domain.Metadata{
			"processingTimeMs": result.ProcessingTime.Milliseconds(),
			"audioLength":      result.AudioLength,
		},
	}
	if err := p.transcripts.Upsert(ctx, transcript); err != nil {
		p.handleFailure(ctx, job, err)
		return
	}

	if err := p.meetings.UpdateFields(ctx, job.MeetingID, map[string]interface{}{
		"status":   domain.MeetingStatusCompleted,
		"duration": result.AudioLength,
	}); err != nil {
		p.handleFailure(ctx, job, err)
		return
	}

	if err := p.queue.Complete(ctx, job); err != nil {
		logger.CtxWarn(ctx, "Failed to mark job complete: %v", err)
	}

	logger.FromContext(ctx).
		WithField(logger.FieldDurationMs, time.Since(started).Milliseconds()).
		Info("Job completed")

	p.publish(job, &domain.ProgressEvent{
		JobID:     job.ID,
		MeetingID: job.MeetingID,
		Status:    domain.MeetingStatusCompleted,
		Progress:  100,
		Message:   "Processing completed",
		Data: &domain.ProgressResult{
			Transcript:  result.Transcript,
			Summary:     result.Summary,
			ActionItems: result.ActionItems,
		},
	})
}

// handleFailure records a failed attempt. The meeting is marked failed
// even when a retry is scheduled; a successful retry moves it forward
// again.
func (p *Pool) handleFailure(ctx context.Context, job *domain.AudioJob, cause error) {
	logger.CtxError(ctx, "Job failed on attempt %d: %v", job.Attempt, cause)

	retried, err := p.queue.Fail(ctx, job, cause)
	if err != nil {
		logger.CtxError(ctx, "Failed to record job failure: %v", err)
	}

	if uerr := p.meetings.UpdateStatus(ctx, job.MeetingID, domain.MeetingStatusFailed); uerr != nil {
		logger.CtxError(ctx, "Failed to mark meeting failed: %v", uerr)
	}

	message := "Audio processing failed"
	if retried {
		message = "Audio processing failed, retrying"
	}
	p.publish(job, &domain.ProgressEvent{
		JobID:     job.ID,
		MeetingID: job.MeetingID,
		Status:    domain.MeetingStatusFailed,
		Message:   message,
		Error:     cause.Error(),
	})
}

// publish sends an event to both the owner's user room and the
// meeting's room.
func (p *Pool) publish(job *domain.AudioJob, event *domain.ProgressEvent) {
	p.publisher.Publish(realtime.UserRoom(job.UserID), event)
	p.publisher.Publish(realtime.MeetingRoom(job.MeetingID), event)
}
