package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/logger"
)

// Redis key layout. Job records are retained after completion and after
// permanent failure so operators can inspect them.
const (
	keyPending   = "audioq:pending" // list of job ids, LPUSH head / BRPOP tail
	keyDelayed   = "audioq:delayed" // zset of job ids scored by ready-at unix ms
	keyDead      = "audioq:dead"    // list of permanently failed job ids
	keyJobPrefix = "audioq:job:"    // hash per job
)

// Hash fields on a job record.
const (
	fieldData     = "data"
	fieldState    = "state"
	fieldProgress = "progress"
	fieldError    = "error"
)

// Job states recorded on the job hash.
const (
	StateWaiting   = "waiting"
	StateActive    = "active"
	StateDelayed   = "delayed"
	StateCompleted = "completed"
	StateDead      = "dead"
)

// Options tunes the retry policy.
type Options struct {
	// MaxAttempts is the delivery attempt ceiling, including the first.
	MaxAttempts int
	// BackoffBase is the delay before the second attempt; it doubles for
	// each further attempt.
	BackoffBase time.Duration
}

// DefaultOptions mirrors the retry policy the service has always run
// with: three attempts, 2s/4s backoff.
func DefaultOptions() *Options {
	return &Options{
		MaxAttempts: 3,
		BackoffBase: 2 * time.Second,
	}
}

// Backoff returns the delay applied after a failure of the given 1-based
// attempt: base after the first, doubling for each subsequent one.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base << (attempt - 1)
}

// RedisQueue is a durable at-least-once FIFO queue for audio-processing
// jobs. BRPOP hands each pending id to exactly one consumer; retries go
// through the delayed zset and are promoted on dequeue, so a retried job
// may overtake newly enqueued ones (FIFO is best-effort, not strict).
type RedisQueue struct {
	client *redis.Client
	opts   *Options
}

// NewRedisQueue creates a queue bound to the given Redis client.
// Parameters:
//   - client: connected Redis client.
//   - opts: retry policy; nil uses DefaultOptions.
// Returns:
//   - *RedisQueue: initialized queue.
func NewRedisQueue(client *redis.Client, opts *Options) *RedisQueue {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &RedisQueue{client: client, opts: opts}
}

// Enqueue admits a job and returns its id. The job record is written
// before the id becomes visible on the pending list.
func (q *RedisQueue) Enqueue(ctx context.Context, job *domain.AudioJob) (string, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	job.Attempt = 1
	job.EnqueuedAt = time.Now().UTC()

	if err := q.writeJob(ctx, job, StateWaiting); err != nil {
		return "", err
	}
	if err := q.client.LPush(ctx, keyPending, job.ID).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job.ID, nil
}

// Dequeue blocks until a job is available or ctx is cancelled. Due
// delayed jobs are promoted ahead of each wait so backoff expiry does
// not depend on new enqueues.
func (q *RedisQueue) Dequeue(ctx context.Context) (*domain.AudioJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := q.promoteDue(ctx); err != nil {
			logger.CtxWarn(ctx, "Failed to promote delayed jobs: %v", err)
		}

		res, err := q.client.BRPop(ctx, time.Second, keyPending).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // timed out, loop and re-check ctx
			}
			return nil, fmt.Errorf("failed to dequeue job: %w", err)
		}

		// res is [key, value]
		jobID := res[1]
		data, err := q.client.HGet(ctx, keyJobPrefix+jobID, fieldData).Result()
		if err != nil {
			// The id is off the pending list but the record could not be
			// read. Push it back so a transient failure does not lose the
			// job.
			if pushErr := q.client.RPush(ctx, keyPending, jobID).Err(); pushErr != nil {
				logger.CtxError(ctx, "Failed to requeue job %s after read failure: %v", jobID, pushErr)
			}
			return nil, fmt.Errorf("failed to read job record: %w", err)
		}

		job, err := decodeJob(data)
		if err != nil {
			// Corrupt record; requeueing would spin on it forever.
			logger.CtxError(ctx, "Dequeued job %s has corrupt record, skipping: %v", jobID, err)
			continue
		}

		if err := q.client.HSet(ctx, keyJobPrefix+jobID, fieldState, StateActive).Err(); err != nil {
			// The job is already in hand; hand it out rather than lose it
			// over a bookkeeping write.
			logger.CtxWarn(ctx, "Failed to mark job %s active: %v", jobID, err)
		}
		return job, nil
	}
}

// Complete marks a job finished. The record is retained.
func (q *RedisQueue) Complete(ctx context.Context, job *domain.AudioJob) error {
	return q.client.HSet(ctx, keyJobPrefix+job.ID,
		fieldState, StateCompleted,
		fieldProgress, 100,
	).Err()
}

// Fail records a failed attempt. Below the attempt ceiling the job is
// rescheduled with exponential backoff and Fail reports retried=true;
// at the ceiling it moves to the dead list, retained for inspection.
func (q *RedisQueue) Fail(ctx context.Context, job *domain.AudioJob, cause error) (retried bool, err error) {
	job.LastError = cause.Error()

	if job.Attempt >= q.opts.MaxAttempts {
		if err := q.writeJob(ctx, job, StateDead); err != nil {
			return false, err
		}
		if err := q.client.HSet(ctx, keyJobPrefix+job.ID, fieldError, job.LastError).Err(); err != nil {
			return false, err
		}
		if err := q.client.LPush(ctx, keyDead, job.ID).Err(); err != nil {
			return false, fmt.Errorf("failed to move job to dead list: %w", err)
		}
		return false, nil
	}

	delay := Backoff(q.opts.BackoffBase, job.Attempt)
	job.Attempt++

	if err := q.writeJob(ctx, job, StateDelayed); err != nil {
		return false, err
	}
	readyAt := time.Now().Add(delay).UnixMilli()
	if err := q.client.ZAdd(ctx, keyDelayed, redis.Z{
		Score:  float64(readyAt),
		Member: job.ID,
	}).Err(); err != nil {
		return false, fmt.Errorf("failed to schedule retry: %w", err)
	}
	return true, nil
}

// RecordProgress stores the latest fractional progress on the job record.
func (q *RedisQueue) RecordProgress(ctx context.Context, jobID string, progress int) error {
	return q.client.HSet(ctx, keyJobPrefix+jobID, fieldProgress, progress).Err()
}

// promoteDue moves delayed jobs whose backoff expired onto the pending
// list. RPUSH puts them at the pop side, so retries run before newer
// work.
func (q *RedisQueue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	ids, err := q.client.ZRangeByScore(ctx, keyDelayed, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return err
	}

	for _, id := range ids {
		removed, err := q.client.ZRem(ctx, keyDelayed, id).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue // another consumer promoted it first
		}
		if err := q.client.HSet(ctx, keyJobPrefix+id, fieldState, StateWaiting).Err(); err != nil {
			return err
		}
		if err := q.client.RPush(ctx, keyPending, id).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (q *RedisQueue) writeJob(ctx context.Context, job *domain.AudioJob, state string) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.HSet(ctx, keyJobPrefix+job.ID,
		fieldData, string(data),
		fieldState, state,
	).Err(); err != nil {
		return fmt.Errorf("failed to write job record: %w", err)
	}
	return nil
}

func decodeJob(data string) (*domain.AudioJob, error) {
	var job domain.AudioJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}
