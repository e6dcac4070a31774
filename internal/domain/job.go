package domain

import "time"

// AudioJob is a unit of audio-processing work. Jobs live only in the
// queue from enqueue to completion or permanent failure; the meeting row
// keeps a pointer to the job id but the job itself is not persisted in
// the relational store.
type AudioJob struct {
	ID        string `json:"id"`
	MeetingID string `json:"meeting_id"`
	UserID    string `json:"user_id"`
	AudioURL  string `json:"audio_url"`
	FileName  string `json:"file_name"`

	// Attempt is the 1-based delivery attempt, maintained by the queue.
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	LastError  string    `json:"last_error,omitempty"`
}

// ProgressEvent is a structured progress update pushed to subscribed
// clients while a job runs. Events are ephemeral: they are transmitted
// over the realtime channel and never persisted.
type ProgressEvent struct {
	JobID     string          `json:"jobId"`
	MeetingID string          `json:"meetingId"`
	Status    MeetingStatus   `json:"status"`
	Progress  int             `json:"progress"` // 0..100
	Message   string          `json:"message,omitempty"`
	Data      *ProgressResult `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ProgressResult carries the final pipeline output on the terminal
// completed event.
type ProgressResult struct {
	Transcript  string      `json:"transcript,omitempty"`
	Summary     string      `json:"summary,omitempty"`
	ActionItems ActionItems `json:"actionItems,omitempty"`
}
