package domain

import "time"

// MeetingStatus represents the lifecycle status of a meeting recording.
// Values include MeetingStatusPending through MeetingStatusFailed; a meeting
// always ends in MeetingStatusCompleted or MeetingStatusFailed.
type MeetingStatus string

const (
	MeetingStatusPending      MeetingStatus = "pending"
	MeetingStatusUploading    MeetingStatus = "uploading"
	MeetingStatusProcessing   MeetingStatus = "processing"
	MeetingStatusTranscribing MeetingStatus = "transcribing"
	MeetingStatusSummarizing  MeetingStatus = "summarizing"
	MeetingStatusCompleted    MeetingStatus = "completed"
	MeetingStatusFailed       MeetingStatus = "failed"
)

// Terminal reports whether the status is a terminal state that stops
// further worker mutation of the meeting.
func (s MeetingStatus) Terminal() bool {
	return s == MeetingStatusCompleted || s == MeetingStatusFailed
}

// Meeting represents a meeting recording owned by a single user.
// It is mutated only by the owning user's requests and by the worker
// (status transitions, job id assignment, duration).
type Meeting struct {
	ID          string        `gorm:"type:text;primaryKey" json:"id"`
	UserID      string        `gorm:"type:text;not null;index:idx_meetings_user" json:"userId"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	AudioURL    string        `gorm:"type:text" json:"audioUrl,omitempty"`
	Status      MeetingStatus `gorm:"type:varchar(50);index:idx_meetings_status;default:pending" json:"status"`
	JobID       string        `gorm:"type:varchar(255)" json:"jobId,omitempty"`
	Duration    int           `json:"duration,omitempty"` // seconds
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// TableName returns the database table name for Meeting.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Meeting) TableName() string {
	return "meetings"
}

// User represents an authenticated user as reported by the identity
// provider. Users are not persisted locally; the identity provider owns
// the account record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
