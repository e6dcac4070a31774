package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ActionItemPriority is the priority of an extracted action item.
type ActionItemPriority string

const (
	PriorityLow    ActionItemPriority = "low"
	PriorityMedium ActionItemPriority = "medium"
	PriorityHigh   ActionItemPriority = "high"
)

// ActionItem is a single task extracted from a meeting transcript.
// The ID is scoped to its transcript, not globally unique.
type ActionItem struct {
	ID       string             `json:"id"`
	Text     string             `json:"text"`
	Assignee string             `json:"assignee,omitempty"`
	DueDate  *time.Time         `json:"dueDate,omitempty"`
	Priority ActionItemPriority `json:"priority,omitempty"`
}

// ActionItems is a custom type for storing action item lists as JSON in
// the database.
type ActionItems []ActionItem

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a ActionItems) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *ActionItems) Scan(value interface{}) error {
	if value == nil {
		*a = ActionItems{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan ActionItems")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Metadata is a custom type for storing free-form JSON metadata.
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database serialization.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan Metadata")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, m)
}

// Transcript holds the processed output of a completed meeting. There is
// at most one transcript per meeting; it is written once at pipeline
// completion and never updated afterwards. Deleting the meeting removes
// it via the foreign key cascade.
type Transcript struct {
	ID          string      `gorm:"type:text;primaryKey" json:"id"`
	MeetingID   string      `gorm:"type:text;not null;uniqueIndex:idx_transcripts_meeting" json:"meetingId"`
	Meeting     *Meeting    `gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE" json:"-"`
	Content     string      `gorm:"type:text;not null" json:"content"`
	Summary     string      `gorm:"type:text" json:"summary,omitempty"`
	ActionItems ActionItems `gorm:"type:text" json:"actionItems,omitempty"`
	Meta        Metadata    `gorm:"column:metadata;type:text" json:"metadata,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// TableName returns the database table name for Transcript.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Transcript) TableName() string {
	return "transcripts"
}
