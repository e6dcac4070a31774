package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TranscriptRepository handles transcript data operations.
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new TranscriptRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *TranscriptRepository: repository instance bound to db.
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Upsert creates the transcript for a meeting, replacing any previous one.
// A transcript is written once per completed meeting; the conflict path
// only fires when a queue retry re-runs a pipeline that already persisted
// before crashing, so converging on the latest result is the right call.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - transcript: transcript record to create or update.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *TranscriptRepository) Upsert(ctx context.Context, transcript *domain.Transcript) error {
	if transcript.ID == "" {
		transcript.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meeting_id"}},
		UpdateAll: true,
	}).Create(transcript).Error
}

// GetByMeetingID retrieves the transcript for a meeting.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - meetingID: owning meeting's ID.
// Returns:
//   - *domain.Transcript: transcript if one exists, nil if not.
//   - error: non-nil if the lookup fails for any other reason.
func (r *TranscriptRepository) GetByMeetingID(ctx context.Context, meetingID string) (*domain.Transcript, error) {
	var transcript domain.Transcript
	err := r.db.WithContext(ctx).First(&transcript, "meeting_id = ?", meetingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// ExistsForMeeting checks whether a meeting has a transcript.
func (r *TranscriptRepository) ExistsForMeeting(ctx context.Context, meetingID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Transcript{}).
		Where("meeting_id = ?", meetingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
