package repository

import (
	"context"

	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"gorm.io/gorm"
)

// MeetingRepository handles meeting data operations. Every read is scoped
// to the owning user; callers never see meetings they do not own.
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new MeetingRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *MeetingRepository: repository instance bound to db.
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create inserts a new meeting record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - meeting: meeting record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *MeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

// GetOwned retrieves a meeting by id, constrained to the owning user.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meeting ID.
//   - userID: owning user's ID.
// Returns:
//   - *domain.Meeting: meeting record if found and owned by userID.
//   - error: gorm.ErrRecordNotFound if absent or owned by someone else.
func (r *MeetingRepository) GetOwned(ctx context.Context, id, userID string) (*domain.Meeting, error) {
	var meeting domain.Meeting
	if err := r.db.WithContext(ctx).
		First(&meeting, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

// GetByID retrieves a meeting by id without ownership scoping. Used by the
// worker, which acts on jobs rather than on behalf of a caller.
func (r *MeetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	var meeting domain.Meeting
	if err := r.db.WithContext(ctx).First(&meeting, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &meeting, nil
}

// ListByUser retrieves all meetings for a user, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: owning user's ID.
// Returns:
//   - []domain.Meeting: matching meeting records.
//   - error: non-nil if the query fails.
func (r *MeetingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Meeting, error) {
	var meetings []domain.Meeting
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

// UpdateStatus sets the lifecycle status of a meeting.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meeting ID.
//   - status: new lifecycle status.
// Returns:
//   - error: non-nil if the update fails.
func (r *MeetingRepository) UpdateStatus(ctx context.Context, id string, status domain.MeetingStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// UpdateFields applies a partial update to a meeting row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meeting ID.
//   - fields: column/value pairs to update.
// Returns:
//   - error: non-nil if the update fails.
func (r *MeetingRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete removes a meeting by ID. The transcript row, if any, is removed
// by the foreign key cascade.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: meeting ID to delete.
// Returns:
//   - error: non-nil if the delete fails.
func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Meeting{}, "id = ?", id).Error
}
