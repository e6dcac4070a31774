package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shahadulhaider/meeting-note-taker/internal/config"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"gorm.io/gorm"
)

// openTestDB goes through InitDB so the tests run against the same
// pragmas and migrations as production, foreign key enforcement
// included.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "app.db"),
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	return db
}

func TestDeleteMeetingRemovesTranscript(t *testing.T) {
	db := openTestDB(t)
	meetings := NewMeetingRepository(db)
	transcripts := NewTranscriptRepository(db)
	ctx := context.Background()

	meeting := &domain.Meeting{
		ID:     "meeting-1",
		UserID: "user-1",
		Title:  "Weekly sync",
		Status: domain.MeetingStatusCompleted,
	}
	if err := meetings.Create(ctx, meeting); err != nil {
		t.Fatalf("Create meeting failed: %v", err)
	}
	if err := transcripts.Upsert(ctx, &domain.Transcript{
		MeetingID: meeting.ID,
		Content:   "Discussed the roadmap.",
		Summary:   "Roadmap discussion.",
	}); err != nil {
		t.Fatalf("Upsert transcript failed: %v", err)
	}

	got, err := transcripts.GetByMeetingID(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("GetByMeetingID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a transcript before the delete")
	}

	if err := meetings.Delete(ctx, meeting.ID); err != nil {
		t.Fatalf("Delete meeting failed: %v", err)
	}

	got, err = transcripts.GetByMeetingID(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("GetByMeetingID after delete failed: %v", err)
	}
	if got != nil {
		t.Errorf("transcript survived the meeting delete: %+v", got)
	}

	exists, err := transcripts.ExistsForMeeting(ctx, meeting.ID)
	if err != nil {
		t.Fatalf("ExistsForMeeting failed: %v", err)
	}
	if exists {
		t.Error("ExistsForMeeting reports a transcript after the cascade")
	}
}

func TestTranscriptUpsertReplacesExisting(t *testing.T) {
	db := openTestDB(t)
	meetings := NewMeetingRepository(db)
	transcripts := NewTranscriptRepository(db)
	ctx := context.Background()

	if err := meetings.Create(ctx, &domain.Meeting{
		ID:     "meeting-1",
		UserID: "user-1",
		Title:  "Weekly sync",
		Status: domain.MeetingStatusProcessing,
	}); err != nil {
		t.Fatalf("Create meeting failed: %v", err)
	}

	first := &domain.Transcript{MeetingID: "meeting-1", Content: "first pass"}
	if err := transcripts.Upsert(ctx, first); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if first.ID == "" {
		t.Fatal("Upsert should assign an id")
	}

	// A retried pipeline run converges on its latest result instead of
	// inserting a second row.
	if err := transcripts.Upsert(ctx, &domain.Transcript{
		MeetingID: "meeting-1",
		Content:   "second pass",
	}); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	var count int64
	if err := db.Model(&domain.Transcript{}).Count(&count).Error; err != nil {
		t.Fatalf("counting transcripts: %v", err)
	}
	if count != 1 {
		t.Errorf("expected a single transcript row, got %d", count)
	}

	got, err := transcripts.GetByMeetingID(ctx, "meeting-1")
	if err != nil {
		t.Fatalf("GetByMeetingID failed: %v", err)
	}
	if got.Content != "second pass" {
		t.Errorf("transcript content = %q, want latest result", got.Content)
	}
}

func TestGetOwnedScopesToUser(t *testing.T) {
	db := openTestDB(t)
	meetings := NewMeetingRepository(db)
	ctx := context.Background()

	if err := meetings.Create(ctx, &domain.Meeting{
		ID:     "meeting-1",
		UserID: "user-1",
		Title:  "Weekly sync",
		Status: domain.MeetingStatusPending,
	}); err != nil {
		t.Fatalf("Create meeting failed: %v", err)
	}

	if _, err := meetings.GetOwned(ctx, "meeting-1", "user-1"); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if _, err := meetings.GetOwned(ctx, "meeting-1", "user-2"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound for a stranger, got %v", err)
	}
}
