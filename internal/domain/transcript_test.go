package domain

import (
	"testing"
)

func TestActionItemsValueScanRoundTrip(t *testing.T) {
	items := ActionItems{
		{ID: "1", Text: "Ship the release", Assignee: "Alice", Priority: PriorityHigh},
		{ID: "2", Text: "Write the postmortem", Priority: PriorityMedium},
	}

	value, err := items.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var decoded ActionItems
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(decoded) != 2 {
		t.Fatalf("expected 2 items, got %d", len(decoded))
	}
	if decoded[0].Assignee != "Alice" || decoded[0].Priority != PriorityHigh {
		t.Errorf("first item mangled: %+v", decoded[0])
	}
	if decoded[1].Assignee != "" {
		t.Errorf("expected empty assignee preserved, got %q", decoded[1].Assignee)
	}
}

func TestActionItemsNilHandling(t *testing.T) {
	var items ActionItems
	value, err := items.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if value != "[]" {
		t.Errorf("nil slice should serialize to empty array, got %v", value)
	}

	var decoded ActionItems
	if err := decoded.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if decoded == nil || len(decoded) != 0 {
		t.Errorf("expected empty slice from nil, got %v", decoded)
	}

	if err := decoded.Scan(42); err == nil {
		t.Error("expected error scanning unsupported type")
	}
}

func TestActionItemsScanByteSlice(t *testing.T) {
	var decoded ActionItems
	if err := decoded.Scan([]byte(`[{"id":"1","text":"Review PR"}]`)); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(decoded) != 1 || decoded[0].Text != "Review PR" {
		t.Errorf("unexpected result: %v", decoded)
	}
}

func TestMetadataValueScanRoundTrip(t *testing.T) {
	meta := Metadata{"audioLength": float64(330), "source": "upload"}

	value, err := meta.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var decoded Metadata
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if decoded["source"] != "upload" {
		t.Errorf("expected source preserved, got %v", decoded["source"])
	}
	if decoded["audioLength"] != float64(330) {
		t.Errorf("expected audioLength preserved, got %v", decoded["audioLength"])
	}
}

func TestMeetingStatusTerminal(t *testing.T) {
	tests := []struct {
		status MeetingStatus
		want   bool
	}{
		{MeetingStatusPending, false},
		{MeetingStatusUploading, false},
		{MeetingStatusProcessing, false},
		{MeetingStatusTranscribing, false},
		{MeetingStatusSummarizing, false},
		{MeetingStatusCompleted, true},
		{MeetingStatusFailed, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
