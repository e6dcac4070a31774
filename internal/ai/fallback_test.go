package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
)

func TestHeuristicActionItems(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		wantCount  int
		wantText   string
	}{
		{
			name:       "single trigger phrase",
			transcript: "We shipped the release. Alice will update the changelog. The weather is nice.",
			wantCount:  1,
			wantText:   "Alice will update the changelog",
		},
		{
			name:       "multiple trigger phrases",
			transcript: "Bob, you need to follow up with legal. We should document the rollout. Everything else looks fine.",
			wantCount:  2,
		},
		{
			name:       "no trigger phrases",
			transcript: "The demo went well. Everyone enjoyed it.",
			wantCount:  0,
		},
		{
			name:       "case insensitive matching",
			transcript: "We MUST rotate the credentials before launch.",
			wantCount:  1,
		},
		{
			name:       "empty transcript",
			transcript: "",
			wantCount:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := HeuristicActionItems(tt.transcript)
			if len(items) != tt.wantCount {
				t.Fatalf("expected %d items, got %d: %v", tt.wantCount, len(items), items)
			}
			if tt.wantText != "" && items[0].Text != tt.wantText {
				t.Errorf("expected first item %q, got %q", tt.wantText, items[0].Text)
			}
		})
	}
}

func TestHeuristicActionItems_CapAndShape(t *testing.T) {
	// Eight actionable sentences; only five should survive.
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		sb.WriteString("Someone will handle task number ")
		sb.WriteString(strings.Repeat("x", i+1))
		sb.WriteString(". ")
	}

	items := HeuristicActionItems(sb.String())
	if len(items) != 5 {
		t.Fatalf("expected cap of 5 items, got %d", len(items))
	}
	for i, item := range items {
		if item.Priority != domain.PriorityMedium {
			t.Errorf("item %d: expected medium priority, got %q", i, item.Priority)
		}
		if item.Assignee != "" {
			t.Errorf("item %d: expected no assignee, got %q", i, item.Assignee)
		}
	}
	if items[0].ID != "1" || items[4].ID != "5" {
		t.Errorf("expected sequential ids 1..5, got %q..%q", items[0].ID, items[4].ID)
	}
}

func TestFallbackProvider_ExtractActionItems(t *testing.T) {
	p := NewFallbackProvider()
	ctx := context.Background()

	// A transcript with a trigger phrase yields heuristic items.
	items, err := p.ExtractActionItems(ctx, "Carol will prepare the report.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || !strings.Contains(items[0].Text, "Carol") {
		t.Errorf("expected one heuristic item, got %v", items)
	}

	// Without triggers the fixed placeholder list comes back, never empty.
	items, err = p.ExtractActionItems(ctx, "Nothing actionable here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 placeholder items, got %d", len(items))
	}
	if items[0].Assignee == "" {
		t.Error("placeholder items should carry assignees")
	}
}

func TestFallbackProvider_TranscribeAndSummarize(t *testing.T) {
	p := NewFallbackProvider()
	ctx := context.Background()

	tr, err := p.Transcribe(ctx, "http://example.com/a.mp3", "a.mp3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Text == "" {
		t.Error("expected non-empty canned transcript")
	}
	if tr.Duration <= 0 {
		t.Errorf("expected positive estimated duration, got %d", tr.Duration)
	}

	summary, err := p.Summarize(ctx, tr.Text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary == "" {
		t.Error("expected non-empty canned summary")
	}
}
