package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/prompts"
)

// maxHeuristicItems caps how many action items the phrase scan yields.
const maxHeuristicItems = 5

// FallbackProvider is the deterministic last-resort variant. It never
// calls the network and never fails, which keeps the summarize and
// extract stages total even with no AI provider configured.
type FallbackProvider struct{}

// NewFallbackProvider creates the deterministic fallback variant.
func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{}
}

// Name identifies the provider in logs.
func (p *FallbackProvider) Name() string {
	return "fallback"
}

// Transcribe returns the canned development transcript. Only reachable
// when no real provider is configured at all.
func (p *FallbackProvider) Transcribe(ctx context.Context, audioURL, fileName string) (*Transcription, error) {
	return &Transcription{
		Text:     placeholderTranscript,
		Duration: estimateDuration(placeholderTranscript),
	}, nil
}

// Summarize returns the fixed placeholder summary.
func (p *FallbackProvider) Summarize(ctx context.Context, transcript string) (string, error) {
	return placeholderSummary, nil
}

// ExtractActionItems scans the transcript for trigger phrases; when the
// scan finds nothing it returns the fixed placeholder list, never an
// empty one.
func (p *FallbackProvider) ExtractActionItems(ctx context.Context, transcript string) (domain.ActionItems, error) {
	if items := HeuristicActionItems(transcript); len(items) > 0 {
		return items, nil
	}
	return PlaceholderActionItems(), nil
}

// HeuristicActionItems splits the transcript into sentences and collects
// those containing an action trigger phrase, capped at maxHeuristicItems.
// Items get sequential ids, medium priority, and no assignee.
// Parameters:
//   - transcript: full transcript text.
// Returns:
//   - domain.ActionItems: matched sentences as action items; may be empty.
func HeuristicActionItems(transcript string) domain.ActionItems {
	sentences := strings.FieldsFunc(transcript, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var items domain.ActionItems
	for _, sentence := range sentences {
		trimmed := strings.TrimSpace(sentence)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, phrase := range prompts.ActionPhrases {
			if strings.Contains(lower, phrase) {
				items = append(items, domain.ActionItem{
					ID:       fmt.Sprintf("%d", len(items)+1),
					Text:     trimmed,
					Priority: domain.PriorityMedium,
				})
				break
			}
		}
		if len(items) == maxHeuristicItems {
			break
		}
	}
	return items
}

// PlaceholderActionItems returns the fixed five-item list used when
// neither a provider nor the heuristic scan produced anything.
func PlaceholderActionItems() domain.ActionItems {
	return domain.ActionItems{
		{ID: "1", Text: "Implement Redis caching for user sessions", Assignee: "Speaker 2", Priority: domain.PriorityHigh},
		{ID: "2", Text: "Complete frontend UI components and dashboard layout", Assignee: "Speaker 3", Priority: domain.PriorityHigh},
		{ID: "3", Text: "Connect frontend to backend API", Assignee: "Speaker 3", Priority: domain.PriorityMedium},
		{ID: "4", Text: "Prepare deployment pipeline", Assignee: "Speaker 1", Priority: domain.PriorityMedium},
		{ID: "5", Text: "Prepare demo for Friday presentation", Assignee: "Team", Priority: domain.PriorityHigh},
	}
}

const placeholderSummary = `This meeting focused on reviewing the current sprint progress and addressing key development tasks. The authentication module has been completed and is ready for testing, while the frontend UI components are 80% complete with an expected completion by tomorrow. The team discussed technical decisions regarding caching strategy, agreeing to use Redis for better scalability. A demo is scheduled for Friday, with a sync-up meeting planned for Thursday to ensure everyone is on track. The main blockers identified were around the caching implementation, which has now been resolved with the Redis decision.`

const placeholderTranscript = `Speaker 1: Good morning everyone. Let's start today's meeting by reviewing our progress on the current sprint.

Speaker 2: Sure. I've completed the authentication module and it's ready for testing. The API endpoints are all working as expected.

Speaker 1: Excellent! That's great progress. What about the frontend integration?

Speaker 3: I'm about 80% done with the UI components. I should have everything ready by tomorrow. I just need to finish the dashboard layout and connect it to the backend.

Speaker 1: Perfect. Are there any blockers we need to address?

Speaker 2: Actually, yes. We need to decide on the caching strategy for the user sessions. Should we use Redis or stick with in-memory caching?

Speaker 1: Let's go with Redis since we're already using it for the job queue. It'll give us better scalability.

Speaker 3: Agreed. I'll update the implementation accordingly.

Speaker 1: Great. So for action items: Speaker 2 will implement Redis caching for sessions, Speaker 3 will complete the frontend by tomorrow, and I'll start preparing the deployment pipeline.

Speaker 2: Sounds good. When do we want to have the first demo ready?

Speaker 1: Let's aim for Friday. That gives us three days to finish everything and do some testing.

Speaker 3: Works for me.

Speaker 1: Alright, let's sync up again on Thursday to make sure we're on track. Thanks everyone!`
