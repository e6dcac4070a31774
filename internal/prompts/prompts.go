package prompts

// ============================================================================
// Summarization Prompts
// ============================================================================

// SummarySystemPrompt defines the role for meeting summarization.
const SummarySystemPrompt = `You are a helpful assistant that summarizes meeting transcripts.`

// SummaryUserPrompt is the instruction prefix for summary generation. The
// transcript text is appended after it.
const SummaryUserPrompt = `Please provide a concise summary of the following meeting transcript.
Focus on the main topics discussed, key decisions made, and important points raised.
Keep it under 300 words.

Transcript:
`

// ============================================================================
// Action Item Prompts
// ============================================================================

// ActionItemsSystemPrompt defines the role and output contract for action
// item extraction. The model must return a bare JSON array.
const ActionItemsSystemPrompt = `You are a helpful assistant that extracts action items from meeting transcripts. Always return valid JSON array only, with no additional text.`

// ActionItemsUserPrompt is the instruction prefix for action item
// extraction. The transcript text is appended after it.
const ActionItemsUserPrompt = `Extract action items from the following meeting transcript.
Look for tasks, decisions, next steps, and things people committed to do.
Return them as a JSON array with the following structure:
[{ "id": "1", "text": "action item description", "assignee": "person name if mentioned", "priority": "high/medium/low" }]

If no clear action items are found, return an empty array [].
Only return the JSON array, no additional text or explanation.

Transcript:
`

// ============================================================================
// Shared Lexicon
// ============================================================================

// ActionPhrases is the trigger lexicon for the heuristic action-item
// fallback. A sentence containing any of these counts as a candidate.
var ActionPhrases = []string{
	"will",
	"need to",
	"should",
	"must",
	"have to",
	"going to",
	"action item",
	"next step",
	"follow up",
	"todo",
	"task",
}
