package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/prompts"
)

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	ChatModel       string
	TranscribeModel string
}

// OpenAIProvider implements Provider against the OpenAI REST API
// (or any compatible endpoint).
type OpenAIProvider struct {
	client          *resty.Client
	fetcher         *resty.Client // no auth header; signed URLs carry their own
	baseURL         string
	chatModel       string
	transcribeModel string
}

// NewOpenAIProvider creates a new OpenAI provider.
// Parameters:
//   - cfg: provider configuration including API key and models.
// Returns:
//   - *OpenAIProvider: initialized provider client.
func NewOpenAIProvider(cfg *OpenAIConfig) *OpenAIProvider {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	// Transcription of long recordings is slow; allow generous headroom
	client.SetTimeout(5 * time.Minute)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gpt-3.5-turbo"
	}
	transcribeModel := cfg.TranscribeModel
	if transcribeModel == "" {
		transcribeModel = "whisper-1"
	}

	fetcher := resty.New()
	fetcher.SetTimeout(5 * time.Minute)

	return &OpenAIProvider{
		client:          client,
		fetcher:         fetcher,
		baseURL:         baseURL,
		chatModel:       chatModel,
		transcribeModel: transcribeModel,
	}
}

// Name identifies the provider in logs.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// OpenAI Chat Completion API request/response structures
type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type openAITranscriptionResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Transcribe downloads the audio behind audioURL and submits it to the
// transcriptions endpoint. The verbose_json response format is requested
// so the reported audio duration can be recorded on the meeting.
func (p *OpenAIProvider) Transcribe(ctx context.Context, audioURL, fileName string) (*Transcription, error) {
	audio, err := p.fetchAudio(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	var result openAITranscriptionResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytes.NewReader(audio)).
		SetFormData(map[string]string{
			"model":           p.transcribeModel,
			"language":        "en",
			"response_format": "verbose_json",
		}).
		SetResult(&result).
		Post(p.baseURL + "/audio/transcriptions")

	if err != nil {
		return nil, fmt.Errorf("failed to call transcription API: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
		if result.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), result.Error.Message)
		}
		return nil, fmt.Errorf("transcription API returned error: %s", errorMsg)
	}
	if result.Text == "" {
		return nil, fmt.Errorf("transcription API returned empty text (status: %d)", resp.StatusCode())
	}

	duration := int(result.Duration)
	if duration == 0 {
		duration = estimateDuration(result.Text)
	}

	return &Transcription{Text: result.Text, Duration: duration}, nil
}

// Summarize submits the transcript with the fixed summary instruction.
func (p *OpenAIProvider) Summarize(ctx context.Context, transcript string) (string, error) {
	content, err := p.chat(ctx,
		prompts.SummarySystemPrompt,
		prompts.SummaryUserPrompt+transcript,
		500, 0.7)
	if err != nil {
		return "", err
	}
	return content, nil
}

// ExtractActionItems requests a structured action item list. An
// unparseable model response yields an empty list, not an error; the
// provider did answer, it just answered badly.
func (p *OpenAIProvider) ExtractActionItems(ctx context.Context, transcript string) (domain.ActionItems, error) {
	content, err := p.chat(ctx,
		prompts.ActionItemsSystemPrompt,
		prompts.ActionItemsUserPrompt+transcript,
		500, 0.3)
	if err != nil {
		return nil, err
	}
	return parseActionItems(content), nil
}

func (p *OpenAIProvider) chat(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	req := openAIChatRequest{
		Model: p.chatModel,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	var result openAIChatResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&result).
		Post(p.baseURL + "/chat/completions")

	if err != nil {
		return "", fmt.Errorf("failed to call chat API: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
		if result.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), result.Error.Message)
		}
		return "", fmt.Errorf("chat API returned error: %s", errorMsg)
	}
	if result.Error != nil {
		return "", fmt.Errorf("chat API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat response (status: %d)", resp.StatusCode())
	}

	return result.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) fetchAudio(ctx context.Context, audioURL string) ([]byte, error) {
	resp, err := p.fetcher.R().
		SetContext(ctx).
		Get(audioURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("failed to fetch audio: HTTP %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// parseActionItems decodes a model response expected to be a JSON array,
// tolerating markdown fences or prose around the array itself.
func parseActionItems(content string) domain.ActionItems {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return domain.ActionItems{}
	}

	var raw []struct {
		ID       string `json:"id"`
		Text     string `json:"text"`
		Assignee string `json:"assignee"`
		Priority string `json:"priority"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return domain.ActionItems{}
	}

	items := make(domain.ActionItems, 0, len(raw))
	for i, r := range raw {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		item := domain.ActionItem{
			ID:       r.ID,
			Text:     strings.TrimSpace(r.Text),
			Assignee: r.Assignee,
			Priority: domain.ActionItemPriority(r.Priority),
		}
		if item.ID == "" {
			item.ID = fmt.Sprintf("%d", i+1)
		}
		switch item.Priority {
		case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh:
		default:
			item.Priority = domain.PriorityMedium
		}
		items = append(items, item)
	}
	return items
}
