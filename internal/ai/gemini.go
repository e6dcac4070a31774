package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/prompts"
)

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// GeminiProvider implements Provider against the Google Generative
// Language API.
type GeminiProvider struct {
	client  *resty.Client
	fetcher *resty.Client
	baseURL string
	model   string
	apiKey  string
}

// NewGeminiProvider creates a new Gemini provider.
// Parameters:
//   - cfg: provider configuration including API key and model.
// Returns:
//   - *GeminiProvider: initialized provider client.
func NewGeminiProvider(cfg *GeminiConfig) *GeminiProvider {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(5 * time.Minute)

	fetcher := resty.New()
	fetcher.SetTimeout(5 * time.Minute)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	return &GeminiProvider{
		client:  client,
		fetcher: fetcher,
		baseURL: baseURL,
		model:   model,
		apiKey:  cfg.APIKey,
	}
}

// Name identifies the provider in logs.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Generative Language API request/response structures
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Transcribe fetches the audio and submits it inline for transcription.
// Gemini does not report audio duration, so it is estimated from the
// transcript length.
func (p *GeminiProvider) Transcribe(ctx context.Context, audioURL, fileName string) (*Transcription, error) {
	resp, err := p.fetcher.R().SetContext(ctx).Get(audioURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("failed to fetch audio: HTTP %d", resp.StatusCode())
	}

	mimeType := mime.TypeByExtension(filepath.Ext(fileName))
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}

	text, err := p.generate(ctx, geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: "Transcribe this meeting recording verbatim. Return only the transcript text."},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(resp.Body()),
				}},
			},
		}},
	})
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("transcription returned empty text")
	}

	return &Transcription{Text: text, Duration: estimateDuration(text)}, nil
}

// Summarize submits the transcript with the fixed summary instruction.
func (p *GeminiProvider) Summarize(ctx context.Context, transcript string) (string, error) {
	prompt := prompts.SummarySystemPrompt + "\n\n" + prompts.SummaryUserPrompt + transcript
	return p.generate(ctx, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
}

// ExtractActionItems requests a structured action item list. Gemini often
// wraps the array in markdown, which parseActionItems tolerates.
func (p *GeminiProvider) ExtractActionItems(ctx context.Context, transcript string) (domain.ActionItems, error) {
	prompt := prompts.ActionItemsSystemPrompt + "\n\n" + prompts.ActionItemsUserPrompt + transcript
	text, err := p.generate(ctx, geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return nil, err
	}
	return parseActionItems(text), nil
}

func (p *GeminiProvider) generate(ctx context.Context, req geminiRequest) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)

	var result geminiResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("key", p.apiKey).
		SetBody(req).
		SetResult(&result).
		Post(endpoint)

	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
		if result.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), result.Error.Message)
		}
		return "", fmt.Errorf("Gemini API returned error: %s", errorMsg)
	}
	if result.Error != nil {
		return "", fmt.Errorf("Gemini API error: %s", result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response (status: %d)", resp.StatusCode())
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
