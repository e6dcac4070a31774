package ai

import (
	"context"
	"fmt"

	"github.com/shahadulhaider/meeting-note-taker/internal/domain"
	"github.com/shahadulhaider/meeting-note-taker/internal/logger"
)

// Chain tries configured providers in priority order and falls back to
// the deterministic variant when the list exhausts. Transcription is the
// exception: a degraded transcript is useless downstream, so if any real
// provider was attempted and all failed, the chain surfaces the last
// error instead of falling back.
type Chain struct {
	providers []Provider
	fallback  *FallbackProvider
}

// NewChain creates a provider chain. Parameters:
//   - providers: configured variants in priority order; may be empty.
// Returns:
//   - *Chain: chain backed by the given providers plus the deterministic
//     fallback.
func NewChain(providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		fallback:  NewFallbackProvider(),
	}
}

// HasProviders reports whether any real provider is configured.
func (c *Chain) HasProviders() bool {
	return len(c.providers) > 0
}

// Transcribe runs speech-to-text through the first succeeding provider.
// With no providers configured the deterministic transcript is returned;
// with providers configured and all failing, the last error propagates.
func (c *Chain) Transcribe(ctx context.Context, audioURL, fileName string) (*Transcription, error) {
	var lastErr error
	for _, p := range c.providers {
		result, err := p.Transcribe(ctx, audioURL, fileName)
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.FromContext(ctx).
			WithField(logger.FieldProvider, p.Name()).
			WithError(err).
			Warn("Transcription attempt failed")
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all transcription providers failed: %w", lastErr)
	}

	logger.CtxWarn(ctx, "No AI provider configured, using deterministic transcript")
	return c.fallback.Transcribe(ctx, audioURL, fileName)
}

// Summarize produces a summary, degrading to the deterministic
// placeholder when every provider fails. Never returns an error.
func (c *Chain) Summarize(ctx context.Context, transcript string) (string, error) {
	for _, p := range c.providers {
		summary, err := p.Summarize(ctx, transcript)
		if err == nil {
			return summary, nil
		}
		logger.FromContext(ctx).
			WithField(logger.FieldProvider, p.Name()).
			WithError(err).
			Warn("Summary attempt failed")
	}
	return c.fallback.Summarize(ctx, transcript)
}

// ExtractActionItems extracts action items, degrading to the heuristic
// scan (and then the placeholder list) when every provider fails. Never
// returns an error.
func (c *Chain) ExtractActionItems(ctx context.Context, transcript string) (domain.ActionItems, error) {
	for _, p := range c.providers {
		items, err := p.ExtractActionItems(ctx, transcript)
		if err == nil {
			return items, nil
		}
		logger.FromContext(ctx).
			WithField(logger.FieldProvider, p.Name()).
			WithError(err).
			Warn("Action item extraction attempt failed")
	}
	return c.fallback.ExtractActionItems(ctx, transcript)
}
