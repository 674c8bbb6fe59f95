package analyzer

import (
	"context"

	"golang.org/x/time/rate"
)

// LLMClient abstracts the generative backend so it can be swapped or faked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt, params GenerationParams) (string, error)
}

// GenerationParams bounds a single generation. Zero values are left to the backend.
type GenerationParams struct {
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	TopK            int
}

// DefaultParams keeps output short and low-variance.
func DefaultParams() GenerationParams {
	return GenerationParams{
		MaxOutputTokens: 1024,
		Temperature:     0.3,
		TopP:            0.8,
		TopK:            40,
	}
}

// LLMSettings is the provider-independent configuration handed to concrete backends.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

type rateLimitedLLM struct {
	next    LLMClient
	limiter *rate.Limiter
}

// RateLimited waits on limiter before every call to next. A nil limiter returns next unchanged.
func RateLimited(next LLMClient, limiter *rate.Limiter) LLMClient {
	if limiter == nil {
		return next
	}
	return &rateLimitedLLM{next: next, limiter: limiter}
}

func (r *rateLimitedLLM) Complete(ctx context.Context, prompt Prompt, params GenerationParams) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Complete(ctx, prompt, params)
}
