package video

import (
	"context"

	"promoforge/internal/domain"
	"promoforge/internal/genai"
)

// GeminiCapability adapts the Gemini client's long-running video operations
// to the Capability and Fetcher contracts.
type GeminiCapability struct {
	client *genai.Client
}

func NewGeminiCapability(client *genai.Client) *GeminiCapability {
	return &GeminiCapability{client: client}
}

func (g *GeminiCapability) Submit(ctx context.Context, req Request) (domain.OperationHandle, error) {
	return g.client.SubmitVideo(ctx, genai.VideoRequest{
		Prompt:          req.Prompt,
		Locale:          req.Locale,
		RequestID:       req.RequestID,
		SourceData:      req.Source.Data,
		SourceMIME:      req.Source.MIME,
		AspectRatio:     req.AspectRatio,
		DurationSeconds: req.DurationSeconds,
	})
}

func (g *GeminiCapability) Poll(ctx context.Context, handle domain.OperationHandle) (domain.OperationHandle, error) {
	return g.client.PollOperation(ctx, handle)
}

func (g *GeminiCapability) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	return g.client.FetchResource(ctx, uri)
}

var (
	_ Capability = (*GeminiCapability)(nil)
	_ Fetcher    = (*GeminiCapability)(nil)
)
