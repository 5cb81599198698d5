package image

import (
	"context"
	"fmt"

	"promoforge/internal/genai"
)

// GeminiGenerator adapts the Gemini client to the Generator contract.
type GeminiGenerator struct {
	client *genai.Client
}

func NewGeminiGenerator(client *genai.Client) *GeminiGenerator {
	return &GeminiGenerator{client: client}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	asset, err := g.client.GenerateImage(ctx, genai.ImageRequest{
		Prompt:     BuildPromotionalPrompt(req),
		Locale:     req.Locale,
		RequestID:  req.RequestID,
		Width:      req.Width,
		Height:     req.Height,
		SourceData: req.Source.Data,
		SourceMIME: req.Source.MIME,
	})
	if err != nil {
		return nil, err
	}
	if asset == nil || len(asset.Data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	return &Result{
		Data:   asset.Data,
		MIME:   asset.MIME,
		Width:  asset.Width,
		Height: asset.Height,
	}, nil
}

var _ Generator = (*GeminiGenerator)(nil)
