package image

import (
	"context"

	"promoforge/internal/domain"
)

// Request describes one generation call for one requested output size. The
// width/height are the generation resolution, which may be smaller than the
// final target size when the caller upscales locally.
type Request struct {
	Prompt    string
	Purpose   string
	Locale    string
	RequestID string
	Width     int
	Height    int
	Source    domain.SourceImage
}

// Result is the normalized payload returned by a provider.
type Result struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Generator is the contract implemented by all image providers. A call either
// returns bytes plus their dimensions or a typed error; the orchestrator
// treats it as a black box.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
