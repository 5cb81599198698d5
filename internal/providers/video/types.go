package video

import (
	"context"

	"promoforge/internal/domain"
)

// Request describes one long-running video generation submission.
type Request struct {
	Prompt          string
	Locale          string
	RequestID       string
	AspectRatio     string
	DurationSeconds int
	Source          domain.SourceImage
}

// Capability is the contract for providers whose video jobs do not return
// synchronously. Submit starts the operation; Poll returns a refreshed handle
// for it. Both are black boxes to the poller.
type Capability interface {
	Submit(ctx context.Context, req Request) (domain.OperationHandle, error)
	Poll(ctx context.Context, handle domain.OperationHandle) (domain.OperationHandle, error)
}

// Fetcher retrieves the final byte payload behind a resource locator.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (data []byte, mime string, err error)
}
