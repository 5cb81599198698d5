// Package longop drives a long-running remote operation through its
// submitted -> polling -> done state machine at a fixed interval, surfacing
// human-readable progress until a terminal state is reached.
package longop

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"promoforge/internal/domain"
	"promoforge/internal/infra"
	"promoforge/internal/providers/video"
)

// DefaultInterval is the fixed delay between status checks. Polling is
// deliberately fixed-interval, not backoff-scheduled, to bound load on the
// remote capability.
const DefaultInterval = 10 * time.Second

// Options configures a Poller.
type Options struct {
	// Interval between status checks; DefaultInterval when zero.
	Interval time.Duration
	// MaxAttempts bounds the number of status checks; 0 polls indefinitely.
	MaxAttempts int
	Logger      *infra.Logger
}

// Poller tracks exactly one operation at a time. Polling two independent
// operations concurrently requires two pollers.
type Poller struct {
	capability  video.Capability
	interval    time.Duration
	maxAttempts int
	logger      *infra.Logger
}

// New constructs a poller over the given capability.
func New(capability video.Capability, opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Poller{
		capability:  capability,
		interval:    interval,
		maxAttempts: opts.MaxAttempts,
		logger:      logger,
	}
}

// Run submits the request, then polls until the operation completes,
// reporting a ProgressEvent per status check with a monotonically increasing
// attempt counter. It returns the resource locator of the finished operation.
// A submission failure is terminal and reported immediately; completion
// without a locator is ErrNoResourceProduced. Cancellation takes effect at
// the next tick boundary.
func (p *Poller) Run(ctx context.Context, req video.Request, onProgress func(domain.ProgressEvent)) (string, error) {
	handle, err := p.capability.Submit(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSubmission, err)
	}

	p.emit(onProgress, 0, "video generation submitted")
	p.logger.Info().
		Str("operation", handle.Name).
		Str("request_id", req.RequestID).
		Msg("longop: operation submitted")

	attempt := 0
	for !handle.Done {
		if p.maxAttempts > 0 && attempt >= p.maxAttempts {
			return "", fmt.Errorf("%w: gave up after %d status checks", domain.ErrPollLimit, attempt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.interval):
		}

		attempt++
		refreshed, err := p.capability.Poll(ctx, handle)
		if err != nil {
			return "", fmt.Errorf("status check %d: %w", attempt, err)
		}
		handle = refreshed
		p.emit(onProgress, attempt, fmt.Sprintf("still generating (status check %d)", attempt))
	}

	if handle.FailureMessage != "" {
		return "", fmt.Errorf("%w: %s", domain.ErrRemoteGeneration, handle.FailureMessage)
	}
	if handle.ResourceURI == "" {
		return "", domain.ErrNoResourceProduced
	}

	p.emit(onProgress, attempt, "finalizing video asset")
	p.logger.Info().
		Str("operation", handle.Name).
		Int("attempts", attempt).
		Msg("longop: operation complete")

	return handle.ResourceURI, nil
}

func (p *Poller) emit(onProgress func(domain.ProgressEvent), attempt int, message string) {
	if onProgress == nil {
		return
	}
	onProgress(domain.ProgressEvent{
		At:      time.Now(),
		Attempt: attempt,
		Message: message,
	})
}
