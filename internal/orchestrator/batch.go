// Package orchestrator fans one source image out into N independent
// generation tasks and joins their outcomes into a fixed-size result set.
// Failures are isolated per task: one bad spec or one remote error never
// cancels, delays, or reorders the others.
package orchestrator

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"promoforge/internal/domain"
	"promoforge/internal/infra"
	"promoforge/internal/providers/image"
	"promoforge/internal/resize"
)

// Params carries the contextual parameters shared by every task in a batch.
type Params struct {
	Prompt    string
	Purpose   string
	Locale    string
	RequestID string
	// MaxInFlight caps concurrent remote calls; 0 means unbounded fan-out.
	MaxInFlight int
}

// Orchestrator dispatches batches against a single image generator.
type Orchestrator struct {
	generator image.Generator
	logger    *infra.Logger
}

// New constructs an orchestrator. A nil logger discards output.
func New(generator image.Generator, logger *infra.Logger) *Orchestrator {
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Orchestrator{generator: generator, logger: logger}
}

// Run dispatches one generation task per spec and waits for all of them. The
// returned result has exactly one terminal task per spec, in request order
// regardless of completion order. Run itself only fails on batch-level
// validation: an empty spec list or a missing source image.
func (o *Orchestrator) Run(ctx context.Context, source domain.SourceImage, specs []domain.OutputSpec, params Params) (domain.BatchResult, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: empty spec list", domain.ErrInvalidSpec)
	}
	if source.IsZero() {
		return nil, fmt.Errorf("%w: missing source image", domain.ErrInvalidSpec)
	}

	requestID := params.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	results := make(domain.BatchResult, len(specs))

	var g errgroup.Group
	if params.MaxInFlight > 0 {
		g.SetLimit(params.MaxInFlight)
	}

	for i, spec := range specs {
		i, spec := i, spec
		task := domain.GenerationTask{
			ID:    uuid.NewString(),
			Spec:  spec,
			State: domain.TaskPending,
		}

		// Local validation failures are recorded without dispatching.
		if !spec.Valid() {
			task.Fail(fmt.Errorf("%w: %s", domain.ErrInvalidSpec, spec.Key()))
			results[i] = task
			continue
		}

		g.Go(func() error {
			// Each goroutine writes only its own slot; errors become
			// terminal task states, never group errors.
			results[i] = o.runTask(ctx, task, source, spec, params, requestID)
			return nil
		})
	}

	_ = g.Wait()

	o.logger.Info().
		Str("request_id", requestID).
		Int("specs", len(specs)).
		Int("succeeded", results.Succeeded()).
		Msg("orchestrator: batch complete")

	return results, nil
}

func (o *Orchestrator) runTask(ctx context.Context, task domain.GenerationTask, source domain.SourceImage, spec domain.OutputSpec, params Params, requestID string) domain.GenerationTask {
	genW, genH := spec.GenSize()
	result, err := o.generator.Generate(ctx, image.Request{
		Prompt:    params.Prompt,
		Purpose:   params.Purpose,
		Locale:    params.Locale,
		RequestID: requestID,
		Width:     genW,
		Height:    genH,
		Source:    source,
	})
	if err != nil {
		o.logger.Warn().
			Err(err).
			Str("request_id", requestID).
			Str("spec", spec.Key()).
			Msg("orchestrator: task failed")
		task.Fail(fmt.Errorf("%w: %v", domain.ErrRemoteGeneration, err))
		return task
	}
	if result == nil || len(result.Data) == 0 {
		task.Fail(fmt.Errorf("%w: empty payload", domain.ErrRemoteGeneration))
		return task
	}

	task.Succeed(result.Data, result.MIME, result.Width, result.Height)
	o.logger.Debug().
		Str("request_id", requestID).
		Str("spec", spec.Key()).
		Int("width", result.Width).
		Int("height", result.Height).
		Msg("orchestrator: task succeeded")
	return task
}

// Export letterboxes a succeeded task's payload to the exact target size of
// its spec. It is idempotent and side-effect-free; callers may invoke it once
// per download without re-generating.
func Export(task domain.GenerationTask) ([]byte, error) {
	if task.State != domain.TaskSucceeded {
		return nil, fmt.Errorf("%w: task %s is not succeeded", domain.ErrInvalidSpec, task.ID)
	}
	return resize.Letterbox(task.Payload, task.Spec.TargetWidth, task.Spec.TargetHeight)
}
