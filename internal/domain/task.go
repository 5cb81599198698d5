package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SourceImage is the caller-provided conditioning image. It is read-only to
// every component; the orchestrator and poller only ever hand out copies of
// the metadata, never mutate the payload.
type SourceImage struct {
	Data     []byte
	MIME     string
	Width    int
	Height   int
	Filename string
}

// IsZero reports whether no usable payload was provided.
func (s SourceImage) IsZero() bool {
	return len(s.Data) == 0
}

// OutputSpec requests one asset at an exact pixel size. GenWidth/GenHeight,
// when set, name the smaller resolution asked of the remote model; the final
// asset is produced locally by letterboxing up to TargetWidth x TargetHeight.
// The two resolutions are explicit fields on purpose: callers state both, the
// core never infers one from a ratio.
type OutputSpec struct {
	TargetWidth  int
	TargetHeight int
	GenWidth     int
	GenHeight    int
}

// Key returns the literal "WxH" identity of the requested target size.
// Duplicate keys in one batch are a caller error; the core does not
// deduplicate.
func (s OutputSpec) Key() string {
	return fmt.Sprintf("%dx%d", s.TargetWidth, s.TargetHeight)
}

// Valid reports whether the target dimensions are positive.
func (s OutputSpec) Valid() bool {
	return s.TargetWidth > 0 && s.TargetHeight > 0
}

// GenSize returns the resolution submitted to the remote model. It falls back
// to the target size when no reduced generation size was requested.
func (s OutputSpec) GenSize() (int, int) {
	if s.GenWidth > 0 && s.GenHeight > 0 {
		return s.GenWidth, s.GenHeight
	}
	return s.TargetWidth, s.TargetHeight
}

// ParseOutputSpec parses "WxH" or "WxH@wxh" (target size, optionally followed
// by the reduced generation size).
func ParseOutputSpec(raw string) (OutputSpec, error) {
	var spec OutputSpec
	target := strings.TrimSpace(raw)
	if at := strings.IndexByte(target, '@'); at >= 0 {
		gw, gh, err := parseSize(target[at+1:])
		if err != nil {
			return OutputSpec{}, fmt.Errorf("%w: %q: %v", ErrInvalidSpec, raw, err)
		}
		spec.GenWidth, spec.GenHeight = gw, gh
		target = target[:at]
	}
	tw, th, err := parseSize(target)
	if err != nil {
		return OutputSpec{}, fmt.Errorf("%w: %q: %v", ErrInvalidSpec, raw, err)
	}
	spec.TargetWidth, spec.TargetHeight = tw, th
	return spec, nil
}

func parseSize(raw string) (int, int, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected WxH")
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("width: %v", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("height: %v", err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("dimensions must be positive")
	}
	return w, h, nil
}

// TaskState enumerates the lifecycle of a generation task.
type TaskState string

const (
	TaskPending   TaskState = "pending"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// GenerationTask tracks one (source, spec) tuple dispatched to the remote
// capability. The orchestrator that created it is its only writer; callers
// read snapshots. A task never transitions out of a terminal state.
type GenerationTask struct {
	ID           string
	Spec         OutputSpec
	State        TaskState
	Payload      []byte
	MIME         string
	ActualWidth  int
	ActualHeight int
	Err          error
}

// Terminal reports whether the task reached a final state.
func (t *GenerationTask) Terminal() bool {
	return t.State == TaskSucceeded || t.State == TaskFailed
}

// Succeed records the generated payload. It is a no-op once terminal.
func (t *GenerationTask) Succeed(payload []byte, mime string, width, height int) {
	if t.Terminal() {
		return
	}
	t.State = TaskSucceeded
	t.Payload = payload
	t.MIME = mime
	t.ActualWidth = width
	t.ActualHeight = height
}

// Fail records the terminal failure reason. It is a no-op once terminal.
func (t *GenerationTask) Fail(err error) {
	if t.Terminal() {
		return
	}
	t.State = TaskFailed
	t.Err = err
}

// BatchResult holds one terminal task per requested OutputSpec, in request
// order regardless of completion order.
type BatchResult []GenerationTask

// Succeeded counts the tasks that produced a payload.
func (r BatchResult) Succeeded() int {
	n := 0
	for i := range r {
		if r[i].State == TaskSucceeded {
			n++
		}
	}
	return n
}

// OperationHandle identifies a long-running remote operation. Once Done is
// true the resource locator (or failure message) is immutable; pollers swap
// the whole handle for a refreshed one instead of mutating it.
type OperationHandle struct {
	Name           string
	Done           bool
	ResourceURI    string
	FailureMessage string
}

// ProgressEvent is a purely informational update emitted while a long-running
// operation is polled. It never affects control flow.
type ProgressEvent struct {
	At      time.Time
	Attempt int
	Message string
}
