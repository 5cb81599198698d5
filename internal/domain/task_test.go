package domain

import (
	"errors"
	"testing"
)

func TestParseOutputSpec(t *testing.T) {
	spec, err := ParseOutputSpec("1920x1080")
	if err != nil {
		t.Fatalf("ParseOutputSpec error: %v", err)
	}
	if spec.TargetWidth != 1920 || spec.TargetHeight != 1080 {
		t.Fatalf("unexpected target: %dx%d", spec.TargetWidth, spec.TargetHeight)
	}
	if spec.GenWidth != 0 || spec.GenHeight != 0 {
		t.Fatalf("expected no generation size, got %dx%d", spec.GenWidth, spec.GenHeight)
	}
	if got := spec.Key(); got != "1920x1080" {
		t.Fatalf("Key = %q", got)
	}
}

func TestParseOutputSpecWithGenerationSize(t *testing.T) {
	spec, err := ParseOutputSpec("1080x1080@512x512")
	if err != nil {
		t.Fatalf("ParseOutputSpec error: %v", err)
	}
	if spec.TargetWidth != 1080 || spec.TargetHeight != 1080 {
		t.Fatalf("unexpected target: %dx%d", spec.TargetWidth, spec.TargetHeight)
	}
	gw, gh := spec.GenSize()
	if gw != 512 || gh != 512 {
		t.Fatalf("GenSize = %dx%d, want 512x512", gw, gh)
	}
}

func TestParseOutputSpecRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"", "1920", "0x100", "100x-1", "axb", "100x100@0x5"} {
		if _, err := ParseOutputSpec(raw); !errors.Is(err, ErrInvalidSpec) {
			t.Fatalf("ParseOutputSpec(%q) = %v, want ErrInvalidSpec", raw, err)
		}
	}
}

func TestGenSizeFallsBackToTarget(t *testing.T) {
	spec := OutputSpec{TargetWidth: 640, TargetHeight: 480}
	gw, gh := spec.GenSize()
	if gw != 640 || gh != 480 {
		t.Fatalf("GenSize = %dx%d, want 640x480", gw, gh)
	}
}

func TestTaskNeverLeavesTerminalState(t *testing.T) {
	task := GenerationTask{State: TaskPending}
	task.Fail(errors.New("boom"))
	if task.State != TaskFailed {
		t.Fatalf("State = %q, want failed", task.State)
	}

	task.Succeed([]byte("payload"), "image/png", 10, 10)
	if task.State != TaskFailed {
		t.Fatalf("terminal task transitioned to %q", task.State)
	}
	if task.Payload != nil {
		t.Fatalf("terminal task gained a payload")
	}

	ok := GenerationTask{State: TaskPending}
	ok.Succeed([]byte("payload"), "image/png", 10, 10)
	ok.Fail(errors.New("late failure"))
	if ok.State != TaskSucceeded || ok.Err != nil {
		t.Fatalf("succeeded task mutated: state=%q err=%v", ok.State, ok.Err)
	}
}

func TestBatchResultSucceeded(t *testing.T) {
	result := BatchResult{
		{State: TaskSucceeded},
		{State: TaskFailed},
		{State: TaskSucceeded},
	}
	if got := result.Succeeded(); got != 2 {
		t.Fatalf("Succeeded = %d, want 2", got)
	}
}
