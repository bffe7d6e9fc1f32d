package engines

import (
	"context"
	"errors"
	"testing"

	"github.com/dgnsrekt/speakflow/tts"
	"github.com/dgnsrekt/speakflow/tts/engines/mock"
)

func quietMock() *mock.Engine {
	m := mock.New()
	m.Latency = 0
	return m
}

func TestFallbackEngine(t *testing.T) {
	primary := quietMock()
	primary.SetFailure(errors.New("primary engine failure"))
	secondary := quietMock()

	engine := NewFallbackEngine(primary, secondary, 2)
	req := tts.SynthesisRequest{Text: "test one"}

	// First failure is reported.
	if _, err := engine.Synthesize(context.Background(), req); err == nil {
		t.Error("Expected first attempt to fail")
	}

	// Second failure switches engines and the request is served by the fallback.
	audio, err := engine.Synthesize(context.Background(), req)
	if err != nil {
		t.Errorf("Expected second attempt to succeed with fallback: %v", err)
	}
	if audio == nil {
		t.Error("Expected audio to be generated")
	}
	if status := engine.Status(); status != "Using fallback engine (primary failed 2 times)" {
		t.Errorf("Unexpected status: %s", status)
	}

	if _, err := engine.Synthesize(context.Background(), req); err != nil {
		t.Errorf("Expected subsequent calls to use fallback: %v", err)
	}
	if primary.CallCount() != 2 {
		t.Errorf("Expected primary to be skipped after switching, got %d calls", primary.CallCount())
	}
	if secondary.CallCount() != 2 {
		t.Errorf("Expected 2 fallback calls, got %d", secondary.CallCount())
	}
}

func TestFallbackEngineRecovery(t *testing.T) {
	primary := quietMock()
	engine := NewFallbackEngine(primary, quietMock(), 3)
	req := tts.SynthesisRequest{Text: "hello"}

	primary.SetFailure(errors.New("flaky"))
	_, _ = engine.Synthesize(context.Background(), req)
	primary.SetFailure(nil)

	if _, err := engine.Synthesize(context.Background(), req); err != nil {
		t.Fatalf("Expected primary to recover: %v", err)
	}
	if engine.IsUsingFallback() {
		t.Error("Expected primary engine to stay active")
	}
	if status := engine.Status(); status != "Using primary engine" {
		t.Errorf("Expected failure count reset, got %q", status)
	}
}

func TestFallbackEngineIgnoresCancellation(t *testing.T) {
	primary := quietMock()
	primary.Latency = 1 << 40
	engine := NewFallbackEngine(primary, quietMock(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Synthesize(ctx, tts.SynthesisRequest{Text: "hello"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if engine.IsUsingFallback() {
		t.Error("Cancellation should not count as a failure")
	}
}

func TestFallbackEngineBothFail(t *testing.T) {
	primary := quietMock()
	primary.SetFailure(errors.New("primary down"))
	secondary := quietMock()
	fallbackErr := errors.New("fallback down")
	secondary.SetFailure(fallbackErr)

	engine := NewFallbackEngine(primary, secondary, 1)
	_, err := engine.Synthesize(context.Background(), tts.SynthesisRequest{Text: "hello"})
	if !errors.Is(err, fallbackErr) {
		t.Errorf("Expected wrapped fallback error, got %v", err)
	}

	engine.Reset()
	if engine.IsUsingFallback() {
		t.Error("Expected Reset to restore the primary engine")
	}
}
