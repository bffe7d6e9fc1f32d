package engines

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakflow/tts"
)

// FallbackEngine wraps a primary synthesizer and switches to a secondary one
// after the primary fails maxFailures times in a row.
type FallbackEngine struct {
	primary     tts.Synthesizer
	fallback    tts.Synthesizer
	maxFailures int
	logger      tts.Logger

	mu            sync.Mutex
	failures      int
	usingFallback bool
}

// NewFallbackEngine creates a fallback wrapper. maxFailures below 1 is treated as 1.
func NewFallbackEngine(primary, fallback tts.Synthesizer, maxFailures int) *FallbackEngine {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &FallbackEngine{
		primary:     primary,
		fallback:    fallback,
		maxFailures: maxFailures,
		logger:      log.Default().WithPrefix("engine"),
	}
}

// Synthesize uses the active engine. Cancellation is passed through and never
// counts as a primary failure.
func (f *FallbackEngine) Synthesize(ctx context.Context, req tts.SynthesisRequest) (*tts.Audio, error) {
	f.mu.Lock()
	usingFallback := f.usingFallback
	f.mu.Unlock()

	if usingFallback {
		return f.fallback.Synthesize(ctx, req)
	}

	audio, err := f.primary.Synthesize(ctx, req)
	if err == nil {
		f.mu.Lock()
		if f.failures > 0 {
			f.logger.Info("Primary engine recovered", "failures", f.failures)
			f.failures = 0
		}
		f.mu.Unlock()
		return audio, nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return nil, err
	}

	f.mu.Lock()
	f.failures++
	failures := f.failures
	if failures >= f.maxFailures && !f.usingFallback {
		f.usingFallback = true
		f.logger.Warn("Switching to fallback engine", "failures", failures)
	}
	switched := f.usingFallback
	f.mu.Unlock()

	if !switched {
		f.logger.Warn("Primary engine failed", "attempt", failures, "max", f.maxFailures, "error", err)
		return nil, err
	}

	audio, ferr := f.fallback.Synthesize(ctx, req)
	if ferr != nil {
		return nil, fmt.Errorf("both engines failed: primary: %w, fallback: %w", err, ferr)
	}
	return audio, nil
}

// IsUsingFallback reports whether the secondary engine is active.
func (f *FallbackEngine) IsUsingFallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usingFallback
}

// Reset switches back to the primary engine.
func (f *FallbackEngine) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = 0
	f.usingFallback = false
}

// Status returns a human-readable description of the active engine.
func (f *FallbackEngine) Status() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usingFallback {
		return fmt.Sprintf("Using fallback engine (primary failed %d times)", f.failures)
	}
	if f.failures > 0 {
		return fmt.Sprintf("Using primary engine (%d recent failures)", f.failures)
	}
	return "Using primary engine"
}
