// Package engines provides synthesizer implementations and wrappers around them.
package engines

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/dgnsrekt/speakflow/tts"
)

// RateLimited returns a synthesizer that waits on limiter before every request.
// A nil limiter returns synth unchanged.
func RateLimited(synth tts.Synthesizer, limiter *rate.Limiter) tts.Synthesizer {
	if limiter == nil {
		return synth
	}
	return tts.SynthesizerFunc(func(ctx context.Context, req tts.SynthesisRequest) (*tts.Audio, error) {
		if err := limiter.Wait(ctx); err != nil {
			if cause := context.Cause(ctx); cause != nil {
				return nil, cause
			}
			return nil, fmt.Errorf("%w: %w", tts.ErrRateLimited, err)
		}
		return synth.Synthesize(ctx, req)
	})
}

// NewLimiter builds a limiter from synthesizer settings. A rate of zero means unlimited
// and returns nil.
func NewLimiter(cfg tts.SynthConfig) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
}

// Logged wraps synth with debug logging of request latency and audio size.
func Logged(synth tts.Synthesizer, logger tts.Logger) tts.Synthesizer {
	return tts.SynthesizerFunc(func(ctx context.Context, req tts.SynthesisRequest) (*tts.Audio, error) {
		start := time.Now()
		audio, err := synth.Synthesize(ctx, req)
		if err != nil {
			logger.Debug("Synthesis failed", "segment", req.SegmentID, "duration", time.Since(start), "error", err)
			return nil, err
		}
		size := 0
		if audio != nil {
			size = len(audio.Data)
		}
		logger.Debug("Synthesis complete", "segment", req.SegmentID, "duration", time.Since(start), "bytes", size)
		return audio, nil
	})
}
