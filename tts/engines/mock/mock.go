// Package mock provides a synthesizer that renders silence, for testing and dry runs.
package mock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/speakflow/tts"
	"github.com/dgnsrekt/speakflow/tts/sentence"
)

// Engine produces silent 16-bit PCM whose length follows the word count.
type Engine struct {
	// Latency is the simulated processing delay per request.
	Latency time.Duration
	// WordsPerMinute sets the speaking rate used to size the audio.
	WordsPerMinute int
	SampleRate     int
	Channels       int

	mu      sync.Mutex
	failure error

	calls atomic.Int64
}

// New creates a mock engine with 22050 Hz mono output at 150 words per minute.
func New() *Engine {
	return &Engine{
		Latency:        100 * time.Millisecond,
		WordsPerMinute: 150,
		SampleRate:     22050,
		Channels:       1,
	}
}

// NewFromConfig creates a mock engine from synthesizer and player settings.
func NewFromConfig(synth tts.SynthConfig, player tts.PlayerConfig) *Engine {
	e := New()
	e.Latency = synth.Latency
	e.WordsPerMinute = synth.WordsPerMinute
	e.SampleRate = player.SampleRate
	e.Channels = player.Channels
	return e
}

// SetFailure makes every later call fail with err. A nil err clears it.
func (e *Engine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failure = err
}

// CallCount returns how many requests the engine has received.
func (e *Engine) CallCount() int {
	return int(e.calls.Load())
}

// Synthesize waits for the configured latency and returns silence. Requests
// without speakable words return nil audio.
func (e *Engine) Synthesize(ctx context.Context, req tts.SynthesisRequest) (*tts.Audio, error) {
	e.calls.Add(1)

	if e.Latency > 0 {
		timer := time.NewTimer(e.Latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, context.Cause(ctx)
		case <-timer.C:
		}
	}

	e.mu.Lock()
	failure := e.failure
	e.mu.Unlock()
	if failure != nil {
		return nil, failure
	}

	words := sentence.CountWords(req.Text)
	if words == 0 {
		return nil, nil
	}

	duration := e.estimateDuration(words)
	samples := int(duration.Seconds() * float64(e.SampleRate))
	return &tts.Audio{
		Data:       make([]byte, samples*2*e.Channels), // 16-bit audio
		Format:     tts.FormatPCM16,
		SampleRate: e.SampleRate,
		Channels:   e.Channels,
		Duration:   duration,
	}, nil
}

func (e *Engine) estimateDuration(words int) time.Duration {
	wpm := e.WordsPerMinute
	if wpm <= 0 {
		wpm = 150
	}
	return time.Duration(words) * time.Minute / time.Duration(wpm)
}
