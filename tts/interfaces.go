package tts

import (
	"context"
)

// Synthesizer turns one request into audio.
//
// Implementations must return promptly once ctx is canceled. A nil *Audio
// with a nil error means there is nothing to voice for the request.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*Audio, error)
}

// SynthesizerFunc adapts a function to the Synthesizer interface.
type SynthesizerFunc func(ctx context.Context, req SynthesisRequest) (*Audio, error)

// Synthesize calls f(ctx, req).
func (f SynthesizerFunc) Synthesize(ctx context.Context, req SynthesisRequest) (*Audio, error) {
	return f(ctx, req)
}

// Player plays one item to completion.
//
// Play blocks until playback finishes, returns an error on playback failure
// and must stop promptly once ctx is canceled.
type Player interface {
	Play(ctx context.Context, item PlaybackItem) error
}

// PlayerFunc adapts a function to the Player interface.
type PlayerFunc func(ctx context.Context, item PlaybackItem) error

// Play calls f(ctx, item).
func (f PlayerFunc) Play(ctx context.Context, item PlaybackItem) error {
	return f(ctx, item)
}

// Logger is the logging surface used across the engine. *log.Logger from
// github.com/charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
	Info(msg interface{}, keyvals ...interface{})
	Warn(msg interface{}, keyvals ...interface{})
	Error(msg interface{}, keyvals ...interface{})
}

// Emitter publishes lifecycle events.
type Emitter interface {
	Publish(ev Event)
}
