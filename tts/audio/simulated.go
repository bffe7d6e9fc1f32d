package audio

import (
	"context"
	"time"

	"github.com/dgnsrekt/speakflow/tts"
)

// SimulatedPlayer pretends to play audio by waiting for its duration. It is
// used for dry runs and in environments without an audio device.
type SimulatedPlayer struct {
	// Speed scales playback time. Values <= 0 mean real time.
	Speed float64
	// OnPlay, if set, is called when an item starts.
	OnPlay func(tts.PlaybackItem)
}

// NewSimulatedPlayer returns a player running at the given speed.
func NewSimulatedPlayer(speed float64) *SimulatedPlayer {
	return &SimulatedPlayer{Speed: speed}
}

// Play waits for the item's audio duration or until ctx is canceled.
func (p *SimulatedPlayer) Play(ctx context.Context, item tts.PlaybackItem) error {
	if p.OnPlay != nil {
		p.OnPlay(item)
	}
	d := p.duration(item)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-timer.C:
		return nil
	}
}

func (p *SimulatedPlayer) duration(item tts.PlaybackItem) time.Duration {
	if item.Audio == nil {
		return 0
	}
	d := item.Audio.Duration
	if d == 0 && item.Audio.SampleRate > 0 && item.Audio.Channels > 0 {
		// 16-bit samples
		samples := len(item.Audio.Data) / (2 * item.Audio.Channels)
		d = time.Duration(samples) * time.Second / time.Duration(item.Audio.SampleRate)
	}
	if p.Speed > 0 {
		d = time.Duration(float64(d) / p.Speed)
	}
	return d
}
