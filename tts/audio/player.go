package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/dgnsrekt/speakflow/tts"
)

// PlayerConfig contains configuration for the device player.
type PlayerConfig struct {
	SampleRate int // Sample rate in Hz
	Channels   int // 1 = mono, 2 = stereo
	BufferSize time.Duration
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 22050,
		Channels:   1,
		BufferSize: 100 * time.Millisecond,
	}
}

// pollInterval is how often a playing voice checks for completion.
const pollInterval = 10 * time.Millisecond

var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoErr     error
)

// OtoPlayer plays 16-bit PCM through the system audio device. Each Play call
// gets its own oto player, so concurrent voices are mixed by the device context.
// oto allows a single context per process; every OtoPlayer shares it.
type OtoPlayer struct {
	context    *oto.Context
	sampleRate int
	channels   int
}

// NewOtoPlayer opens the audio device. The first call fixes the device format
// for the life of the process.
func NewOtoPlayer(config PlayerConfig) (*OtoPlayer, error) {
	if config.Channels != 1 && config.Channels != 2 {
		return nil, fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", config.SampleRate)
	}

	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   config.SampleRate,
			ChannelCount: config.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   config.BufferSize,
		}
		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-readyChan
		otoContext = ctx
	})
	if otoErr != nil {
		return nil, otoErr
	}

	return &OtoPlayer{
		context:    otoContext,
		sampleRate: config.SampleRate,
		channels:   config.Channels,
	}, nil
}

// Play blocks until the item's audio has drained or ctx is canceled.
func (p *OtoPlayer) Play(ctx context.Context, item tts.PlaybackItem) error {
	a := item.Audio
	if a == nil || len(a.Data) == 0 {
		return nil
	}
	if a.Format != tts.FormatPCM16 {
		return fmt.Errorf("%w: only 16-bit PCM is supported", tts.ErrInvalidAudioFormat)
	}
	if a.SampleRate != p.sampleRate || a.Channels != p.channels {
		return fmt.Errorf("%w: got %d Hz/%d ch, device is %d Hz/%d ch",
			tts.ErrInvalidAudioFormat, a.SampleRate, a.Channels, p.sampleRate, p.channels)
	}
	if p.context == nil {
		return tts.ErrPlayerNotInitialized
	}

	player := p.context.NewPlayer(bytes.NewReader(a.Data))
	if player == nil {
		return errors.New("failed to create oto player")
	}
	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return context.Cause(ctx)
		case <-ticker.C:
			if !player.IsPlaying() {
				if err := player.Err(); err != nil {
					return fmt.Errorf("playback error: %w", err)
				}
				return nil
			}
		}
	}
}
