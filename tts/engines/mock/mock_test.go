package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/speakflow/tts"
)

func TestEngineSynthesize(t *testing.T) {
	e := New()
	e.Latency = 0

	audio, err := e.Synthesize(context.Background(), tts.SynthesisRequest{Text: "one two three"})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if audio == nil {
		t.Fatal("Expected audio")
	}
	if audio.Duration != 1200*time.Millisecond {
		t.Errorf("Expected 1.2s at 150 wpm, got %v", audio.Duration)
	}
	if want := int(1.2*22050) * 2; len(audio.Data) != want {
		t.Errorf("Expected %d bytes, got %d", want, len(audio.Data))
	}
	if audio.Format != tts.FormatPCM16 {
		t.Errorf("Expected PCM16, got %v", audio.Format)
	}
	if e.CallCount() != 1 {
		t.Errorf("Expected 1 call, got %d", e.CallCount())
	}
}

func TestEngineNothingToVoice(t *testing.T) {
	e := New()
	e.Latency = 0

	audio, err := e.Synthesize(context.Background(), tts.SynthesisRequest{Text: " … "})
	if err != nil || audio != nil {
		t.Errorf("Expected nil audio and nil error, got %v, %v", audio, err)
	}
}

func TestEngineFailure(t *testing.T) {
	e := New()
	e.Latency = 0
	boom := errors.New("model crashed")
	e.SetFailure(boom)

	if _, err := e.Synthesize(context.Background(), tts.SynthesisRequest{Text: "hi"}); !errors.Is(err, boom) {
		t.Errorf("Expected configured failure, got %v", err)
	}

	e.SetFailure(nil)
	if _, err := e.Synthesize(context.Background(), tts.SynthesisRequest{Text: "hi"}); err != nil {
		t.Errorf("Expected failure to be cleared, got %v", err)
	}
}

func TestEngineHonoursCancellation(t *testing.T) {
	e := New()
	e.Latency = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Synthesize(ctx, tts.SynthesisRequest{Text: "hi"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Player.SampleRate = 16000
	cfg.Player.Channels = 2
	e := NewFromConfig(cfg.Synth, cfg.Player)

	if e.SampleRate != 16000 || e.Channels != 2 {
		t.Errorf("Expected 16000 Hz stereo, got %d Hz/%d ch", e.SampleRate, e.Channels)
	}
	if e.Latency != cfg.Synth.Latency {
		t.Errorf("Expected latency %v, got %v", cfg.Synth.Latency, e.Latency)
	}
}
