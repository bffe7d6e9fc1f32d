package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/dgnsrekt/speakflow/tts"
)

func TestCollect(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	bus := tts.NewBus(tts.DiscardLogger())
	defer bus.Close()
	stop, err := tts.Instrument(bus, provider.Meter(tts.MeterName))
	if err != nil {
		t.Fatalf("Instrument failed: %v", err)
	}
	defer stop()

	item := &tts.PlaybackItem{ID: "p1"}
	bus.Publish(tts.Event{Type: tts.EventSegment, Segment: &tts.Segment{}})
	bus.Publish(tts.Event{Type: tts.EventTTSResult, Result: &tts.SynthesisResult{Audio: &tts.Audio{Data: make([]byte, 2048)}}})
	bus.Publish(tts.Event{Type: tts.EventPlaybackStart, Item: item})
	bus.Publish(tts.Event{Type: tts.EventPlaybackStart, Item: item})
	bus.Publish(tts.Event{Type: tts.EventPlaybackInterrupt, Item: item, Reason: tts.ReasonStealOldest})
	bus.Publish(tts.Event{Type: tts.EventPlaybackReject, Item: item, Reason: tts.ReasonOverflow})
	bus.Sync()

	r, err := Collect(context.Background(), reader)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if r.Events[tts.EventSegment] != 1 {
		t.Errorf("Expected 1 segment, got %d", r.Events[tts.EventSegment])
	}
	if r.Events[tts.EventPlaybackStart] != 2 {
		t.Errorf("Expected 2 starts, got %d", r.Events[tts.EventPlaybackStart])
	}
	if r.AudioBytes != 2048 {
		t.Errorf("Expected 2048 bytes, got %d", r.AudioBytes)
	}
	if r.ActiveVoices != 1 {
		t.Errorf("Expected 1 active voice, got %d", r.ActiveVoices)
	}
	if r.Reasons[tts.ReasonStealOldest] != 1 || r.Reasons[tts.ReasonOverflow] != 1 {
		t.Errorf("Unexpected reasons: %v", r.Reasons)
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Report{
		Events: map[tts.EventType]int64{
			tts.EventSegment:        1200,
			tts.EventPlaybackReject: 2,
		},
		Reasons:    map[string]int64{tts.ReasonOverflow: 2},
		AudioBytes: 1500000,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Session summary", "1,200", "1.5 MB", "rejected", "overflow=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "interrupted") {
		t.Error("Expected no interrupted row when nothing was interrupted")
	}
}
