package tts_test

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dgnsrekt/speakflow/tts"
)

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s has data %T", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestInstrument(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	bus := tts.NewBus(tts.DiscardLogger())
	defer bus.Close()
	off, err := tts.Instrument(bus, provider.Meter(tts.MeterName))
	if err != nil {
		t.Fatalf("Instrument() error = %v", err)
	}

	item := &tts.PlaybackItem{ID: "p"}
	bus.Publish(tts.Event{Type: tts.EventTTSResult, Result: &tts.SynthesisResult{Audio: &tts.Audio{Data: make([]byte, 640)}}})
	bus.Publish(tts.Event{Type: tts.EventPlaybackStart, Item: item})
	bus.Publish(tts.Event{Type: tts.EventPlaybackStart, Item: item})
	bus.Publish(tts.Event{Type: tts.EventPlaybackInterrupt, Item: item, Reason: tts.ReasonStealOldest})
	bus.Sync()
	off()
	bus.Publish(tts.Event{Type: tts.EventPlaybackEnd, Item: item})
	bus.Sync()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got := sumOf(t, rm, "speakflow.events"); got != 4 {
		t.Errorf("events = %d, want 4", got)
	}
	if got := sumOf(t, rm, "speakflow.voices.active"); got != 1 {
		t.Errorf("active voices = %d, want 1", got)
	}
	if got := sumOf(t, rm, "speakflow.synth.bytes"); got != 640 {
		t.Errorf("audio bytes = %d, want 640", got)
	}
}
