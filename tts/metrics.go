package tts

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope used for engine metrics.
const MeterName = "github.com/dgnsrekt/speakflow/tts"

// Instrument subscribes to bus and records every event as OpenTelemetry
// measurements. A nil meter uses the global meter provider. The returned func
// removes the subscription.
func Instrument(bus *Bus, meter metric.Meter) (func(), error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}

	events, err := meter.Int64Counter("speakflow.events",
		metric.WithDescription("Lifecycle events published by the speech engine"))
	if err != nil {
		return nil, fmt.Errorf("create events counter: %w", err)
	}
	voices, err := meter.Int64UpDownCounter("speakflow.voices.active",
		metric.WithDescription("Playback items currently holding a voice"))
	if err != nil {
		return nil, fmt.Errorf("create voices counter: %w", err)
	}
	audioBytes, err := meter.Int64Counter("speakflow.synth.bytes",
		metric.WithDescription("Bytes of audio produced by the synthesizer"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("create audio counter: %w", err)
	}

	return bus.OnAny(func(ev Event) {
		ctx := context.Background()
		attrs := []attribute.KeyValue{attribute.String("event", string(ev.Type))}
		if ev.Reason != "" {
			attrs = append(attrs, attribute.String("reason", ev.Reason))
		}
		events.Add(ctx, 1, metric.WithAttributes(attrs...))

		switch ev.Type {
		case EventPlaybackStart:
			voices.Add(ctx, 1)
		case EventPlaybackEnd, EventPlaybackInterrupt:
			voices.Add(ctx, -1)
		case EventTTSResult:
			if ev.Result != nil && ev.Result.Audio != nil {
				audioBytes.Add(ctx, int64(len(ev.Result.Audio.Data)))
			}
		}
	}), nil
}
