// Package report summarizes a speaking session from its OpenTelemetry metrics.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dgnsrekt/speakflow/tts"
)

// Report holds the totals recorded during a session.
type Report struct {
	// Events counts events by type.
	Events map[tts.EventType]int64
	// Reasons counts reject and interrupt reasons.
	Reasons map[string]int64
	// AudioBytes is the total audio produced by the synthesizer.
	AudioBytes int64
	// ActiveVoices is the number of voices still holding audio at collection time.
	ActiveVoices int64
}

// Collect reads the current totals from reader.
func Collect(ctx context.Context, reader *sdkmetric.ManualReader) (Report, error) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return Report{}, fmt.Errorf("collect metrics: %w", err)
	}

	r := Report{
		Events:  make(map[tts.EventType]int64),
		Reasons: make(map[string]int64),
	}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != tts.MeterName {
			continue
		}
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "speakflow.events":
					ev, _ := dp.Attributes.Value("event")
					r.Events[tts.EventType(ev.AsString())] += dp.Value
					if reason, ok := dp.Attributes.Value("reason"); ok {
						r.Reasons[reason.AsString()] += dp.Value
					}
				case "speakflow.synth.bytes":
					r.AudioBytes += dp.Value
				case "speakflow.voices.active":
					r.ActiveVoices += dp.Value
				}
			}
		}
	}
	return r, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8800"))
)

// Render writes a human readable summary.
func Render(w io.Writer, r Report) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Session summary"))
	b.WriteString("\n")

	row := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label)), value)
	}
	row("segments", humanize.Comma(r.Events[tts.EventSegment]))
	row("synthesized", humanize.Comma(r.Events[tts.EventTTSResult]))
	row("audio", humanize.Bytes(uint64(max(r.AudioBytes, 0))))
	row("played", humanize.Comma(r.Events[tts.EventPlaybackEnd]))
	if n := r.Events[tts.EventPlaybackInterrupt]; n > 0 {
		row("interrupted", warnStyle.Render(humanize.Comma(n)))
	}
	if n := r.Events[tts.EventPlaybackReject]; n > 0 {
		row("rejected", warnStyle.Render(humanize.Comma(n)))
	}

	if len(r.Reasons) > 0 {
		reasons := make([]string, 0, len(r.Reasons))
		for reason := range r.Reasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		parts := make([]string, len(reasons))
		for i, reason := range reasons {
			parts[i] = fmt.Sprintf("%s=%d", reason, r.Reasons[reason])
		}
		row("reasons", strings.Join(parts, " "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
