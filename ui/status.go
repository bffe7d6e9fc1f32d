package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/dgnsrekt/speakflow/tts"
)

// StatusDisplay tracks what the engine is doing from its event messages.
type StatusDisplay struct {
	intent    *tts.IntentInfo
	canceled  string
	voices    map[string]tts.PlaybackItem
	segments  int
	results   int
	played    int
	rejected  int
	audio     time.Duration
	lastIssue string
}

// NewStatusDisplay creates an idle status display.
func NewStatusDisplay() *StatusDisplay {
	return &StatusDisplay{voices: make(map[string]tts.PlaybackItem)}
}

// Update applies one engine message.
func (s *StatusDisplay) Update(msg interface{}) {
	switch m := msg.(type) {
	case tts.IntentMsg:
		switch m.Type {
		case tts.EventIntentStart:
			info := m.Intent
			s.intent = &info
			s.canceled = ""
		case tts.EventIntentEnd:
			if s.intent != nil && s.intent.IntentID == m.Intent.IntentID {
				s.intent = nil
			}
		case tts.EventIntentCancel:
			if s.intent != nil && s.intent.IntentID == m.Intent.IntentID {
				s.intent = nil
				s.canceled = m.Reason
			}
		}

	case tts.SegmentMsg:
		if !m.Special {
			s.segments++
		}

	case tts.SynthesisMsg:
		if m.Done {
			s.results++
			s.audio += m.Duration
		}

	case tts.PlaybackMsg:
		switch m.Type {
		case tts.EventPlaybackStart:
			s.voices[m.Item.ID] = m.Item
		case tts.EventPlaybackEnd:
			delete(s.voices, m.Item.ID)
			s.played++
		case tts.EventPlaybackInterrupt:
			delete(s.voices, m.Item.ID)
			s.lastIssue = "interrupted: " + m.Reason
		case tts.EventPlaybackReject:
			s.rejected++
			s.lastIssue = "rejected: " + m.Reason
		}
	}
}

// IsActive reports whether an intent is running or audio is playing.
func (s *StatusDisplay) IsActive() bool {
	return s.intent != nil || len(s.voices) > 0
}

// Speaking returns the texts currently playing, oldest item first.
func (s *StatusDisplay) Speaking() []string {
	items := make([]tts.PlaybackItem, 0, len(s.voices))
	for _, it := range s.voices {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Sequence < items[j].Sequence })
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

// CompactStatus returns a one-line status for a status bar.
func (s *StatusDisplay) CompactStatus() string {
	var icon, text string
	switch {
	case len(s.voices) > 0:
		icon, text = "▶", "speaking"
	case s.intent != nil:
		icon, text = "⟳", "listening"
	case s.canceled != "":
		icon, text = "◼", "canceled"
	default:
		return ""
	}

	status := lipgloss.NewStyle().Foreground(s.color()).Render(icon + " " + text)
	if n := len(s.voices); n > 1 {
		status += dimStyle.Render(fmt.Sprintf(" ×%d", n))
	}
	if s.played > 0 {
		status += dimStyle.Render(fmt.Sprintf(" %d played", s.played))
	}
	return status
}

// DetailedStatus returns a multi-line panel.
func (s *StatusDisplay) DetailedStatus(width int) string {
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("speakflow"))

	if s.intent != nil {
		lines = append(lines, fmt.Sprintf("Intent: %s (priority %d, %s)",
			shortID(s.intent.IntentID), s.intent.Priority, s.intent.Behavior))
	} else if s.canceled != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(s.color()).Render("Intent canceled: "+s.canceled))
	}

	for _, text := range s.Speaking() {
		lines = append(lines, "♪ "+clip(text, width-2))
	}

	lines = append(lines, dimStyle.Render(fmt.Sprintf("Segments %d · synthesized %d (%s) · played %d",
		s.segments, s.results, formatDuration(s.audio), s.played)))

	if s.rejected > 0 || s.lastIssue != "" {
		issue := s.lastIssue
		if s.rejected > 0 {
			issue = fmt.Sprintf("%s (%d rejected)", issue, s.rejected)
		}
		lines = append(lines, warnStyle.Render(clip(issue, width-2)))
	}
	return strings.Join(lines, "\n")
}

func (s *StatusDisplay) color() lipgloss.Color {
	switch {
	case len(s.voices) > 0:
		return lipgloss.Color("#00FF00")
	case s.intent != nil:
		return lipgloss.Color("#00AAFF")
	case s.canceled != "":
		return lipgloss.Color("#FF8800")
	default:
		return lipgloss.Color("#666666")
	}
}

func clip(s string, width int) string {
	if width < 4 {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "...") //nolint:gosec
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

// formatDuration formats a duration as m:ss.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "0:00"
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
