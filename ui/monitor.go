// Package ui provides a Bubble Tea monitor for a running speech pipeline.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/speakflow/tts"
)

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8800"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	eventStyles = map[tts.EventType]lipgloss.Style{
		tts.EventSegment:           lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
		tts.EventSpecial:           lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5FD2")),
		tts.EventTTSRequest:        lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")),
		tts.EventTTSResult:         lipgloss.NewStyle().Foreground(lipgloss.Color("#00AAFF")),
		tts.EventPlaybackStart:     lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		tts.EventPlaybackEnd:       lipgloss.NewStyle().Foreground(lipgloss.Color("#5F875F")),
		tts.EventPlaybackInterrupt: warnStyle,
		tts.EventPlaybackReject:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		tts.EventIntentStart:       lipgloss.NewStyle().Bold(true),
		tts.EventIntentEnd:         lipgloss.NewStyle().Bold(true),
		tts.EventIntentCancel:      warnStyle.Bold(true),
	}
)

// Describe renders one engine message as a styled log line. Unknown messages
// return an empty string.
func Describe(msg tea.Msg) string {
	var typ tts.EventType
	var detail string
	switch m := msg.(type) {
	case tts.SegmentMsg:
		typ = tts.EventSegment
		if m.Special {
			typ = tts.EventSpecial
			detail = fmt.Sprintf("[%s] %q", m.Segment.Special, m.Segment.Text)
		} else {
			detail = fmt.Sprintf("%q (%s, %d words)", m.Segment.Text, m.Segment.Reason, m.Segment.Words)
		}
	case tts.SynthesisMsg:
		typ = tts.EventTTSRequest
		detail = fmt.Sprintf("#%d %q", m.Request.Sequence, m.Request.Text)
		if m.Done {
			typ = tts.EventTTSResult
			detail = fmt.Sprintf("#%d %s", m.Request.Sequence, m.Duration.Round(time.Millisecond))
		}
	case tts.PlaybackMsg:
		typ = m.Type
		detail = fmt.Sprintf("#%d %q", m.Item.Sequence, m.Item.Text)
		if m.Reason != "" {
			detail += " " + m.Reason
		}
	case tts.IntentMsg:
		typ = m.Type
		detail = fmt.Sprintf("%s priority=%d", m.Intent.IntentID, m.Intent.Priority)
		if m.Reason != "" {
			detail += " reason=" + m.Reason
		}
	default:
		return ""
	}
	style, ok := eventStyles[typ]
	if !ok {
		style = dimStyle
	}
	return style.Render(fmt.Sprintf("%-18s", typ)) + " " + detail
}

// Controls is the subset of the pipeline the monitor drives.
type Controls interface {
	Interrupt(reason string)
	StopAll(reason string)
}

// Model is the Bubble Tea model of the monitor.
type Model struct {
	cfg      Config
	feed     *tts.EventFeed
	controls Controls
	status   *StatusDisplay
	spinner  spinner.Model
	lines    []string
	width    int
	done     bool
}

// NewModel creates a monitor reading from feed.
func NewModel(cfg Config, feed *tts.EventFeed, controls Controls) Model {
	if cfg.Lines <= 0 {
		cfg.Lines = 12
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		cfg:      cfg,
		feed:     feed,
		controls: controls,
		status:   NewStatusDisplay(),
		spinner:  sp,
		width:    80,
	}
}

// NewProgram returns a Bubble Tea program for the monitor.
func NewProgram(cfg Config, feed *tts.EventFeed, controls Controls) *tea.Program {
	opts := []tea.ProgramOption{}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(NewModel(cfg, feed, controls), opts...)
}

// Init starts the spinner and waits for the first event.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tts.WaitForEvent(m.feed))
}

// Update handles keys and engine messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.controls != nil {
				m.controls.StopAll(tts.ReasonStopAll)
			}
			m.done = true
			return m, tea.Quit
		case "s", " ":
			if m.controls != nil {
				m.controls.Interrupt(tts.ReasonInterrupt)
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tts.FeedClosedMsg:
		m.done = true
		return m, tea.Quit

	case tts.SegmentMsg, tts.SynthesisMsg, tts.PlaybackMsg, tts.IntentMsg:
		m.status.Update(msg)
		if line := Describe(msg); line != "" {
			m.lines = append(m.lines, line)
			if len(m.lines) > m.cfg.Lines {
				m.lines = m.lines[len(m.lines)-m.cfg.Lines:]
			}
		}
		return m, tts.WaitForEvent(m.feed)
	}
	return m, nil
}

// View renders the status panel and the recent events.
func (m Model) View() string {
	var b strings.Builder
	if compact := m.status.CompactStatus(); compact != "" && !m.done {
		b.WriteString(m.spinner.View() + " " + compact + "\n\n")
	}
	b.WriteString(m.status.DetailedStatus(m.width))
	b.WriteString("\n")
	if !m.cfg.Compact && len(m.lines) > 0 {
		b.WriteString("\n")
		for _, line := range m.lines {
			b.WriteString(clip(line, m.width) + "\n")
		}
	}
	if !m.done {
		b.WriteString("\n" + helpStyle.Render("s: skip • q: stop") + "\n")
	}
	return b.String()
}
