package tts

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between the engine and a UI.

// SegmentMsg indicates the chunker produced a segment.
type SegmentMsg struct {
	Segment Segment
	Special bool // Published as a special event rather than a plain segment
}

// SynthesisMsg indicates a synthesis request was sent or answered.
type SynthesisMsg struct {
	Request  SynthesisRequest
	Done     bool          // The synthesizer returned audio
	Duration time.Duration // Duration of the returned audio
}

// PlaybackMsg indicates a playback item changed state.
type PlaybackMsg struct {
	Type   EventType
	Item   PlaybackItem
	Reason string
}

// IntentMsg indicates an intent started, ended or was canceled.
type IntentMsg struct {
	Type   EventType
	Intent IntentInfo
	Reason string
}

// FeedClosedMsg indicates the event feed was closed and no more messages follow.
type FeedClosedMsg struct{}

// ToMsg converts an event into its typed message.
func ToMsg(ev Event) tea.Msg {
	switch ev.Type {
	case EventSegment, EventSpecial:
		if ev.Segment == nil {
			return nil
		}
		return SegmentMsg{Segment: *ev.Segment, Special: ev.Type == EventSpecial}
	case EventTTSRequest:
		if ev.Request == nil {
			return nil
		}
		return SynthesisMsg{Request: *ev.Request}
	case EventTTSResult:
		if ev.Result == nil {
			return nil
		}
		msg := SynthesisMsg{Request: ev.Result.SynthesisRequest, Done: true}
		if ev.Result.Audio != nil {
			msg.Duration = ev.Result.Audio.Duration
		}
		return msg
	case EventPlaybackStart, EventPlaybackEnd, EventPlaybackInterrupt, EventPlaybackReject:
		if ev.Item == nil {
			return nil
		}
		return PlaybackMsg{Type: ev.Type, Item: *ev.Item, Reason: ev.Reason}
	case EventIntentStart, EventIntentEnd, EventIntentCancel:
		if ev.Intent == nil {
			return nil
		}
		return IntentMsg{Type: ev.Type, Intent: *ev.Intent, Reason: ev.Reason}
	}
	return nil
}

// EventFeed buffers bus events for a Bubble Tea program. Buffering is
// unbounded so the bus dispatcher never waits on the UI.
type EventFeed struct {
	mu          sync.Mutex
	pending     []Event
	ready       chan struct{}
	closed      bool
	unsubscribe func()
}

// NewEventFeed subscribes a feed to every event on bus.
func NewEventFeed(bus *Bus) *EventFeed {
	f := &EventFeed{ready: make(chan struct{}, 1)}
	f.unsubscribe = bus.OnAny(f.push)
	return f
}

func (f *EventFeed) push(ev Event) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.pending = append(f.pending, ev)
	f.mu.Unlock()
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

// Close unsubscribes the feed. Events already buffered are still delivered.
func (f *EventFeed) Close() {
	f.unsubscribe()
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

func (f *EventFeed) next() (Event, bool) {
	for {
		f.mu.Lock()
		if len(f.pending) > 0 {
			ev := f.pending[0]
			f.pending = f.pending[1:]
			f.mu.Unlock()
			return ev, true
		}
		closed := f.closed
		f.mu.Unlock()
		if closed {
			return Event{}, false
		}
		<-f.ready
	}
}

// WaitForEvent returns a command that blocks until the next event and
// delivers it as a typed message. Re-issue it from Update to keep listening.
func WaitForEvent(f *EventFeed) tea.Cmd {
	return func() tea.Msg {
		for {
			ev, ok := f.next()
			if !ok {
				return FeedClosedMsg{}
			}
			if msg := ToMsg(ev); msg != nil {
				return msg
			}
		}
	}
}
