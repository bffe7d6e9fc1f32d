package ui

import (
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dgnsrekt/speakflow/tts"
)

type fakeControls struct {
	mu          sync.Mutex
	interrupts  []string
	stopReasons []string
}

func (f *fakeControls) Interrupt(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interrupts = append(f.interrupts, reason)
}

func (f *fakeControls) StopAll(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopReasons = append(f.stopReasons, reason)
}

func newTestModel(t *testing.T, lines int) (Model, *fakeControls) {
	t.Helper()
	bus := tts.NewBus(tts.DiscardLogger())
	feed := tts.NewEventFeed(bus)
	t.Cleanup(func() {
		feed.Close()
		bus.Close()
	})
	controls := &fakeControls{}
	return NewModel(Config{Lines: lines}, feed, controls), controls
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		msg  tea.Msg
		want []string
	}{
		{tts.SegmentMsg{Segment: tts.Segment{Text: "Hi.", Reason: tts.ReasonHard, Words: 1}}, []string{"segment", `"Hi."`, "hard"}},
		{tts.SegmentMsg{Segment: tts.Segment{Special: "wave"}, Special: true}, []string{"special", "[wave]"}},
		{tts.SynthesisMsg{Request: tts.SynthesisRequest{Sequence: 3, Text: "Go"}}, []string{"tts-request", "#3"}},
		{tts.PlaybackMsg{Type: tts.EventPlaybackReject, Item: tts.PlaybackItem{Text: "x"}, Reason: "overflow"}, []string{"playback-reject", "overflow"}},
		{tts.IntentMsg{Type: tts.EventIntentCancel, Intent: tts.IntentInfo{IntentID: "i1"}, Reason: "replace"}, []string{"intent-cancel", "i1", "reason=replace"}},
	}
	for _, tt := range tests {
		got := Describe(tt.msg)
		for _, want := range tt.want {
			if !strings.Contains(got, want) {
				t.Errorf("Describe(%T) = %q, missing %q", tt.msg, got, want)
			}
		}
	}
	if got := Describe("not an event"); got != "" {
		t.Errorf("Expected empty description for unknown message, got %q", got)
	}
}

func TestModelKeepsRecentLines(t *testing.T) {
	m, _ := newTestModel(t, 2)

	var model tea.Model = m
	for _, text := range []string{"one", "two", "three"} {
		var cmd tea.Cmd
		model, cmd = model.Update(tts.SegmentMsg{Segment: tts.Segment{Text: text}})
		if cmd == nil {
			t.Fatal("Expected a command waiting for the next event")
		}
	}

	view := model.View()
	if strings.Contains(view, `"one"`) {
		t.Error("Expected oldest line to be dropped")
	}
	if !strings.Contains(view, `"two"`) || !strings.Contains(view, `"three"`) {
		t.Errorf("Expected recent lines in view, got:\n%s", view)
	}
}

func TestModelKeys(t *testing.T) {
	m, controls := newTestModel(t, 5)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if len(controls.interrupts) != 1 || controls.interrupts[0] != tts.ReasonInterrupt {
		t.Errorf("Expected one interrupt, got %v", controls.interrupts)
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if len(controls.stopReasons) != 1 || controls.stopReasons[0] != tts.ReasonStopAll {
		t.Errorf("Expected stop all on quit, got %v", controls.stopReasons)
	}
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestModelFeedClosed(t *testing.T) {
	m, _ := newTestModel(t, 5)

	model, cmd := m.Update(tts.FeedClosedMsg{})
	if cmd == nil {
		t.Fatal("Expected quit command when the feed closes")
	}
	if strings.Contains(model.View(), "q: stop") {
		t.Error("Expected help line to disappear once done")
	}
}

func TestWaitForEventDeliversMessages(t *testing.T) {
	bus := tts.NewBus(tts.DiscardLogger())
	defer bus.Close()
	feed := tts.NewEventFeed(bus)

	bus.Publish(tts.Event{Type: tts.EventIntentStart, Intent: &tts.IntentInfo{IntentID: "i1"}})
	msg := tts.WaitForEvent(feed)()
	im, ok := msg.(tts.IntentMsg)
	if !ok || im.Intent.IntentID != "i1" {
		t.Fatalf("Expected IntentMsg for i1, got %#v", msg)
	}

	feed.Close()
	if _, ok := tts.WaitForEvent(feed)().(tts.FeedClosedMsg); !ok {
		t.Error("Expected FeedClosedMsg after Close")
	}
}
