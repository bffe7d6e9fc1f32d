package tts

import (
	"sync"
	"time"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventSegment           EventType = "segment"
	EventSpecial           EventType = "special"
	EventTTSRequest        EventType = "tts-request"
	EventTTSResult         EventType = "tts-result"
	EventPlaybackStart     EventType = "playback-start"
	EventPlaybackEnd       EventType = "playback-end"
	EventPlaybackInterrupt EventType = "playback-interrupt"
	EventPlaybackReject    EventType = "playback-reject"
	EventIntentStart       EventType = "intent-start"
	EventIntentEnd         EventType = "intent-end"
	EventIntentCancel      EventType = "intent-cancel"
)

// EventTypes lists every event in a stable order.
var EventTypes = []EventType{
	EventSegment,
	EventSpecial,
	EventTTSRequest,
	EventTTSResult,
	EventPlaybackStart,
	EventPlaybackEnd,
	EventPlaybackInterrupt,
	EventPlaybackReject,
	EventIntentStart,
	EventIntentEnd,
	EventIntentCancel,
}

// Machine readable reasons carried by events.
const (
	ReasonOverflow            = "overflow"
	ReasonOwnerOverflow       = "owner-overflow"
	ReasonLowerPriority       = "lower-priority"
	ReasonStealOldest         = "steal-oldest"
	ReasonStealLowestPriority = "steal-lowest-priority"
	ReasonReplace             = "replace"
	ReasonInterrupt           = "interrupt"
	ReasonCanceled            = "canceled"
	ReasonStopAll             = "stop-all"
	ReasonClosed              = "closed"
)

// Event is published for every lifecycle transition. Only the field matching
// Type is populated.
type Event struct {
	Type   EventType
	Time   time.Time
	Reason string

	Segment *Segment
	Request *SynthesisRequest
	Result  *SynthesisResult
	Item    *PlaybackItem
	Intent  *IntentInfo

	barrier chan struct{}
}

// Listener receives events.
type Listener func(Event)

type subscription struct {
	id  uint64
	typ EventType
	any bool
	fn  Listener
}

// Bus delivers events to listeners in publish order on a single dispatcher
// goroutine. Publish never blocks on listeners, so a listener may call back
// into the component that published.
type Bus struct {
	mu     sync.Mutex
	subs   []*subscription
	nextID uint64
	queue  []Event
	notify chan struct{}
	closed bool
	done   chan struct{}
	logger Logger
}

// NewBus creates a bus and starts its dispatcher.
func NewBus(logger Logger) *Bus {
	b := &Bus{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
	go b.dispatch()
	return b
}

// On registers fn for events of type t and returns a func that removes it.
func (b *Bus) On(t EventType, fn Listener) func() {
	return b.subscribe(&subscription{typ: t, fn: fn})
}

// OnAny registers fn for every event.
func (b *Bus) OnAny(fn Listener) func() {
	return b.subscribe(&subscription{any: true, fn: fn})
}

func (b *Bus) subscribe(s *subscription) func() {
	b.mu.Lock()
	b.nextID++
	s.id = b.nextID
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, cur := range b.subs {
				if cur.id == s.id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish enqueues ev for delivery. Events published after Close are dropped.
func (b *Bus) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, ev)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// Sync blocks until every event published before the call has been delivered.
// It must not be called from a listener.
func (b *Bus) Sync() {
	barrier := make(chan struct{})
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.queue = append(b.queue, Event{barrier: barrier})
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	<-barrier
}

// Close stops accepting events, delivers what is queued and waits for the
// dispatcher to exit. It must not be called from a listener.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		<-b.done
		return
	}
	b.closed = true
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	<-b.done
}

func (b *Bus) dispatch() {
	defer close(b.done)
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			closed := b.closed
			b.mu.Unlock()
			if closed {
				return
			}
			<-b.notify
			continue
		}
		ev := b.queue[0]
		b.queue[0] = Event{}
		b.queue = b.queue[1:]
		subs := make([]*subscription, len(b.subs))
		copy(subs, b.subs)
		b.mu.Unlock()

		if ev.barrier != nil {
			close(ev.barrier)
			continue
		}
		for _, s := range subs {
			if s.any || s.typ == ev.Type {
				b.deliver(s, ev)
			}
		}
	}
}

func (b *Bus) deliver(s *subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil && b.logger != nil {
			b.logger.Error("Event listener panicked", "event", ev.Type, "panic", r)
		}
	}()
	s.fn(ev)
}
