// Package audio admits playback items into a bounded set of voices and plays them.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakflow/internal/queue"
	"github.com/dgnsrekt/speakflow/tts"
)

// ControllerConfig bounds concurrent playback.
type ControllerConfig struct {
	// MaxVoices is the global cap on active items. Values below 1 are treated as 1.
	MaxVoices int
	// MaxVoicesPerOwner caps active items per owner. Zero means unlimited.
	MaxVoicesPerOwner   int
	OverflowPolicy      tts.OverflowPolicy
	OwnerOverflowPolicy tts.OwnerOverflowPolicy
}

// DefaultControllerConfig returns a single voice with queueing.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MaxVoices:           1,
		OverflowPolicy:      tts.OverflowQueue,
		OwnerOverflowPolicy: tts.OwnerOverflowStealOldest,
	}
}

// ControllerConfigFrom converts voice configuration into a ControllerConfig.
func ControllerConfigFrom(cfg tts.VoicesConfig) ControllerConfig {
	return ControllerConfig{
		MaxVoices:           cfg.MaxVoices,
		MaxVoicesPerOwner:   cfg.MaxVoicesPerOwner,
		OverflowPolicy:      cfg.OverflowPolicy,
		OwnerOverflowPolicy: cfg.OwnerOverflowPolicy,
	}
}

// voice is one active playback slot.
type voice struct {
	item    tts.PlaybackItem
	started time.Time
	seq     uint64
	cancel  context.CancelCauseFunc
}

// Controller owns the active voices and the waiting queue. All state changes
// happen under mu, and eviction plus insertion happen in one critical section.
type Controller struct {
	cfg    ControllerConfig
	player tts.Player
	events tts.Emitter
	logger tts.Logger

	mu      sync.Mutex
	active  map[string]*voice
	waiting *queue.WaitQueue
	seq     uint64
	changed func()

	wg sync.WaitGroup
}

// NewController creates a controller. A nil logger uses the default logger.
func NewController(cfg ControllerConfig, player tts.Player, events tts.Emitter, logger tts.Logger) *Controller {
	if cfg.MaxVoices < 1 {
		cfg.MaxVoices = 1
	}
	if cfg.MaxVoicesPerOwner < 0 {
		cfg.MaxVoicesPerOwner = 0
	}
	if !cfg.OverflowPolicy.Valid() {
		cfg.OverflowPolicy = tts.OverflowQueue
	}
	if !cfg.OwnerOverflowPolicy.Valid() {
		cfg.OwnerOverflowPolicy = tts.OwnerOverflowStealOldest
	}
	if logger == nil {
		logger = log.Default().WithPrefix("playback")
	}
	return &Controller{
		cfg:     cfg,
		player:  player,
		events:  events,
		logger:  logger,
		active:  make(map[string]*voice),
		waiting: queue.New(),
	}
}

// OnChange registers fn to be called whenever the active set or the waiting
// queue may have shrunk. It is called with the controller lock held, so fn must
// not call back into the controller. Register before the first Schedule.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changed = fn
}

// Schedule starts, queues, or rejects item according to the configured policies.
func (c *Controller) Schedule(item tts.PlaybackItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	if c.overOwnerQuota(item.OwnerID) {
		if c.cfg.OwnerOverflowPolicy == tts.OwnerOverflowReject {
			c.publish(tts.EventPlaybackReject, item, tts.ReasonOwnerOverflow)
			return
		}
		if v := c.oldest(func(v *voice) bool { return v.item.OwnerID == item.OwnerID }); v != nil {
			c.evict(v, tts.ReasonOwnerOverflow)
		}
		c.waiting.Push(item)
		c.admit()
		return
	}

	if len(c.active) < c.cfg.MaxVoices {
		c.start(item)
		return
	}

	switch c.cfg.OverflowPolicy {
	case tts.OverflowReject:
		c.publish(tts.EventPlaybackReject, item, tts.ReasonOverflow)
	case tts.OverflowStealOldest:
		if v := c.oldest(nil); v != nil {
			c.evict(v, tts.ReasonStealOldest)
		}
		c.waiting.Push(item)
		c.admit()
	case tts.OverflowStealLowestPriority:
		v := c.lowestPriority()
		if v == nil || v.item.Priority > item.Priority {
			c.publish(tts.EventPlaybackReject, item, tts.ReasonLowerPriority)
			return
		}
		c.evict(v, tts.ReasonStealLowestPriority)
		c.waiting.Push(item)
		c.admit()
	default:
		c.waiting.Push(item)
	}
}

// StopByIntent interrupts every active item of the intent and drops its waiting items.
func (c *Controller) StopByIntent(intentID, reason string) {
	c.stopMatching(func(it tts.PlaybackItem) bool { return it.IntentID == intentID }, reason)
}

// StopByOwner interrupts every active item of the owner and drops its waiting items.
func (c *Controller) StopByOwner(ownerID, reason string) {
	c.stopMatching(func(it tts.PlaybackItem) bool { return it.OwnerID == ownerID }, reason)
}

// StopAll interrupts every active item and clears the waiting queue.
func (c *Controller) StopAll(reason string) {
	c.stopMatching(func(tts.PlaybackItem) bool { return true }, reason)
}

func (c *Controller) stopMatching(match func(tts.PlaybackItem) bool, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()

	for _, v := range c.sortedActive() {
		if match(v.item) {
			c.evict(v, reason)
		}
	}
	if n := c.waiting.Remove(match); n > 0 {
		c.logger.Debug("Dropped waiting items", "count", n, "reason", reason)
	}
	c.admit()
}

// ActiveCount returns the number of items currently playing.
func (c *Controller) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// WaitingCount returns the number of items waiting for a voice.
func (c *Controller) WaitingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting.Len()
}

// Active returns the active items, oldest first.
func (c *Controller) Active() []tts.PlaybackItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	voices := c.sortedActive()
	out := make([]tts.PlaybackItem, len(voices))
	for i, v := range voices {
		out[i] = v.item
	}
	return out
}

// Stats returns the waiting queue statistics.
func (c *Controller) Stats() queue.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting.Stats()
}

// Wait blocks until every started playback call has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// admit starts waiting items in priority order until the global cap is reached.
// Items blocked only by their owner's quota stay queued under the reject policy.
func (c *Controller) admit() {
	var held []queue.Entry
	for len(c.active) < c.cfg.MaxVoices {
		e, ok := c.waiting.PopEntry()
		if !ok {
			break
		}
		if c.overOwnerQuota(e.Item.OwnerID) {
			if c.cfg.OwnerOverflowPolicy != tts.OwnerOverflowStealOldest {
				held = append(held, e)
				continue
			}
			owner := e.Item.OwnerID
			if v := c.oldest(func(v *voice) bool { return v.item.OwnerID == owner }); v != nil {
				c.evict(v, tts.ReasonOwnerOverflow)
			}
		}
		c.start(e.Item)
	}
	for _, e := range held {
		c.waiting.Restore(e)
	}
}

func (c *Controller) start(item tts.PlaybackItem) {
	ctx, cancel := context.WithCancelCause(context.Background())
	c.seq++
	v := &voice{item: item, started: time.Now(), seq: c.seq, cancel: cancel}
	c.active[item.ID] = v
	c.publish(tts.EventPlaybackStart, item, "")

	c.wg.Add(1)
	go c.play(ctx, v)
}

func (c *Controller) play(ctx context.Context, v *voice) {
	defer c.wg.Done()
	err := c.player.Play(ctx, v.item)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.notify()
	v.cancel(nil)
	if c.active[v.item.ID] != v {
		// Already evicted; the interrupt was reported then.
		return
	}
	delete(c.active, v.item.ID)
	if err != nil {
		c.logger.Warn("Playback failed", "item", v.item.ID, "intent", v.item.IntentID, "error", err)
		c.publish(tts.EventPlaybackInterrupt, v.item, err.Error())
	} else {
		c.publish(tts.EventPlaybackEnd, v.item, "")
	}
	c.admit()
}

func (c *Controller) evict(v *voice, reason string) {
	delete(c.active, v.item.ID)
	v.cancel(fmt.Errorf("%w: %s", errEvicted, reason))
	c.publish(tts.EventPlaybackInterrupt, v.item, reason)
}

var errEvicted = errors.New("playback evicted")

func (c *Controller) overOwnerQuota(owner string) bool {
	if c.cfg.MaxVoicesPerOwner == 0 || owner == "" {
		return false
	}
	n := 0
	for _, v := range c.active {
		if v.item.OwnerID == owner {
			n++
		}
	}
	return n >= c.cfg.MaxVoicesPerOwner
}

// oldest returns the earliest started voice matching pred, or any voice if pred is nil.
func (c *Controller) oldest(pred func(*voice) bool) *voice {
	var found *voice
	for _, v := range c.active {
		if pred != nil && !pred(v) {
			continue
		}
		if found == nil || v.seq < found.seq {
			found = v
		}
	}
	return found
}

// lowestPriority returns the active voice with the lowest priority, the oldest on ties.
func (c *Controller) lowestPriority() *voice {
	var found *voice
	for _, v := range c.active {
		if found == nil || v.item.Priority < found.item.Priority ||
			(v.item.Priority == found.item.Priority && v.seq < found.seq) {
			found = v
		}
	}
	return found
}

func (c *Controller) sortedActive() []*voice {
	voices := make([]*voice, 0, len(c.active))
	for _, v := range c.active {
		voices = append(voices, v)
	}
	sort.Slice(voices, func(i, j int) bool { return voices[i].seq < voices[j].seq })
	return voices
}

func (c *Controller) notify() {
	if c.changed != nil {
		c.changed()
	}
}

func (c *Controller) publish(typ tts.EventType, item tts.PlaybackItem, reason string) {
	if c.events == nil {
		return
	}
	c.events.Publish(tts.Event{Type: typ, Time: time.Now(), Reason: reason, Item: &item})
}
