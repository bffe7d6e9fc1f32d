package queue

import (
	"container/heap"
	"time"

	"github.com/dgnsrekt/speakflow/tts"
)

// Entry is a waiting playback item with its enqueue order.
type Entry struct {
	Item     tts.PlaybackItem
	Seq      uint64
	Enqueued time.Time
}

// Stats tracks queue activity.
type Stats struct {
	TotalEnqueued int64
	TotalDequeued int64
	TotalDropped  int64
	CurrentSize   int
	PeakSize      int
	LastEnqueue   time.Time
	LastDequeue   time.Time
}

// WaitQueue holds playback items that have not started yet, ordered by
// priority (descending) and then enqueue order (ascending). It is not safe
// for concurrent use; the owner serializes access.
type WaitQueue struct {
	h     priorityQueue
	seq   uint64
	stats Stats
}

// New creates an empty wait queue.
func New() *WaitQueue {
	return &WaitQueue{}
}

// Push enqueues item behind every earlier item of the same priority.
func (q *WaitQueue) Push(item tts.PlaybackItem) {
	q.seq++
	now := time.Now()
	heap.Push(&q.h, Entry{Item: item, Seq: q.seq, Enqueued: now})
	q.stats.TotalEnqueued++
	q.stats.LastEnqueue = now
	q.updateSize()
}

// Restore re-inserts an entry taken with PopEntry, keeping its original order.
func (q *WaitQueue) Restore(e Entry) {
	heap.Push(&q.h, e)
	q.updateSize()
}

// PopEntry removes and returns the highest ranked entry.
func (q *WaitQueue) PopEntry() (Entry, bool) {
	if len(q.h) == 0 {
		return Entry{}, false
	}
	e := heap.Pop(&q.h).(Entry)
	q.stats.TotalDequeued++
	q.stats.LastDequeue = time.Now()
	q.updateSize()
	return e, true
}

// Len returns the number of waiting items.
func (q *WaitQueue) Len() int {
	return len(q.h)
}

// Remove drops every item matching pred and returns how many were dropped.
func (q *WaitQueue) Remove(pred func(tts.PlaybackItem) bool) int {
	kept := q.h[:0]
	removed := 0
	for _, e := range q.h {
		if pred(e.Item) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(q.h); i++ {
		q.h[i] = Entry{}
	}
	q.h = kept
	heap.Init(&q.h)
	q.stats.TotalDropped += int64(removed)
	q.updateSize()
	return removed
}

// Clear drops every waiting item.
func (q *WaitQueue) Clear() int {
	return q.Remove(func(tts.PlaybackItem) bool { return true })
}

// Items returns the waiting items in admission order.
func (q *WaitQueue) Items() []tts.PlaybackItem {
	clone := make(priorityQueue, len(q.h))
	copy(clone, q.h)
	out := make([]tts.PlaybackItem, 0, len(clone))
	for len(clone) > 0 {
		out = append(out, heap.Pop(&clone).(Entry).Item)
	}
	return out
}

// Stats returns a copy of the queue statistics.
func (q *WaitQueue) Stats() Stats {
	return q.stats
}

func (q *WaitQueue) updateSize() {
	q.stats.CurrentSize = len(q.h)
	if q.stats.CurrentSize > q.stats.PeakSize {
		q.stats.PeakSize = q.stats.CurrentSize
	}
}

// priorityQueue implements heap.Interface.
type priorityQueue []Entry

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].Item.Priority != pq[j].Item.Priority {
		return pq[i].Item.Priority > pq[j].Item.Priority
	}
	return pq[i].Seq < pq[j].Seq
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(Entry))
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	e := old[n-1]
	old[n-1] = Entry{}
	*pq = old[:n-1]
	return e
}
