package queue

import (
	"fmt"
	"testing"

	"github.com/dgnsrekt/speakflow/tts"
)

func item(id string, priority int) tts.PlaybackItem {
	return tts.PlaybackItem{ID: id, IntentID: "intent-" + id, Priority: priority}
}

func TestWaitQueue_BasicOperations(t *testing.T) {
	q := New()

	if size := q.Len(); size != 0 {
		t.Errorf("Expected empty queue, got size %d", size)
	}
	if _, ok := q.PopEntry(); ok {
		t.Error("Expected PopEntry on empty queue to report false")
	}

	q.Push(item("a", 100))
	if size := q.Len(); size != 1 {
		t.Errorf("Expected size 1, got %d", size)
	}

	e, ok := q.PopEntry()
	if !ok {
		t.Fatal("Expected an entry")
	}
	if e.Item.ID != "a" {
		t.Errorf("Dequeued wrong item: %v", e.Item)
	}
}

func TestWaitQueue_PriorityThenFIFO(t *testing.T) {
	q := New()
	q.Push(item("low", 0))
	q.Push(item("normal-1", 100))
	q.Push(item("high", 200))
	q.Push(item("normal-2", 100))

	want := []string{"high", "normal-1", "normal-2", "low"}
	for i, id := range want {
		e, ok := q.PopEntry()
		if !ok {
			t.Fatalf("Expected entry %d", i)
		}
		if e.Item.ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, e.Item.ID)
		}
	}
}

func TestWaitQueue_RestoreKeepsOrder(t *testing.T) {
	q := New()
	q.Push(item("first", 100))
	q.Push(item("second", 100))

	e, _ := q.PopEntry()
	q.Push(item("third", 100))
	q.Restore(e)

	got := q.Items()
	want := []string{"first", "second", "third"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestWaitQueue_Remove(t *testing.T) {
	q := New()
	for i := 0; i < 6; i++ {
		it := item(fmt.Sprintf("i%d", i), i*10)
		if i%2 == 0 {
			it.IntentID = "drop"
		}
		q.Push(it)
	}

	removed := q.Remove(func(it tts.PlaybackItem) bool { return it.IntentID == "drop" })
	if removed != 3 {
		t.Errorf("Expected 3 removed, got %d", removed)
	}
	if q.Len() != 3 {
		t.Errorf("Expected 3 remaining, got %d", q.Len())
	}

	got := q.Items()
	want := []string{"i5", "i3", "i1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestWaitQueue_Stats(t *testing.T) {
	q := New()
	q.Push(item("a", 1))
	q.Push(item("b", 2))
	q.Push(item("c", 3))
	q.PopEntry()
	q.Clear()

	stats := q.Stats()
	if stats.TotalEnqueued != 3 {
		t.Errorf("Expected 3 enqueued, got %d", stats.TotalEnqueued)
	}
	if stats.TotalDequeued != 1 {
		t.Errorf("Expected 1 dequeued, got %d", stats.TotalDequeued)
	}
	if stats.TotalDropped != 2 {
		t.Errorf("Expected 2 dropped, got %d", stats.TotalDropped)
	}
	if stats.PeakSize != 3 {
		t.Errorf("Expected peak size 3, got %d", stats.PeakSize)
	}
	if stats.CurrentSize != 0 {
		t.Errorf("Expected current size 0, got %d", stats.CurrentSize)
	}
}
