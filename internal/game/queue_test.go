package game

import (
	"testing"
	"time"
)

func TestQueueOrdersByEnqueueTime(t *testing.T) {
	base := time.Unix(1000, 0)
	q := NewQueue()
	q.Push(QueueEntry{MatchID: 2, Username: "Bob", EnqueuedAt: base.Add(2 * time.Second)})
	q.Push(QueueEntry{MatchID: 1, Username: "Alice", EnqueuedAt: base})
	q.Push(QueueEntry{MatchID: 3, Username: "Carol", EnqueuedAt: base.Add(2 * time.Second)})

	got := q.Entries()
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].MatchID != id {
			t.Errorf("position %d: expected match %d, got %d", i, id, got[i].MatchID)
		}
	}
}

func TestQueueFirstReturnsOldestMatch(t *testing.T) {
	base := time.Unix(1000, 0)
	q := NewQueue()
	q.Push(QueueEntry{MatchID: 1, Username: "Alice", EnqueuedAt: base})
	q.Push(QueueEntry{MatchID: 2, Username: "Bob", EnqueuedAt: base.Add(time.Second)})

	e, ok := q.First(func(e QueueEntry) bool { return e.Username != "Alice" })
	if !ok || e.MatchID != 2 {
		t.Errorf("expected match 2, got %+v ok=%v", e, ok)
	}
	e, ok = q.First(func(QueueEntry) bool { return true })
	if !ok || e.MatchID != 1 {
		t.Errorf("expected oldest match 1, got %+v ok=%v", e, ok)
	}
	if _, ok := q.First(func(QueueEntry) bool { return false }); ok {
		t.Error("expected no match")
	}
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue()
	q.Push(QueueEntry{MatchID: 1, EnqueuedAt: time.Unix(1, 0)})
	q.Push(QueueEntry{MatchID: 2, EnqueuedAt: time.Unix(2, 0)})

	if !q.Remove(1) {
		t.Error("expected match 1 to be removed")
	}
	if q.Remove(1) {
		t.Error("second remove should report false")
	}
	if q.Len() != 1 || q.Entries()[0].MatchID != 2 {
		t.Errorf("unexpected queue state %+v", q.Entries())
	}
}
