package game

import "time"

// QueueEntry is a WAITING public match with a single player in it.
type QueueEntry struct {
	MatchID    int64     `json:"match_id"`
	Username   string    `json:"username"`
	Handle     string    `json:"-"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue keeps entries ordered by EnqueuedAt so the oldest waiting player is
// paired first.
type Queue struct {
	entries []QueueEntry
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push inserts e in timestamp order. Entries with equal timestamps keep
// insertion order.
func (q *Queue) Push(e QueueEntry) {
	i := len(q.entries)
	for i > 0 && q.entries[i-1].EnqueuedAt.After(e.EnqueuedAt) {
		i--
	}
	q.entries = append(q.entries, QueueEntry{})
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = e
}

// Remove drops the entry for matchID. It reports whether one was present.
func (q *Queue) Remove(matchID int64) bool {
	for i, e := range q.entries {
		if e.MatchID == matchID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// First returns the oldest entry accepted by fn.
func (q *Queue) First(fn func(QueueEntry) bool) (QueueEntry, bool) {
	for _, e := range q.entries {
		if fn(e) {
			return e, true
		}
	}
	return QueueEntry{}, false
}

// Entries returns a copy in FIFO order.
func (q *Queue) Entries() []QueueEntry {
	out := make([]QueueEntry, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *Queue) Len() int {
	return len(q.entries)
}
