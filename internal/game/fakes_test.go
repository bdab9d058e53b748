package game

import (
	"sync"
	"time"

	"github.com/playpong/backend/internal/protocol"
)

type fakeConn struct {
	mu     sync.Mutex
	msgs   []protocol.Outbound
	closed bool
	code   int
	reason string
}

func (c *fakeConn) Send(msg protocol.Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

func (c *fakeConn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.code = code
	c.reason = reason
}

func (c *fakeConn) closedWith() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code, c.closed
}

func (c *fakeConn) messages() []protocol.Outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Outbound, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *fakeConn) kinds() []protocol.Kind {
	var out []protocol.Kind
	for _, m := range c.messages() {
		out = append(out, m.Kind())
	}
	return out
}

func (c *fakeConn) count(kind protocol.Kind) int {
	n := 0
	for _, k := range c.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

func (c *fakeConn) last() protocol.Outbound {
	msgs := c.messages()
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = nil
}

// manualScheduler records tasks without running them; tests call tick directly.
type manualScheduler struct {
	tasks   map[int64]func()
	stopped []int64
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{tasks: make(map[int64]func())}
}

func (s *manualScheduler) Start(id int64, _ time.Duration, tick func()) bool {
	if _, ok := s.tasks[id]; ok {
		return false
	}
	s.tasks[id] = tick
	return true
}

func (s *manualScheduler) Stop(id int64) bool {
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	s.stopped = append(s.stopped, id)
	return true
}

func (s *manualScheduler) Running(id int64) bool {
	_, ok := s.tasks[id]
	return ok
}

func (s *manualScheduler) StopAll() {
	for id := range s.tasks {
		s.Stop(id)
	}
}

type fakeRecorder struct {
	mu       sync.Mutex
	started  []int64
	finished []Result
}

func (r *fakeRecorder) MatchStarted(id int64, _, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, id)
}

func (r *fakeRecorder) MatchFinished(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, res)
}

func (r *fakeRecorder) results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.finished...)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *fakeNotifier) Notify(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *fakeNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}
