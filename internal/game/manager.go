package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/playpong/backend/internal/protocol"
)

var (
	ErrDuplicateSession = errors.New("username already has a live connection in this match")
	ErrMatchFull        = errors.New("match already has two players")
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchFinished    = errors.New("match is finished")
	ErrUnknownHandle    = errors.New("unknown connection handle")
	ErrStopped          = errors.New("game manager stopped")
)

// Options carries the collaborators of a GameManager. Nil fields fall back to
// a ticker scheduler, a log-only recorder, a no-op notifier, a time-seeded
// random source and time.Now.
type Options struct {
	Scheduler Scheduler
	Recorder  Recorder
	Notifier  Notifier
	Rand      *rand.Rand
	Now       func() time.Time
}

// GameManager owns every match, the matchmaking queue and the connection
// registry. All state is mutated on the goroutine running Run; exported
// methods post closures to it and wait for them to complete.
type GameManager struct {
	settings  Settings
	matches   map[int64]*Match
	players   map[string]int64 // username -> match id while the match is live
	queue     *Queue
	registry  *Registry
	scheduler Scheduler
	recorder  Recorder
	notifier  Notifier
	rng       *rand.Rand
	now       func() time.Time
	lastID    int64

	ops  chan func()
	done chan struct{}
}

func NewGameManager(settings Settings, opts Options) *GameManager {
	gm := &GameManager{
		settings:  settings,
		matches:   make(map[int64]*Match),
		players:   make(map[string]int64),
		queue:     NewQueue(),
		registry:  NewRegistry(),
		scheduler: opts.Scheduler,
		recorder:  opts.Recorder,
		notifier:  opts.Notifier,
		rng:       opts.Rand,
		now:       opts.Now,
		ops:       make(chan func()),
		done:      make(chan struct{}),
	}
	if gm.scheduler == nil {
		gm.scheduler = NewTickerScheduler(gm.ops)
	}
	if gm.recorder == nil {
		gm.recorder = logRecorder{}
	}
	if gm.notifier == nil {
		gm.notifier = nopNotifier{}
	}
	if gm.rng == nil {
		seed := uint64(time.Now().UnixNano())
		gm.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if gm.now == nil {
		gm.now = time.Now
	}
	return gm
}

// Settings returns the rules the manager was built with.
func (gm *GameManager) Settings() Settings {
	return gm.settings
}

// Run processes operations until ctx is cancelled, then stops every tick
// task and closes all connections with 1001.
func (gm *GameManager) Run(ctx context.Context) {
	log.Printf("[GAME] Manager loop started (tick=%v win=%d)", gm.settings.TickInterval, gm.settings.WinScore)
	defer close(gm.done)
	for {
		select {
		case <-ctx.Done():
			gm.shutdown()
			log.Printf("[GAME] Manager loop stopped")
			return
		case op := <-gm.ops:
			op()
		}
	}
}

// exec runs fn on the event loop and waits for it.
func (gm *GameManager) exec(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		fn()
	}
	select {
	case gm.ops <- op:
	case <-gm.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-gm.done:
		return ErrStopped
	}
}

// JoinRequest describes a new connection asking to play.
type JoinRequest struct {
	Username string
	MatchID  int64 // 0 for the public queue
	Conn     Conn
}

// JoinResult is what a successful join was bound to.
type JoinResult struct {
	Handle  string
	MatchID int64
	Ordinal int
	Created bool
}

// Join attaches conn, places the player in a match and binds it.
func (gm *GameManager) Join(ctx context.Context, req JoinRequest) (JoinResult, error) {
	var res JoinResult
	var joinErr error
	if err := gm.exec(ctx, func() { res, joinErr = gm.join(req) }); err != nil {
		return JoinResult{}, err
	}
	return res, joinErr
}

// Dispatch handles a raw inbound payload from handle. Malformed payloads are
// logged and dropped.
func (gm *GameManager) Dispatch(ctx context.Context, handle string, payload []byte) error {
	return gm.exec(ctx, func() { gm.receive(handle, payload) })
}

// Disconnect reports that handle's socket closed.
func (gm *GameManager) Disconnect(ctx context.Context, handle string) error {
	return gm.exec(ctx, func() { gm.unbind(handle) })
}

// Match returns a copy of a live match.
func (gm *GameManager) Match(ctx context.Context, id int64) (MatchInfo, bool, error) {
	var info MatchInfo
	var ok bool
	err := gm.exec(ctx, func() {
		var m *Match
		if m, ok = gm.matches[id]; ok {
			info = m.info()
		}
	})
	return info, ok, err
}

// Stats is a point in time view of the manager.
type Stats struct {
	Waiting     int          `json:"waiting"`
	Active      int          `json:"active"`
	Connections int          `json:"connections"`
	Queue       []QueueEntry `json:"queue"`
	Matches     []MatchInfo  `json:"matches,omitempty"`
}

func (gm *GameManager) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := gm.exec(ctx, func() { st = gm.stats() })
	return st, err
}

// ExpireWaiting purges WAITING matches older than the waiting timeout.
func (gm *GameManager) ExpireWaiting(ctx context.Context) (int, error) {
	var n int
	err := gm.exec(ctx, func() { n = gm.expireWaiting(gm.now()) })
	return n, err
}

func (gm *GameManager) join(req JoinRequest) (JoinResult, error) {
	handle := gm.registry.Attach(req.Conn, req.Username)

	var id int64
	var created bool
	var err error
	if req.MatchID > 0 {
		id, created, err = gm.claim(req.MatchID, req.Username)
	} else {
		id, created, err = gm.enqueue(req.Username, handle)
	}
	if err != nil {
		gm.registry.Detach(handle)
		return JoinResult{}, err
	}

	m := gm.matches[id]
	ordinal, err := gm.registry.Bind(m, req.Username, handle)
	if err != nil {
		gm.registry.Detach(handle)
		if created {
			gm.discard(m)
		} else if m.slotFor(req.Username) == nil && gm.players[req.Username] == id {
			delete(gm.players, req.Username)
		}
		return JoinResult{}, err
	}
	gm.players[req.Username] = id

	log.Printf("[GAME] %s bound to match %d as player %d (handle=%s)", req.Username, id, ordinal, handle)
	gm.registry.Send(handle, protocol.MatchAssigned{MatchID: id, Ordinal: ordinal, Username: req.Username, Created: created})

	if m.Status == StatusWaiting && m.liveCount() == 2 {
		gm.activate(m)
	}
	return JoinResult{Handle: handle, MatchID: id, Ordinal: ordinal, Created: created}, nil
}

// enqueue returns the match the username should be bound to. A username that
// already sits in a live match gets that match back, unless the slot is held
// by a different live handle.
func (gm *GameManager) enqueue(username, handle string) (int64, bool, error) {
	if id, ok := gm.players[username]; ok {
		if m, ok := gm.matches[id]; ok && m.Status != StatusFinished {
			if s := m.slotFor(username); s != nil && s.Live && s.Handle != handle {
				return 0, false, ErrDuplicateSession
			}
			return id, false, nil
		}
		delete(gm.players, username)
	}

	entry, ok := gm.queue.First(func(e QueueEntry) bool {
		m, ok := gm.matches[e.MatchID]
		return ok && m.Status == StatusWaiting && m.liveCount() == 1 &&
			!m.full() && m.slotFor(username) == nil
	})
	if ok {
		gm.players[username] = entry.MatchID
		return entry.MatchID, false, nil
	}

	gm.lastID++
	m := newMatch(gm.lastID, gm.settings, gm.now())
	gm.matches[m.ID] = m
	gm.players[username] = m.ID
	gm.queue.Push(QueueEntry{MatchID: m.ID, Username: username, Handle: handle, EnqueuedAt: m.CreatedAt})
	log.Printf("[QUEUE] %s waiting in new match %d (queue=%d)", username, m.ID, gm.queue.Len())
	return m.ID, true, nil
}

// maxIDAhead bounds how far an explicit id may skip past the last allocated
// one, so ids stay positive and monotonic.
const maxIDAhead = 1 << 20

// claim resolves an explicit match id. Ids above anything allocated so far
// (by at most maxIDAhead) create the match; lower ids that are no longer live
// are finished.
func (gm *GameManager) claim(id int64, username string) (int64, bool, error) {
	if other, ok := gm.players[username]; ok && other != id {
		if m, ok := gm.matches[other]; ok && m.Status != StatusFinished {
			if s := m.slotFor(username); s != nil && s.Live {
				return 0, false, ErrDuplicateSession
			}
		}
	}

	m, ok := gm.matches[id]
	created := false
	if !ok {
		if id <= gm.lastID {
			return 0, false, ErrMatchFinished
		}
		if id-gm.lastID > maxIDAhead {
			return 0, false, ErrMatchNotFound
		}
		m = newMatch(id, gm.settings, gm.now())
		m.Private = true
		gm.matches[id] = m
		gm.lastID = id
		created = true
		log.Printf("[GAME] Created match %d on request of %s", id, username)
	}
	if m.Status == StatusFinished {
		return 0, false, ErrMatchFinished
	}
	if m.slotFor(username) == nil && m.full() {
		return 0, false, ErrMatchFull
	}
	return id, created, nil
}

// discard drops a match that never got a player bound to it.
func (gm *GameManager) discard(m *Match) {
	if m.everBound {
		return
	}
	delete(gm.matches, m.ID)
	gm.queue.Remove(m.ID)
	for name, id := range gm.players {
		if id == m.ID {
			delete(gm.players, name)
		}
	}
}

func (gm *GameManager) activate(m *Match) {
	m.Status = StatusActive
	m.StartedAt = gm.now()
	gm.queue.Remove(m.ID)
	m.Paddles = newPaddles(gm.settings)
	m.Ball = serve(gm.settings, gm.rng)
	m.countdown = gm.settings.CountdownSeconds * gm.settings.TicksPerSecond()

	p1, p2 := m.username(1), m.username(2)
	log.Printf("[GAME] Match %d active: %s vs %s", m.ID, p1, p2)
	gm.registry.Broadcast(m, protocol.Ready{MatchID: m.ID, Player1Username: p1, Player2Username: p2})
	if m.countdown == 0 {
		gm.registry.Broadcast(m, protocol.GameStart{MatchID: m.ID})
	}

	id := m.ID
	gm.scheduler.Start(id, gm.settings.TickInterval, func() { gm.tick(id) })
	gm.recorder.MatchStarted(id, p1, p2)
	gm.notify(EventStarted, m, 0, "")
}

// tick advances one match by a single step and broadcasts the snapshot.
func (gm *GameManager) tick(id int64) {
	m, ok := gm.matches[id]
	if !ok || m.Status != StatusActive {
		gm.scheduler.Stop(id)
		return
	}
	if m.liveCount() < 2 {
		gm.abandon(m, "opponent disconnected")
		return
	}
	m.ticks++

	if m.countdown > 0 {
		tps := gm.settings.TicksPerSecond()
		if m.countdown%tps == 0 {
			gm.registry.Broadcast(m, protocol.Countdown{MatchID: id, Seconds: m.countdown / tps})
		}
		m.countdown--
		if m.countdown == 0 {
			gm.registry.Broadcast(m, protocol.GameStart{MatchID: id})
		}
		return
	}

	res := m.step(gm.settings, gm.rng)
	if res.Scorer != 0 {
		log.Printf("[GAME] Match %d: player %d scored (%d-%d)", id, res.Scorer, m.Scores[0], m.Scores[1])
		if m.Scores[res.Scorer-1] >= m.WinScore {
			gm.finish(m, res.Scorer)
			return
		}
		gm.notify(EventScored, m, 0, "")
	}
	gm.registry.Broadcast(m, m.Snapshot())
}

// finish ends a match that reached the win score. The tick task is cancelled
// before anything else so no snapshot follows game-over.
func (gm *GameManager) finish(m *Match, winner int) {
	gm.scheduler.Stop(m.ID)
	m.Status = StatusFinished

	winnerName := m.username(winner)
	log.Printf("[GAME] Match %d over: %s wins %d-%d", m.ID, winnerName, m.Scores[0], m.Scores[1])
	gm.registry.Broadcast(m, protocol.GameOver{
		MatchID:        m.ID,
		Winner:         winner,
		WinnerUsername: winnerName,
		Player1Score:   m.Scores[0],
		Player2Score:   m.Scores[1],
	})
	gm.record(m, winner, false, "")
	gm.notify(EventFinished, m, winner, "")
	gm.purge(m, protocol.CloseNormal, "match finished")
}

// abandon ends a match after a disconnect. The remaining live player, if any,
// is the winner.
func (gm *GameManager) abandon(m *Match, reason string) {
	gm.scheduler.Stop(m.ID)
	m.Status = StatusFinished

	winner := 0
	for _, s := range m.Slots {
		if s != nil && s.Live {
			winner = s.Ordinal
		}
	}
	log.Printf("[GAME] Match %d abandoned (%s), winner=%d", m.ID, reason, winner)
	gm.registry.Broadcast(m, protocol.GameAbandoned{
		MatchID:        m.ID,
		Winner:         winner,
		WinnerUsername: m.username(winner),
		Reason:         reason,
		Player1Score:   m.Scores[0],
		Player2Score:   m.Scores[1],
	})
	gm.record(m, winner, true, reason)
	gm.notify(EventAbandoned, m, winner, reason)
	gm.purge(m, protocol.CloseNormal, reason)
}

// record forwards the outcome to the recorder. Matches that never had two
// players have nothing to persist.
func (gm *GameManager) record(m *Match, winner int, abandoned bool, reason string) {
	p1, p2 := m.username(1), m.username(2)
	if p1 == "" || p2 == "" {
		log.Printf("[GAME] Match %d had no opponent; result not recorded", m.ID)
		return
	}
	gm.recorder.MatchFinished(Result{
		MatchID:       m.ID,
		Player1:       p1,
		Player2:       p2,
		Winner:        m.username(winner),
		WinnerOrdinal: winner,
		Score1:        m.Scores[0],
		Score2:        m.Scores[1],
		Abandoned:     abandoned,
		Reason:        reason,
		Started:       m.started(),
		FinishedAt:    gm.now(),
	})
}

// purge closes the remaining connections of a finished match and removes it
// from every index.
func (gm *GameManager) purge(m *Match, code int, reason string) {
	for _, s := range m.Slots {
		if s == nil {
			continue
		}
		if s.Live {
			gm.registry.Release(s.Handle, code, reason)
			s.Live = false
			s.Handle = ""
		}
		if gm.players[s.Username] == m.ID {
			delete(gm.players, s.Username)
		}
	}
	gm.queue.Remove(m.ID)
	delete(gm.matches, m.ID)
}

// unbind handles a closed socket. Stale handles are ignored.
func (gm *GameManager) unbind(handle string) {
	b, ok := gm.registry.lookup(handle)
	if !ok {
		return
	}
	m, ok := gm.matches[b.matchID]
	if !ok {
		gm.registry.Detach(handle)
		return
	}
	slot := gm.registry.Unbind(m, handle)
	if slot == nil {
		return
	}
	log.Printf("[WS] %s disconnected from match %d (status=%s)", slot.Username, m.ID, m.Status)

	if m.Status == StatusActive || (m.Status == StatusWaiting && m.everBound) {
		gm.registry.Broadcast(m, protocol.PlayerDisconnected{MatchID: m.ID, Ordinal: slot.Ordinal, Username: slot.Username})
		gm.abandon(m, fmt.Sprintf("%s disconnected", slot.Username))
	}
}

// receive decodes and applies a client payload.
func (gm *GameManager) receive(handle string, payload []byte) {
	msg, err := protocol.Decode(payload)
	if err != nil {
		log.Printf("[WS] Dropping message from %s: %v", handle, err)
		return
	}
	switch v := msg.(type) {
	case protocol.Input:
		gm.input(handle, v)
	default:
		log.Printf("[WS] Unhandled message %T from %s", msg, handle)
	}
}

func (gm *GameManager) input(handle string, in protocol.Input) {
	b, ok := gm.registry.lookup(handle)
	if !ok {
		log.Printf("[WS] Input from unknown handle %s", handle)
		return
	}
	m, ok := gm.matches[b.matchID]
	if !ok || m.Status == StatusFinished {
		return
	}
	s := m.slot(b.ordinal)
	if s == nil || s.Handle != handle {
		return
	}
	switch in.Key {
	case protocol.KeyUp:
		s.Input.Up = in.Pressed
	case protocol.KeyDown:
		s.Input.Down = in.Pressed
	}
}

func (gm *GameManager) expireWaiting(now time.Time) int {
	n := 0
	for _, m := range gm.matches {
		if m.Status != StatusWaiting || now.Sub(m.CreatedAt) < gm.settings.WaitingTimeout {
			continue
		}
		m.Status = StatusFinished
		log.Printf("[QUEUE] Match %d expired after %v without an opponent", m.ID, now.Sub(m.CreatedAt).Round(time.Second))
		gm.registry.Broadcast(m, protocol.Error{Code: protocol.ErrCodeQueueTimeout, Message: "no opponent found"})
		gm.notify(EventExpired, m, 0, "matchmaking timeout")
		gm.purge(m, protocol.CloseMatchError, "matchmaking timeout")
		n++
	}
	return n
}

func (gm *GameManager) stats() Stats {
	st := Stats{Queue: gm.queue.Entries(), Connections: gm.registry.Len()}
	for _, m := range gm.matches {
		switch m.Status {
		case StatusWaiting:
			st.Waiting++
		case StatusActive:
			st.Active++
		}
		st.Matches = append(st.Matches, m.info())
	}
	return st
}

func (gm *GameManager) notify(kind string, m *Match, winner int, reason string) {
	ev := Event{
		Type:    kind,
		MatchID: m.ID,
		Status:  m.Status,
		Player1: m.username(1),
		Player2: m.username(2),
		Score1:  m.Scores[0],
		Score2:  m.Scores[1],
		Winner:  m.username(winner),
		Reason:  reason,
		At:      gm.now(),
	}
	if m.Status == StatusActive {
		snap := m.Snapshot()
		ev.State = &snap
	}
	gm.notifier.Notify(ev)
}

func (gm *GameManager) shutdown() {
	gm.scheduler.StopAll()
	for id, m := range gm.matches {
		wasActive := m.Status == StatusActive
		m.Status = StatusFinished
		if wasActive {
			gm.record(m, 0, true, "server shutdown")
		}
		for _, s := range m.Slots {
			if s != nil && s.Live {
				gm.registry.Release(s.Handle, protocol.CloseGoingAway, "server shutting down")
			}
		}
		delete(gm.matches, id)
	}
	gm.registry.ReleaseAll(protocol.CloseGoingAway, "server shutting down")
	log.Printf("[GAME] Shutdown complete")
}
