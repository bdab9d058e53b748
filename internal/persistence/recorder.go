package persistence

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/playpong/backend/internal/game"
)

// FailedResult is a completion the gateway rejected, kept for replay.
type FailedResult struct {
	MatchID  int64     `json:"match_id"`
	RecordID int64     `json:"record_id,omitempty"`
	Player1  string    `json:"player1"`
	Player2  string    `json:"player2"`
	Winner   string    `json:"winner,omitempty"`
	Score1   int       `json:"score1"`
	Score2   int       `json:"score2"`
	Started  bool      `json:"started"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

// DeadLetter stores results that could not be written.
type DeadLetter interface {
	Push(ctx context.Context, fr FailedResult) error
}

type job struct {
	start  *startJob
	finish *game.Result
}

type startJob struct {
	matchID          int64
	player1, player2 string
}

// Recorder implements game.Recorder on top of a Gateway. Calls from the
// engine only enqueue; a single worker applies them in order so a match's
// start always reaches the store before its completion.
type Recorder struct {
	gw      Gateway
	dead    DeadLetter
	timeout time.Duration

	jobs    chan job
	records map[int64]int64 // engine match id -> record id, worker only

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewRecorder creates a recorder with a job buffer of queueSize. dead may be
// nil, in which case failures are only logged.
func NewRecorder(gw Gateway, dead DeadLetter, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Recorder{
		gw:      gw,
		dead:    dead,
		timeout: 5 * time.Second,
		jobs:    make(chan job, queueSize),
		records: make(map[int64]int64),
	}
}

// Start runs the worker until Close is called.
func (r *Recorder) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		log.Printf("[PERSIST] Recorder started")
		for j := range r.jobs {
			r.handle(j)
		}
		log.Printf("[PERSIST] Recorder drained and stopped")
	}()
}

// Close stops accepting jobs and waits for queued ones to finish.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) MatchStarted(matchID int64, player1, player2 string) {
	r.enqueue(job{start: &startJob{matchID: matchID, player1: player1, player2: player2}})
}

func (r *Recorder) MatchFinished(res game.Result) {
	r.enqueue(job{finish: &res})
}

func (r *Recorder) enqueue(j job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		log.Printf("[PERSIST] Recorder closed; dropping job for match %d", j.matchID())
		return
	}
	select {
	case r.jobs <- j:
	default:
		log.Printf("[PERSIST] Recorder queue full; dropping job for match %d", j.matchID())
	}
}

func (j job) matchID() int64 {
	if j.start != nil {
		return j.start.matchID
	}
	if j.finish != nil {
		return j.finish.MatchID
	}
	return 0
}

func (r *Recorder) handle(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	switch {
	case j.start != nil:
		r.started(ctx, j.start)
	case j.finish != nil:
		r.finished(ctx, *j.finish)
	}
}

func (r *Recorder) started(ctx context.Context, s *startJob) {
	id, err := r.gw.CreateMatch(ctx, s.player1, s.player2)
	if err != nil {
		// The completion creates the record if this one never made it.
		log.Printf("[PERSIST] Failed to create record for match %d: %v", s.matchID, err)
		return
	}
	r.records[s.matchID] = id
	if err := r.gw.StartMatch(ctx, id); err != nil {
		log.Printf("[PERSIST] Failed to mark match %d (record %d) started: %v", s.matchID, id, err)
		return
	}
	log.Printf("[PERSIST] Match %d recorded as %d", s.matchID, id)
}

func (r *Recorder) finished(ctx context.Context, res game.Result) {
	id, ok := r.records[res.MatchID]
	delete(r.records, res.MatchID)

	fr := FailedResult{
		MatchID:  res.MatchID,
		RecordID: id,
		Player1:  res.Player1,
		Player2:  res.Player2,
		Winner:   res.Winner,
		Score1:   res.Score1,
		Score2:   res.Score2,
		Started:  res.Started,
	}
	if !ok {
		fr.RecordID = 0
	}

	recID, err := Replay(ctx, r.gw, fr)
	if err != nil {
		log.Printf("[PERSIST] Failed to store result of match %d: %v", res.MatchID, err)
		r.deadLetter(fr, recID, err)
		return
	}
	log.Printf("[PERSIST] Match %d result stored (record %d, %s %d-%d)", res.MatchID, recID, res.Winner, res.Score1, res.Score2)
}

func (r *Recorder) deadLetter(fr FailedResult, recID int64, cause error) {
	if r.dead == nil {
		return
	}
	fr.RecordID = recID
	fr.Error = cause.Error()
	fr.FailedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.dead.Push(ctx, fr); err != nil {
		log.Printf("[PERSIST] Failed to dead-letter match %d: %v", fr.MatchID, err)
	}
}

// Replay writes a completion, creating (and starting, when the match had
// started) the record first if fr carries no record id. It returns the record
// id that was used, which is non-zero once the record exists even on failure.
func Replay(ctx context.Context, gw Gateway, fr FailedResult) (int64, error) {
	id := fr.RecordID
	if id == 0 {
		var err error
		if id, err = gw.CreateMatch(ctx, fr.Player1, fr.Player2); err != nil {
			return 0, fmt.Errorf("create record: %w", err)
		}
		if fr.Started {
			if err := gw.StartMatch(ctx, id); err != nil {
				return id, fmt.Errorf("start record %d: %w", id, err)
			}
		}
	}
	if err := gw.CompleteMatch(ctx, id, fr.Winner, fr.Score1, fr.Score2); err != nil {
		return id, fmt.Errorf("complete record %d: %w", id, err)
	}
	return id, nil
}
