package game

import (
	"log"
	"time"

	"github.com/playpong/backend/internal/protocol"
)

// Result is the final outcome of a match handed to the Recorder.
type Result struct {
	MatchID       int64
	Player1       string
	Player2       string
	Winner        string
	WinnerOrdinal int
	Score1        int
	Score2        int
	Abandoned     bool
	Reason        string
	Started       bool
	FinishedAt    time.Time
}

// Recorder receives lifecycle calls for persistence. Both methods are called
// from the event loop and must return promptly.
type Recorder interface {
	MatchStarted(matchID int64, player1, player2 string)
	MatchFinished(res Result)
}

// Event types published through the Notifier.
const (
	EventStarted   = "match_started"
	EventScored    = "match_scored"
	EventFinished  = "match_finished"
	EventAbandoned = "match_abandoned"
	EventExpired   = "match_expired"
)

// Event is a lifecycle notification for external observers.
type Event struct {
	Type    string              `json:"type"`
	MatchID int64               `json:"match_id"`
	Status  Status              `json:"status"`
	Player1 string              `json:"player1,omitempty"`
	Player2 string              `json:"player2,omitempty"`
	Score1  int                 `json:"score1"`
	Score2  int                 `json:"score2"`
	Winner  string              `json:"winner,omitempty"`
	Reason  string              `json:"reason,omitempty"`
	At      time.Time           `json:"at"`
	State   *protocol.GameState `json:"state,omitempty"`
}

// Notifier publishes lifecycle events. Notify must not block.
type Notifier interface {
	Notify(ev Event)
}

type logRecorder struct{}

func (logRecorder) MatchStarted(matchID int64, player1, player2 string) {
	log.Printf("[PERSIST] no recorder configured; match %d started (%s vs %s)", matchID, player1, player2)
}

func (logRecorder) MatchFinished(res Result) {
	log.Printf("[PERSIST] no recorder configured; match %d finished %d-%d winner=%q", res.MatchID, res.Score1, res.Score2, res.Winner)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
