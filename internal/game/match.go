package game

import (
	"time"

	"github.com/playpong/backend/internal/protocol"
)

// Input is the held state of a player's direction keys.
type Input struct {
	Up   bool
	Down bool
}

// Slot is one side of a match. A slot keeps its Username after the
// connection goes away so a reconnect lands on the same ordinal.
type Slot struct {
	Ordinal  int
	Username string
	Handle   string
	Live     bool
	Input    Input
}

// Match is the authoritative state of a single game. It is only touched from
// the manager's event loop.
type Match struct {
	ID        int64
	Status    Status
	Slots     [2]*Slot
	Ball      Ball
	Paddles   [2]Paddle
	Scores    [2]int
	WinScore  int
	Private   bool // created through an explicit match id, never offered by the queue
	CreatedAt time.Time
	StartedAt time.Time

	everBound bool
	countdown int
	ticks     uint64
}

func newMatch(id int64, s Settings, now time.Time) *Match {
	return &Match{
		ID:        id,
		Status:    StatusWaiting,
		Paddles:   newPaddles(s),
		Ball:      Ball{Pos: Vec2{X: s.CourtWidth / 2, Y: s.CourtHeight / 2}, Radius: s.BallRadius},
		WinScore:  s.WinScore,
		CreatedAt: now,
	}
}

// slotFor returns the slot reserved for username, or nil.
func (m *Match) slotFor(username string) *Slot {
	for _, s := range m.Slots {
		if s != nil && s.Username == username {
			return s
		}
	}
	return nil
}

// slot returns the slot for a 1-based ordinal.
func (m *Match) slot(ordinal int) *Slot {
	if ordinal < 1 || ordinal > 2 {
		return nil
	}
	return m.Slots[ordinal-1]
}

// claimSlot reserves the lowest free ordinal for username. It returns nil
// when both slots already belong to other players.
func (m *Match) claimSlot(username string) *Slot {
	for i := range m.Slots {
		if m.Slots[i] == nil {
			m.Slots[i] = &Slot{Ordinal: i + 1, Username: username}
			return m.Slots[i]
		}
	}
	return nil
}

// full reports whether both slots are reserved.
func (m *Match) full() bool {
	return m.Slots[0] != nil && m.Slots[1] != nil
}

// liveCount is the number of slots with a connected handle.
func (m *Match) liveCount() int {
	n := 0
	for _, s := range m.Slots {
		if s != nil && s.Live {
			n++
		}
	}
	return n
}

func (m *Match) username(ordinal int) string {
	if s := m.slot(ordinal); s != nil {
		return s.Username
	}
	return ""
}

func (m *Match) started() bool {
	return !m.StartedAt.IsZero()
}

// Snapshot renders the current state as a game-state message.
func (m *Match) Snapshot() protocol.GameState {
	return protocol.GameState{
		BallX:           m.Ball.Pos.X,
		BallY:           m.Ball.Pos.Y,
		LeftPaddleY:     m.Paddles[0].Y,
		RightPaddleY:    m.Paddles[1].Y,
		SpeedX:          m.Ball.Vel.X,
		SpeedY:          m.Ball.Vel.Y,
		Player1Score:    m.Scores[0],
		Player2Score:    m.Scores[1],
		Player1Username: m.username(1),
		Player2Username: m.username(2),
	}
}

// MatchInfo is a read-only copy of a match for HTTP handlers and tests.
type MatchInfo struct {
	ID        int64              `json:"id"`
	Status    Status             `json:"status"`
	Player1   string             `json:"player1,omitempty"`
	Player2   string             `json:"player2,omitempty"`
	Live      int                `json:"live"`
	Private   bool               `json:"private"`
	CreatedAt time.Time          `json:"created_at"`
	Ticks     uint64             `json:"ticks"`
	State     protocol.GameState `json:"state"`
}

func (m *Match) info() MatchInfo {
	return MatchInfo{
		ID:        m.ID,
		Status:    m.Status,
		Player1:   m.username(1),
		Player2:   m.username(2),
		Live:      m.liveCount(),
		Private:   m.Private,
		CreatedAt: m.CreatedAt,
		Ticks:     m.ticks,
		State:     m.Snapshot(),
	}
}
