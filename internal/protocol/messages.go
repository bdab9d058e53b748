package protocol

// Kind is the wire discriminator carried in the "type" field of every message.
type Kind string

// Server -> client kinds
const (
	KindMatchAssigned      Kind = "match-assigned"
	KindReady              Kind = "ready"
	KindCountdown          Kind = "countdown"
	KindGameStart          Kind = "game-start"
	KindGameState          Kind = "game-state"
	KindGameOver           Kind = "game-over"
	KindGameAbandoned      Kind = "game-abandoned"
	KindPlayerDisconnected Kind = "player-disconnected"
	KindError              Kind = "error"
)

// Client -> server kinds
const (
	KindInput Kind = "input"
)

// Close codes sent when the engine terminates a connection.
const (
	CloseNormal           = 1000
	CloseGoingAway        = 1001
	CloseDuplicateSession = 4001
	CloseMatchError       = 4002
	CloseInternalError    = 4003
)

// Error codes carried by Error messages.
const (
	ErrCodeDuplicateSession = "duplicate-session"
	ErrCodeMatchFull        = "match-full"
	ErrCodeMatchFinished    = "match-finished"
	ErrCodeMatchNotFound    = "match-not-found"
	ErrCodeQueueTimeout     = "matchmaking-timeout"
	ErrCodeInternal         = "internal-error"
	ErrCodeUnauthorized     = "unauthorized"
)

// Outbound is the closed set of server -> client messages. New kinds must
// implement the unexported marker, which keeps the set inside this package.
type Outbound interface {
	Kind() Kind
	outbound()
}

// MatchAssigned tells a client which match and slot it was bound to.
type MatchAssigned struct {
	MatchID  int64  `json:"matchId"`
	Ordinal  int    `json:"ordinal"`
	Username string `json:"username"`
	Created  bool   `json:"created"`
}

// Ready is sent to both players when the second slot binds.
type Ready struct {
	MatchID         int64  `json:"matchId"`
	Player1Username string `json:"player1Username"`
	Player2Username string `json:"player2Username"`
}

type Countdown struct {
	MatchID int64 `json:"matchId"`
	Seconds int   `json:"seconds"`
}

type GameStart struct {
	MatchID int64 `json:"matchId"`
}

// GameState is the full per-tick snapshot.
type GameState struct {
	BallX           float64 `json:"ballX" msgpack:"ballX"`
	BallY           float64 `json:"ballY" msgpack:"ballY"`
	LeftPaddleY     float64 `json:"leftPaddleY" msgpack:"leftPaddleY"`
	RightPaddleY    float64 `json:"rightPaddleY" msgpack:"rightPaddleY"`
	SpeedX          float64 `json:"speedX" msgpack:"speedX"`
	SpeedY          float64 `json:"speedY" msgpack:"speedY"`
	Player1Score    int     `json:"player1Score" msgpack:"player1Score"`
	Player2Score    int     `json:"player2Score" msgpack:"player2Score"`
	Player1Username string  `json:"player1Username" msgpack:"player1Username"`
	Player2Username string  `json:"player2Username" msgpack:"player2Username"`
}

type GameOver struct {
	MatchID        int64  `json:"matchId"`
	Winner         int    `json:"winner"`
	WinnerUsername string `json:"winnerUsername"`
	Player1Score   int    `json:"player1Score"`
	Player2Score   int    `json:"player2Score"`
}

// GameAbandoned ends a match after a disconnect. Winner is 0 when nobody remained.
type GameAbandoned struct {
	MatchID        int64  `json:"matchId"`
	Winner         int    `json:"winner"`
	WinnerUsername string `json:"winnerUsername,omitempty"`
	Reason         string `json:"reason"`
	Player1Score   int    `json:"player1Score"`
	Player2Score   int    `json:"player2Score"`
}

type PlayerDisconnected struct {
	MatchID  int64  `json:"matchId"`
	Ordinal  int    `json:"ordinal"`
	Username string `json:"username"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (MatchAssigned) Kind() Kind      { return KindMatchAssigned }
func (Ready) Kind() Kind              { return KindReady }
func (Countdown) Kind() Kind          { return KindCountdown }
func (GameStart) Kind() Kind          { return KindGameStart }
func (GameState) Kind() Kind          { return KindGameState }
func (GameOver) Kind() Kind           { return KindGameOver }
func (GameAbandoned) Kind() Kind      { return KindGameAbandoned }
func (PlayerDisconnected) Kind() Kind { return KindPlayerDisconnected }
func (Error) Kind() Kind              { return KindError }

func (MatchAssigned) outbound()      {}
func (Ready) outbound()              {}
func (Countdown) outbound()          {}
func (GameStart) outbound()          {}
func (GameState) outbound()          {}
func (GameOver) outbound()           {}
func (GameAbandoned) outbound()      {}
func (PlayerDisconnected) outbound() {}
func (Error) outbound()              {}

// Inbound is the closed set of client -> server messages.
type Inbound interface {
	inbound()
}

// Key is a paddle direction.
type Key string

const (
	KeyUp   Key = "up"
	KeyDown Key = "down"
)

// Input is a keydown/keyup for one direction. Pressed is true for keydown.
type Input struct {
	Pressed bool
	Key     Key
}

func (Input) inbound() {}
