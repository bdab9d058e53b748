package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playpong/backend/internal/auth"
	"github.com/playpong/backend/internal/game"
	"github.com/playpong/backend/internal/protocol"
)

// Engine is the part of the game manager the transport needs.
type Engine interface {
	Join(ctx context.Context, req game.JoinRequest) (game.JoinResult, error)
	Dispatch(ctx context.Context, handle string, payload []byte) error
	Disconnect(ctx context.Context, handle string) error
}

// Handler upgrades /ws requests and hands the socket to the engine.
type Handler struct {
	engine   Engine
	verifier *auth.Verifier
	upgrader websocket.Upgrader
}

// NewHandler builds the websocket endpoint. verifier may be nil to accept any
// username. allowedOrigins empty or containing "*" allows every origin.
func NewHandler(engine Engine, verifier *auth.Verifier, allowedOrigins []string) *Handler {
	return &Handler{
		engine:   engine,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Serve handles GET /ws?username=<name>[&matchId=<id>][&features=binary][&token=<jwt>].
func (h *Handler) Serve(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username required"})
		return
	}

	var matchID int64
	if raw := c.Query("matchId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "matchId must be a positive integer"})
			return
		}
		matchID = id
	}

	if h.verifier != nil {
		if err := h.verifier.Verify(auth.TokenFromRequest(c.Request), username); err != nil {
			log.Printf("[AUTH] Rejected websocket for %s: %v", username, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": protocol.ErrCodeUnauthorized})
			return
		}
	}

	features, unknown := protocol.ParseFeatures(c.Query("features"))
	if len(unknown) > 0 {
		log.Printf("[WS] Ignoring unknown features %v from %s", unknown, username)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := newClient(conn, username, features)
	go client.writePump()

	res, err := h.engine.Join(c.Request.Context(), game.JoinRequest{Username: username, MatchID: matchID, Conn: client})
	if err != nil {
		code, errCode := closeCodeFor(err)
		log.Printf("[WS] Join rejected for %s (match %d): %v", username, matchID, err)
		client.Send(protocol.Error{Code: errCode, Message: err.Error()})
		client.Close(code, errCode)
		return
	}
	client.handle = res.Handle

	go client.readPump(h.engine)
}

// closeCodeFor maps a join failure to a close code and an error code.
func closeCodeFor(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrDuplicateSession):
		return protocol.CloseDuplicateSession, protocol.ErrCodeDuplicateSession
	case errors.Is(err, game.ErrMatchFull):
		return protocol.CloseMatchError, protocol.ErrCodeMatchFull
	case errors.Is(err, game.ErrMatchFinished):
		return protocol.CloseMatchError, protocol.ErrCodeMatchFinished
	case errors.Is(err, game.ErrMatchNotFound):
		return protocol.CloseMatchError, protocol.ErrCodeMatchNotFound
	case errors.Is(err, game.ErrStopped):
		return protocol.CloseGoingAway, protocol.ErrCodeInternal
	default:
		return protocol.CloseInternalError, protocol.ErrCodeInternal
	}
}
