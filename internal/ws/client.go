package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playpong/backend/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

type frame struct {
	kind int
	data []byte
}

// Client is one player's socket. It implements game.Conn: Send and Close
// never block the engine; the write pump owns the socket's write side.
type Client struct {
	conn     *websocket.Conn
	username string
	features protocol.Features
	handle   string

	send    chan frame
	closing chan frame

	mu     sync.Mutex
	closed bool
}

func newClient(conn *websocket.Conn, username string, features protocol.Features) *Client {
	return &Client{
		conn:     conn,
		username: username,
		features: features,
		send:     make(chan frame, sendBuffer),
		closing:  make(chan frame, 1),
	}
}

// Send encodes msg and queues it. Messages are dropped when the buffer is
// full or the client is closing.
func (c *Client) Send(msg protocol.Outbound) {
	f, err := c.encode(msg)
	if err != nil {
		log.Printf("[WS] Failed to encode %s for %s: %v", msg.Kind(), c.username, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- f:
	default:
		log.Printf("[WS] Send buffer full for %s, dropping %s", c.username, msg.Kind())
	}
}

func (c *Client) encode(msg protocol.Outbound) (frame, error) {
	if st, ok := msg.(protocol.GameState); ok && c.features.Binary {
		data, err := protocol.EncodeBinary(st)
		return frame{kind: websocket.BinaryMessage, data: data}, err
	}
	data, err := protocol.Encode(msg)
	return frame{kind: websocket.TextMessage, data: data}, err
}

// Close queues a close frame after any pending messages. Later calls are
// ignored.
func (c *Client) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closing <- frame{kind: websocket.CloseMessage, data: websocket.FormatCloseMessage(code, reason)}
}

// writePump writes queued frames and pings to the socket.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.conn.Close()
	}()

	for {
		select {
		case f := <-c.send:
			if err := c.write(f); err != nil {
				log.Printf("[WS] Write error for %s: %v", c.username, err)
				return
			}

		case f := <-c.closing:
			c.drain()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			// Best-effort; the peer may already be gone.
			c.conn.WriteMessage(websocket.CloseMessage, f.data)
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for %s: %v", c.username, err)
				return
			}
		}
	}
}

func (c *Client) write(f frame) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(f.kind, f.data)
}

// drain flushes frames queued before Close.
func (c *Client) drain() {
	for {
		select {
		case f := <-c.send:
			if err := c.write(f); err != nil {
				return
			}
		default:
			return
		}
	}
}

// readPump forwards client frames to the engine until the socket fails,
// then reports the disconnect.
func (c *Client) readPump(engine Engine) {
	defer func() {
		if err := engine.Disconnect(context.Background(), c.handle); err != nil {
			log.Printf("[WS] Disconnect of %s not delivered: %v", c.username, err)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for %s: %v", c.username, err)
			}
			return
		}
		if kind != websocket.TextMessage {
			log.Printf("[WS] Ignoring non-text frame from %s", c.username)
			continue
		}
		if err := engine.Dispatch(context.Background(), c.handle, message); err != nil {
			log.Printf("[WS] Dispatch for %s failed: %v", c.username, err)
			return
		}
	}
}
