package game

import (
	"errors"

	"github.com/google/uuid"
	"github.com/playpong/backend/internal/protocol"
)

// Conn is the outbound side of a player connection. Send must not block;
// implementations drop or close slow consumers themselves.
type Conn interface {
	Send(msg protocol.Outbound)
	Close(code int, reason string)
}

var errHandleBound = errors.New("handle already bound to another match")

type binding struct {
	conn     Conn
	username string
	matchID  int64
	ordinal  int
}

// Registry maps opaque connection handles to their sockets and to the match
// slot they are bound to. It is owned by the manager's event loop.
type Registry struct {
	conns     map[string]*binding
	newHandle func() string
}

func NewRegistry() *Registry {
	return &Registry{
		conns:     make(map[string]*binding),
		newHandle: uuid.NewString,
	}
}

// Attach registers a new connection and returns its handle.
func (r *Registry) Attach(conn Conn, username string) string {
	h := r.newHandle()
	r.conns[h] = &binding{conn: conn, username: username}
	return h
}

func (r *Registry) lookup(handle string) (*binding, bool) {
	b, ok := r.conns[handle]
	return b, ok
}

// Bind places handle into the slot for username, reserving a new ordinal if
// the username has none yet. Binding the same handle twice is a no-op.
func (r *Registry) Bind(m *Match, username, handle string) (int, error) {
	b, ok := r.conns[handle]
	if !ok {
		return 0, ErrUnknownHandle
	}
	if m.Status == StatusFinished {
		return 0, ErrMatchFinished
	}
	if b.matchID != 0 && b.matchID != m.ID {
		return 0, errHandleBound
	}

	slot := m.slotFor(username)
	if slot == nil {
		if slot = m.claimSlot(username); slot == nil {
			return 0, ErrMatchFull
		}
	}
	if slot.Live {
		if slot.Handle == handle {
			return slot.Ordinal, nil
		}
		return 0, ErrDuplicateSession
	}

	slot.Handle = handle
	slot.Live = true
	slot.Input = Input{}
	m.everBound = true

	b.username = username
	b.matchID = m.ID
	b.ordinal = slot.Ordinal
	return slot.Ordinal, nil
}

// Unbind clears the slot held by handle and forgets the handle. It returns
// the cleared slot, or nil when handle held no slot in m.
func (r *Registry) Unbind(m *Match, handle string) *Slot {
	b, ok := r.conns[handle]
	if !ok {
		return nil
	}
	delete(r.conns, handle)
	if m == nil || b.matchID != m.ID {
		return nil
	}
	slot := m.slot(b.ordinal)
	if slot == nil || slot.Handle != handle {
		return nil
	}
	slot.Live = false
	slot.Handle = ""
	slot.Input = Input{}
	return slot
}

// Send delivers msg to a single handle. Unknown handles are ignored.
func (r *Registry) Send(handle string, msg protocol.Outbound) {
	if b, ok := r.conns[handle]; ok {
		b.conn.Send(msg)
	}
}

// Broadcast sends msg to every live slot of m.
func (r *Registry) Broadcast(m *Match, msg protocol.Outbound) {
	for _, s := range m.Slots {
		if s != nil && s.Live {
			r.Send(s.Handle, msg)
		}
	}
}

// Release closes the connection with code and forgets the handle.
func (r *Registry) Release(handle string, code int, reason string) {
	b, ok := r.conns[handle]
	if !ok {
		return
	}
	delete(r.conns, handle)
	b.conn.Close(code, reason)
}

// Detach forgets a handle without closing it.
func (r *Registry) Detach(handle string) {
	delete(r.conns, handle)
}

// ReleaseAll closes every remaining connection.
func (r *Registry) ReleaseAll(code int, reason string) {
	for h := range r.conns {
		r.Release(h, code, reason)
	}
}

func (r *Registry) Len() int {
	return len(r.conns)
}
