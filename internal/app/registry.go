// Package app wires the room directory, connection registry, game
// engines and broadcast hub into the server's application core.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/hanamikoji/internal/domain"
)

// ConnID identifies one transport connection for its lifetime.
type ConnID string

// Sender is the outbound side of a connection, implemented by the
// websocket adapter. TrySend must never block.
type Sender interface {
	TrySend(data []byte) error
	Close()
}

type connEntry struct {
	User   domain.UserID
	Room   domain.RoomID
	Sender Sender
	Cancel context.CancelFunc
}

// ConnSnap is a read-only view of a registered connection.
type ConnSnap struct {
	ID     ConnID
	User   domain.UserID
	Sender Sender
}

// Registry maps ephemeral connections to logical user identity and
// the room the connection joined.
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]*connEntry)}
}

func (r *Registry) Register(id ConnID, s Sender, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Sender: s, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection registered")
}

// Bind associates a user identity with a live connection.
func (r *Registry) Bind(id ConnID, user domain.UserID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.User = user
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(user)).Msg("bound user")
	return true
}

func (r *Registry) Resolve(id ConnID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.User == "" {
		return "", false
	}
	return e.User, true
}

func (r *Registry) Sender(id ConnID) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.Sender, true
}

func (r *Registry) SetRoom(id ConnID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.Room = room
	return true
}

func (r *Registry) ClearRoom(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Room = ""
	}
}

func (r *Registry) RoomOf(id ConnID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

// ConnsOfRoom returns every live connection bound to the room.
func (r *Registry) ConnsOfRoom(room domain.RoomID) []ConnSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConnSnap, 0, domain.MaxRoomMembers)
	for id, e := range r.conns {
		if e.Room == room {
			out = append(out, ConnSnap{ID: id, User: e.User, Sender: e.Sender})
		}
	}
	return out
}

func (r *Registry) Unregister(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection unregistered")
}

// Cancel tears down the connection's pumps. Closing the sender also
// closes the underlying socket, so a read pump blocked on the network
// wakes up and drives the normal disconnect path.
func (r *Registry) Cancel(id ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	if e.Sender != nil {
		e.Sender.Close()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("canceled connection")
	return true
}
