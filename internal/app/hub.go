package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/hanamikoji/internal/domain"
)

// Hub serializes outbound payloads and fans them out to the
// connections bound to a room. Delivery is a non-blocking enqueue into
// each connection's FIFO send channel, so per-room event order is the
// enqueue order; the write pumps do the actual network I/O.
type Hub struct {
	reg *Registry
}

func NewHub(reg *Registry) *Hub {
	return &Hub{reg: reg}
}

// ToConn sends one payload to exactly one connection. Used for join
// confirmations and rejected-action errors.
func (h *Hub) ToConn(id ConnID, v any) {
	s, ok := h.reg.Sender(id)
	if !ok {
		return
	}
	h.send(id, s, v)
}

// ToRoom sends the same payload to every connection in the room.
func (h *Hub) ToRoom(roomID domain.RoomID, v any) {
	for _, snap := range h.reg.ConnsOfRoom(roomID) {
		h.send(snap.ID, snap.Sender, v)
	}
}

// ToRoomExcept skips one connection, for "someone else joined" style
// notifications.
func (h *Hub) ToRoomExcept(roomID domain.RoomID, except ConnID, v any) {
	for _, snap := range h.reg.ConnsOfRoom(roomID) {
		if snap.ID == except {
			continue
		}
		h.send(snap.ID, snap.Sender, v)
	}
}

// ToRoomViewers builds a per-viewer payload for each member, so
// redacted game snapshots never leave the server wrong-sided.
func (h *Hub) ToRoomViewers(roomID domain.RoomID, build func(viewer domain.UserID) any) {
	for _, snap := range h.reg.ConnsOfRoom(roomID) {
		h.send(snap.ID, snap.Sender, build(snap.User))
	}
}

func (h *Hub) send(id ConnID, s Sender, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("marshal payload")
		return
	}
	if err := s.TrySend(b); err != nil {
		// Slow or dead consumer: kick it, the read pump exit cleans up.
		log.Warn().Err(err).Str("module", "app.hub").Str("conn", string(id)).Msg("send failed, kicking")
		h.reg.Cancel(id)
	}
}
