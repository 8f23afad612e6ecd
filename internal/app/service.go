package app

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/hanamikoji/internal/domain"
	"github.com/dkeye/hanamikoji/internal/game"
)

// Service dispatches inbound intents: it resolves a connection to
// (user, room), applies the mutation through the directory and hands
// back the captured update for the adapter to broadcast. It performs
// no I/O itself.
type Service struct {
	Registry *Registry
	Rooms    *Directory
}

func NewService(reg *Registry, rooms *Directory) *Service {
	return &Service{Registry: reg, Rooms: rooms}
}

// Join binds the connection to the user identity and seats the user in
// the room. A connection already seated elsewhere leaves that room once
// the new seat is secured; a rejected join leaves the old seat intact.
func (s *Service) Join(connID ConnID, roomID domain.RoomID, userID domain.UserID, username string) (*JoinResult, *LeaveResult, error) {
	res, err := s.Rooms.Join(roomID, userID, username)
	if err != nil {
		return nil, nil, err
	}

	var prior *LeaveResult
	if old, ok := s.Registry.RoomOf(connID); ok && old != roomID {
		if uid, ok := s.Registry.Resolve(connID); ok {
			prior, _ = s.Rooms.Leave(old, uid)
		}
	}
	s.Registry.Bind(connID, userID)
	s.Registry.SetRoom(connID, roomID)
	return res, prior, nil
}

// Action applies one of the four game actions for the connection's
// bound user.
func (s *Service) Action(connID ConnID, roomID domain.RoomID, action game.ActionID, cards []domain.Card) (*Update, error) {
	uid, ok := s.Registry.Resolve(connID)
	if !ok {
		return nil, ErrUnknownUser
	}
	return s.Rooms.Apply(roomID, uid, action, cards)
}

// Choose resolves a pending offer for the connection's bound user.
func (s *Service) Choose(connID ConnID, roomID domain.RoomID, chosen []domain.Card) (*Update, error) {
	uid, ok := s.Registry.Resolve(connID)
	if !ok {
		return nil, ErrUnknownUser
	}
	return s.Rooms.Choose(roomID, uid, chosen)
}

// Chat resolves the sender's stored identity and room for a
// room-scoped relay. The message body never touches room state.
func (s *Service) Chat(connID ConnID) (domain.User, domain.RoomID, error) {
	roomID, ok := s.Registry.RoomOf(connID)
	if !ok {
		return domain.User{}, "", ErrUnknownRoom
	}
	uid, ok := s.Registry.Resolve(connID)
	if !ok {
		return domain.User{}, "", ErrUnknownUser
	}
	u, ok := s.Rooms.Member(roomID, uid)
	if !ok {
		return domain.User{}, "", ErrUnknownUser
	}
	return u, roomID, nil
}

// Rename changes the display name of the connection's bound user.
func (s *Service) Rename(connID ConnID, name string) (domain.User, domain.RoomID, domain.RoomInfo, error) {
	roomID, ok := s.Registry.RoomOf(connID)
	if !ok {
		return domain.User{}, "", domain.RoomInfo{}, ErrUnknownRoom
	}
	uid, ok := s.Registry.Resolve(connID)
	if !ok {
		return domain.User{}, "", domain.RoomInfo{}, ErrUnknownUser
	}
	u, info, err := s.Rooms.Rename(roomID, uid, name)
	if err != nil {
		return domain.User{}, "", domain.RoomInfo{}, err
	}
	return u, roomID, info, nil
}

// Leave takes the connection's user out of its room, keeping the
// connection alive.
func (s *Service) Leave(connID ConnID) (*LeaveResult, bool) {
	roomID, ok := s.Registry.RoomOf(connID)
	if !ok {
		return nil, false
	}
	uid, ok := s.Registry.Resolve(connID)
	if !ok {
		return nil, false
	}
	res, ok := s.Rooms.Leave(roomID, uid)
	s.Registry.ClearRoom(connID)
	if !ok {
		return nil, false
	}
	log.Info().Str("module", "app.service").Str("conn", string(connID)).
		Str("room", string(roomID)).Msg("left room")
	return res, true
}

// Disconnect is the implicit leave: same per-room mutation as any
// other intent, then the connection is forgotten.
func (s *Service) Disconnect(connID ConnID) (*LeaveResult, bool) {
	res, ok := s.Leave(connID)
	s.Registry.Unregister(connID)
	return res, ok
}
