package domain

import "errors"

const (
	// MaxRoomMembers is the fixed table size: Hanamikoji is strictly two-player.
	MaxRoomMembers = 2

	MaxRoomIDLen = 36
)

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

type RoomID string

// Role is a seat fixed by join order, never by reconnection order.
type Role string

const (
	RolePlayer1 Role = "player1"
	RolePlayer2 Role = "player2"
)

// Member represents user's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	User *User
	Role Role
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(user *User, role Role) *Member {
	return &Member{User: user, Role: role}
}

// RoomInfo is a read-only projection of a room for APIs and broadcasts.
type RoomInfo struct {
	RoomID    RoomID `json:"roomId"`
	UserCount int    `json:"userCount"`
	Users     []User `json:"users"`
	IsReady   bool   `json:"isReady"`
}

func ValidateRoomID(id RoomID) error {
	if len(id) == 0 {
		return ErrRoomIDEmpty
	}
	if len(id) > MaxRoomIDLen {
		return ErrRoomIDTooLong
	}
	return nil
}
