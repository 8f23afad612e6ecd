package ws

import (
	"github.com/dkeye/hanamikoji/internal/domain"
	"github.com/dkeye/hanamikoji/internal/game"
)

// Inbound envelopes are dispatched by the "type" field; payloads are a
// closed set of shapes rejected at the boundary on mismatch.

type envelope struct {
	Type string `json:"type"`
}

type wireCard struct {
	GeishaID int    `json:"geishaId"`
	CardID   string `json:"cardId"`
}

func (c wireCard) toDomain() domain.Card {
	return domain.Card{GeishaID: domain.GeishaID(c.GeishaID), InstanceID: c.CardID}
}

func toDomainCards(in []wireCard) []domain.Card {
	out := make([]domain.Card, 0, len(in))
	for _, c := range in {
		out = append(out, c.toDomain())
	}
	return out
}

type joinRoomMsg struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type gameActionMsg struct {
	RoomID   string     `json:"roomId"`
	ActionID int        `json:"actionId"`
	Cards    []wireCard `json:"cards"`
}

type chooseCardMsg struct {
	RoomID string     `json:"roomId"`
	Chosen []wireCard `json:"chosen"`
}

type chatMsg struct {
	Text string `json:"text"`
}

type renameMsg struct {
	Username string `json:"username"`
}

// Outbound envelopes.

type joinSuccessMsg struct {
	Type       string          `json:"type"`
	RoomID     domain.RoomID   `json:"roomId"`
	PlayerRole domain.Role     `json:"playerRole"`
	RoomInfo   domain.RoomInfo `json:"roomInfo"`
}

type joinErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type userEventMsg struct {
	Type     string          `json:"type"` // userJoined | userLeft | userUpdated
	User     domain.User     `json:"user"`
	RoomInfo domain.RoomInfo `json:"roomInfo"`
}

type chatEventMsg struct {
	Type string      `json:"type"`
	User domain.User `json:"user"`
	Text string      `json:"text"`
}

type gameUpdateMsg struct {
	Type       string          `json:"type"`
	Event      game.Event      `json:"event"`
	ActingUser domain.UserID   `json:"actingUser,omitempty"`
	RoomInfo   domain.RoomInfo `json:"roomInfo"`
	GameState  game.Snapshot   `json:"gameState"`
}

type actionErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type pongMsg struct {
	Type string `json:"type"`
}
