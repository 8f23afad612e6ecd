package ws

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/hanamikoji/internal/app"
	"github.com/dkeye/hanamikoji/internal/domain"
	"github.com/dkeye/hanamikoji/internal/game"
)

func (ctl *Controller) handleJoinRoom(connID app.ConnID, c *GameConn, data []byte) {
	var p joinRoomMsg
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad joinRoom payload")
		ctl.sendJSON(c, joinErrorMsg{Type: "joinError", Code: "bad_payload", Message: "malformed join"})
		return
	}

	res, prior, err := ctl.Service.Join(connID, domain.RoomID(p.RoomID), domain.UserID(p.UserID), p.Username)
	if prior != nil {
		ctl.broadcastLeft(prior)
	}
	if err != nil {
		ctl.sendJSON(c, joinErrorMsg{Type: "joinError", Code: joinErrorCode(err), Message: err.Error()})
		return
	}

	ctl.sendJSON(c, joinSuccessMsg{
		Type:       "joinSuccess",
		RoomID:     res.Room.RoomID,
		PlayerRole: res.Role,
		RoomInfo:   res.Room,
	})
	if !res.Rejoined {
		ctl.Hub.ToRoomExcept(res.Room.RoomID, connID, userEventMsg{
			Type:     "userJoined",
			User:     res.User,
			RoomInfo: res.Room,
		})
	}
	if res.Game != nil {
		ctl.broadcastUpdate(res.Game)
	}
}

func (ctl *Controller) handleGameAction(connID app.ConnID, c *GameConn, data []byte) {
	var p gameActionMsg
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad gameAction payload")
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: "bad_payload", Message: "malformed action"})
		return
	}

	upd, err := ctl.Service.Action(connID, domain.RoomID(p.RoomID), game.ActionID(p.ActionID), toDomainCards(p.Cards))
	if err != nil {
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: actionErrorCode(err), Message: err.Error()})
		return
	}
	ctl.broadcastUpdate(upd)
}

func (ctl *Controller) handleChooseCard(connID app.ConnID, c *GameConn, data []byte) {
	var p chooseCardMsg
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad chooseCard payload")
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: "bad_payload", Message: "malformed choice"})
		return
	}

	upd, err := ctl.Service.Choose(connID, domain.RoomID(p.RoomID), toDomainCards(p.Chosen))
	if err != nil {
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: actionErrorCode(err), Message: err.Error()})
		return
	}
	ctl.broadcastUpdate(upd)
}

const maxChatLen = 500

// handleChat relays a room-scoped chat line to the other members. The
// text is opaque to the server.
func (ctl *Controller) handleChat(connID app.ConnID, c *GameConn, data []byte) {
	var p chatMsg
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad chat payload")
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: "bad_payload", Message: "malformed chat"})
		return
	}
	if p.Text == "" || len(p.Text) > maxChatLen {
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: "bad_payload", Message: "empty or oversized chat"})
		return
	}

	user, roomID, err := ctl.Service.Chat(connID)
	if err != nil {
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: actionErrorCode(err), Message: err.Error()})
		return
	}
	ctl.Hub.ToRoomExcept(roomID, connID, chatEventMsg{Type: "message", User: user, Text: p.Text})
}

func (ctl *Controller) handleRename(connID app.ConnID, c *GameConn, data []byte) {
	var p renameMsg
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad rename payload")
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: "bad_payload", Message: "malformed rename"})
		return
	}

	user, roomID, info, err := ctl.Service.Rename(connID, p.Username)
	if err != nil {
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: actionErrorCode(err), Message: err.Error()})
		return
	}
	ctl.Hub.ToRoom(roomID, userEventMsg{Type: "userUpdated", User: user, RoomInfo: info})
}

func (ctl *Controller) handleLeave(connID app.ConnID) {
	if res, ok := ctl.Service.Leave(connID); ok {
		ctl.broadcastLeft(res)
	}
}

func (ctl *Controller) handleDisconnect(connID app.ConnID) {
	ctl.limiter.Forget(connID)
	if res, ok := ctl.Service.Disconnect(connID); ok {
		ctl.broadcastLeft(res)
	}
}

// broadcastLeft notifies the remaining members, then fans out the
// abandonment update when leaving killed a running game.
func (ctl *Controller) broadcastLeft(res *app.LeaveResult) {
	ctl.Hub.ToRoom(res.Room.RoomID, userEventMsg{
		Type:     "userLeft",
		User:     res.User,
		RoomInfo: res.Room,
	})
	if res.Game != nil {
		ctl.broadcastUpdate(res.Game)
	}
}

// broadcastUpdate emits one gameUpdate per engine event, in emit
// order, with a viewer-scoped snapshot for each member.
func (ctl *Controller) broadcastUpdate(upd *app.Update) {
	if upd == nil {
		return
	}
	for _, ev := range upd.Events {
		ev := ev
		ctl.Hub.ToRoomViewers(upd.Room.RoomID, func(viewer domain.UserID) any {
			return gameUpdateMsg{
				Type:       "gameUpdate",
				Event:      ev,
				ActingUser: ev.Actor,
				RoomInfo:   upd.Room,
				GameState:  upd.Views[viewer],
			}
		})
	}
}

func joinErrorCode(err error) string {
	switch {
	case errors.Is(err, app.ErrRoomFull):
		return "room_full"
	case errors.Is(err, domain.ErrRoomIDEmpty), errors.Is(err, domain.ErrRoomIDTooLong),
		errors.Is(err, domain.ErrUserIDEmpty), errors.Is(err, domain.ErrUserIDTooLong),
		errors.Is(err, domain.ErrUsernameEmpty), errors.Is(err, domain.ErrUsernameTooLong):
		return "bad_payload"
	default:
		return "join_failed"
	}
}

func actionErrorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrNoActiveGame):
		return "no_active_game"
	case errors.Is(err, app.ErrUnknownRoom):
		return "unknown_room"
	case errors.Is(err, app.ErrUnknownUser), errors.Is(err, game.ErrUnknownPlayer):
		return "unknown_user"
	case errors.Is(err, domain.ErrUsernameEmpty), errors.Is(err, domain.ErrUsernameTooLong):
		return "bad_payload"
	default:
		return "invalid_action"
	}
}
