package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/hanamikoji/internal/app"
)

func (ctl *Controller) writePump(ctx context.Context, c *GameConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, connID app.ConnID, c *GameConn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(connID)).Msg("readPump closing")
		ctl.handleDisconnect(connID)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("conn", string(connID)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "ws").Str("conn", string(connID)).Msg("readPump read error")
				return
			}
			ctl.handleIntent(connID, c, data)
		}
	}
}

func (ctl *Controller) handleIntent(connID app.ConnID, c *GameConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: "bad_payload", Message: "malformed message"})
		return
	}

	if !ctl.limiter.Allow(connID) {
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: "rate_limited", Message: "too many messages"})
		return
	}

	switch env.Type {
	case "joinRoom":
		ctl.handleJoinRoom(connID, c, data)
	case "gameAction":
		ctl.handleGameAction(connID, c, data)
	case "chooseCard":
		ctl.handleChooseCard(connID, c, data)
	case "message":
		ctl.handleChat(connID, c, data)
	case "rename":
		ctl.handleRename(connID, c, data)
	case "leave":
		ctl.handleLeave(connID)
	case "ping":
		ctl.sendJSON(c, pongMsg{Type: "pong"})
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown intent")
		ctl.sendJSON(c, actionErrorMsg{Type: "actionError", Code: "bad_payload", Message: "unknown message type"})
	}
}

func (ctl *Controller) sendJSON(c *GameConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
