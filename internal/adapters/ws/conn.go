// Package ws is the websocket transport adapter: it owns the gorilla
// connections, the read/write pumps and the wire envelopes, and feeds
// intents into the application service.
package ws

import (
	"errors"
	"sync"
	"time"
)

var ErrBackpressure = errors.New("backpressure")

// wsConn is an indirection over *websocket.Conn to ease testing.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	Close() error
}

// GameConn pairs a websocket with a buffered FIFO send channel.
// It implements app.Sender; TrySend never blocks.
type GameConn struct {
	conn wsConn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newGameConn(conn wsConn, buffer int) *GameConn {
	return &GameConn{
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

func (c *GameConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *GameConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
