package ws

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSocket struct {
	closed bool
}

func (s *stubSocket) ReadMessage() (int, []byte, error)      { return 0, nil, errors.New("eof") }
func (s *stubSocket) WriteMessage(mt int, data []byte) error { return nil }
func (s *stubSocket) SetWriteDeadline(t time.Time) error     { return nil }
func (s *stubSocket) SetReadLimit(limit int64)               {}
func (s *stubSocket) Close() error                           { s.closed = true; return nil }

func TestTrySendBackpressure(t *testing.T) {
	c := newGameConn(&stubSocket{}, 2)

	require.NoError(t, c.TrySend([]byte("a")))
	require.NoError(t, c.TrySend([]byte("b")))
	assert.ErrorIs(t, c.TrySend([]byte("c")), ErrBackpressure)
}

func TestTrySendAfterClose(t *testing.T) {
	sock := &stubSocket{}
	c := newGameConn(sock, 2)

	c.Close()
	assert.True(t, sock.closed)
	assert.Error(t, c.TrySend([]byte("late")))

	// Close is idempotent.
	c.Close()
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("c1"), "attempt %d", i)
	}
	assert.False(t, rl.Allow("c1"))

	// Other connections have their own window.
	assert.True(t, rl.Allow("c2"))

	rl.Forget("c1")
	assert.True(t, rl.Allow("c1"))
}
