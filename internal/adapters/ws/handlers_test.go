package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/hanamikoji/internal/app"
	"github.com/dkeye/hanamikoji/internal/config"
)

// seatedPair joins two connections into R1 and drains the join
// traffic so a test only sees its own frames.
func seatedPair(t *testing.T) (*Controller, *GameConn, *GameConn) {
	t.Helper()
	cfg := &config.Config{SendBuffer: 32, IntentRate: 1000}
	svc := app.NewService(app.NewRegistry(), app.NewDirectory())
	ctl := NewController(cfg, svc, app.NewHub(svc.Registry))

	c1 := newGameConn(&stubSocket{}, 32)
	c2 := newGameConn(&stubSocket{}, 32)
	svc.Registry.Register("c1", c1, nil)
	svc.Registry.Register("c2", c2, nil)
	ctl.handleIntent("c1", c1, []byte(`{"type":"joinRoom","roomId":"R1","userId":"u1","username":"alice"}`))
	ctl.handleIntent("c2", c2, []byte(`{"type":"joinRoom","roomId":"R1","userId":"u2","username":"bob"}`))
	drainFrames(c1)
	drainFrames(c2)
	return ctl, c1, c2
}

func drainFrames(c *GameConn) [][]byte {
	var out [][]byte
	for {
		select {
		case b := <-c.send:
			out = append(out, b)
		default:
			return out
		}
	}
}

func TestChatRelaysToRoom(t *testing.T) {
	ctl, c1, c2 := seatedPair(t)

	ctl.handleIntent("c1", c1, []byte(`{"type":"message","text":"nice move"}`))

	frames := drainFrames(c2)
	require.Len(t, frames, 1)
	var got chatEventMsg
	require.NoError(t, json.Unmarshal(frames[0], &got))
	assert.Equal(t, "message", got.Type)
	assert.Equal(t, "u1", string(got.User.ID))
	assert.Equal(t, "alice", got.User.Username)
	assert.Equal(t, "nice move", got.Text)

	// The sender gets no echo.
	assert.Empty(t, drainFrames(c1))
}

func TestChatRejectsEmptyAndRoomless(t *testing.T) {
	ctl, c1, _ := seatedPair(t)

	ctl.handleIntent("c1", c1, []byte(`{"type":"message","text":""}`))
	frames := drainFrames(c1)
	require.Len(t, frames, 1)
	var e actionErrorMsg
	require.NoError(t, json.Unmarshal(frames[0], &e))
	assert.Equal(t, "bad_payload", e.Code)

	c3 := newGameConn(&stubSocket{}, 4)
	ctl.Service.Registry.Register("c3", c3, nil)
	ctl.handleIntent("c3", c3, []byte(`{"type":"message","text":"anyone here"}`))
	frames = drainFrames(c3)
	require.Len(t, frames, 1)
	require.NoError(t, json.Unmarshal(frames[0], &e))
	assert.Equal(t, "unknown_room", e.Code)
}

func TestRenameBroadcastsUpdatedUser(t *testing.T) {
	ctl, c1, c2 := seatedPair(t)

	ctl.handleIntent("c1", c1, []byte(`{"type":"rename","username":"alicia"}`))

	for _, c := range []*GameConn{c1, c2} {
		frames := drainFrames(c)
		require.Len(t, frames, 1)
		var got userEventMsg
		require.NoError(t, json.Unmarshal(frames[0], &got))
		assert.Equal(t, "userUpdated", got.Type)
		assert.Equal(t, "u1", string(got.User.ID))
		assert.Equal(t, "alicia", got.User.Username)
	}

	u, ok := ctl.Service.Rooms.Member("R1", "u1")
	require.True(t, ok)
	assert.Equal(t, "alicia", u.Username)
}

func TestRenameRejectsBadName(t *testing.T) {
	ctl, c1, _ := seatedPair(t)

	ctl.handleIntent("c1", c1, []byte(`{"type":"rename","username":""}`))
	frames := drainFrames(c1)
	require.Len(t, frames, 1)
	var e actionErrorMsg
	require.NoError(t, json.Unmarshal(frames[0], &e))
	assert.Equal(t, "bad_payload", e.Code)
}
