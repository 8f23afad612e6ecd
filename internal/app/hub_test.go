package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/hanamikoji/internal/domain"
)

func hubFixture(t *testing.T) (*Hub, *Registry, *fakeSender, *fakeSender) {
	t.Helper()
	reg := NewRegistry()
	s1, s2 := &fakeSender{}, &fakeSender{}
	reg.Register("c1", s1, nil)
	reg.Register("c2", s2, nil)
	reg.Bind("c1", "u1")
	reg.Bind("c2", "u2")
	reg.SetRoom("c1", "R1")
	reg.SetRoom("c2", "R1")
	return NewHub(reg), reg, s1, s2
}

func TestHubToConn(t *testing.T) {
	h, _, s1, s2 := hubFixture(t)

	h.ToConn("c1", map[string]string{"type": "pong"})
	assert.Len(t, s1.sent(), 1)
	assert.Empty(t, s2.sent())

	// Unknown connection is a no-op.
	h.ToConn("ghost", map[string]string{"type": "pong"})
}

func TestHubToRoom(t *testing.T) {
	h, _, s1, s2 := hubFixture(t)

	h.ToRoom("R1", map[string]string{"hello": "both"})
	assert.Len(t, s1.sent(), 1)
	assert.Len(t, s2.sent(), 1)

	h.ToRoomExcept("R1", "c1", map[string]string{"hello": "c2 only"})
	assert.Len(t, s1.sent(), 1)
	assert.Len(t, s2.sent(), 2)
}

func TestHubPerViewerPayloads(t *testing.T) {
	h, _, s1, s2 := hubFixture(t)

	h.ToRoomViewers("R1", func(viewer domain.UserID) any {
		return map[string]string{"for": string(viewer)}
	})

	var p1, p2 map[string]string
	require.NoError(t, json.Unmarshal(s1.sent()[0], &p1))
	require.NoError(t, json.Unmarshal(s2.sent()[0], &p2))
	assert.Equal(t, "u1", p1["for"])
	assert.Equal(t, "u2", p2["for"])
}

func TestHubKicksFailedSender(t *testing.T) {
	reg := NewRegistry()
	stuck := &fakeSender{fail: true}
	canceled := false
	reg.Register("c1", stuck, func() { canceled = true })
	reg.Bind("c1", "u1")
	reg.SetRoom("c1", "R1")
	h := NewHub(reg)

	h.ToRoom("R1", map[string]string{"type": "gameUpdate"})
	assert.True(t, canceled, "backpressured connection gets kicked")
	assert.True(t, stuck.isClosed(), "kick closes the socket to unblock the read pump")
}
