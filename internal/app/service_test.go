package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/hanamikoji/internal/game"
)

func testService() *Service {
	return NewService(NewRegistry(), testDirectory())
}

func seatTwo(t *testing.T, s *Service) *JoinResult {
	t.Helper()
	s.Registry.Register("c1", &fakeSender{}, nil)
	s.Registry.Register("c2", &fakeSender{}, nil)

	_, _, err := s.Join("c1", "R1", "u1", "alice")
	require.NoError(t, err)
	res, _, err := s.Join("c2", "R1", "u2", "bob")
	require.NoError(t, err)
	return res
}

func TestServiceJoinBindsConnection(t *testing.T) {
	s := testService()
	s.Registry.Register("c1", &fakeSender{}, nil)

	res, prior, err := s.Join("c1", "R1", "u1", "alice")
	require.NoError(t, err)
	assert.Nil(t, prior)
	assert.Equal(t, "player1", string(res.Role))

	uid, ok := s.Registry.Resolve("c1")
	require.True(t, ok)
	assert.Equal(t, "u1", string(uid))
	room, ok := s.Registry.RoomOf("c1")
	require.True(t, ok)
	assert.Equal(t, "R1", string(room))
}

func TestServiceJoinSwitchesRooms(t *testing.T) {
	s := testService()
	s.Registry.Register("c1", &fakeSender{}, nil)

	_, _, err := s.Join("c1", "R1", "u1", "alice")
	require.NoError(t, err)
	_, prior, err := s.Join("c1", "R2", "u1", "alice")
	require.NoError(t, err)

	require.NotNil(t, prior, "prior room leave is reported")
	assert.True(t, prior.Destroyed)
	_, ok := s.Rooms.Snapshot("R1")
	assert.False(t, ok)
	room, _ := s.Registry.RoomOf("c1")
	assert.Equal(t, "R2", string(room))
}

func TestServiceFailedSwitchKeepsSeat(t *testing.T) {
	s := testService()
	seatTwo(t, s)
	s.Registry.Register("c3", &fakeSender{}, nil)
	_, _, err := s.Join("c3", "R2", "u3", "carol")
	require.NoError(t, err)

	// R1 is full; the refused switch must not cost u3 the R2 seat.
	_, prior, err := s.Join("c3", "R1", "u3", "carol")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Nil(t, prior)

	room, ok := s.Registry.RoomOf("c3")
	require.True(t, ok)
	assert.Equal(t, "R2", string(room))
	info, ok := s.Rooms.Snapshot("R2")
	require.True(t, ok)
	assert.Equal(t, 1, info.UserCount)
}

func TestServiceActionRequiresBinding(t *testing.T) {
	s := testService()
	s.Registry.Register("c1", &fakeSender{}, nil)

	_, err := s.Action("c1", "R1", game.ActionSecret, nil)
	assert.ErrorIs(t, err, ErrUnknownUser)
	_, err = s.Choose("c1", "R1", nil)
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestServiceActionFlow(t *testing.T) {
	s := testService()
	res := seatTwo(t, s)

	hand := res.Game.Views["u1"].Players["u1"].Hand
	upd, err := s.Action("c1", "R1", game.ActionSecret, hand[:1])
	require.NoError(t, err)
	assert.Equal(t, game.EventActionPlayed, upd.Events[0].Kind)
}

func TestServiceDisconnectLeavesAndForgets(t *testing.T) {
	s := testService()
	seatTwo(t, s)

	res, ok := s.Disconnect("c2")
	require.True(t, ok)
	assert.Equal(t, "u2", string(res.User.ID))
	assert.Equal(t, 1, res.Room.UserCount)
	require.NotNil(t, res.Game)
	assert.Equal(t, game.EventGameEnded, res.Game.Events[0].Kind)

	_, ok = s.Registry.Resolve("c2")
	assert.False(t, ok)

	// A connection with no room disconnects silently.
	s.Registry.Register("c9", &fakeSender{}, nil)
	_, ok = s.Disconnect("c9")
	assert.False(t, ok)
}

func TestServiceLeaveKeepsConnection(t *testing.T) {
	s := testService()
	seatTwo(t, s)

	_, ok := s.Leave("c1")
	require.True(t, ok)
	_, ok = s.Registry.Resolve("c1")
	assert.True(t, ok, "leave keeps the connection registered")
	_, ok = s.Registry.RoomOf("c1")
	assert.False(t, ok)
}
