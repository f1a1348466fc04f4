package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinAndLeaveAreIdempotent(t *testing.T) {
	rooms := NewRooms(nil)
	c := newClient("conn-1", nil, 4)

	rooms.Join(c, "trade:n1")
	rooms.Join(c, "trade:n1")
	assert.Equal(t, 1, rooms.MemberCount("trade:n1"))

	rooms.Leave("conn-1", "trade:n1")
	rooms.Leave("conn-1", "trade:n1")
	assert.Equal(t, 0, rooms.MemberCount("trade:n1"))
	assert.False(t, rooms.IsMember("conn-1", "trade:n1"))
}

func TestLeaveAllClearsEveryMembership(t *testing.T) {
	rooms := NewRooms(nil)
	c := newClient("conn-1", nil, 4)

	rooms.Join(c, "trade:n1")
	rooms.Join(c, "user:u1")
	rooms.Join(c, PresenceRoom)

	rooms.LeaveAll("conn-1")

	assert.False(t, rooms.IsMember("conn-1", "trade:n1"))
	assert.False(t, rooms.IsMember("conn-1", "user:u1"))
	assert.False(t, rooms.IsMember("conn-1", PresenceRoom))
}

func TestBroadcastSkipsExcludedConnection(t *testing.T) {
	rooms := NewRooms(nil)
	sender := newClient("conn-sender", nil, 4)
	receiver := newClient("conn-receiver", nil, 4)
	rooms.Join(sender, "trade:n1")
	rooms.Join(receiver, "trade:n1")

	rooms.Broadcast("trade:n1", []byte(`{"type":"new_message"}`), false, "conn-sender")

	assert.Empty(t, sender.drain())
	assert.Len(t, receiver.drain(), 1)
}

func TestBroadcastShedsOldestNonCriticalUnderBackpressure(t *testing.T) {
	var shed []string
	rooms := NewRooms(func(connectionID, room string) {
		shed = append(shed, connectionID)
	})

	slow := newClient("conn-slow", nil, 2)
	rooms.Join(slow, "trade:n1")

	rooms.Broadcast("trade:n1", []byte("first"), false, "")
	rooms.Broadcast("trade:n1", []byte("second"), false, "")
	rooms.Broadcast("trade:n1", []byte("third"), false, "")

	batch := slow.drain()
	require.Len(t, batch, 2)
	assert.Equal(t, "second", string(batch[0].payload), "oldest payload is the one shed")
	assert.Equal(t, "third", string(batch[1].payload))
	assert.Equal(t, []string{"conn-slow"}, shed)
}

func TestCriticalPayloadsSurviveSaturatedQueue(t *testing.T) {
	c := newClient("conn-1", nil, 2)

	assert.False(t, c.Enqueue([]byte("chat-1"), false))
	assert.False(t, c.Enqueue([]byte("chat-2"), false))
	assert.True(t, c.Enqueue([]byte("trade-state"), true), "a non-critical payload is evicted to make room")

	batch := c.drain()
	require.Len(t, batch, 2)
	assert.Equal(t, "trade-state", string(batch[1].payload))
	assert.True(t, batch[1].critical)
}

func TestAllCriticalQueueShedsIncomingNonCritical(t *testing.T) {
	c := newClient("conn-1", nil, 2)

	assert.False(t, c.Enqueue([]byte("state-1"), true))
	assert.False(t, c.Enqueue([]byte("state-2"), true))
	assert.True(t, c.Enqueue([]byte("chat"), false), "incoming non-critical is shed, queued criticals stay")
	assert.False(t, c.Enqueue([]byte("state-3"), true), "critical may exceed the soft cap")

	batch := c.drain()
	require.Len(t, batch, 3)
	for _, item := range batch {
		assert.True(t, item.critical)
	}
}

func TestEnqueueAfterCloseIsDropped(t *testing.T) {
	c := newClient("conn-1", nil, 4)
	c.Close()

	assert.False(t, c.Enqueue([]byte("late"), true))
	assert.Empty(t, c.drain())
}
