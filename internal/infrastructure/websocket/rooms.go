package websocket

import (
	"sync"

	"skillswap/pkg/logger"
)

// Room name helpers. Names are namespaced by convention only; the room
// manager never interprets them.
func UserRoom(userID string) string {
	return "user:" + userID
}

func TradeRoom(negotiationID string) string {
	return "trade:" + negotiationID
}

// PresenceRoom is the global room presence edges are published to.
const PresenceRoom = "presence"

// SlowConsumerFunc is invoked when a backpressured connection sheds a
// non-critical payload during a broadcast.
type SlowConsumerFunc func(connectionID, room string)

// Rooms groups connections into named broadcast scopes. Rooms are created
// lazily on first join and reclaimed when the last member leaves.
type Rooms struct {
	mu             sync.RWMutex
	members        map[string]map[string]*Client
	joined         map[string]map[string]struct{}
	onSlowConsumer SlowConsumerFunc
}

func NewRooms(onSlowConsumer SlowConsumerFunc) *Rooms {
	if onSlowConsumer == nil {
		onSlowConsumer = func(connectionID, room string) {
			logger.Warn("SLOW_CONSUMER: dropped payload for connection %s in room %s", connectionID, room)
		}
	}
	return &Rooms{
		members:        make(map[string]map[string]*Client),
		joined:         make(map[string]map[string]struct{}),
		onSlowConsumer: onSlowConsumer,
	}
}

// Join adds a connection to a room; joining an already-joined room is a no-op.
func (r *Rooms) Join(c *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[room]
	if !ok {
		set = make(map[string]*Client)
		r.members[room] = set
	}
	set[c.ID] = c

	rooms, ok := r.joined[c.ID]
	if !ok {
		rooms = make(map[string]struct{})
		r.joined[c.ID] = rooms
	}
	rooms[room] = struct{}{}
}

// Leave removes a connection from a room; leaving a non-member room is a
// no-op. Rooms with no members left are reclaimed.
func (r *Rooms) Leave(connectionID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(connectionID, room)
}

func (r *Rooms) leaveLocked(connectionID, room string) {
	if set, ok := r.members[room]; ok {
		delete(set, connectionID)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
	if rooms, ok := r.joined[connectionID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.joined, connectionID)
		}
	}
}

// LeaveAll removes a connection from every room it had joined; called on
// detach so no room ever holds a connection the registry no longer knows.
func (r *Rooms) LeaveAll(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.joined[connectionID] {
		r.leaveLocked(connectionID, room)
	}
}

func (r *Rooms) IsMember(connectionID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[room][connectionID]
	return ok
}

func (r *Rooms) MemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[room])
}

// Broadcast delivers payload to every connection in the room except the
// optional excluded one. Delivery per recipient is independent: a slow
// connection sheds its oldest non-critical payload rather than blocking the
// rest, and critical payloads are never shed.
func (r *Rooms) Broadcast(room string, payload []byte, critical bool, excludeConnectionID string) {
	if payload == nil {
		return
	}

	r.mu.RLock()
	recipients := make([]*Client, 0, len(r.members[room]))
	for id, c := range r.members[room] {
		if id == excludeConnectionID {
			continue
		}
		recipients = append(recipients, c)
	}
	r.mu.RUnlock()

	for _, c := range recipients {
		if dropped := c.Enqueue(payload, critical); dropped {
			r.onSlowConsumer(c.ID, room)
		}
	}
}
