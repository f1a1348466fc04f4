package websocket

import (
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/google/uuid"

	"skillswap/pkg/logger"
)

// MessageHandler consumes inbound frames. Returning false terminates the
// connection (malformed frame); event-level failures are reported back on the
// connection and return true.
type MessageHandler interface {
	HandleMessage(c *Client, raw []byte) bool
}

// Hub composes the connection registry and the room manager and owns
// connection lifecycle: connect, authentication window, detach, room cleanup.
// It is constructed once at process start and passed by handle to the
// components that fan events out.
type Hub struct {
	registry *Registry
	rooms    *Rooms

	handler     MessageHandler
	queueSize   int
	authTimeout time.Duration
}

func NewHub(queueSize int, authTimeout time.Duration) *Hub {
	return &Hub{
		registry:    NewRegistry(),
		rooms:       NewRooms(nil),
		queueSize:   queueSize,
		authTimeout: authTimeout,
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

func (h *Hub) Rooms() *Rooms {
	return h.rooms
}

func (h *Hub) SetHandler(handler MessageHandler) {
	h.handler = handler
}

func (h *Hub) SetPresencePublisher(p *PresencePublisher) {
	h.registry.SetPresenceSubscriber(p)
}

// Connect registers a fresh transport session and starts its pumps. The
// connection must authenticate within the configured window or it is dropped.
func (h *Hub) Connect(conn *gorillaws.Conn) *Client {
	c := newClient(uuid.New().String(), conn, h.queueSize)
	h.registry.Register(c)

	c.authTimer = time.AfterFunc(h.authTimeout, func() {
		if c.UserID() == "" {
			logger.Info("connection %s did not authenticate within %s, dropping", c.ID, h.authTimeout)
			c.Close()
		}
	})

	go c.ReadPump(h)
	go c.WritePump()
	return c
}

// Disconnect tears a connection down: detach from the registry, leave every
// room, check the presence edge. Idempotent.
func (h *Hub) Disconnect(c *Client) {
	if c.authTimer != nil {
		c.authTimer.Stop()
	}
	if _, ok := h.registry.Detach(c.ID); ok {
		h.rooms.LeaveAll(c.ID)
	}
	c.Close()
}

// Attach binds an authenticated identity to the connection and joins its
// private room and the global presence room.
func (h *Hub) Attach(c *Client, userID string) error {
	if err := h.registry.Attach(c.ID, userID); err != nil {
		return err
	}
	h.rooms.Join(c, UserRoom(userID))
	h.rooms.Join(c, PresenceRoom)
	return nil
}

func (h *Hub) Join(c *Client, room string) {
	h.rooms.Join(c, room)
}

func (h *Hub) Leave(c *Client, room string) {
	h.rooms.Leave(c.ID, room)
}

// Send delivers an event to a single connection.
func (h *Hub) Send(c *Client, eventType string, data interface{}, critical bool) {
	c.Enqueue(MarshalEvent(eventType, data), critical)
}

// BroadcastToRoom fans an event out to a room's current membership.
func (h *Hub) BroadcastToRoom(room, eventType string, data interface{}, critical bool, excludeConnectionID string) {
	h.rooms.Broadcast(room, MarshalEvent(eventType, data), critical, excludeConnectionID)
}

// SendToUser delivers an event to every live connection of a user. The
// returned flag reports whether the user had at least one live connection;
// callers fall back to durable storage when it is false.
func (h *Hub) SendToUser(userID, eventType string, data interface{}, critical bool) bool {
	clients := h.registry.ChannelsFor(userID)
	if len(clients) == 0 {
		return false
	}
	payload := MarshalEvent(eventType, data)
	for _, c := range clients {
		if dropped := c.Enqueue(payload, critical); dropped {
			logger.Warn("SLOW_CONSUMER: dropped payload for connection %s of user %s", c.ID, userID)
		}
	}
	return true
}

func (h *Hub) IsOnline(userID string) bool {
	return h.registry.IsOnline(userID)
}

func (h *Hub) dispatch(c *Client, raw []byte) bool {
	if h.handler == nil {
		logger.Warn("no message handler configured, dropping frame from connection %s", c.ID)
		return true
	}
	return h.handler.HandleMessage(c, raw)
}
