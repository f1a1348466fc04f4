package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"skillswap/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
)

type outbound struct {
	payload  []byte
	critical bool
}

// Client owns one live transport session. The user ID is empty until the
// connection authenticates and, once set, never changes for the lifetime of
// the connection.
type Client struct {
	ID   string
	Conn *websocket.Conn

	mu           sync.Mutex
	userID       string
	queue        []outbound
	queueCap     int
	notify       chan struct{}
	closed       bool
	lastActivity time.Time

	authTimer *time.Timer
}

func newClient(id string, conn *websocket.Conn, queueCap int) *Client {
	if queueCap <= 0 {
		queueCap = 256
	}
	return &Client{
		ID:           id,
		Conn:         conn,
		queueCap:     queueCap,
		notify:       make(chan struct{}, 1),
		lastActivity: time.Now(),
	}
}

func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// bindUser attaches a user identity to the connection. Binding a second,
// different identity to the same transport session is an error.
func (c *Client) bindUser(userID string) (alreadyBound bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID != "" && c.userID != userID {
		return true
	}
	c.userID = userID
	return false
}

// Enqueue appends an outbound payload. When the queue is at capacity the
// oldest non-critical item is evicted to make room; critical payloads are
// never evicted and may push the queue past its soft cap. The returned flag
// reports whether a non-critical payload was dropped.
func (c *Client) Enqueue(payload []byte, critical bool) (dropped bool) {
	if payload == nil {
		return false
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}

	if len(c.queue) >= c.queueCap {
		if i := c.oldestNonCriticalLocked(); i >= 0 {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			dropped = true
		} else if !critical {
			// Queue is full of critical items; shed the incoming
			// non-critical payload instead.
			c.mu.Unlock()
			return true
		}
	}

	c.queue = append(c.queue, outbound{payload: payload, critical: critical})
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
	return dropped
}

func (c *Client) oldestNonCriticalLocked() int {
	for i, item := range c.queue {
		if !item.critical {
			return i
		}
	}
	return -1
}

func (c *Client) drain() []outbound {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := c.queue
	c.queue = nil
	return batch
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close marks the connection as finished; the write pump flushes what it can
// and closes the transport. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// LastActivity reports when the connection last produced an inbound frame.
func (c *Client) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// ReadPump reads inbound frames and hands them to the hub's handler. It owns
// connection teardown: on exit the connection is detached, removed from all
// rooms and the presence edge is checked.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		h.Disconnect(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("websocket read error on connection %s: %v", c.ID, err)
			}
			return
		}

		c.touch()
		if !h.dispatch(c, raw) {
			return
		}
	}
}

// WritePump serializes all writes to the transport and keeps the connection
// alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.notify:
			for _, item := range c.drain() {
				c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.Conn.WriteMessage(websocket.TextMessage, item.payload); err != nil {
					return
				}
			}
			if c.isClosed() {
				c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
