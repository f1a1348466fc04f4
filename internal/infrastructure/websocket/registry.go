package websocket

import (
	"sync"

	"skillswap/pkg/errors"
	"skillswap/pkg/logger"
)

// PresenceSubscriber receives the 0→1 and 1→0 edges of a user's connection
// count. Intermediate edges (second device connecting, first of two devices
// disconnecting) are not reported, so multi-device churn never flaps.
type PresenceSubscriber interface {
	UserOnline(userID string)
	UserOffline(userID string)
}

// Registry maps user identities to their live connections. It supports
// multiple simultaneous connections per user; presence is "online" while the
// set is non-empty. All mutations go through the registry's own lock, so a
// user's connection set is never mutated concurrently.
type Registry struct {
	mu       sync.Mutex
	byConn   map[string]*Client
	byUser   map[string]map[string]*Client
	presence PresenceSubscriber

	// edgeMu serializes presence callbacks in the order the edges
	// occurred. It is acquired while mu is still held, so an offline
	// edge computed after an online edge can never be observed first.
	// Callbacks run without mu, so they may safely fan out.
	edgeMu sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*Client),
		byUser: make(map[string]map[string]*Client),
	}
}

func (r *Registry) SetPresenceSubscriber(s PresenceSubscriber) {
	r.mu.Lock()
	r.presence = s
	r.mu.Unlock()
}

// Register tracks a connection that has not yet authenticated.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	r.byConn[c.ID] = c
	r.mu.Unlock()
	logger.Debug("connection %s registered", c.ID)
}

// Attach binds a connection to a user after authentication succeeds.
// Rebinding the same user is a no-op; binding a different user to an already
// bound connection fails with ALREADY_ATTACHED.
func (r *Registry) Attach(connectionID, userID string) error {
	r.mu.Lock()
	c, ok := r.byConn[connectionID]
	if !ok {
		r.mu.Unlock()
		return errors.NotFound("Connection", nil)
	}

	if c.bindUser(userID) {
		r.mu.Unlock()
		return errors.AlreadyAttached(connectionID)
	}

	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]*Client)
		r.byUser[userID] = set
	}
	_, existed := set[connectionID]
	set[connectionID] = c
	wentOnline := !existed && len(set) == 1
	presence := r.presence
	if wentOnline && presence != nil {
		r.edgeMu.Lock()
		r.mu.Unlock()
		presence.UserOnline(userID)
		r.edgeMu.Unlock()
	} else {
		r.mu.Unlock()
	}

	logger.Info("connection %s attached to user %s", connectionID, userID)
	return nil
}

// Detach removes a connection on disconnect. Detaching an unknown connection
// is a no-op, so a late event from a dead connection never double-decrements
// presence. Returns the client when it was still registered.
func (r *Registry) Detach(connectionID string) (*Client, bool) {
	r.mu.Lock()
	c, ok := r.byConn[connectionID]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	delete(r.byConn, connectionID)

	var wentOffline bool
	userID := c.UserID()
	if userID != "" {
		if set, ok := r.byUser[userID]; ok {
			delete(set, connectionID)
			if len(set) == 0 {
				delete(r.byUser, userID)
				wentOffline = true
			}
		}
	}
	presence := r.presence
	if wentOffline && presence != nil {
		r.edgeMu.Lock()
		r.mu.Unlock()
		presence.UserOffline(userID)
		r.edgeMu.Unlock()
	} else {
		r.mu.Unlock()
	}

	logger.Info("connection %s detached", connectionID)
	return c, true
}

// ChannelsFor returns the user's live connections. An empty result means the
// caller must fall back to durable storage for delivery.
func (r *Registry) ChannelsFor(userID string) []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	clients := make([]*Client, 0, len(set))
	for _, c := range set {
		clients = append(clients, c)
	}
	return clients
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUser[userID]) > 0
}

func (r *Registry) Get(connectionID string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byConn[connectionID]
	return c, ok
}
