package usecase

import (
	"context"
	"strconv"
	"sync"
	"time"

	"skillswap/internal/domain/entity"
	"skillswap/pkg/errors"
)

// sentEvent records one fan-out call made by a use case.
type sentEvent struct {
	Room      string // empty for direct sends
	UserID    string // empty for room broadcasts
	EventType string
	Data      interface{}
	Critical  bool
	Exclude   string
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	online map[string]bool
	events []sentEvent
}

func newFakeBroadcaster(onlineUsers ...string) *fakeBroadcaster {
	online := make(map[string]bool)
	for _, u := range onlineUsers {
		online[u] = true
	}
	return &fakeBroadcaster{online: online}
}

func (f *fakeBroadcaster) BroadcastToRoom(room, eventType string, data interface{}, critical bool, excludeConnectionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{Room: room, EventType: eventType, Data: data, Critical: critical, Exclude: excludeConnectionID})
}

func (f *fakeBroadcaster) SendToUser(userID, eventType string, data interface{}, critical bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{UserID: userID, EventType: eventType, Data: data, Critical: critical})
	return f.online[userID]
}

func (f *fakeBroadcaster) IsOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func (f *fakeBroadcaster) eventsOfType(eventType string) []sentEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentEvent
	for _, e := range f.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	users := make(map[string]*entity.User)
	for _, id := range ids {
		users[id] = &entity.User{ID: id, Username: id}
	}
	return &fakeUserRepo{users: users}
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return u, nil
}

func (f *fakeUserRepo) UpdatePresence(ctx context.Context, id string, online bool, lastSeen time.Time) error {
	return nil
}

type fakeNegotiationRepo struct {
	mu     sync.Mutex
	nextID int
	items  map[string]*entity.Negotiation

	// conflictOnce makes the next commit lose the version race, as if a
	// concurrent responder got there first.
	conflictOnce bool
}

func newFakeNegotiationRepo() *fakeNegotiationRepo {
	return &fakeNegotiationRepo{items: make(map[string]*entity.Negotiation)}
}

func (f *fakeNegotiationRepo) Create(ctx context.Context, n *entity.Negotiation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n.ID = "n" + strconv.Itoa(f.nextID)
	n.Participants = []string{n.InitiatorID, n.CounterpartyID}
	n.Version = 1
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	stored := *n
	f.items[n.ID] = &stored
	return nil
}

func (f *fakeNegotiationRepo) GetByID(ctx context.Context, id string) (*entity.Negotiation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.items[id]
	if !ok {
		return nil, errors.NotFound("Negotiation", nil)
	}
	copied := *n
	return &copied, nil
}

func (f *fakeNegotiationRepo) UpdateWithVersion(ctx context.Context, n *entity.Negotiation, expectedVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.items[n.ID]
	if !ok {
		return errors.NotFound("Negotiation", nil)
	}
	if f.conflictOnce {
		f.conflictOnce = false
		return errors.Conflict("negotiation was modified concurrently, re-read and retry")
	}
	if current.Version != expectedVersion {
		return errors.Conflict("negotiation was modified concurrently, re-read and retry")
	}
	n.Version = expectedVersion + 1
	n.UpdatedAt = time.Now()
	stored := *n
	f.items[n.ID] = &stored
	return nil
}

func (f *fakeNegotiationRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Negotiation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Negotiation
	for _, n := range f.items {
		if n.IsParticipant(userID) {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	nextID   int
	messages []*entity.Message
	failWith error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *entity.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	m.ID = "m" + strconv.Itoa(f.nextID)
	m.CreatedAt = time.Now()
	stored := *m
	f.messages = append(f.messages, &stored)
	return nil
}

func (f *fakeMessageRepo) LatestSeq(ctx context.Context, target string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest int64
	for _, m := range f.messages {
		if m.Target == target && m.Seq > latest {
			latest = m.Seq
		}
	}
	return latest, nil
}

func (f *fakeMessageRepo) ListByTarget(ctx context.Context, target string, limit, offset int) ([]*entity.Message, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Message
	for _, m := range f.messages {
		if m.Target == target {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, int64(len(out)), nil
}

type fakeNotificationRepo struct {
	mu     sync.Mutex
	nextID int
	items  map[string]*entity.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{items: make(map[string]*entity.Notification)}
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	n.ID = "notif" + strconv.Itoa(f.nextID)
	n.CreatedAt = time.Now()
	stored := *n
	f.items[n.ID] = &stored
	return nil
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.items[id]
	if !ok {
		return nil, errors.NotFound("Notification", nil)
	}
	copied := *n
	return &copied, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.items[id]
	if !ok {
		return errors.NotFound("Notification", nil)
	}
	n.Read = true
	return nil
}

func (f *fakeNotificationRepo) MarkDelivered(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.items[id]
	if !ok {
		return errors.NotFound("Notification", nil)
	}
	n.Delivered = true
	return nil
}

func (f *fakeNotificationRepo) ListByUserID(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Notification
	for _, n := range f.items {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		copied := *n
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}
