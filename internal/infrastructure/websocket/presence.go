package websocket

import (
	"context"
	"time"

	"skillswap/internal/domain/repository"
	"skillswap/pkg/logger"
)

// PresencePublisher turns registry attach/detach edges into user_online and
// user_offline events on the global presence room, and mirrors the edge onto
// the user profile so offline viewers see a last-seen timestamp.
type PresencePublisher struct {
	rooms    *Rooms
	userRepo repository.UserRepository
	timeout  time.Duration
}

func NewPresencePublisher(rooms *Rooms, userRepo repository.UserRepository, timeout time.Duration) *PresencePublisher {
	return &PresencePublisher{
		rooms:    rooms,
		userRepo: userRepo,
		timeout:  timeout,
	}
}

func (p *PresencePublisher) UserOnline(userID string) {
	p.rooms.Broadcast(PresenceRoom, MarshalEvent(EventUserOnline, PresencePayload{UserID: userID}), false, "")
	go p.persist(userID, true)
}

func (p *PresencePublisher) UserOffline(userID string) {
	p.rooms.Broadcast(PresenceRoom, MarshalEvent(EventUserOffline, PresencePayload{UserID: userID}), false, "")
	go p.persist(userID, false)
}

func (p *PresencePublisher) persist(userID string, online bool) {
	if p.userRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.userRepo.UpdatePresence(ctx, userID, online, time.Now()); err != nil {
		logger.Warn("failed to persist presence for user %s: %v", userID, err)
	}
}
