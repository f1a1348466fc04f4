package usecase

import (
	"context"
	"time"

	"skillswap/internal/domain/entity"
	"skillswap/internal/domain/repository"
	ws "skillswap/internal/infrastructure/websocket"
	"skillswap/pkg/errors"
	"skillswap/pkg/logger"
)

// NotificationUseCase pushes user-facing notifications to a recipient's live
// connections and always persists them to a durable inbox, so offline
// delivery is never lost and history can be replayed.
type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	broadcaster      Broadcaster
	storeTimeout     time.Duration
}

func NewNotificationUseCase(notificationRepo repository.NotificationRepository, broadcaster Broadcaster, storeTimeout time.Duration) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
		storeTimeout:     storeTimeout,
	}
}

type NotifyInput struct {
	Type  string
	Title string
	Body  string
	Data  map[string]interface{}
}

// Notify persists the notification first — the inbox is the delivery
// guarantee — then pushes it to every live connection of the user.
func (uc *NotificationUseCase) Notify(ctx context.Context, userID string, input NotifyInput) (*entity.Notification, error) {
	notification := &entity.Notification{
		UserID: userID,
		Type:   input.Type,
		Title:  input.Title,
		Body:   input.Body,
		Data:   input.Data,
	}

	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	if err := uc.notificationRepo.Create(cctx, notification); err != nil {
		return nil, err
	}

	if uc.broadcaster.IsOnline(userID) {
		if uc.broadcaster.SendToUser(userID, ws.EventNotification, notification, true) {
			notification.Delivered = true
			if err := uc.notificationRepo.MarkDelivered(cctx, notification.ID); err != nil {
				logger.Warn("failed to mark notification %s delivered: %v", notification.ID, err)
			}
		}
	}

	return notification, nil
}

// MarkRead is idempotent and per-user: marking on one device marks it read
// everywhere.
func (uc *NotificationUseCase) MarkRead(ctx context.Context, userID, notificationID string) error {
	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	notification, err := uc.notificationRepo.GetByID(cctx, notificationID)
	if err != nil {
		return err
	}
	if notification.UserID != userID {
		return errors.NotAuthorized("notification belongs to another user")
	}
	if notification.Read {
		return nil
	}

	return uc.notificationRepo.MarkRead(cctx, notificationID)
}

// DeliverPending replays undelivered inbox entries to a user that just
// authenticated, so nothing sent while they were offline is missed.
func (uc *NotificationUseCase) DeliverPending(ctx context.Context, userID string) error {
	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	pending, _, err := uc.notificationRepo.ListByUserID(cctx, userID, true, 50, 0)
	if err != nil {
		return err
	}

	for _, notification := range pending {
		if !uc.broadcaster.SendToUser(userID, ws.EventNotification, notification, true) {
			break
		}
		if !notification.Delivered {
			if err := uc.notificationRepo.MarkDelivered(cctx, notification.ID); err != nil {
				logger.Warn("failed to mark notification %s delivered: %v", notification.ID, err)
			}
		}
	}

	return nil
}

func (uc *NotificationUseCase) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, int64, error) {
	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	return uc.notificationRepo.ListByUserID(cctx, userID, unreadOnly, limit, offset)
}
