package repository

import (
	"context"

	"skillswap/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)

	// MarkRead is idempotent; marking an already-read notification is a no-op.
	MarkRead(ctx context.Context, id string) error
	MarkDelivered(ctx context.Context, id string) error

	ListByUserID(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, int64, error)
}
