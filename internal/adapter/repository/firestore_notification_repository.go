package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"skillswap/internal/domain/entity"
	"skillswap/internal/domain/repository"
	"skillswap/pkg/errors"
)

type firestoreNotificationRepository struct {
	client *firestore.Client
}

func NewFirestoreNotificationRepository(client *firestore.Client) repository.NotificationRepository {
	return &firestoreNotificationRepository{
		client: client,
	}
}

func (r *firestoreNotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}

	notification.CreatedAt = time.Now()

	_, err := r.client.Collection("notifications").Doc(notification.ID).Set(ctx, notification)
	if err != nil {
		return storeError("create notification", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	doc, err := r.client.Collection("notifications").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Notification", err)
		}
		return nil, storeError("get notification", err)
	}

	var notification entity.Notification
	if err := doc.DataTo(&notification); err != nil {
		return nil, errors.Internal("Failed to parse notification data", err)
	}

	return &notification, nil
}

func (r *firestoreNotificationRepository) MarkRead(ctx context.Context, id string) error {
	_, err := r.client.Collection("notifications").Doc(id).Update(ctx, []firestore.Update{
		{Path: "read", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Notification", err)
		}
		return storeError("mark notification read", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) MarkDelivered(ctx context.Context, id string) error {
	_, err := r.client.Collection("notifications").Doc(id).Update(ctx, []firestore.Update{
		{Path: "delivered", Value: true},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Notification", err)
		}
		return storeError("mark notification delivered", err)
	}

	return nil
}

func (r *firestoreNotificationRepository) ListByUserID(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, int64, error) {
	query := r.client.Collection("notifications").Where("userId", "==", userID)
	if unreadOnly {
		query = query.Where("read", "==", false)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, storeError("list notifications", err)
	}

	total := int64(len(allDocs))

	start := offset
	end := len(allDocs)
	if limit > 0 {
		end = start + limit
		if end > len(allDocs) {
			end = len(allDocs)
		}
	}
	if start > len(allDocs) {
		start = len(allDocs)
	}

	var notifications []*entity.Notification
	for i := start; i < end; i++ {
		var notification entity.Notification
		if err := allDocs[i].DataTo(&notification); err != nil {
			continue
		}
		notifications = append(notifications, &notification)
	}

	return notifications, total, nil
}
