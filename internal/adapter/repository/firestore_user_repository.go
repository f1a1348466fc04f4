package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"skillswap/internal/domain/entity"
	"skillswap/internal/domain/repository"
	"skillswap/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, storeError("get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) UpdatePresence(ctx context.Context, id string, online bool, lastSeen time.Time) error {
	onlineStatus := "offline"
	if online {
		onlineStatus = "online"
	}

	_, err := r.client.Collection("users").Doc(id).Update(ctx, []firestore.Update{
		{Path: "onlineStatus", Value: onlineStatus},
		{Path: "lastSeen", Value: lastSeen},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return storeError("update user presence", err)
	}

	return nil
}
