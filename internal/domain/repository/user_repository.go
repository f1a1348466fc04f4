package repository

import (
	"context"
	"time"

	"skillswap/internal/domain/entity"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	UpdatePresence(ctx context.Context, id string, online bool, lastSeen time.Time) error
}
