package repository

import (
	"context"

	"skillswap/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	ListByTarget(ctx context.Context, target string, limit, offset int) ([]*entity.Message, int64, error)

	// LatestSeq returns the highest sequence number stored for a target,
	// or zero for an empty conversation.
	LatestSeq(ctx context.Context, target string) (int64, error)
}
