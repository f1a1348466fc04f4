package repository

import (
	"context"

	"skillswap/internal/domain/entity"
)

type NegotiationRepository interface {
	Create(ctx context.Context, negotiation *entity.Negotiation) error
	GetByID(ctx context.Context, id string) (*entity.Negotiation, error)

	// UpdateWithVersion commits a transition only if the stored version
	// still equals expectedVersion; otherwise it fails with CONFLICT and
	// leaves the record untouched. On success the stored version is
	// incremented and reflected on the passed entity.
	UpdateWithVersion(ctx context.Context, negotiation *entity.Negotiation, expectedVersion int64) error

	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Negotiation, int64, error)
}
