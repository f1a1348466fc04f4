package repository

import (
	"context"
	stderrors "errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"skillswap/internal/domain/entity"
	"skillswap/internal/domain/repository"
	"skillswap/pkg/errors"
)

type firestoreNegotiationRepository struct {
	client *firestore.Client
}

func NewFirestoreNegotiationRepository(client *firestore.Client) repository.NegotiationRepository {
	return &firestoreNegotiationRepository{
		client: client,
	}
}

func (r *firestoreNegotiationRepository) Create(ctx context.Context, negotiation *entity.Negotiation) error {
	if negotiation.ID == "" {
		negotiation.ID = uuid.New().String()
	}

	now := time.Now()
	negotiation.CreatedAt = now
	negotiation.UpdatedAt = now
	negotiation.Version = 1
	negotiation.Participants = []string{negotiation.InitiatorID, negotiation.CounterpartyID}

	_, err := r.client.Collection("negotiations").Doc(negotiation.ID).Set(ctx, negotiation)
	if err != nil {
		return storeError("create negotiation", err)
	}

	return nil
}

func (r *firestoreNegotiationRepository) GetByID(ctx context.Context, id string) (*entity.Negotiation, error) {
	doc, err := r.client.Collection("negotiations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Negotiation", err)
		}
		return nil, storeError("get negotiation", err)
	}

	var negotiation entity.Negotiation
	if err := doc.DataTo(&negotiation); err != nil {
		return nil, errors.Internal("Failed to parse negotiation data", err)
	}

	return &negotiation, nil
}

// UpdateWithVersion commits inside a transaction so two concurrent responders
// presenting the same prior version cannot both win the round.
func (r *firestoreNegotiationRepository) UpdateWithVersion(ctx context.Context, negotiation *entity.Negotiation, expectedVersion int64) error {
	docRef := r.client.Collection("negotiations").Doc(negotiation.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Negotiation", err)
			}
			return err
		}

		var current entity.Negotiation
		if err := doc.DataTo(&current); err != nil {
			return errors.Internal("Failed to parse negotiation data", err)
		}

		if current.Version != expectedVersion {
			return errors.Conflict("negotiation was modified concurrently, re-read and retry")
		}

		negotiation.Version = expectedVersion + 1
		negotiation.UpdatedAt = time.Now()

		return tx.Set(docRef, negotiation)
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return appErr
		}
		return storeError("update negotiation", err)
	}

	return nil
}

func (r *firestoreNegotiationRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Negotiation, int64, error) {
	query := r.client.Collection("negotiations").
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, storeError("list negotiations", err)
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

	var negotiations []*entity.Negotiation
	for i := start; i < end; i++ {
		var negotiation entity.Negotiation
		if err := allDocs[i].DataTo(&negotiation); err != nil {
			continue
		}
		negotiations = append(negotiations, &negotiation)
	}

	return negotiations, total, nil
}
