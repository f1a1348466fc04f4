package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"skillswap/internal/domain/entity"
	"skillswap/internal/domain/repository"
	"skillswap/pkg/errors"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	message.CreatedAt = time.Now()

	_, err := r.client.Collection("conversations").Doc(message.Target).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return storeError("create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) LatestSeq(ctx context.Context, target string) (int64, error) {
	iter := r.client.Collection("conversations").Doc(target).Collection("messages").
		OrderBy("seq", firestore.Desc).Limit(1).Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return 0, nil
	}
	if err != nil {
		return 0, storeError("read latest message seq", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return 0, errors.Internal("Failed to parse message data", err)
	}

	return message.Seq, nil
}

func (r *firestoreMessageRepository) ListByTarget(ctx context.Context, target string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("conversations").Doc(target).Collection("messages").OrderBy("seq", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, storeError("count messages", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, storeError("iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, total, nil
}
