package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillswap/internal/domain/entity"
	ws "skillswap/internal/infrastructure/websocket"
	"skillswap/pkg/errors"
)

func TestNotifyPersistsForOfflineUser(t *testing.T) {
	repo := newFakeNotificationRepo()
	broadcaster := newFakeBroadcaster() // nobody online
	uc := NewNotificationUseCase(repo, broadcaster, time.Second)

	n, err := uc.Notify(context.Background(), "bob", NotifyInput{
		Type:  entity.NotificationTypeTradeRequest,
		Title: "New trade request",
	})

	require.NoError(t, err)
	assert.False(t, n.Delivered)
	assert.Empty(t, broadcaster.eventsOfType(ws.EventNotification))

	inbox, _, err := repo.ListByUserID(context.Background(), "bob", true, 50, 0)
	require.NoError(t, err)
	assert.Len(t, inbox, 1, "offline delivery lands in the durable inbox")
}

func TestNotifyDeliversLiveAndMarksDelivered(t *testing.T) {
	repo := newFakeNotificationRepo()
	broadcaster := newFakeBroadcaster("bob")
	uc := NewNotificationUseCase(repo, broadcaster, time.Second)

	n, err := uc.Notify(context.Background(), "bob", NotifyInput{
		Type:  entity.NotificationTypeTradeStatus,
		Title: "Trade completed",
	})

	require.NoError(t, err)
	assert.True(t, n.Delivered)

	pushed := broadcaster.eventsOfType(ws.EventNotification)
	require.Len(t, pushed, 1)
	assert.True(t, pushed[0].Critical)

	stored, err := repo.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.True(t, stored.Delivered)
}

func TestDeliverPendingReplaysUnread(t *testing.T) {
	repo := newFakeNotificationRepo()
	offline := newFakeBroadcaster()
	uc := NewNotificationUseCase(repo, offline, time.Second)

	for i := 0; i < 3; i++ {
		_, err := uc.Notify(context.Background(), "bob", NotifyInput{Type: entity.NotificationTypeSystem, Title: "queued"})
		require.NoError(t, err)
	}

	// Bob reconnects.
	online := newFakeBroadcaster("bob")
	uc = NewNotificationUseCase(repo, online, time.Second)
	require.NoError(t, uc.DeliverPending(context.Background(), "bob"))

	assert.Len(t, online.eventsOfType(ws.EventNotification), 3)

	undelivered := 0
	all, _, err := repo.ListByUserID(context.Background(), "bob", false, 50, 0)
	require.NoError(t, err)
	for _, n := range all {
		if !n.Delivered {
			undelivered++
		}
	}
	assert.Zero(t, undelivered)
}

func TestMarkReadIsScopedToOwner(t *testing.T) {
	repo := newFakeNotificationRepo()
	uc := NewNotificationUseCase(repo, newFakeBroadcaster(), time.Second)

	n, err := uc.Notify(context.Background(), "bob", NotifyInput{Type: entity.NotificationTypeSystem, Title: "hi"})
	require.NoError(t, err)

	err = uc.MarkRead(context.Background(), "mallory", n.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotAuthorized))

	require.NoError(t, uc.MarkRead(context.Background(), "bob", n.ID))
	require.NoError(t, uc.MarkRead(context.Background(), "bob", n.ID), "marking twice is a no-op")

	stored, err := repo.GetByID(context.Background(), n.ID)
	require.NoError(t, err)
	assert.True(t, stored.Read)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	uc := NewNotificationUseCase(newFakeNotificationRepo(), newFakeBroadcaster(), time.Second)

	err := uc.MarkRead(context.Background(), "bob", "ghost")

	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}
