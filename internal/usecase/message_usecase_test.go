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

// seedTrade stores an active alice↔bob negotiation; the fake repo assigns it
// the ID n1, so its conversation is trade:n1.
func seedTrade(t *testing.T, repo *fakeNegotiationRepo) *entity.Negotiation {
	t.Helper()
	n := &entity.Negotiation{
		InitiatorID:    "alice",
		CounterpartyID: "bob",
		Status:         entity.NegotiationActive,
		ProposerID:     "alice",
	}
	require.NoError(t, repo.Create(context.Background(), n))
	return n
}

func TestSendMessagePersistsBeforeFanout(t *testing.T) {
	msgRepo := newFakeMessageRepo()
	negRepo := newFakeNegotiationRepo()
	seedTrade(t, negRepo)
	broadcaster := newFakeBroadcaster("bob")
	uc := NewMessageUseCase(msgRepo, negRepo, broadcaster, time.Second)

	msg, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		Target:  "trade:n1",
		Content: "hello",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "text", msg.Type)

	stored, _, err := msgRepo.ListByTarget(context.Background(), "trade:n1", 50, 0)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	fanout := broadcaster.eventsOfType(ws.EventNewMessage)
	require.Len(t, fanout, 1)
	assert.Equal(t, "trade:n1", fanout[0].Room)
}

func TestSendMessageStoreFailureSuppressesFanout(t *testing.T) {
	msgRepo := newFakeMessageRepo()
	msgRepo.failWith = errors.Unavailable("persistence timed out", nil)
	negRepo := newFakeNegotiationRepo()
	seedTrade(t, negRepo)
	broadcaster := newFakeBroadcaster()
	uc := NewMessageUseCase(msgRepo, negRepo, broadcaster, time.Second)

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		Target:  "trade:n1",
		Content: "hello",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeUnavailable))
	assert.Empty(t, broadcaster.eventsOfType(ws.EventNewMessage), "nothing may reach recipients if the store rejected the write")
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	msgRepo := newFakeMessageRepo()
	negRepo := newFakeNegotiationRepo()
	seedTrade(t, negRepo)
	broadcaster := newFakeBroadcaster()
	uc := NewMessageUseCase(msgRepo, negRepo, broadcaster, time.Second)

	_, err := uc.SendMessage(context.Background(), "mallory", SendMessageInput{
		Target:  "trade:n1",
		Content: "let me in",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotAuthorized))

	stored, _, err := msgRepo.ListByTarget(context.Background(), "trade:n1", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, stored, "an outsider must not persist into the trade conversation")
	assert.Empty(t, broadcaster.eventsOfType(ws.EventNewMessage))
}

func TestSendMessageRejectsForeignUserRoom(t *testing.T) {
	uc := NewMessageUseCase(newFakeMessageRepo(), newFakeNegotiationRepo(), newFakeBroadcaster(), time.Second)

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		Target:  ws.UserRoom("bob"),
		Content: "hi",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotAuthorized))
}

func TestSendMessageExcludesOriginConnection(t *testing.T) {
	msgRepo := newFakeMessageRepo()
	negRepo := newFakeNegotiationRepo()
	seedTrade(t, negRepo)
	broadcaster := newFakeBroadcaster()
	uc := NewMessageUseCase(msgRepo, negRepo, broadcaster, time.Second)

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		Target:           "trade:n1",
		Content:          "hello",
		OriginConnection: "conn-origin",
	})

	require.NoError(t, err)
	fanout := broadcaster.eventsOfType(ws.EventNewMessage)
	require.Len(t, fanout, 1)
	assert.Equal(t, "conn-origin", fanout[0].Exclude)
}

func TestDirectMessageReachesRecipientAndSenderDevices(t *testing.T) {
	msgRepo := newFakeMessageRepo()
	broadcaster := newFakeBroadcaster("bob")
	uc := NewMessageUseCase(msgRepo, newFakeNegotiationRepo(), broadcaster, time.Second)

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		Target:           "bob",
		Content:          "hi",
		OriginConnection: "conn-1",
	})

	require.NoError(t, err)
	fanout := broadcaster.eventsOfType(ws.EventNewMessage)
	require.Len(t, fanout, 2)
	assert.Equal(t, "bob", fanout[0].UserID)
	assert.Equal(t, ws.UserRoom("alice"), fanout[1].Room, "sender's other devices stay in sync")
	assert.Equal(t, "conn-1", fanout[1].Exclude)
}

func TestSequencePerTargetIsMonotonic(t *testing.T) {
	msgRepo := newFakeMessageRepo()
	negRepo := newFakeNegotiationRepo()
	seedTrade(t, negRepo) // n1
	seedTrade(t, negRepo) // n2
	uc := NewMessageUseCase(msgRepo, negRepo, newFakeBroadcaster(), time.Second)

	var seqs []int64
	for i := 0; i < 3; i++ {
		msg, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
			Target:  "trade:n1",
			Content: "msg",
		})
		require.NoError(t, err)
		seqs = append(seqs, msg.Seq)
	}
	other, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{
		Target:  "trade:n2",
		Content: "msg",
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, seqs)
	assert.Equal(t, int64(1), other.Seq, "sequences are scoped per target")
}

func TestSequenceResumesAfterRestart(t *testing.T) {
	msgRepo := newFakeMessageRepo()
	negRepo := newFakeNegotiationRepo()
	seedTrade(t, negRepo)

	first := NewMessageUseCase(msgRepo, negRepo, newFakeBroadcaster(), time.Second)
	for i := 0; i < 2; i++ {
		_, err := first.SendMessage(context.Background(), "alice", SendMessageInput{Target: "trade:n1", Content: "msg"})
		require.NoError(t, err)
	}

	// A fresh router over the same store stands in for a restarted
	// process; it must continue the conversation's numbering.
	second := NewMessageUseCase(msgRepo, negRepo, newFakeBroadcaster(), time.Second)
	msg, err := second.SendMessage(context.Background(), "bob", SendMessageInput{Target: "trade:n1", Content: "msg"})

	require.NoError(t, err)
	assert.Equal(t, int64(3), msg.Seq)
}

func TestSendMessageValidation(t *testing.T) {
	uc := NewMessageUseCase(newFakeMessageRepo(), newFakeNegotiationRepo(), newFakeBroadcaster(), time.Second)

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{Content: "hi"})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.SendMessage(context.Background(), "alice", SendMessageInput{Target: "bob"})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.SendMessage(context.Background(), "alice", SendMessageInput{Target: "bob", Content: "hi", Type: "carrier-pigeon"})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestTypingIsNeverPersisted(t *testing.T) {
	msgRepo := newFakeMessageRepo()
	negRepo := newFakeNegotiationRepo()
	seedTrade(t, negRepo)
	broadcaster := newFakeBroadcaster()
	uc := NewMessageUseCase(msgRepo, negRepo, broadcaster, time.Second)

	uc.Typing(context.Background(), "alice", "trade:n1", true, "conn-1")
	uc.Typing(context.Background(), "alice", "trade:n1", false, "conn-1")

	stored, _, err := msgRepo.ListByTarget(context.Background(), "trade:n1", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, stored)

	fanout := broadcaster.eventsOfType(ws.EventUserTyping)
	require.Len(t, fanout, 2)
	assert.False(t, fanout[0].Critical, "typing indicators are shed first under backpressure")
}

func TestTypingDroppedForNonParticipant(t *testing.T) {
	negRepo := newFakeNegotiationRepo()
	seedTrade(t, negRepo)
	broadcaster := newFakeBroadcaster()
	uc := NewMessageUseCase(newFakeMessageRepo(), negRepo, broadcaster, time.Second)

	uc.Typing(context.Background(), "mallory", "trade:n1", true, "conn-1")

	assert.Empty(t, broadcaster.eventsOfType(ws.EventUserTyping))
}

func TestHistoryEnforcesTargetAccess(t *testing.T) {
	msgRepo := newFakeMessageRepo()
	negRepo := newFakeNegotiationRepo()
	seedTrade(t, negRepo)
	uc := NewMessageUseCase(msgRepo, negRepo, newFakeBroadcaster(), time.Second)

	_, err := uc.SendMessage(context.Background(), "alice", SendMessageInput{Target: "trade:n1", Content: "hello"})
	require.NoError(t, err)
	_, err = uc.SendMessage(context.Background(), "alice", SendMessageInput{Target: "bob", Content: "dm"})
	require.NoError(t, err)

	// Trade conversations are participant-only.
	_, _, err = uc.History(context.Background(), "mallory", "trade:n1", 50, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotAuthorized))

	msgs, _, err := uc.History(context.Background(), "bob", "trade:n1", 50, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	// A direct inbox is readable only by its owner.
	_, _, err = uc.History(context.Background(), "mallory", "bob", 50, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNotAuthorized))

	msgs, _, err = uc.History(context.Background(), "bob", "bob", 50, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}
