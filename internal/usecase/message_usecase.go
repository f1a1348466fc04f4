package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"skillswap/internal/domain/entity"
	"skillswap/internal/domain/repository"
	ws "skillswap/internal/infrastructure/websocket"
	"skillswap/pkg/errors"
)

// MessageUseCase routes chat payloads. Messages are persisted before fan-out,
// so a crash between persist and delivery loses at most the live push — the
// message itself stays fetchable on reconnect. Typing indicators are the only
// payload class that is neither persisted nor protected from backpressure.
type MessageUseCase struct {
	messageRepo     repository.MessageRepository
	negotiationRepo repository.NegotiationRepository
	broadcaster     Broadcaster
	storeTimeout    time.Duration

	// Per-target sequence counters give each conversation a monotonically
	// increasing order for client-side sorting. A counter is seeded from
	// the store's highest seq on first use, so a restarted process never
	// reissues numbers an existing conversation already holds.
	mu   sync.Mutex
	seqs map[string]int64
}

func NewMessageUseCase(messageRepo repository.MessageRepository, negotiationRepo repository.NegotiationRepository, broadcaster Broadcaster, storeTimeout time.Duration) *MessageUseCase {
	return &MessageUseCase{
		messageRepo:     messageRepo,
		negotiationRepo: negotiationRepo,
		broadcaster:     broadcaster,
		storeTimeout:    storeTimeout,
		seqs:            make(map[string]int64),
	}
}

type SendMessageInput struct {
	Target           string // user ID for direct messages, room name otherwise
	Content          string
	Type             string
	NegotiationID    string
	OriginConnection string // excluded from fan-out; it gets message_sent instead
}

func (uc *MessageUseCase) SendMessage(ctx context.Context, senderID string, input SendMessageInput) (*entity.Message, error) {
	if input.Target == "" {
		return nil, errors.BadRequest("target is required", nil)
	}
	if input.Content == "" {
		return nil, errors.BadRequest("content is required", nil)
	}

	messageType := input.Type
	if messageType == "" {
		messageType = entity.MessageTypeText
	}
	switch messageType {
	case entity.MessageTypeText, entity.MessageTypeImage, entity.MessageTypeFile, entity.MessageTypeSystem:
	default:
		return nil, errors.BadRequest("type must be text, image, file or system", nil)
	}

	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	if err := uc.authorizeTarget(cctx, senderID, input.Target); err != nil {
		return nil, err
	}

	seq, err := uc.nextSeq(cctx, input.Target)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		SenderID:      senderID,
		Target:        input.Target,
		Content:       input.Content,
		Type:          messageType,
		NegotiationID: input.NegotiationID,
		Seq:           seq,
	}

	// Persist before fan-out; an UNAVAILABLE store is surfaced to the
	// sender and never silently treated as success.
	if err := uc.messageRepo.Create(cctx, message); err != nil {
		return nil, err
	}

	if isRoom(input.Target) {
		uc.broadcaster.BroadcastToRoom(input.Target, ws.EventNewMessage, message, false, input.OriginConnection)
	} else {
		uc.broadcaster.SendToUser(input.Target, ws.EventNewMessage, message, false)
		// The sender's other devices see the message too.
		uc.broadcaster.BroadcastToRoom(ws.UserRoom(senderID), ws.EventNewMessage, message, false, input.OriginConnection)
	}

	return message, nil
}

// Typing passes a typing indicator through without persistence. Best-effort:
// dropped under backpressure or when the sender may not address the target,
// never surfaced as an error.
func (uc *MessageUseCase) Typing(ctx context.Context, senderID, target string, isTyping bool, originConnection string) {
	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	if err := uc.authorizeTarget(cctx, senderID, target); err != nil {
		return
	}

	payload := ws.UserTypingPayload{
		UserID:   senderID,
		Target:   target,
		IsTyping: isTyping,
	}

	if isRoom(target) {
		uc.broadcaster.BroadcastToRoom(target, ws.EventUserTyping, payload, false, originConnection)
	} else {
		uc.broadcaster.SendToUser(target, ws.EventUserTyping, payload, false)
	}
}

// History serves a conversation's stored messages, enforcing the same access
// rules as sending: trade conversations are participant-only and a direct
// inbox is readable only by its owner.
func (uc *MessageUseCase) History(ctx context.Context, requesterID, target string, limit, offset int) ([]*entity.Message, int64, error) {
	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	if err := uc.authorizeTarget(cctx, requesterID, target); err != nil {
		return nil, 0, err
	}
	if !isRoom(target) && requesterID != target {
		return nil, 0, errors.NotAuthorized("cannot read another user's message history")
	}

	return uc.messageRepo.ListByTarget(cctx, target, limit, offset)
}

// authorizeTarget enforces who may address a target: trade conversations are
// restricted to the negotiation's participants and user rooms to their owner.
// Bare user IDs are direct messages, open to any authenticated sender.
func (uc *MessageUseCase) authorizeTarget(ctx context.Context, userID, target string) error {
	switch {
	case strings.HasPrefix(target, "trade:"):
		negotiation, err := uc.negotiationRepo.GetByID(ctx, strings.TrimPrefix(target, "trade:"))
		if err != nil {
			return err
		}
		if !negotiation.IsParticipant(userID) {
			return errors.NotAuthorized("you are not a participant of this trade")
		}
	case strings.HasPrefix(target, "user:"):
		if target != ws.UserRoom(userID) {
			return errors.NotAuthorized("cannot address another user's private room")
		}
	case target == ws.PresenceRoom:
		return errors.BadRequest("the presence room does not carry messages", nil)
	}
	return nil
}

func (uc *MessageUseCase) nextSeq(ctx context.Context, target string) (int64, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	seq, ok := uc.seqs[target]
	if !ok {
		latest, err := uc.messageRepo.LatestSeq(ctx, target)
		if err != nil {
			return 0, err
		}
		seq = latest
	}
	seq++
	uc.seqs[target] = seq
	return seq, nil
}

// isRoom distinguishes room names from bare user IDs; room names are
// namespaced with a kind prefix by convention.
func isRoom(target string) bool {
	return strings.Contains(target, ":") || target == ws.PresenceRoom
}
