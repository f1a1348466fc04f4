package usecase

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"skillswap/internal/domain/entity"
	"skillswap/internal/domain/repository"
	"skillswap/internal/infrastructure/ratelimit"
	ws "skillswap/internal/infrastructure/websocket"
	"skillswap/pkg/errors"
	"skillswap/pkg/logger"
)

// RealtimeUseCase validates inbound client events and routes them to the
// negotiation, message and notification components. Every event except
// authenticate and ping requires a bound identity; a malformed frame
// terminates only the offending connection.
type RealtimeUseCase struct {
	hub           *ws.Hub
	verifier      TokenVerifier
	userRepo      repository.UserRepository
	negotiations  *NegotiationUseCase
	messages      *MessageUseCase
	notifications *NotificationUseCase
	limiter       *ratelimit.RateLimiter
	verifyTimeout time.Duration
}

func NewRealtimeUseCase(
	hub *ws.Hub,
	verifier TokenVerifier,
	userRepo repository.UserRepository,
	negotiations *NegotiationUseCase,
	messages *MessageUseCase,
	notifications *NotificationUseCase,
	verifyTimeout time.Duration,
) *RealtimeUseCase {
	limiter := ratelimit.NewRateLimiter()
	limiter.StartCleanupRoutine()

	uc := &RealtimeUseCase{
		hub:           hub,
		verifier:      verifier,
		userRepo:      userRepo,
		negotiations:  negotiations,
		messages:      messages,
		notifications: notifications,
		limiter:       limiter,
		verifyTimeout: verifyTimeout,
	}
	hub.SetHandler(uc)
	return uc
}

// HandleMessage implements websocket.MessageHandler.
func (uc *RealtimeUseCase) HandleMessage(c *ws.Client, raw []byte) bool {
	var envelope ws.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		logger.Warn("malformed event on connection %s, terminating: %v", c.ID, err)
		uc.hub.Send(c, ws.EventError, ws.ErrorPayload{Code: "BAD_REQUEST", Message: "malformed event"}, false)
		return false
	}

	switch envelope.Type {
	case ws.EventPing:
		uc.hub.Send(c, ws.EventPong, map[string]string{"status": "alive"}, false)
		return true
	case ws.EventAuthenticate:
		uc.handleAuthenticate(c, envelope.Data)
		return true
	}

	userID := c.UserID()
	if userID == "" {
		uc.sendError(c, errors.NotAuthenticated("authenticate before sending events"))
		return true
	}

	switch envelope.Type {
	case ws.EventTradeRequest:
		uc.handleTradeRequest(c, userID, envelope.Data)
	case ws.EventTradeResponse:
		uc.handleTradeResponse(c, userID, envelope.Data)
	case ws.EventTradeStatusUpdate:
		uc.handleTradeStatusUpdate(c, userID, envelope.Data)
	case ws.EventSendMessage:
		uc.handleSendMessage(c, userID, envelope.Data)
	case ws.EventTypingStart:
		uc.handleTyping(c, userID, envelope.Data, true)
	case ws.EventTypingStop:
		uc.handleTyping(c, userID, envelope.Data, false)
	case ws.EventJoinRoom:
		uc.handleJoinRoom(c, userID, envelope.Data)
	case ws.EventLeaveRoom:
		uc.handleLeaveRoom(c, envelope.Data)
	case ws.EventMarkNotificationRead:
		uc.handleMarkNotificationRead(c, userID, envelope.Data)
	default:
		logger.Debug("unknown event type %q from connection %s", envelope.Type, c.ID)
		uc.sendError(c, errors.BadRequest("unknown event type", nil))
	}
	return true
}

func (uc *RealtimeUseCase) handleAuthenticate(c *ws.Client, data json.RawMessage) {
	var payload ws.AuthenticatePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		uc.hub.Send(c, ws.EventAuthenticated, ws.AuthenticatedPayload{Success: false, Error: "credential proof is required"}, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), uc.verifyTimeout)
	defer cancel()

	userID, err := uc.verifier.VerifyToken(ctx, payload.Token)
	if err != nil {
		logger.Info("authentication failed on connection %s: %v", c.ID, err)
		uc.hub.Send(c, ws.EventAuthenticated, ws.AuthenticatedPayload{Success: false, Error: "invalid or expired credential"}, false)
		return
	}

	if err := uc.hub.Attach(c, userID); err != nil {
		uc.sendError(c, err)
		return
	}

	profile, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("failed to load profile for user %s: %v", userID, err)
	}
	uc.hub.Send(c, ws.EventAuthenticated, ws.AuthenticatedPayload{Success: true, Profile: profile}, false)

	// Replay whatever landed in the inbox while the user was offline.
	if err := uc.notifications.DeliverPending(context.Background(), userID); err != nil {
		logger.Warn("failed to replay pending notifications for user %s: %v", userID, err)
	}
}

func (uc *RealtimeUseCase) handleTradeRequest(c *ws.Client, userID string, data json.RawMessage) {
	if allowed, wait := uc.limiter.Allow(userID, "trade_request"); !allowed {
		uc.sendError(c, errors.TooManyRequests("Too many trade requests, slow down", wait))
		return
	}

	var payload ws.TradeRequestPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		uc.sendError(c, errors.BadRequest("invalid trade_request payload", err))
		return
	}

	negotiation, err := uc.negotiations.Propose(context.Background(), userID, ProposeInput{
		CounterpartyID:  payload.CounterpartyID,
		OfferedSkills:   payload.OfferedSkills,
		RequestedSkills: payload.RequestedSkills,
		Credits:         payload.Credits,
		Message:         payload.Message,
	})
	if err != nil {
		uc.sendError(c, err)
		return
	}

	uc.hub.Send(c, ws.EventTradeRequestSent, negotiation, true)
}

func (uc *RealtimeUseCase) handleTradeResponse(c *ws.Client, userID string, data json.RawMessage) {
	var payload ws.TradeResponsePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		uc.sendError(c, errors.BadRequest("invalid trade_response payload", err))
		return
	}
	if payload.NegotiationID == "" {
		uc.sendError(c, errors.BadRequest("negotiation_id is required", nil))
		return
	}

	negotiation, err := uc.negotiations.Respond(context.Background(), payload.NegotiationID, userID, RespondInput{
		Decision:     payload.Response,
		CounterOffer: payload.CounterOffer,
		Message:      payload.Message,
	})
	if err != nil {
		// On CONFLICT the fresh state rides along so the client can
		// re-render and decide whether to retry.
		uc.sendErrorWithState(c, err, negotiation)
		return
	}

	uc.hub.Send(c, ws.EventTradeResponseSent, negotiation, true)
}

func (uc *RealtimeUseCase) handleTradeStatusUpdate(c *ws.Client, userID string, data json.RawMessage) {
	var payload ws.TradeStatusPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		uc.sendError(c, errors.BadRequest("invalid trade_status_update payload", err))
		return
	}
	if payload.NegotiationID == "" {
		uc.sendError(c, errors.BadRequest("negotiation_id is required", nil))
		return
	}

	// Both participants, the acting one included, receive
	// trade_status_updated through the fan-out, so no direct reply here.
	negotiation, err := uc.negotiations.Terminate(context.Background(), payload.NegotiationID, userID, payload.Status, payload.Message)
	if err != nil {
		uc.sendErrorWithState(c, err, negotiation)
		return
	}
}

func (uc *RealtimeUseCase) handleSendMessage(c *ws.Client, userID string, data json.RawMessage) {
	if allowed, wait := uc.limiter.Allow(userID, "send_message"); !allowed {
		uc.sendError(c, errors.TooManyRequests("Too many messages, slow down", wait))
		return
	}

	var payload ws.SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		uc.sendError(c, errors.BadRequest("invalid send_message payload", err))
		return
	}

	message, err := uc.messages.SendMessage(context.Background(), userID, SendMessageInput{
		Target:           payload.Target,
		Content:          payload.Content,
		Type:             payload.Type,
		NegotiationID:    payload.NegotiationID,
		OriginConnection: c.ID,
	})
	if err != nil {
		uc.sendError(c, err)
		return
	}

	uc.hub.Send(c, ws.EventMessageSent, message, false)
}

func (uc *RealtimeUseCase) handleTyping(c *ws.Client, userID string, data json.RawMessage, isTyping bool) {
	if allowed, _ := uc.limiter.Allow(userID, "typing"); !allowed {
		// Typing indicators are best-effort; rate-limited ones just vanish.
		return
	}

	var payload ws.TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Target == "" {
		return
	}

	uc.messages.Typing(context.Background(), userID, payload.Target, isTyping, c.ID)
}

func (uc *RealtimeUseCase) handleJoinRoom(c *ws.Client, userID string, data json.RawMessage) {
	var payload ws.RoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Room == "" {
		uc.sendError(c, errors.BadRequest("room is required", nil))
		return
	}

	switch {
	case strings.HasPrefix(payload.Room, "user:"):
		if payload.Room != ws.UserRoom(userID) {
			uc.sendError(c, errors.NotAuthorized("cannot join another user's private room"))
			return
		}
	case strings.HasPrefix(payload.Room, "trade:"):
		negotiationID := strings.TrimPrefix(payload.Room, "trade:")
		if _, err := uc.negotiations.GetForUser(context.Background(), negotiationID, userID); err != nil {
			uc.sendError(c, err)
			return
		}
	}

	uc.hub.Join(c, payload.Room)
	logger.Debug("connection %s joined room %s", c.ID, payload.Room)
}

func (uc *RealtimeUseCase) handleLeaveRoom(c *ws.Client, data json.RawMessage) {
	var payload ws.RoomPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.Room == "" {
		return
	}
	uc.hub.Leave(c, payload.Room)
}

func (uc *RealtimeUseCase) handleMarkNotificationRead(c *ws.Client, userID string, data json.RawMessage) {
	var payload ws.MarkNotificationReadPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.NotificationID == "" {
		uc.sendError(c, errors.BadRequest("notification_id is required", nil))
		return
	}

	if err := uc.notifications.MarkRead(context.Background(), userID, payload.NotificationID); err != nil {
		uc.sendError(c, err)
		return
	}

	uc.hub.Send(c, ws.EventNotificationMarkedRead, map[string]string{"notification_id": payload.NotificationID}, false)
}

func (uc *RealtimeUseCase) sendError(c *ws.Client, err error) {
	uc.sendErrorWithState(c, err, nil)
}

// sendErrorWithState reports a failure and, when the conflict path yielded a
// fresh negotiation, includes it so the client can re-render before retrying.
func (uc *RealtimeUseCase) sendErrorWithState(c *ws.Client, err error, negotiation *entity.Negotiation) {
	payload := ws.ErrorPayload{
		Code:        errors.CodeOf(err),
		Message:     err.Error(),
		Negotiation: negotiation,
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		payload.Message = appErr.Message
	}
	uc.hub.Send(c, ws.EventError, payload, false)
}
