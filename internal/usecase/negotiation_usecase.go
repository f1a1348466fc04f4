package usecase

import (
	"context"
	"fmt"
	"time"

	"skillswap/internal/domain/entity"
	"skillswap/internal/domain/repository"
	ws "skillswap/internal/infrastructure/websocket"
	"skillswap/pkg/errors"
	"skillswap/pkg/logger"
)

// NegotiationUseCase owns the trade-negotiation lifecycle. Every transition
// goes through an explicit transition table and is committed with optimistic
// concurrency, so two concurrent responders cannot both win a round. The
// durable store is the system of record; nothing is cached across calls.
type NegotiationUseCase struct {
	negotiationRepo repository.NegotiationRepository
	userRepo        repository.UserRepository
	messages        *MessageUseCase
	notifications   *NotificationUseCase
	broadcaster     Broadcaster
	storeTimeout    time.Duration
}

func NewNegotiationUseCase(
	negotiationRepo repository.NegotiationRepository,
	userRepo repository.UserRepository,
	messages *MessageUseCase,
	notifications *NotificationUseCase,
	broadcaster Broadcaster,
	storeTimeout time.Duration,
) *NegotiationUseCase {
	return &NegotiationUseCase{
		negotiationRepo: negotiationRepo,
		userRepo:        userRepo,
		messages:        messages,
		notifications:   notifications,
		broadcaster:     broadcaster,
		storeTimeout:    storeTimeout,
	}
}

type ProposeInput struct {
	CounterpartyID  string
	OfferedSkills   []string
	RequestedSkills []string
	Credits         int
	Message         string
}

type RespondInput struct {
	Decision     string // accept, decline or counter
	CounterOffer *entity.TradeOffer
	Message      string
}

func (uc *NegotiationUseCase) Propose(ctx context.Context, initiatorID string, input ProposeInput) (*entity.Negotiation, error) {
	if input.CounterpartyID == "" {
		return nil, errors.BadRequest("counterparty_id is required", nil)
	}
	if initiatorID == input.CounterpartyID {
		return nil, errors.InvalidParticipants("a trade needs two distinct participants")
	}
	if input.Credits < 0 {
		return nil, errors.BadRequest("credits cannot be negative", nil)
	}
	if len(input.OfferedSkills) == 0 && len(input.RequestedSkills) == 0 && input.Credits == 0 {
		return nil, errors.BadRequest("trade offer is empty", nil)
	}

	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	counterparty, err := uc.userRepo.GetByID(cctx, input.CounterpartyID)
	if err != nil {
		return nil, err
	}

	negotiation := &entity.Negotiation{
		InitiatorID:     initiatorID,
		CounterpartyID:  counterparty.ID,
		OfferedSkills:   input.OfferedSkills,
		RequestedSkills: input.RequestedSkills,
		Credits:         input.Credits,
		Status:          entity.NegotiationProposed,
		ProposerID:      initiatorID,
	}

	if err := uc.negotiationRepo.Create(cctx, negotiation); err != nil {
		return nil, err
	}

	uc.broadcaster.SendToUser(counterparty.ID, ws.EventTradeRequestReceived, negotiation, true)

	if _, err := uc.notifications.Notify(ctx, counterparty.ID, NotifyInput{
		Type:  entity.NotificationTypeTradeRequest,
		Title: "New trade request",
		Body:  input.Message,
		Data:  map[string]interface{}{"negotiation_id": negotiation.ID},
	}); err != nil {
		logger.Warn("failed to store trade_request notification for user %s: %v", counterparty.ID, err)
	}

	if input.Message != "" {
		uc.appendSystemMessage(ctx, negotiation, initiatorID, input.Message, entity.MessageTypeText)
	}

	logger.Info("negotiation %s proposed by %s to %s", negotiation.ID, initiatorID, counterparty.ID)
	return negotiation, nil
}

// Respond applies accept, decline or counter on behalf of the current round's
// responder. On CONFLICT the fresh state is returned alongside the error so
// the caller can decide whether to retry.
func (uc *NegotiationUseCase) Respond(ctx context.Context, negotiationID, actorID string, input RespondInput) (*entity.Negotiation, error) {
	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	negotiation, err := uc.negotiationRepo.GetByID(cctx, negotiationID)
	if err != nil {
		return nil, err
	}

	if negotiation.Status.IsTerminal() {
		return negotiation, errors.InvalidTransition(fmt.Sprintf("negotiation is already %s", negotiation.Status))
	}
	if actorID != negotiation.ResponderID() {
		return nil, errors.NotAuthorized("only the non-proposing party can respond to this round")
	}

	var next entity.NegotiationStatus
	switch input.Decision {
	case "accept":
		next = entity.NegotiationAccepted
	case "decline":
		next = entity.NegotiationDeclined
	case "counter":
		if input.CounterOffer.IsEmpty() {
			return nil, errors.BadRequest("counter requires a non-empty counter-offer", nil)
		}
		next = entity.NegotiationCountered
	default:
		return nil, errors.BadRequest("decision must be accept, decline or counter", nil)
	}

	if !negotiation.Status.CanTransitionTo(next) {
		return negotiation, errors.InvalidTransition(fmt.Sprintf("cannot %s a negotiation in state %s", input.Decision, negotiation.Status))
	}

	priorVersion := negotiation.Version
	negotiation.Status = next

	switch next {
	case entity.NegotiationCountered:
		// The responder's counter puts their offer on the table and
		// flips the proposing role for the next round.
		negotiation.CounterOffer = input.CounterOffer
		negotiation.ProposerID = actorID
	case entity.NegotiationAccepted:
		// accepted → active is committed as one atomic step; the session
		// setup the active state depends on is scheduled externally.
		negotiation.Status = entity.NegotiationActive
	}

	if err := uc.negotiationRepo.UpdateWithVersion(cctx, negotiation, priorVersion); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			fresh, readErr := uc.negotiationRepo.GetByID(cctx, negotiationID)
			if readErr != nil {
				return nil, err
			}
			return fresh, err
		}
		return nil, err
	}

	uc.emitChanged(ctx, negotiation, actorID, ws.EventTradeResponseReceived, entity.NotificationTypeTradeResponse, input.Message)
	return negotiation, nil
}

// Terminate completes or cancels an active trade. Valid only from active.
func (uc *NegotiationUseCase) Terminate(ctx context.Context, negotiationID, actorID, status, message string) (*entity.Negotiation, error) {
	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	negotiation, err := uc.negotiationRepo.GetByID(cctx, negotiationID)
	if err != nil {
		return nil, err
	}

	if !negotiation.IsParticipant(actorID) {
		return nil, errors.NotAuthorized("only a participant can update this trade")
	}

	var next entity.NegotiationStatus
	switch status {
	case "completed":
		next = entity.NegotiationCompleted
	case "cancelled":
		next = entity.NegotiationCancelled
	default:
		return nil, errors.BadRequest("status must be completed or cancelled", nil)
	}

	if !negotiation.Status.CanTransitionTo(next) {
		return negotiation, errors.InvalidTransition(fmt.Sprintf("cannot move a %s negotiation to %s", negotiation.Status, next))
	}

	priorVersion := negotiation.Version
	negotiation.Status = next
	negotiation.TerminationReason = message
	if negotiation.TerminationReason == "" {
		negotiation.TerminationReason = status
	}

	if err := uc.negotiationRepo.UpdateWithVersion(cctx, negotiation, priorVersion); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			fresh, readErr := uc.negotiationRepo.GetByID(cctx, negotiationID)
			if readErr != nil {
				return nil, err
			}
			return fresh, err
		}
		return nil, err
	}

	uc.emitChanged(ctx, negotiation, actorID, ws.EventTradeStatusUpdated, entity.NotificationTypeTradeStatus, message)
	return negotiation, nil
}

// GetForUser fetches a negotiation, enforcing participant-only access.
func (uc *NegotiationUseCase) GetForUser(ctx context.Context, negotiationID, userID string) (*entity.Negotiation, error) {
	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	negotiation, err := uc.negotiationRepo.GetByID(cctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if !negotiation.IsParticipant(userID) {
		return nil, errors.NotAuthorized("you are not a participant of this trade")
	}
	return negotiation, nil
}

func (uc *NegotiationUseCase) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Negotiation, int64, error) {
	cctx, cancel := context.WithTimeout(ctx, uc.storeTimeout)
	defer cancel()

	return uc.negotiationRepo.ListByUserID(cctx, userID, limit, offset)
}

// emitChanged publishes exactly one negotiation_changed event for a committed
/// transition: critical fan-out to the trade room, a direct event to the
// non-acting participant, and a durable notification to both participants so
// offline parties never miss a trade-state change.
func (uc *NegotiationUseCase) emitChanged(ctx context.Context, negotiation *entity.Negotiation, actorID, directEvent, notificationType, message string) {
	uc.broadcaster.BroadcastToRoom(ws.TradeRoom(negotiation.ID), ws.EventNegotiationChanged, negotiation, true, "")

	other := negotiation.InitiatorID
	if actorID == other {
		other = negotiation.CounterpartyID
	}
	uc.broadcaster.SendToUser(other, directEvent, negotiation, true)
	if directEvent == ws.EventTradeStatusUpdated {
		uc.broadcaster.SendToUser(actorID, directEvent, negotiation, true)
	}

	for _, participant := range []string{negotiation.InitiatorID, negotiation.CounterpartyID} {
		if _, err := uc.notifications.Notify(ctx, participant, NotifyInput{
			Type:  notificationType,
			Title: fmt.Sprintf("Trade %s", negotiation.Status),
			Body:  message,
			Data:  map[string]interface{}{"negotiation_id": negotiation.ID, "status": string(negotiation.Status)},
		}); err != nil {
			logger.Warn("failed to store %s notification for user %s: %v", notificationType, participant, err)
		}
	}

	uc.appendSystemMessage(ctx, negotiation, actorID, fmt.Sprintf("Trade moved to %s", negotiation.Status), entity.MessageTypeSystem)
}

// appendSystemMessage records a transition in the trade conversation. It goes
// through the message router so the entry gets a real sequence number and the
// room sees it live; failure to record is logged, never fatal.
func (uc *NegotiationUseCase) appendSystemMessage(ctx context.Context, negotiation *entity.Negotiation, senderID, content, messageType string) {
	_, err := uc.messages.SendMessage(ctx, senderID, SendMessageInput{
		Target:        ws.TradeRoom(negotiation.ID),
		Content:       content,
		Type:          messageType,
		NegotiationID: negotiation.ID,
	})
	if err != nil {
		logger.Warn("failed to append message to trade %s conversation: %v", negotiation.ID, err)
	}
}
