package websocket

import (
	"encoding/json"
	"time"

	"skillswap/internal/domain/entity"
	"skillswap/pkg/logger"
)

// Inbound event types consumed by the realtime core.
const (
	EventPing                 = "ping"
	EventAuthenticate         = "authenticate"
	EventTradeRequest         = "trade_request"
	EventTradeResponse        = "trade_response"
	EventTradeStatusUpdate    = "trade_status_update"
	EventSendMessage          = "send_message"
	EventTypingStart          = "typing_start"
	EventTypingStop           = "typing_stop"
	EventJoinRoom             = "join_room"
	EventLeaveRoom            = "leave_room"
	EventMarkNotificationRead = "mark_notification_read"
)

// Outbound event types emitted to clients.
const (
	EventPong                   = "pong"
	EventAuthenticated          = "authenticated"
	EventTradeRequestSent       = "trade_request_sent"
	EventTradeRequestReceived   = "trade_request_received"
	EventTradeResponseSent      = "trade_response_sent"
	EventTradeResponseReceived  = "trade_response_received"
	EventTradeStatusUpdated     = "trade_status_updated"
	EventNegotiationChanged     = "negotiation_changed"
	EventMessageSent            = "message_sent"
	EventNewMessage             = "new_message"
	EventUserTyping             = "user_typing"
	EventNotification           = "notification"
	EventNotificationMarkedRead = "notification_marked_read"
	EventUserOnline             = "user_online"
	EventUserOffline            = "user_offline"
	EventError                  = "error"
)

// WSMessage is the wire envelope for outbound events.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// Envelope is the wire envelope for inbound events; Data stays raw until the
// per-type handler validates it.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type AuthenticatedPayload struct {
	Success bool         `json:"success"`
	Profile *entity.User `json:"profile,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type TradeRequestPayload struct {
	CounterpartyID  string   `json:"counterparty_id"`
	OfferedSkills   []string `json:"offered_skills"`
	RequestedSkills []string `json:"requested_skills"`
	Credits         int      `json:"credits"`
	Message         string   `json:"message,omitempty"`
}

type TradeResponsePayload struct {
	NegotiationID string             `json:"negotiation_id"`
	Response      string             `json:"response"`
	CounterOffer  *entity.TradeOffer `json:"counter_offer,omitempty"`
	Message       string             `json:"message,omitempty"`
}

type TradeStatusPayload struct {
	NegotiationID string `json:"negotiation_id"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}

type SendMessagePayload struct {
	Target        string `json:"target"`
	Content       string `json:"content"`
	Type          string `json:"type,omitempty"`
	NegotiationID string `json:"negotiation_id,omitempty"`
}

type TypingPayload struct {
	Target string `json:"target"`
}

type UserTypingPayload struct {
	UserID   string `json:"user_id"`
	Target   string `json:"target"`
	IsTyping bool   `json:"is_typing"`
}

type RoomPayload struct {
	Room string `json:"room"`
}

type MarkNotificationReadPayload struct {
	NotificationID string `json:"notification_id"`
}

type PresencePayload struct {
	UserID string `json:"user_id"`
}

type ErrorPayload struct {
	Code        string              `json:"code"`
	Message     string              `json:"message"`
	Negotiation *entity.Negotiation `json:"negotiation,omitempty"`
}

// MarshalEvent wraps data in the outbound envelope. Returns nil when the
// payload cannot be encoded; callers treat nil as nothing-to-send.
func MarshalEvent(eventType string, data interface{}) []byte {
	payload, err := json.Marshal(WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("failed to marshal %s event: %v", eventType, err)
		return nil
	}
	return payload
}
