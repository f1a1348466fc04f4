package entity

import "time"

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

// Message is an immutable chat/event record. Target is either a room name
// (trade:<id>, a global room) or a user ID for direct messages. Seq is a
// per-target sequence used for client-side ordering.
type Message struct {
	ID            string    `json:"id" firestore:"id"`
	SenderID      string    `json:"sender_id" firestore:"senderId"`
	Target        string    `json:"target" firestore:"target"`
	Content       string    `json:"content" firestore:"content"`
	Type          string    `json:"type" firestore:"type"`
	NegotiationID string    `json:"negotiation_id,omitempty" firestore:"negotiationId,omitempty"`
	Seq           int64     `json:"seq" firestore:"seq"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
}
