package usecase

import "context"

// Broadcaster fans events out to live connections. Implemented by the
// websocket hub; faked in tests.
type Broadcaster interface {
	BroadcastToRoom(room, eventType string, data interface{}, critical bool, excludeConnectionID string)
	SendToUser(userID, eventType string, data interface{}, critical bool) bool
	IsOnline(userID string) bool
}

// TokenVerifier turns a credential proof into a trusted user ID. Implemented
// by the Firebase auth client; credential issuance is out of scope.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}
