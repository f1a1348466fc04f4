package entity

import "time"

const (
	NotificationTypeTradeRequest  = "trade_request"
	NotificationTypeTradeResponse = "trade_response"
	NotificationTypeTradeStatus   = "trade_status"
	NotificationTypeAchievement   = "achievement"
	NotificationTypeSystem        = "system"
)

type Notification struct {
	ID        string                 `json:"id" firestore:"id"`
	UserID    string                 `json:"user_id" firestore:"userId"`
	Type      string                 `json:"type" firestore:"type"`
	Title     string                 `json:"title" firestore:"title"`
	Body      string                 `json:"body" firestore:"body"`
	Data      map[string]interface{} `json:"data,omitempty" firestore:"data,omitempty"`
	Delivered bool                   `json:"delivered" firestore:"delivered"`
	Read      bool                   `json:"read" firestore:"read"`
	CreatedAt time.Time              `json:"created_at" firestore:"createdAt"`
}
