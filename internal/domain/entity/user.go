package entity

import "time"

type User struct {
	ID       string `json:"id" firestore:"id"`
	Email    string `json:"email" firestore:"email"`
	Username string `json:"username" firestore:"username"`
	Bio      string `json:"bio,omitempty" firestore:"bio,omitempty"`

	// Skills the user teaches and wants to learn, plus the credit balance
	// spent/earned through trades.
	TeachSkills []string `json:"teach_skills" firestore:"teachSkills"`
	LearnSkills []string `json:"learn_skills" firestore:"learnSkills"`
	Credits     int      `json:"credits" firestore:"credits"`

	Rating      float64 `json:"rating,omitempty" firestore:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty" firestore:"reviewCount,omitempty"`

	LastSeen     time.Time `json:"last_seen" firestore:"lastSeen"`
	OnlineStatus string    `json:"online_status" firestore:"onlineStatus"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
