package notification

import (
	"time"

	"github.com/google/uuid"
)

// PushToken is a user's registered push delivery endpoint
type PushToken struct {
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Payload is the push message handed to the delivery service
type Payload struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
}
