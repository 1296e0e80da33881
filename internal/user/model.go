package user

import (
	"time"

	"github.com/google/uuid"
)

// User represents a profile in the system
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	PhoneNumber string    `json:"phone_number"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// FriendshipStatus represents the state of a friend request
type FriendshipStatus string

const (
	FriendshipStatusPending  FriendshipStatus = "pending"
	FriendshipStatusAccepted FriendshipStatus = "accepted"
)

// Friendship represents a friend request between two users
type Friendship struct {
	RequesterID uuid.UUID        `json:"requester_id"`
	AddresseeID uuid.UUID        `json:"addressee_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`

	// Populated from JOIN
	RequesterUsername string `json:"requester_username,omitempty"`
	AddresseeUsername string `json:"addressee_username,omitempty"`
}
