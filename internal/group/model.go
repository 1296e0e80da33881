package group

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the persisted status of a group
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Type represents the kind of cost a group splits
type Type string

const (
	TypeSingleRide Type = "single-ride"
	TypeMultiRide  Type = "multi-ride"
)

// Group represents a shared-expense group
type Group struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	TotalAmount int64      `json:"total_amount"` // whole KES
	PerPerson   int64      `json:"per_person"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	Status      Status     `json:"status"`
	GroupType   Type       `json:"group_type"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Member represents a user's join-and-payment record within a group.
// A row exists for every invitee from group creation; has_joined and
// has_paid both start false and only ever move to true.
type Member struct {
	GroupID   uuid.UUID  `json:"group_id"`
	UserID    uuid.UUID  `json:"user_id"`
	HasJoined bool       `json:"has_joined"`
	HasPaid   bool       `json:"has_paid"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	// Populated from JOIN with users
	Username  string  `json:"username,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// IsHost reports whether the member created the group
func (m *Member) IsHost(g *Group) bool {
	return m.UserID == g.CreatedBy
}

// Message represents one entry in a group's flat chat list
type Message struct {
	ID        int64     `json:"id"`
	GroupID   uuid.UUID `json:"group_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`

	// Populated from JOIN
	SenderUsername string `json:"sender_username,omitempty"`
}
