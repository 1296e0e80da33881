package plan

import (
	"time"

	"github.com/google/uuid"
)

// Status represents a plan's lifecycle
type Status string

const (
	StatusOpen     Status = "open"
	StatusPromoted Status = "promoted" // converted into a group
)

// Plan is an open invitation post that may later be promoted into a group
type Plan struct {
	ID        uuid.UUID `json:"id"`
	CreatorID uuid.UUID `json:"creator_id"`
	Title     string    `json:"title"`
	Amount    *int64    `json:"amount,omitempty"`
	Slots     *int      `json:"slots,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a user's join record on a plan; no payment semantics
type Member struct {
	PlanID   uuid.UUID `json:"plan_id"`
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Populated from JOIN
	Username string `json:"username,omitempty"`
}
