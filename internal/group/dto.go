package group

import "github.com/google/uuid"

// CreateGroupRequest represents the request to create a group
type CreateGroupRequest struct {
	Name        string      `json:"name" validate:"required,min=1,max=100"`
	TotalAmount int64       `json:"total_amount" validate:"gte=0"`
	MemberIDs   []uuid.UUID `json:"member_ids" validate:"required,min=1"`
	GroupType   Type        `json:"group_type"`
}

// PostMessageRequest represents the request to post a chat message
type PostMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=1000"`
}

// GroupResponse represents the response for a group
type GroupResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	TotalAmount int64             `json:"total_amount"`
	PerPerson   int64             `json:"per_person"`
	CreatedBy   uuid.UUID         `json:"created_by"`
	Status      Status            `json:"status"`
	GroupType   Type              `json:"group_type"`
	Phase       string            `json:"phase,omitempty"`
	CreatedAt   string            `json:"created_at"`
	Members     []*MemberResponse `json:"members,omitempty"`
}

// MemberResponse represents a member in a group response
type MemberResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	HasJoined bool      `json:"has_joined"`
	HasPaid   bool      `json:"has_paid"`
	IsHost    bool      `json:"is_host"`
	JoinedAt  *string   `json:"joined_at,omitempty"`
	PaidAt    *string   `json:"paid_at,omitempty"`
}

// MessageResponse represents a chat message in API responses
type MessageResponse struct {
	ID             int64     `json:"id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Body           string    `json:"body"`
	CreatedAt      string    `json:"created_at"`
}

const timeLayout = "2006-01-02T15:04:05Z"

// ToResponse converts a Group model to a GroupResponse DTO
func (g *Group) ToResponse() *GroupResponse {
	return &GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		TotalAmount: g.TotalAmount,
		PerPerson:   g.PerPerson,
		CreatedBy:   g.CreatedBy,
		Status:      g.Status,
		GroupType:   g.GroupType,
		CreatedAt:   g.CreatedAt.Format(timeLayout),
	}
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse(g *Group) *MemberResponse {
	resp := &MemberResponse{
		UserID:    m.UserID,
		Username:  m.Username,
		AvatarURL: m.AvatarURL,
		HasJoined: m.HasJoined,
		HasPaid:   m.HasPaid,
		IsHost:    m.IsHost(g),
	}
	if m.JoinedAt != nil {
		s := m.JoinedAt.Format(timeLayout)
		resp.JoinedAt = &s
	}
	if m.PaidAt != nil {
		s := m.PaidAt.Format(timeLayout)
		resp.PaidAt = &s
	}
	return resp
}

// ToResponse converts a Message model to a MessageResponse DTO
func (m *Message) ToResponse() *MessageResponse {
	return &MessageResponse{
		ID:             m.ID,
		SenderID:       m.SenderID,
		SenderUsername: m.SenderUsername,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt.Format(timeLayout),
	}
}
