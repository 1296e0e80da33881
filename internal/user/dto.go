package user

import "github.com/google/uuid"

// CreateUserRequest represents the request to create a profile
type CreateUserRequest struct {
	ID          uuid.UUID `json:"id"` // assigned by the auth provider
	Username    string    `json:"username" validate:"required,min=1,max=50"`
	PhoneNumber string    `json:"phone_number" validate:"required"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}

// UpdateUserRequest represents the request to update a profile
type UpdateUserRequest struct {
	Username    *string `json:"username,omitempty" validate:"omitempty,min=1,max=50"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// FriendRequestBody represents the request to send a friend request
type FriendRequestBody struct {
	AddresseeID uuid.UUID `json:"addressee_id" validate:"required"`
}

// UserResponse represents the response for a profile
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	PhoneNumber string    `json:"phone_number"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

// FriendshipResponse represents a friendship in API responses
type FriendshipResponse struct {
	RequesterID       uuid.UUID        `json:"requester_id"`
	AddresseeID       uuid.UUID        `json:"addressee_id"`
	RequesterUsername string           `json:"requester_username,omitempty"`
	AddresseeUsername string           `json:"addressee_username,omitempty"`
	Status            FriendshipStatus `json:"status"`
	CreatedAt         string           `json:"created_at"`
}

// ToResponse converts a User model to a UserResponse DTO
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		PhoneNumber: u.PhoneNumber,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ToResponse converts a Friendship model to a FriendshipResponse DTO
func (f *Friendship) ToResponse() *FriendshipResponse {
	return &FriendshipResponse{
		RequesterID:       f.RequesterID,
		AddresseeID:       f.AddresseeID,
		RequesterUsername: f.RequesterUsername,
		AddresseeUsername: f.AddresseeUsername,
		Status:            f.Status,
		CreatedAt:         f.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
