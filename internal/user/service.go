package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username is already taken")
	ErrFriendRequestExists = errors.New("friend request already exists")
	ErrFriendSelf          = errors.New("cannot send a friend request to yourself")
	ErrRequestNotFound     = errors.New("friend request not found")
)

// Service handles user and friendship business logic
type Service struct {
	repo *Repository
}

// NewService creates a new user service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a profile for an authenticated user
func (s *Service) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	return s.repo.Create(ctx, req)
}

// GetByID retrieves a profile by its ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Update modifies an existing profile
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateUserRequest) (*User, error) {
	user, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// RequestFriend sends a friend request from requester to addressee
func (s *Service) RequestFriend(ctx context.Context, requesterID, addresseeID uuid.UUID) (*Friendship, error) {
	if requesterID == addresseeID {
		return nil, ErrFriendSelf
	}

	addressee, err := s.repo.GetByID(ctx, addresseeID)
	if err != nil {
		return nil, err
	}
	if addressee == nil {
		return nil, ErrUserNotFound
	}

	existing, err := s.repo.GetFriendship(ctx, requesterID, addresseeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrFriendRequestExists
	}

	return s.repo.CreateFriendship(ctx, requesterID, addresseeID)
}

// AcceptFriend accepts a pending request addressed to userID
func (s *Service) AcceptFriend(ctx context.Context, requesterID, userID uuid.UUID) (*Friendship, error) {
	f, err := s.repo.AcceptFriendship(ctx, requesterID, userID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrRequestNotFound
	}
	return f, nil
}

// ListFriends retrieves all friendships involving a user
func (s *Service) ListFriends(ctx context.Context, userID uuid.UUID) ([]*Friendship, error) {
	return s.repo.ListFriendships(ctx, userID)
}
