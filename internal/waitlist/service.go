package waitlist

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	ErrInvalidEmail    = errors.New("a valid email is required")
	ErrAlreadySignedUp = errors.New("this email is already on the waitlist")
)

// Store abstracts persistence for testing
type Store interface {
	Create(ctx context.Context, email, name string) (*Entry, error)
	Count(ctx context.Context) (int, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Join(ctx context.Context, email, name string) (*Entry, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}

	entry, err := s.store.Create(ctx, email, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, ErrAlreadySignedUp) {
			return nil, ErrAlreadySignedUp
		}
		return nil, fmt.Errorf("failed to join waitlist: %w", err)
	}
	return entry, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}
