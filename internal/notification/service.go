package notification

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// TokenStore is the push token lookup the service needs
type TokenStore interface {
	Upsert(ctx context.Context, userID uuid.UUID, token string) error
	Get(ctx context.Context, userID uuid.UUID) (string, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// Service handles best-effort push notification fan-out. Notification
// delivery never blocks or fails the business operation that triggered it.
type Service struct {
	tokens TokenStore
	sender Sender
}

// NewService creates a new notification service
func NewService(tokens TokenStore, sender Sender) *Service {
	return &Service{tokens: tokens, sender: sender}
}

// RegisterToken saves a user's push endpoint
func (s *Service) RegisterToken(ctx context.Context, userID uuid.UUID, token string) error {
	return s.tokens.Upsert(ctx, userID, token)
}

// UnregisterToken removes a user's push endpoint
func (s *Service) UnregisterToken(ctx context.Context, userID uuid.UUID) error {
	return s.tokens.Delete(ctx, userID)
}

// Notify sends one push to a user. A user with no registered token is a
// no-op, not an error; delivered reports whether a send was attempted and
// succeeded.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, title, body string) (delivered bool, err error) {
	token, err := s.tokens.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}

	if err := s.sender.Send(ctx, token, title, body); err != nil {
		slog.Warn("push delivery failed", "user_id", userID, "error", err)
		return false, err
	}
	return true, nil
}

// NotifyAll fans a push out to several users, best effort. Individual
// failures are logged inside Notify and otherwise ignored.
func (s *Service) NotifyAll(ctx context.Context, userIDs []uuid.UUID, title, body string) {
	for _, id := range userIDs {
		s.Notify(ctx, id, title, body) //nolint:errcheck
	}
}
