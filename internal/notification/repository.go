package notification

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository handles push token persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new notification repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert registers or replaces a user's push token
func (r *Repository) Upsert(ctx context.Context, userID uuid.UUID, token string) error {
	query := `
		INSERT INTO push_tokens (user_id, token, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET token = $2, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to save push token: %w", err)
	}
	return nil
}

// Get retrieves a user's push token; empty string when none is registered
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	var token string
	query := `SELECT token FROM push_tokens WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&token)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get push token: %w", err)
	}
	return token, nil
}

// Delete removes a user's push token
func (r *Repository) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM push_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete push token: %w", err)
	}
	return nil
}
