package waitlist

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, email, name string) (*Entry, error) {
	e := &Entry{Email: email, Name: name}

	query := `
		INSERT INTO waitlist (email, name)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, email, name).Scan(&e.ID, &e.CreatedAt)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return nil, ErrAlreadySignedUp
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist`).Scan(&count)
	return count, err
}
