package user

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Repository handles user and friendship data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new user repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new profile into the database
func (r *Repository) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	query := `
		INSERT INTO users (id, username, phone_number, avatar_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, phone_number, avatar_url, created_at
	`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, req.ID, req.Username, req.PhoneNumber, req.AvatarURL).Scan(
		&user.ID,
		&user.Username,
		&user.PhoneNumber,
		&user.AvatarURL,
		&user.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByID retrieves a profile by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, username, phone_number, avatar_url, created_at
		FROM users
		WHERE id = $1
	`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PhoneNumber,
		&user.AvatarURL,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Update modifies an existing profile
func (r *Repository) Update(ctx context.Context, id uuid.UUID, req *UpdateUserRequest) (*User, error) {
	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    phone_number = COALESCE($3, phone_number),
		    avatar_url = COALESCE($4, avatar_url)
		WHERE id = $1
		RETURNING id, username, phone_number, avatar_url, created_at
	`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, id, req.Username, req.PhoneNumber, req.AvatarURL).Scan(
		&user.ID,
		&user.Username,
		&user.PhoneNumber,
		&user.AvatarURL,
		&user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// CreateFriendship inserts a pending friend request
func (r *Repository) CreateFriendship(ctx context.Context, requesterID, addresseeID uuid.UUID) (*Friendship, error) {
	query := `
		INSERT INTO friendships (requester_id, addressee_id, status)
		VALUES ($1, $2, $3)
		RETURNING requester_id, addressee_id, status, created_at
	`

	f := &Friendship{}
	err := r.db.QueryRowContext(ctx, query, requesterID, addresseeID, FriendshipStatusPending).Scan(
		&f.RequesterID,
		&f.AddresseeID,
		&f.Status,
		&f.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return nil, ErrFriendRequestExists
		}
		return nil, fmt.Errorf("failed to create friendship: %w", err)
	}

	return f, nil
}

// GetFriendship retrieves a friendship in either direction
func (r *Repository) GetFriendship(ctx context.Context, userA, userB uuid.UUID) (*Friendship, error) {
	query := `
		SELECT requester_id, addressee_id, status, created_at
		FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2)
		   OR (requester_id = $2 AND addressee_id = $1)
	`

	f := &Friendship{}
	err := r.db.QueryRowContext(ctx, query, userA, userB).Scan(
		&f.RequesterID,
		&f.AddresseeID,
		&f.Status,
		&f.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}

	return f, nil
}

// AcceptFriendship marks a pending request as accepted
func (r *Repository) AcceptFriendship(ctx context.Context, requesterID, addresseeID uuid.UUID) (*Friendship, error) {
	query := `
		UPDATE friendships
		SET status = $3
		WHERE requester_id = $1 AND addressee_id = $2 AND status = $4
		RETURNING requester_id, addressee_id, status, created_at
	`

	f := &Friendship{}
	err := r.db.QueryRowContext(ctx, query, requesterID, addresseeID,
		FriendshipStatusAccepted, FriendshipStatusPending).Scan(
		&f.RequesterID,
		&f.AddresseeID,
		&f.Status,
		&f.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to accept friendship: %w", err)
	}

	return f, nil
}

// ListFriendships retrieves all friendships involving a user
func (r *Repository) ListFriendships(ctx context.Context, userID uuid.UUID) ([]*Friendship, error) {
	query := `
		SELECT f.requester_id, f.addressee_id, f.status, f.created_at,
		       ru.username, au.username
		FROM friendships f
		JOIN users ru ON f.requester_id = ru.id
		JOIN users au ON f.addressee_id = au.id
		WHERE f.requester_id = $1 OR f.addressee_id = $1
		ORDER BY f.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}
	defer rows.Close()

	var friendships []*Friendship
	for rows.Next() {
		f := &Friendship{}
		if err := rows.Scan(
			&f.RequesterID,
			&f.AddresseeID,
			&f.Status,
			&f.CreatedAt,
			&f.RequesterUsername,
			&f.AddresseeUsername,
		); err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		friendships = append(friendships, f)
	}

	return friendships, nil
}
