package group

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository handles group, member and message data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a group and a member row for every invitee in one
// transaction. The creator's row starts joined; everyone else starts
// invited.
func (r *Repository) Create(ctx context.Context, name string, totalAmount, perPerson int64, creatorID uuid.UUID, memberIDs []uuid.UUID, groupType Type) (*Group, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO groups (id, name, total_amount, per_person, created_by, status, group_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, total_amount, per_person, created_by, status, group_type, closed_at, created_at
	`

	group := &Group{}
	err = tx.QueryRowContext(ctx, query, uuid.New(), name, totalAmount, perPerson, creatorID, StatusActive, groupType).Scan(
		&group.ID,
		&group.Name,
		&group.TotalAmount,
		&group.PerPerson,
		&group.CreatedBy,
		&group.Status,
		&group.GroupType,
		&group.ClosedAt,
		&group.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	memberQuery := `
		INSERT INTO group_members (group_id, user_id, has_joined, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`
	for _, userID := range memberIDs {
		var joinedAt *time.Time
		hasJoined := userID == creatorID
		if hasJoined {
			now := time.Now().UTC()
			joinedAt = &now
		}
		if _, err := tx.ExecContext(ctx, memberQuery, group.ID, userID, hasJoined, joinedAt); err != nil {
			return nil, fmt.Errorf("failed to add member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit group creation: %w", err)
	}

	return group, nil
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Group, error) {
	query := `
		SELECT id, name, total_amount, per_person, created_by, status, group_type, closed_at, created_at
		FROM groups
		WHERE id = $1
	`

	group := &Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.TotalAmount,
		&group.PerPerson,
		&group.CreatedBy,
		&group.Status,
		&group.GroupType,
		&group.ClosedAt,
		&group.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// GetMembers retrieves all members of a group with their profile projection
func (r *Repository) GetMembers(ctx context.Context, groupID uuid.UUID) ([]*Member, error) {
	query := `
		SELECT gm.group_id, gm.user_id, gm.has_joined, gm.has_paid, gm.joined_at, gm.paid_at,
		       u.username, u.avatar_url
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at NULLS LAST, gm.user_id
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(
			&member.GroupID,
			&member.UserID,
			&member.HasJoined,
			&member.HasPaid,
			&member.JoinedAt,
			&member.PaidAt,
			&member.Username,
			&member.AvatarURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	return members, nil
}

// GetMember retrieves a single member row
func (r *Repository) GetMember(ctx context.Context, groupID, userID uuid.UUID) (*Member, error) {
	query := `
		SELECT gm.group_id, gm.user_id, gm.has_joined, gm.has_paid, gm.joined_at, gm.paid_at,
		       u.username, u.avatar_url
		FROM group_members gm
		JOIN users u ON gm.user_id = u.id
		WHERE gm.group_id = $1 AND gm.user_id = $2
	`

	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(
		&member.GroupID,
		&member.UserID,
		&member.HasJoined,
		&member.HasPaid,
		&member.JoinedAt,
		&member.PaidAt,
		&member.Username,
		&member.AvatarURL,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// MarkJoined sets a member's has_joined flag. The flag only moves
// false -> true; repeating the update is harmless.
func (r *Repository) MarkJoined(ctx context.Context, groupID, userID uuid.UUID) (*Member, error) {
	query := `
		UPDATE group_members
		SET has_joined = true, joined_at = COALESCE(joined_at, NOW())
		WHERE group_id = $1 AND user_id = $2
		RETURNING group_id, user_id, has_joined, has_paid, joined_at, paid_at
	`

	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(
		&member.GroupID,
		&member.UserID,
		&member.HasJoined,
		&member.HasPaid,
		&member.JoinedAt,
		&member.PaidAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to mark member joined: %w", err)
	}

	return member, nil
}

// MarkPaid sets a member's has_paid flag and paid_at timestamp in a single
// atomic row write
func (r *Repository) MarkPaid(ctx context.Context, groupID, userID uuid.UUID, paidAt time.Time) (*Member, error) {
	query := `
		UPDATE group_members
		SET has_paid = true, paid_at = COALESCE(paid_at, $3)
		WHERE group_id = $1 AND user_id = $2
		RETURNING group_id, user_id, has_joined, has_paid, joined_at, paid_at
	`

	member := &Member{}
	err := r.db.QueryRowContext(ctx, query, groupID, userID, paidAt).Scan(
		&member.GroupID,
		&member.UserID,
		&member.HasJoined,
		&member.HasPaid,
		&member.JoinedAt,
		&member.PaidAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to mark member paid: %w", err)
	}

	return member, nil
}

// UpdateStatus writes the group's persisted status
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	query := `UPDATE groups SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("failed to update group status: %w", err)
	}
	return nil
}

// SetClosed records the creator's explicit completion of the split
func (r *Repository) SetClosed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE groups SET closed_at = COALESCE(closed_at, NOW()) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to close group: %w", err)
	}
	return nil
}

// ListByUser retrieves all groups where the user has a member row,
// newest first
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Group, int, error) {
	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
	`
	if err := r.db.QueryRowContext(ctx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	query := `
		SELECT g.id, g.name, g.total_amount, g.per_person, g.created_by, g.status, g.group_type, g.closed_at, g.created_at
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group := &Group{}
		if err := rows.Scan(
			&group.ID,
			&group.Name,
			&group.TotalAmount,
			&group.PerPerson,
			&group.CreatedBy,
			&group.Status,
			&group.GroupType,
			&group.ClosedAt,
			&group.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, total, nil
}

// Delete removes a group; member rows and messages cascade
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("group not found")
	}

	return nil
}

// CreateMessage appends a chat message to a group's flat message list
func (r *Repository) CreateMessage(ctx context.Context, groupID, senderID uuid.UUID, body string) (*Message, error) {
	query := `
		INSERT INTO group_messages (group_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, group_id, sender_id, body, created_at
	`

	msg := &Message{}
	err := r.db.QueryRowContext(ctx, query, groupID, senderID, body).Scan(
		&msg.ID,
		&msg.GroupID,
		&msg.SenderID,
		&msg.Body,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return msg, nil
}

// ListMessages retrieves a group's messages oldest-first
func (r *Repository) ListMessages(ctx context.Context, groupID uuid.UUID) ([]*Message, error) {
	query := `
		SELECT m.id, m.group_id, m.sender_id, m.body, m.created_at, u.username
		FROM group_messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.group_id = $1
		ORDER BY m.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg := &Message{}
		if err := rows.Scan(
			&msg.ID,
			&msg.GroupID,
			&msg.SenderID,
			&msg.Body,
			&msg.CreatedAt,
			&msg.SenderUsername,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, nil
}
