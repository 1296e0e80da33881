package plan

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, creatorID uuid.UUID, title string, amount *int64, slots *int) (*Plan, error) {
	p := &Plan{ID: uuid.New(), CreatorID: creatorID, Title: title, Amount: amount, Slots: slots}

	query := `
		INSERT INTO plans (id, creator_id, title, amount, slots, status)
		VALUES ($1, $2, $3, $4, $5, 'open')
		RETURNING status, created_at`

	err := r.db.QueryRowContext(ctx, query, p.ID, p.CreatorID, p.Title, p.Amount, p.Slots).
		Scan(&p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	p := &Plan{}

	query := `
		SELECT id, creator_id, title, amount, slots, status, created_at
		FROM plans
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.CreatorID, &p.Title, &p.Amount, &p.Slots, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) ListOpen(ctx context.Context) ([]Plan, error) {
	query := `
		SELECT id, creator_id, title, amount, slots, status, created_at
		FROM plans
		WHERE status = 'open'
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []Plan{}
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.CreatorID, &p.Title, &p.Amount, &p.Slots, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *Repository) GetMembers(ctx context.Context, planID uuid.UUID) ([]Member, error) {
	query := `
		SELECT pm.plan_id, pm.user_id, pm.joined_at, u.username
		FROM plan_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.plan_id = $1
		ORDER BY pm.joined_at`

	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []Member{}
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.PlanID, &m.UserID, &m.JoinedAt, &m.Username); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember inserts a join record. A duplicate join surfaces the
// unique_violation so the service can report a conflict.
func (r *Repository) AddMember(ctx context.Context, planID, userID uuid.UUID) (*Member, error) {
	m := &Member{PlanID: planID, UserID: userID}

	query := `
		INSERT INTO plan_members (plan_id, user_id)
		VALUES ($1, $2)
		RETURNING joined_at`

	err := r.db.QueryRowContext(ctx, query, planID, userID).Scan(&m.JoinedAt)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return nil, ErrAlreadyJoined
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository) RemoveMember(ctx context.Context, planID, userID uuid.UUID) (bool, error) {
	query := `DELETE FROM plan_members WHERE plan_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, planID, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *Repository) CountMembers(ctx context.Context, planID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM plan_members WHERE plan_id = $1`, planID).Scan(&count)
	return count, err
}

func (r *Repository) SetStatus(ctx context.Context, planID uuid.UUID, status Status) error {
	_, err := r.db.ExecContext(ctx, `UPDATE plans SET status = $2 WHERE id = $1`, planID, status)
	return err
}

func (r *Repository) Delete(ctx context.Context, planID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, planID)
	return err
}
