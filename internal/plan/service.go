package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/yutoapp/yuto/internal/group"
)

var (
	ErrPlanNotFound   = errors.New("plan not found")
	ErrTitleRequired  = errors.New("title is required")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvalidSlots   = errors.New("slots must be positive")
	ErrAlreadyJoined  = errors.New("already joined this plan")
	ErrPlanFull       = errors.New("plan is full")
	ErrNotMember      = errors.New("not a member of this plan")
	ErrNotCreator     = errors.New("only the creator can do that")
	ErrNotOpen        = errors.New("plan is no longer open")
	ErrCreatorLeaving = errors.New("creator cannot leave their own plan")
)

// GroupCreator is the slice of the group service promotion needs.
type GroupCreator interface {
	Create(ctx context.Context, creatorID uuid.UUID, req *group.CreateGroupRequest) (*group.Group, error)
}

type Service struct {
	repo   *Repository
	groups GroupCreator
}

func NewService(repo *Repository, groups GroupCreator) *Service {
	return &Service{repo: repo, groups: groups}
}

func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, req *CreatePlanRequest) (*Plan, error) {
	if req.Title == "" {
		return nil, ErrTitleRequired
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Slots != nil && *req.Slots <= 0 {
		return nil, ErrInvalidSlots
	}

	p, err := s.repo.Create(ctx, creatorID, req.Title, req.Amount, req.Slots)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	// The creator holds the first slot.
	if _, err := s.repo.AddMember(ctx, p.ID, creatorID); err != nil && !errors.Is(err, ErrAlreadyJoined) {
		return nil, fmt.Errorf("failed to add creator to plan: %w", err)
	}

	return p, nil
}

func (s *Service) ListOpen(ctx context.Context) ([]Plan, error) {
	return s.repo.ListOpen(ctx)
}

func (s *Service) GetByIDWithMembers(ctx context.Context, id uuid.UUID) (*Plan, []Member, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if p == nil {
		return nil, nil, ErrPlanNotFound
	}
	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get plan members: %w", err)
	}
	return p, members, nil
}

// Join adds the caller to an open plan, enforcing the slot limit when one
// was set. The count check and insert are not atomic; the worst case is one
// seat over on a race, which the creator resolves at promotion time.
func (s *Service) Join(ctx context.Context, planID, userID uuid.UUID) (*Member, error) {
	p, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if p == nil {
		return nil, ErrPlanNotFound
	}
	if p.Status != StatusOpen {
		return nil, ErrNotOpen
	}

	if p.Slots != nil {
		count, err := s.repo.CountMembers(ctx, planID)
		if err != nil {
			return nil, fmt.Errorf("failed to count plan members: %w", err)
		}
		if count >= *p.Slots {
			return nil, ErrPlanFull
		}
	}

	m, err := s.repo.AddMember(ctx, planID, userID)
	if err != nil {
		if errors.Is(err, ErrAlreadyJoined) {
			return nil, ErrAlreadyJoined
		}
		return nil, fmt.Errorf("failed to join plan: %w", err)
	}
	return m, nil
}

func (s *Service) Leave(ctx context.Context, planID, userID uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to get plan: %w", err)
	}
	if p == nil {
		return ErrPlanNotFound
	}
	if p.CreatorID == userID {
		return ErrCreatorLeaving
	}

	removed, err := s.repo.RemoveMember(ctx, planID, userID)
	if err != nil {
		return fmt.Errorf("failed to leave plan: %w", err)
	}
	if !removed {
		return ErrNotMember
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, planID, callerID uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to get plan: %w", err)
	}
	if p == nil {
		return ErrPlanNotFound
	}
	if p.CreatorID != callerID {
		return ErrNotCreator
	}
	if err := s.repo.Delete(ctx, planID); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}

// Promote converts an open plan into a paying group. Everyone who joined the
// plan becomes an invited group member, the plan is marked promoted, and the
// group takes over from there.
func (s *Service) Promote(ctx context.Context, planID, callerID uuid.UUID, req *PromotePlanRequest) (*Plan, *group.Group, error) {
	p, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if p == nil {
		return nil, nil, ErrPlanNotFound
	}
	if p.CreatorID != callerID {
		return nil, nil, ErrNotCreator
	}
	if p.Status != StatusOpen {
		return nil, nil, ErrNotOpen
	}

	members, err := s.repo.GetMembers(ctx, planID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get plan members: %w", err)
	}

	memberIDs := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}

	g, err := s.groups.Create(ctx, callerID, &group.CreateGroupRequest{
		Name:        p.Title,
		TotalAmount: req.TotalAmount,
		MemberIDs:   memberIDs,
		GroupType:   group.Type(req.GroupType),
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.SetStatus(ctx, planID, StatusPromoted); err != nil {
		// The group exists either way; log and report the plan as promoted.
		slog.Error("failed to mark plan promoted", "plan_id", planID, "error", err)
	}
	p.Status = StatusPromoted

	return p, g, nil
}
