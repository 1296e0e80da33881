package group

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/yutoapp/yuto/internal/realtime"
	"github.com/yutoapp/yuto/internal/settlement"
)

// Common errors
var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrNoMembers      = errors.New("group needs at least one member")
	ErrNegativeTotal  = errors.New("total amount cannot be negative")
	ErrNotCreator     = errors.New("only the group creator can do this")
	ErrDeleteActive   = errors.New("an active group can only be deleted by its creator")
	ErrNotMember      = errors.New("not a member of this group")
)

// Notifier delivers best-effort push notifications. Delivery failures never
// fail the operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string) (bool, error)
}

// Service handles group business logic
type Service struct {
	repo     *Repository
	bus      *realtime.Bus
	notifier Notifier
}

// NewService creates a new group service
func NewService(repo *Repository, bus *realtime.Bus, notifier Notifier) *Service {
	return &Service{repo: repo, bus: bus, notifier: notifier}
}

// Create creates a group with a member row for every invitee. The per-person
// share is fixed at creation and not recomputed when membership changes.
func (s *Service) Create(ctx context.Context, creatorID uuid.UUID, req *CreateGroupRequest) (*Group, error) {
	if len(req.MemberIDs) == 0 {
		return nil, ErrNoMembers
	}
	if req.TotalAmount < 0 {
		return nil, ErrNegativeTotal
	}

	memberIDs := req.MemberIDs
	if !containsID(memberIDs, creatorID) {
		memberIDs = append([]uuid.UUID{creatorID}, memberIDs...)
	}

	groupType := req.GroupType
	if groupType == "" {
		groupType = TypeSingleRide
	}

	perPerson, err := settlement.PerPersonShare(req.TotalAmount, len(memberIDs))
	if err != nil {
		return nil, err
	}

	group, err := s.repo.Create(ctx, req.Name, req.TotalAmount, perPerson, creatorID, memberIDs, groupType)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(realtime.Change{
		Table:   "groups",
		Op:      realtime.OpInsert,
		GroupID: group.ID,
		RowID:   group.ID.String(),
		Fields:  map[string]interface{}{"name": group.Name, "status": string(group.Status)},
	})

	for _, userID := range memberIDs {
		if userID == creatorID {
			continue
		}
		if _, err := s.notifier.Notify(ctx, userID, "New split", "You've been added to "+group.Name); err != nil {
			slog.Warn("invite notification failed", "group_id", group.ID, "user_id", userID, "error", err)
		}
	}

	return group, nil
}

// GetByIDWithMembers retrieves a group with its member rows
func (s *Service) GetByIDWithMembers(ctx context.Context, id uuid.UUID) (*Group, []*Member, error) {
	group, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if group == nil {
		return nil, nil, ErrGroupNotFound
	}

	members, err := s.repo.GetMembers(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// Join marks the acting user's own member row as joined. Re-joining is a
// silent no-op.
func (s *Service) Join(ctx context.Context, groupID, actorID uuid.UUID) (*Member, error) {
	group, members, err := s.GetByIDWithMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	decision, err := settlement.Join(Snapshot(group, members), actorID, actorID)
	if err != nil {
		if errors.Is(err, settlement.ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if decision.NoOp {
		return s.repo.GetMember(ctx, groupID, actorID)
	}

	member, err := s.repo.MarkJoined(ctx, groupID, actorID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	s.bus.Publish(realtime.Change{
		Table:   "group_members",
		Op:      realtime.OpUpdate,
		GroupID: groupID,
		RowID:   MemberRowID(groupID, actorID),
		Fields:  map[string]interface{}{"has_joined": true},
	})

	return member, nil
}

// ListByUser retrieves the user's groups, newest first
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]*Group, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	return s.repo.ListByUser(ctx, userID, perPage, offset)
}

// Complete is the creator's explicit "Complete Split" action after every
// member has paid
func (s *Service) Complete(ctx context.Context, groupID, actorID uuid.UUID) (*Group, error) {
	group, members, err := s.GetByIDWithMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if err := settlement.Close(Snapshot(group, members), actorID); err != nil {
		switch {
		case errors.Is(err, settlement.ErrNotCreator):
			return nil, ErrNotCreator
		default:
			return nil, err
		}
	}

	if err := s.repo.SetClosed(ctx, groupID); err != nil {
		return nil, err
	}

	s.bus.Publish(realtime.Change{
		Table:   "groups",
		Op:      realtime.OpUpdate,
		GroupID: groupID,
		RowID:   groupID.String(),
		Fields:  map[string]interface{}{"closed": true},
	})

	return s.repo.GetByID(ctx, groupID)
}

// Delete removes a group. Active groups can only be deleted by their
// creator; completed groups by anyone who can see them.
func (s *Service) Delete(ctx context.Context, groupID, callerID uuid.UUID) error {
	group, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return ErrGroupNotFound
	}

	if group.Status == StatusActive && group.CreatedBy != callerID {
		return ErrDeleteActive
	}

	if err := s.repo.Delete(ctx, groupID); err != nil {
		return err
	}

	s.bus.Publish(realtime.Change{
		Table:   "groups",
		Op:      realtime.OpDelete,
		GroupID: groupID,
		RowID:   groupID.String(),
	})

	return nil
}

// PostMessage appends a chat message; only members can post
func (s *Service) PostMessage(ctx context.Context, groupID, senderID uuid.UUID, body string) (*Message, error) {
	member, err := s.repo.GetMember(ctx, groupID, senderID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}

	msg, err := s.repo.CreateMessage(ctx, groupID, senderID, body)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(realtime.Change{
		Table:   "group_messages",
		Op:      realtime.OpInsert,
		GroupID: groupID,
		RowID:   strconv.FormatInt(msg.ID, 10),
		Fields:  map[string]interface{}{"body": msg.Body, "sender_id": senderID.String()},
	})

	return msg, nil
}

// ListMessages retrieves a group's chat messages
func (s *Service) ListMessages(ctx context.Context, groupID, callerID uuid.UUID) ([]*Message, error) {
	member, err := s.repo.GetMember(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrNotMember
	}

	return s.repo.ListMessages(ctx, groupID)
}

// Snapshot converts store rows into the state machine's view of a group
func Snapshot(g *Group, members []*Member) settlement.Snapshot {
	snap := settlement.Snapshot{
		CreatorID: g.CreatedBy,
		Status:    settlement.GroupStatus(g.Status),
		Closed:    g.ClosedAt != nil,
		Members:   make([]settlement.Member, len(members)),
	}
	for i, m := range members {
		snap.Members[i] = settlement.Member{
			UserID:    m.UserID,
			HasJoined: m.HasJoined,
			HasPaid:   m.HasPaid,
		}
	}
	return snap
}

// MemberRowID is the stable row identifier member changes carry on the
// realtime feed
func MemberRowID(groupID, userID uuid.UUID) string {
	return groupID.String() + ":" + userID.String()
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
