package settlement

import (
	"errors"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNoMembers      = errors.New("group has no members")
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrMemberNotFound = errors.New("member not found in group")
	ErrNotSelf        = errors.New("members can only join for themselves")
	ErrNotCreator     = errors.New("only the group creator can complete the split")
	ErrNotSettled     = errors.New("group is not fully paid yet")
)

// GroupStatus is the persisted group status
type GroupStatus string

const (
	GroupStatusActive    GroupStatus = "active"
	GroupStatusCompleted GroupStatus = "completed"
)

// Phase is the derived lifecycle position of a group. It is never stored;
// it is recomputed from the current member set on every call.
type Phase string

const (
	PhaseForming    Phase = "forming"    // not all invitees have joined
	PhaseCollecting Phase = "collecting" // all joined, payments pending
	PhaseSettled    Phase = "settled"    // every member has paid
	PhaseClosed     Phase = "closed"     // explicitly completed by the creator
)

// MemberState is the derived per-member position: invited -> joined -> paid
type MemberState string

const (
	StateInvited MemberState = "invited"
	StateJoined  MemberState = "joined"
	StatePaid    MemberState = "paid"
)

// Member is the slice of a member row the state machine cares about
type Member struct {
	UserID    uuid.UUID
	HasJoined bool
	HasPaid   bool
}

// Snapshot is a point-in-time view of a group and its current members.
// All derivations run over the member set in the snapshot, never a cached
// count, so members added after payments began are still accounted for.
type Snapshot struct {
	CreatorID uuid.UUID
	Status    GroupStatus
	Closed    bool
	Members   []Member
}

// PerPersonShare returns the per-member share as the ceiling of
// total / memberCount. Computed once at group creation, never retroactively.
func PerPersonShare(totalAmount int64, memberCount int) (int64, error) {
	if memberCount <= 0 {
		return 0, ErrNoMembers
	}
	if totalAmount < 0 {
		return 0, ErrNegativeAmount
	}
	return (totalAmount + int64(memberCount) - 1) / int64(memberCount), nil
}

// StateOf returns a member's derived state
func StateOf(m Member) MemberState {
	switch {
	case m.HasPaid:
		return StatePaid
	case m.HasJoined:
		return StateJoined
	default:
		return StateInvited
	}
}

// AllJoined reports whether every member has accepted the invite
func AllJoined(members []Member) bool {
	if len(members) == 0 {
		return false
	}
	for _, m := range members {
		if !m.HasJoined {
			return false
		}
	}
	return true
}

// AllPaid reports whether every member has a confirmed payment
func AllPaid(members []Member) bool {
	if len(members) == 0 {
		return false
	}
	for _, m := range members {
		if !m.HasPaid {
			return false
		}
	}
	return true
}

// PaidCount returns the number of members with confirmed payments
func PaidCount(members []Member) int {
	n := 0
	for _, m := range members {
		if m.HasPaid {
			n++
		}
	}
	return n
}

// PhaseOf derives the group's lifecycle phase from a snapshot
func PhaseOf(snap Snapshot) Phase {
	switch {
	case snap.Closed:
		return PhaseClosed
	case AllPaid(snap.Members):
		return PhaseSettled
	case AllJoined(snap.Members):
		return PhaseCollecting
	default:
		return PhaseForming
	}
}

// JoinDecision is the store mutation implied by a join event
type JoinDecision struct {
	// NoOp is set when the member already joined; re-joining is absorbed
	// silently rather than treated as an error.
	NoOp bool
}

// Join validates a join event against a snapshot. Only the member themselves
// may join, and joining twice is idempotent.
func Join(snap Snapshot, actorID, memberUserID uuid.UUID) (JoinDecision, error) {
	if actorID != memberUserID {
		return JoinDecision{}, ErrNotSelf
	}
	m, ok := findMember(snap.Members, memberUserID)
	if !ok {
		return JoinDecision{}, ErrMemberNotFound
	}
	if m.HasJoined {
		return JoinDecision{NoOp: true}, nil
	}
	return JoinDecision{}, nil
}

// PaymentDecision is the store mutation implied by a verified payment
// confirmation. Confirmations arrive only through the gateway webhook;
// client code cannot mark itself paid.
type PaymentDecision struct {
	// AlreadyPaid is set when the member was paid before this event.
	// Duplicate webhook deliveries are acknowledged without a second write.
	AlreadyPaid bool
	// SettlesGroup is set when this payment is the last one outstanding,
	// moving the group from collecting to settled.
	SettlesGroup bool
}

// ConfirmPayment validates a payment confirmation against a snapshot
func ConfirmPayment(snap Snapshot, userID uuid.UUID) (PaymentDecision, error) {
	m, ok := findMember(snap.Members, userID)
	if !ok {
		return PaymentDecision{}, ErrMemberNotFound
	}
	if m.HasPaid {
		return PaymentDecision{AlreadyPaid: true}, nil
	}
	return PaymentDecision{
		SettlesGroup: PaidCount(snap.Members) == len(snap.Members)-1,
	}, nil
}

// Close validates the creator's explicit "Complete Split" action. Allowed
// only once every member has paid; closing twice is a no-op.
func Close(snap Snapshot, actorID uuid.UUID) error {
	if actorID != snap.CreatorID {
		return ErrNotCreator
	}
	if snap.Closed {
		return nil
	}
	if !AllPaid(snap.Members) {
		return ErrNotSettled
	}
	return nil
}

func findMember(members []Member, userID uuid.UUID) (Member, bool) {
	for _, m := range members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}
