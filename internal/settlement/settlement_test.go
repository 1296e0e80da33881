package settlement

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func members(n int, joined, paid int) []Member {
	ms := make([]Member, n)
	for i := range ms {
		ms[i] = Member{UserID: uuid.New(), HasJoined: i < joined, HasPaid: i < paid}
	}
	return ms
}

func TestPerPersonShare(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		count   int
		want    int64
		wantErr error
	}{
		{"even split", 1000, 4, 250, nil},
		{"rounds up", 1000, 3, 334, nil},
		{"single member", 999, 1, 999, nil},
		{"zero total", 0, 5, 0, nil},
		{"one shilling", 1, 2, 1, nil},
		{"no members", 1000, 0, 0, ErrNoMembers},
		{"negative total", -50, 2, 0, ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PerPersonShare(tt.total, tt.count)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PerPersonShare(%d, %d) error = %v, want %v", tt.total, tt.count, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("PerPersonShare(%d, %d) = %d, want %d", tt.total, tt.count, got, tt.want)
			}
		})
	}
}

func TestPerPersonShareCoversTotal(t *testing.T) {
	// per_person * member_count must never fall short of the total
	for total := int64(0); total <= 200; total++ {
		for count := 1; count <= 7; count++ {
			share, err := PerPersonShare(total, count)
			if err != nil {
				t.Fatalf("PerPersonShare(%d, %d): %v", total, count, err)
			}
			if share*int64(count) < total {
				t.Fatalf("share %d * %d members < total %d", share, count, total)
			}
			if (share-1)*int64(count) >= total && share > 0 && total > 0 {
				t.Fatalf("share %d for total %d across %d is not the ceiling", share, total, count)
			}
		}
	}
}

func TestStateOf(t *testing.T) {
	if got := StateOf(Member{}); got != StateInvited {
		t.Errorf("fresh member state = %s, want %s", got, StateInvited)
	}
	if got := StateOf(Member{HasJoined: true}); got != StateJoined {
		t.Errorf("joined member state = %s, want %s", got, StateJoined)
	}
	if got := StateOf(Member{HasJoined: true, HasPaid: true}); got != StatePaid {
		t.Errorf("paid member state = %s, want %s", got, StatePaid)
	}
}

func TestPhaseOf(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want Phase
	}{
		{"no joins yet", Snapshot{Members: members(4, 1, 0)}, PhaseForming},
		{"partially joined", Snapshot{Members: members(4, 3, 0)}, PhaseForming},
		{"all joined", Snapshot{Members: members(4, 4, 0)}, PhaseCollecting},
		{"partially paid", Snapshot{Members: members(4, 4, 3)}, PhaseCollecting},
		{"all paid", Snapshot{Members: members(4, 4, 4)}, PhaseSettled},
		{"closed", Snapshot{Closed: true, Members: members(4, 4, 4)}, PhaseClosed},
		{"empty group", Snapshot{}, PhaseForming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PhaseOf(tt.snap); got != tt.want {
				t.Errorf("PhaseOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPhaseOfRecomputesDenominator(t *testing.T) {
	// A member added after others paid must push the group back to
	// collecting; the all-paid check never caches a stale member count.
	ms := members(3, 3, 3)
	snap := Snapshot{Members: ms}
	if got := PhaseOf(snap); got != PhaseSettled {
		t.Fatalf("PhaseOf() = %s, want %s", got, PhaseSettled)
	}

	snap.Members = append(snap.Members, Member{UserID: uuid.New(), HasJoined: true})
	if got := PhaseOf(snap); got != PhaseCollecting {
		t.Errorf("PhaseOf() after late member = %s, want %s", got, PhaseCollecting)
	}
}

func TestJoin(t *testing.T) {
	ms := members(3, 1, 0)
	snap := Snapshot{Members: ms}

	t.Run("self join", func(t *testing.T) {
		d, err := Join(snap, ms[1].UserID, ms[1].UserID)
		if err != nil {
			t.Fatalf("Join() error = %v", err)
		}
		if d.NoOp {
			t.Error("first join should not be a no-op")
		}
	})

	t.Run("rejoin is idempotent", func(t *testing.T) {
		d, err := Join(snap, ms[0].UserID, ms[0].UserID)
		if err != nil {
			t.Fatalf("Join() error = %v", err)
		}
		if !d.NoOp {
			t.Error("re-join should be a silent no-op")
		}
	})

	t.Run("cannot join for someone else", func(t *testing.T) {
		_, err := Join(snap, ms[0].UserID, ms[1].UserID)
		if !errors.Is(err, ErrNotSelf) {
			t.Errorf("Join() error = %v, want %v", err, ErrNotSelf)
		}
	})

	t.Run("unknown member", func(t *testing.T) {
		stranger := uuid.New()
		_, err := Join(snap, stranger, stranger)
		if !errors.Is(err, ErrMemberNotFound) {
			t.Errorf("Join() error = %v, want %v", err, ErrMemberNotFound)
		}
	})
}

func TestConfirmPayment(t *testing.T) {
	ms := members(4, 4, 2)
	snap := Snapshot{Members: ms}

	t.Run("unpaid member", func(t *testing.T) {
		d, err := ConfirmPayment(snap, ms[2].UserID)
		if err != nil {
			t.Fatalf("ConfirmPayment() error = %v", err)
		}
		if d.AlreadyPaid {
			t.Error("unpaid member reported as already paid")
		}
		if d.SettlesGroup {
			t.Error("third of four payments must not settle the group")
		}
	})

	t.Run("duplicate delivery", func(t *testing.T) {
		d, err := ConfirmPayment(snap, ms[0].UserID)
		if err != nil {
			t.Fatalf("ConfirmPayment() error = %v", err)
		}
		if !d.AlreadyPaid {
			t.Error("paid member should report AlreadyPaid")
		}
	})

	t.Run("unresolvable member", func(t *testing.T) {
		_, err := ConfirmPayment(snap, uuid.New())
		if !errors.Is(err, ErrMemberNotFound) {
			t.Errorf("ConfirmPayment() error = %v, want %v", err, ErrMemberNotFound)
		}
	})
}

func TestConfirmPaymentSettlesOnlyOnLastMember(t *testing.T) {
	const n = 5
	ms := members(n, n, 0)
	snap := Snapshot{Members: ms}

	for i := 0; i < n; i++ {
		d, err := ConfirmPayment(snap, ms[i].UserID)
		if err != nil {
			t.Fatalf("ConfirmPayment(member %d): %v", i, err)
		}
		wantSettle := i == n-1
		if d.SettlesGroup != wantSettle {
			t.Errorf("payment %d of %d: SettlesGroup = %v, want %v", i+1, n, d.SettlesGroup, wantSettle)
		}
		ms[i].HasPaid = true
		snap.Members = ms
	}
}

func TestClose(t *testing.T) {
	creator := uuid.New()
	paid := Snapshot{CreatorID: creator, Members: members(3, 3, 3)}
	unpaid := Snapshot{CreatorID: creator, Members: members(3, 3, 2)}

	if err := Close(paid, creator); err != nil {
		t.Errorf("Close() on settled group error = %v", err)
	}
	if err := Close(unpaid, creator); !errors.Is(err, ErrNotSettled) {
		t.Errorf("Close() on unsettled group error = %v, want %v", err, ErrNotSettled)
	}
	if err := Close(paid, uuid.New()); !errors.Is(err, ErrNotCreator) {
		t.Errorf("Close() by non-creator error = %v, want %v", err, ErrNotCreator)
	}

	closed := paid
	closed.Closed = true
	if err := Close(closed, creator); err != nil {
		t.Errorf("Close() on already-closed group error = %v, want nil", err)
	}
}
