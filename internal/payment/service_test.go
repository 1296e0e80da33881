package payment

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yutoapp/yuto/internal/group"
	"github.com/yutoapp/yuto/internal/realtime"
)

type fakeStore struct {
	mu            sync.Mutex
	groups        map[uuid.UUID]*group.Group
	members       map[uuid.UUID][]*group.Member
	markPaidCalls int
	statusWrites  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		groups:  make(map[uuid.UUID]*group.Group),
		members: make(map[uuid.UUID][]*group.Member),
	}
}

func (f *fakeStore) addGroup(total int64, memberCount int) (*group.Group, []*group.Member) {
	g := &group.Group{
		ID:          uuid.New(),
		Name:        "CBD ride",
		TotalAmount: total,
		PerPerson:   (total + int64(memberCount) - 1) / int64(memberCount),
		CreatedBy:   uuid.New(),
		Status:      group.StatusActive,
		GroupType:   group.TypeSingleRide,
	}
	var members []*group.Member
	for i := 0; i < memberCount; i++ {
		members = append(members, &group.Member{
			GroupID:   g.ID,
			UserID:    uuid.New(),
			HasJoined: true,
		})
	}
	f.groups[g.ID] = g
	f.members[g.ID] = members
	return g, members
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*group.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groups[id], nil
}

func (f *fakeStore) GetMembers(_ context.Context, groupID uuid.UUID) ([]*group.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[groupID], nil
}

func (f *fakeStore) MarkPaid(_ context.Context, groupID, userID uuid.UUID, paidAt time.Time) (*group.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markPaidCalls++
	for _, m := range f.members[groupID] {
		if m.UserID == userID {
			m.HasPaid = true
			m.PaidAt = &paidAt
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id uuid.UUID, status group.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusWrites++
	if g, ok := f.groups[id]; ok {
		g.Status = status
	}
	return nil
}

type fakeGateway struct {
	verify    *VerifyResult
	verifyErr error
	chargeErr error
	lastTxRef string
}

func (f *fakeGateway) ChargeMpesa(_ context.Context, phone string, amount int64, txRef string) (*ChargeResult, error) {
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	f.lastTxRef = txRef
	return &ChargeResult{TransactionID: 42, Message: "Charge initiated"}, nil
}

func (f *fakeGateway) VerifyTransaction(context.Context, int64) (*VerifyResult, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.verify, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeNotifier) Notify(context.Context, uuid.UUID, string, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return true, nil
}

func newTestService(store *fakeStore, gw *fakeGateway) (*Service, *fakeNotifier) {
	notifier := &fakeNotifier{}
	return NewService(store, gw, realtime.NewBus(), notifier, "top-secret"), notifier
}

func successfulWebhook(txRef string) WebhookEvent {
	return WebhookEvent{
		Event: "charge.completed",
		Data:  WebhookData{ID: 42, Status: "successful", TxRef: txRef, Currency: Currency},
	}
}

func verified(txRef string) *VerifyResult {
	return &VerifyResult{Status: "successful", Currency: Currency, TxRef: txRef}
}

func TestInitiateCharge(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(1000, 4)
	gw := &fakeGateway{}
	svc, _ := newTestService(store, gw)

	userID := members[0].UserID
	txRef, message, err := svc.InitiateCharge(context.Background(), "712345678", 250, g.ID, userID)
	if err != nil {
		t.Fatalf("InitiateCharge: %v", err)
	}

	pattern := regexp.MustCompile(`^yuto--` + g.ID.String() + `--` + userID.String() + `--\d+$`)
	if !pattern.MatchString(txRef) {
		t.Errorf("tx_ref %q does not match expected pattern", txRef)
	}
	if gw.lastTxRef != txRef {
		t.Errorf("gateway saw tx_ref %q, handler returned %q", gw.lastTxRef, txRef)
	}
	if message == "" {
		t.Error("expected a user-facing message")
	}
	if store.markPaidCalls != 0 {
		t.Error("charge initiation must never mark anyone paid")
	}
}

func TestInitiateChargeValidation(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(1000, 2)
	svc, _ := newTestService(store, &fakeGateway{})

	cases := []struct {
		name           string
		phone          string
		amount         int64
		groupID, userID uuid.UUID
		wantErr        error
	}{
		{"missing phone", "", 250, g.ID, members[0].UserID, ErrMissingFields},
		{"zero amount", "712345678", 0, g.ID, members[0].UserID, ErrMissingFields},
		{"nil group", "712345678", 250, uuid.Nil, members[0].UserID, ErrMissingFields},
		{"unknown group", "712345678", 250, uuid.New(), members[0].UserID, ErrGroupNotFound},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.InitiateCharge(context.Background(), tt.phone, tt.amount, tt.groupID, tt.userID)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("InitiateCharge error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProcessWebhookMarksMemberPaid(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(1000, 4)
	userID := members[0].UserID
	txRef := NewTxRef(g.ID, userID, time.Now())

	gw := &fakeGateway{verify: verified(txRef)}
	svc, _ := newTestService(store, gw)

	outcome, err := svc.ProcessWebhook(context.Background(), successfulWebhook(txRef))
	if err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
	if outcome.Settled || outcome.AlreadyPaid || outcome.Ignored {
		t.Errorf("unexpected outcome %+v", outcome)
	}

	if !members[0].HasPaid {
		t.Error("member not marked paid")
	}
	if members[0].PaidAt == nil {
		t.Error("paid_at not set")
	}
	if store.statusWrites != 0 {
		t.Error("group status written before all members paid")
	}
}

func TestProcessWebhookSettlesOnLastPayment(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(1000, 4)
	svc, notifier := newTestService(store, &fakeGateway{})

	for i, m := range members {
		txRef := NewTxRef(g.ID, m.UserID, time.Now())
		svc.gateway.(*fakeGateway).verify = verified(txRef)

		outcome, err := svc.ProcessWebhook(context.Background(), successfulWebhook(txRef))
		if err != nil {
			t.Fatalf("payment %d: %v", i+1, err)
		}

		wantSettled := i == len(members)-1
		if outcome.Settled != wantSettled {
			t.Errorf("payment %d: Settled = %v, want %v", i+1, outcome.Settled, wantSettled)
		}
	}

	if g.Status != group.StatusCompleted {
		t.Errorf("group status = %s, want %s", g.Status, group.StatusCompleted)
	}
	if store.statusWrites != 1 {
		t.Errorf("status written %d times, want exactly 1", store.statusWrites)
	}
	if notifier.calls != len(members) {
		t.Errorf("settled notifications = %d, want %d", notifier.calls, len(members))
	}
}

func TestProcessWebhookDuplicateDelivery(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(500, 2)
	userID := members[0].UserID
	txRef := NewTxRef(g.ID, userID, time.Now())

	gw := &fakeGateway{verify: verified(txRef)}
	svc, _ := newTestService(store, gw)

	if _, err := svc.ProcessWebhook(context.Background(), successfulWebhook(txRef)); err != nil {
		t.Fatalf("first delivery: %v", err)
	}

	outcome, err := svc.ProcessWebhook(context.Background(), successfulWebhook(txRef))
	if err != nil {
		t.Fatalf("duplicate delivery must succeed, got %v", err)
	}
	if !outcome.AlreadyPaid {
		t.Error("duplicate delivery not reported as AlreadyPaid")
	}
	if store.markPaidCalls != 1 {
		t.Errorf("MarkPaid called %d times, want 1", store.markPaidCalls)
	}
}

func TestProcessWebhookIgnoresIrrelevantEvents(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, &fakeGateway{})

	events := []WebhookEvent{
		{Event: "charge.completed", Data: WebhookData{Status: "failed"}},
		{Event: "transfer.completed", Data: WebhookData{Status: "successful"}},
		{Event: "charge.dispute"},
	}

	for _, ev := range events {
		outcome, err := svc.ProcessWebhook(context.Background(), ev)
		if err != nil {
			t.Errorf("event %q: %v", ev.Event, err)
		}
		if !outcome.Ignored {
			t.Errorf("event %q not ignored", ev.Event)
		}
	}
	if store.markPaidCalls != 0 {
		t.Error("irrelevant events mutated the store")
	}
}

func TestProcessWebhookCurrencyMismatch(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(500, 2)
	txRef := NewTxRef(g.ID, members[0].UserID, time.Now())

	gw := &fakeGateway{verify: &VerifyResult{Status: "successful", Currency: "USD", TxRef: txRef}}
	svc, _ := newTestService(store, gw)

	_, err := svc.ProcessWebhook(context.Background(), successfulWebhook(txRef))
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("error = %v, want %v", err, ErrVerificationFailed)
	}
	if store.markPaidCalls != 0 {
		t.Error("store mutated despite currency mismatch")
	}
}

func TestProcessWebhookVerifyUnavailable(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(500, 2)
	txRef := NewTxRef(g.ID, members[0].UserID, time.Now())

	gw := &fakeGateway{verifyErr: ErrGatewayUnavailable}
	svc, _ := newTestService(store, gw)

	_, err := svc.ProcessWebhook(context.Background(), successfulWebhook(txRef))
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("error = %v, want %v", err, ErrGatewayUnavailable)
	}
	if store.markPaidCalls != 0 {
		t.Error("store mutated despite verification being unavailable")
	}
}

func TestProcessWebhookBadTokens(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store, &fakeGateway{})

	tokens := []string{
		"stripe--" + uuid.NewString() + "--" + uuid.NewString() + "--1",
		"yuto--only-one",
		strings.Repeat("x", 40),
	}

	for _, token := range tokens {
		svc.gateway.(*fakeGateway).verify = verified(token)
		if _, err := svc.ProcessWebhook(context.Background(), successfulWebhook(token)); err == nil {
			t.Errorf("token %q accepted", token)
		}
	}
	if store.markPaidCalls != 0 {
		t.Error("store mutated by a malformed token")
	}
}

func TestProcessWebhookUnresolvableMember(t *testing.T) {
	store := newFakeStore()
	g, _ := store.addGroup(500, 2)
	txRef := NewTxRef(g.ID, uuid.New(), time.Now()) // not a member

	gw := &fakeGateway{verify: verified(txRef)}
	svc, _ := newTestService(store, gw)

	_, err := svc.ProcessWebhook(context.Background(), successfulWebhook(txRef))
	if !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("error = %v, want %v", err, ErrMemberNotFound)
	}
}

func TestValidSignature(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), &fakeGateway{})

	if !svc.ValidSignature("top-secret") {
		t.Error("correct signature rejected")
	}
	if svc.ValidSignature("wrong") {
		t.Error("wrong signature accepted")
	}
	if svc.ValidSignature("") {
		t.Error("empty signature accepted")
	}

	unset := NewService(newFakeStore(), &fakeGateway{}, realtime.NewBus(), &fakeNotifier{}, "")
	if unset.ValidSignature("anything") {
		t.Error("unset secret must fail closed")
	}
}
