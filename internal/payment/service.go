package payment

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/yutoapp/yuto/internal/group"
	"github.com/yutoapp/yuto/internal/realtime"
	"github.com/yutoapp/yuto/internal/settlement"
)

// Common errors
var (
	ErrMissingFields      = errors.New("phone number, amount, group and user are required")
	ErrGroupNotFound      = errors.New("group not found")
	ErrMemberNotFound     = errors.New("member could not be resolved from the reference token")
	ErrVerificationFailed = errors.New("transaction verification failed")
)

// GroupStore is the slice of the group repository the adapter mutates
type GroupStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*group.Group, error)
	GetMembers(ctx context.Context, groupID uuid.UUID) ([]*group.Member, error)
	MarkPaid(ctx context.Context, groupID, userID uuid.UUID, paidAt time.Time) (*group.Member, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status group.Status) error
}

// Gateway is the mobile-money API surface the adapter calls
type Gateway interface {
	ChargeMpesa(ctx context.Context, phone string, amount int64, txRef string) (*ChargeResult, error)
	VerifyTransaction(ctx context.Context, transactionID int64) (*VerifyResult, error)
}

// Notifier delivers best-effort push notifications
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string) (bool, error)
}

// Service bridges charge initiation and webhook confirmation to the group
// store. It holds no state of its own; all coordination happens through the
// store's atomic row updates.
type Service struct {
	store     GroupStore
	gateway   Gateway
	bus       *realtime.Bus
	notifier  Notifier
	verifHash string
}

// NewService creates a new payment service
func NewService(store GroupStore, gateway Gateway, bus *realtime.Bus, notifier Notifier, verifHash string) *Service {
	return &Service{
		store:     store,
		gateway:   gateway,
		bus:       bus,
		notifier:  notifier,
		verifHash: verifHash,
	}
}

// ValidSignature checks the webhook's verif-hash header against the
// pre-shared secret. An unset secret fails closed.
func (s *Service) ValidSignature(header string) bool {
	if s.verifHash == "" || header == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.verifHash), []byte(header)) == 1
}

// InitiateCharge asks the gateway to push an M-PESA prompt to the phone.
// The member is not marked paid here under any circumstances.
func (s *Service) InitiateCharge(ctx context.Context, phone string, amount int64, groupID, userID uuid.UUID) (txRef, message string, err error) {
	if phone == "" || amount <= 0 || groupID == uuid.Nil || userID == uuid.Nil {
		return "", "", ErrMissingFields
	}

	g, err := s.store.GetByID(ctx, groupID)
	if err != nil {
		return "", "", err
	}
	if g == nil {
		return "", "", ErrGroupNotFound
	}

	txRef = NewTxRef(groupID, userID, time.Now())

	result, err := s.gateway.ChargeMpesa(ctx, phone, amount, txRef)
	if err != nil {
		return "", "", err
	}
	chargesInitiated.Inc()

	message = result.Message
	if message == "" {
		message = "Check your phone to complete the payment"
	}
	return txRef, message, nil
}

// WebhookEvent is the gateway's asynchronous callback body
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData carries the transaction fields the adapter reads
type WebhookData struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	TxRef    string `json:"tx_ref"`
	Currency string `json:"currency"`
}

// relevant reports whether the event is a successful completed charge;
// anything else is acknowledged without action so the gateway stops
// retrying.
func (e WebhookEvent) relevant() bool {
	return e.Event == "charge.completed" && e.Data.Status == "successful"
}

// Outcome classifies a processed webhook
type Outcome struct {
	// Ignored: the event was irrelevant and acknowledged without action
	Ignored bool
	// AlreadyPaid: duplicate delivery for a paid member, acknowledged
	AlreadyPaid bool
	// Settled: this confirmation was the group's last outstanding payment
	Settled bool
}

// ProcessWebhook runs the verified-confirmation pipeline: re-verify against
// the gateway, parse the reference token, mark the member paid, and complete
// the group when every member has paid. The signature header must already
// have been checked.
func (s *Service) ProcessWebhook(ctx context.Context, event WebhookEvent) (Outcome, error) {
	if !event.relevant() {
		return Outcome{Ignored: true}, nil
	}

	// The webhook body is attacker-writable; only the verification endpoint
	// is trusted for status and currency.
	verified, err := s.gateway.VerifyTransaction(ctx, event.Data.ID)
	if err != nil {
		webhooksRejected.WithLabelValues("verify_unavailable").Inc()
		return Outcome{}, err
	}
	if verified.Status != "successful" || verified.Currency != Currency {
		webhooksRejected.WithLabelValues("verify_mismatch").Inc()
		slog.Warn("webhook verification mismatch",
			"tx_id", event.Data.ID, "status", verified.Status, "currency", verified.Currency)
		return Outcome{}, ErrVerificationFailed
	}

	ref, err := ParseTxRef(verified.TxRef)
	if err != nil {
		webhooksRejected.WithLabelValues("bad_tx_ref").Inc()
		return Outcome{}, err
	}

	g, err := s.store.GetByID(ctx, ref.GroupID)
	if err != nil {
		return Outcome{}, err
	}
	if g == nil {
		webhooksRejected.WithLabelValues("unknown_group").Inc()
		return Outcome{}, ErrMemberNotFound
	}

	members, err := s.store.GetMembers(ctx, ref.GroupID)
	if err != nil {
		return Outcome{}, err
	}

	decision, err := settlement.ConfirmPayment(group.Snapshot(g, members), ref.UserID)
	if err != nil {
		webhooksRejected.WithLabelValues("unknown_member").Inc()
		return Outcome{}, ErrMemberNotFound
	}
	if decision.AlreadyPaid {
		// Acknowledge so the gateway stops retrying; nothing to write.
		slog.Info("duplicate webhook for paid member",
			"group_id", ref.GroupID, "user_id", ref.UserID)
		return Outcome{AlreadyPaid: true}, nil
	}

	paidAt := time.Now().UTC()
	if _, err := s.store.MarkPaid(ctx, ref.GroupID, ref.UserID, paidAt); err != nil {
		return Outcome{}, err
	}
	webhooksConfirmed.Inc()

	s.bus.Publish(realtime.Change{
		Table:   "group_members",
		Op:      realtime.OpUpdate,
		GroupID: ref.GroupID,
		RowID:   group.MemberRowID(ref.GroupID, ref.UserID),
		Fields:  map[string]interface{}{"has_paid": true, "paid_at": paidAt},
	})

	if !decision.SettlesGroup {
		// A racing confirmation may have landed since the snapshot; re-read
		// so the all-paid edge is never missed on a stale denominator.
		fresh, err := s.store.GetMembers(ctx, ref.GroupID)
		if err != nil || !settlement.AllPaid(group.Snapshot(g, fresh).Members) {
			return Outcome{}, nil
		}
	}

	if err := s.store.UpdateStatus(ctx, ref.GroupID, group.StatusCompleted); err != nil {
		return Outcome{}, err
	}
	groupsSettled.Inc()

	s.bus.Publish(realtime.Change{
		Table:   "groups",
		Op:      realtime.OpUpdate,
		GroupID: ref.GroupID,
		RowID:   ref.GroupID.String(),
		Fields:  map[string]interface{}{"status": string(group.StatusCompleted)},
	})

	for _, m := range members {
		if _, err := s.notifier.Notify(ctx, m.UserID, g.Name, "Everyone has paid!"); err != nil {
			slog.Warn("settled notification failed", "group_id", ref.GroupID, "user_id", m.UserID, "error", err)
		}
	}

	return Outcome{Settled: true}, nil
}
