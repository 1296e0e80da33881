package payment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func postJSON(t *testing.T, h http.Handler, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(500, 2)
	txRef := NewTxRef(g.ID, members[0].UserID, time.Now())
	svc, _ := newTestService(store, &fakeGateway{verify: verified(txRef)})
	h := NewHandler(svc).Routes()

	for _, sig := range []string{"", "wrong-secret"} {
		rec := postJSON(t, h, "/webhook", successfulWebhook(txRef), map[string]string{SignatureHeader: sig})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("signature %q: status = %d, want 401", sig, rec.Code)
		}
	}

	if store.markPaidCalls != 0 {
		t.Error("unsigned webhook reached the store")
	}
	if members[0].HasPaid {
		t.Error("member marked paid by unsigned webhook")
	}
}

func TestWebhookAcknowledgesIrrelevantEvents(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), &fakeGateway{})
	h := NewHandler(svc).Routes()

	event := WebhookEvent{Event: "transfer.completed", Data: WebhookData{Status: "successful"}}
	rec := postJSON(t, h, "/webhook", event, map[string]string{SignatureHeader: "top-secret"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["received"] != true {
		t.Errorf("body = %v, want received:true", body)
	}
}

func TestWebhookHappyPath(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(500, 2)
	txRef := NewTxRef(g.ID, members[0].UserID, time.Now())
	svc, _ := newTestService(store, &fakeGateway{verify: verified(txRef)})
	h := NewHandler(svc).Routes()

	rec := postJSON(t, h, "/webhook", successfulWebhook(txRef), map[string]string{SignatureHeader: "top-secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["success"] != true {
		t.Errorf("body = %v, want success:true", body)
	}
	if !members[0].HasPaid {
		t.Error("member not marked paid")
	}
}

func TestWebhookVerificationFailure(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(500, 2)
	txRef := NewTxRef(g.ID, members[0].UserID, time.Now())
	gw := &fakeGateway{verify: &VerifyResult{Status: "failed", Currency: Currency, TxRef: txRef}}
	svc, _ := newTestService(store, gw)
	h := NewHandler(svc).Routes()

	rec := postJSON(t, h, "/webhook", successfulWebhook(txRef), map[string]string{SignatureHeader: "top-secret"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChargeEndpoint(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(1000, 4)
	svc, _ := newTestService(store, &fakeGateway{})
	h := NewHandler(svc).Routes()

	rec := postJSON(t, h, "/charge", ChargeRequest{
		PhoneNumber: "712345678",
		Amount:      250,
		GroupID:     g.ID,
		UserID:      members[0].UserID,
	}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	var body struct {
		Success bool   `json:"success"`
		TxRef   string `json:"tx_ref"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !body.Success || body.TxRef == "" || body.Message == "" {
		t.Errorf("body = %+v, want success with tx_ref and message", body)
	}
}

func TestChargeEndpointMissingFields(t *testing.T) {
	svc, _ := newTestService(newFakeStore(), &fakeGateway{})
	h := NewHandler(svc).Routes()

	rec := postJSON(t, h, "/charge", ChargeRequest{PhoneNumber: "712345678"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChargeEndpointGatewayDown(t *testing.T) {
	store := newFakeStore()
	g, members := store.addGroup(1000, 2)
	svc, _ := newTestService(store, &fakeGateway{chargeErr: ErrGatewayUnavailable})
	h := NewHandler(svc).Routes()

	rec := postJSON(t, h, "/charge", ChargeRequest{
		PhoneNumber: "712345678", Amount: 500, GroupID: g.ID, UserID: members[0].UserID,
	}, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if members[0].HasPaid {
		t.Error("failed charge marked member paid")
	}
}
