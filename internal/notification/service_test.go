package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

type memTokens struct {
	tokens map[uuid.UUID]string
	getErr error
}

func newMemTokens() *memTokens {
	return &memTokens{tokens: make(map[uuid.UUID]string)}
}

func (m *memTokens) Upsert(_ context.Context, userID uuid.UUID, token string) error {
	m.tokens[userID] = token
	return nil
}

func (m *memTokens) Get(_ context.Context, userID uuid.UUID) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	return m.tokens[userID], nil
}

func (m *memTokens) Delete(_ context.Context, userID uuid.UUID) error {
	delete(m.tokens, userID)
	return nil
}

type recordingSender struct {
	sent []Payload
	err  error
}

func (r *recordingSender) Send(_ context.Context, token, title, body string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, Payload{To: token, Title: title, Body: body})
	return nil
}

func TestNotifyDelivers(t *testing.T) {
	tokens := newMemTokens()
	sender := &recordingSender{}
	svc := NewService(tokens, sender)

	userID := uuid.New()
	tokens.tokens[userID] = "device-abc"

	delivered, err := svc.Notify(context.Background(), userID, "New split", "You've been added")
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if !delivered {
		t.Error("expected delivery")
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "device-abc" {
		t.Errorf("sent = %+v", sender.sent)
	}
}

func TestNotifyNoTokenIsNoop(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(newMemTokens(), sender)

	delivered, err := svc.Notify(context.Background(), uuid.New(), "t", "b")
	if err != nil {
		t.Fatalf("missing token must not be an error, got %v", err)
	}
	if delivered {
		t.Error("nothing should be delivered without a token")
	}
	if len(sender.sent) != 0 {
		t.Error("sender called without a token")
	}
}

func TestNotifySendFailureIsReturnedNotFatal(t *testing.T) {
	tokens := newMemTokens()
	userID := uuid.New()
	tokens.tokens[userID] = "device-abc"
	svc := NewService(tokens, &recordingSender{err: errors.New("push service down")})

	delivered, err := svc.Notify(context.Background(), userID, "t", "b")
	if err == nil {
		t.Error("expected the send error back for logging")
	}
	if delivered {
		t.Error("failed send reported as delivered")
	}
}

func TestNotifyAllSwallowsFailures(t *testing.T) {
	tokens := newMemTokens()
	a, b := uuid.New(), uuid.New()
	tokens.tokens[a] = "dev-a"
	// b has no token
	sender := &recordingSender{}
	svc := NewService(tokens, sender)

	svc.NotifyAll(context.Background(), []uuid.UUID{a, b}, "t", "b")

	if len(sender.sent) != 1 {
		t.Errorf("sent %d pushes, want 1", len(sender.sent))
	}
}

func TestHTTPSender(t *testing.T) {
	var got Payload
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := json.Marshal(map[string]string{"ok": "1"})
		json.NewDecoder(r.Body).Decode(&got)
		w.Write(body)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL, "server-key")
	if err := sender.Send(context.Background(), "device-abc", "Title", "Body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.To != "device-abc" || got.Title != "Title" {
		t.Errorf("payload = %+v", got)
	}
	if gotAuth != "key=server-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestNotifyEndpointShapes(t *testing.T) {
	tokens := newMemTokens()
	userID := uuid.New()
	tokens.tokens[userID] = "device-abc"
	h := NewHandler(NewService(tokens, &recordingSender{}))

	post := func(body interface{}) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/notify", bytes.NewReader(raw))
		rec := httptest.NewRecorder()
		h.Notify(rec, req)
		return rec
	}

	rec := post(NotifyRequest{UserID: userID, Title: "t", Body: "b"})
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte(`"success":true`)) {
		t.Errorf("delivered: status %d body %s", rec.Code, rec.Body)
	}

	rec = post(NotifyRequest{UserID: uuid.New(), Title: "t", Body: "b"})
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("No token found")) {
		t.Errorf("no token: status %d body %s", rec.Code, rec.Body)
	}

	rec = post(NotifyRequest{Title: "t"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing fields: status %d, want 400", rec.Code)
	}
}
