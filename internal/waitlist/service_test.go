package waitlist

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type memStore struct {
	entries map[string]*Entry
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*Entry)}
}

func (m *memStore) Create(ctx context.Context, email, name string) (*Entry, error) {
	if _, ok := m.entries[email]; ok {
		return nil, ErrAlreadySignedUp
	}
	m.nextID++
	e := &Entry{ID: m.nextID, Email: email, Name: name, CreatedAt: time.Now()}
	m.entries[email] = e
	return e, nil
}

func (m *memStore) Count(ctx context.Context) (int, error) {
	return len(m.entries), nil
}

func TestJoinNormalizesEmail(t *testing.T) {
	svc := NewService(newMemStore())

	entry, err := svc.Join(context.Background(), "  Amina@Example.COM ", "Amina")
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if entry.Email != "amina@example.com" {
		t.Errorf("email = %q, want %q", entry.Email, "amina@example.com")
	}
}

func TestJoinRejectsInvalidEmail(t *testing.T) {
	svc := NewService(newMemStore())

	for _, email := range []string{"", "not-an-email", "@example.com"} {
		if _, err := svc.Join(context.Background(), email, ""); err != ErrInvalidEmail {
			t.Errorf("Join(%q) error = %v, want ErrInvalidEmail", email, err)
		}
	}
}

func TestJoinDuplicateEmail(t *testing.T) {
	svc := NewService(newMemStore())

	if _, err := svc.Join(context.Background(), "amina@example.com", "Amina"); err != nil {
		t.Fatalf("first Join() error = %v", err)
	}
	if _, err := svc.Join(context.Background(), "AMINA@example.com", "A."); err != ErrAlreadySignedUp {
		t.Errorf("second Join() error = %v, want ErrAlreadySignedUp", err)
	}
}

func TestJoinEndpointConflictShape(t *testing.T) {
	svc := NewService(newMemStore())
	handler := NewHandler(svc)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		handler.Join(rec, req)
		return rec
	}

	if rec := post(`{"email":"amina@example.com"}`); rec.Code != http.StatusCreated {
		t.Fatalf("first signup status = %d, want 201", rec.Code)
	}

	rec := post(`{"email":"amina@example.com"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Success {
		t.Error("duplicate signup reported success")
	}
	if resp.Error == nil || resp.Error.Message != "You're already on the list" {
		t.Errorf("unexpected error payload: %+v", resp.Error)
	}
}
