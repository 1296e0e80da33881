package payment

import (
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTxRefRoundTrip(t *testing.T) {
	groupID := uuid.New()
	userID := uuid.New()

	token := NewTxRef(groupID, userID, time.Now())

	pattern := fmt.Sprintf(`^yuto--%s--%s--\d+$`, groupID, userID)
	if !regexp.MustCompile(pattern).MatchString(token) {
		t.Fatalf("token %q does not match %q", token, pattern)
	}

	ref, err := ParseTxRef(token)
	if err != nil {
		t.Fatalf("ParseTxRef(%q): %v", token, err)
	}
	if ref.GroupID != groupID {
		t.Errorf("GroupID = %s, want %s", ref.GroupID, groupID)
	}
	if ref.UserID != userID {
		t.Errorf("UserID = %s, want %s", ref.UserID, userID)
	}
}

func TestParseTxRefRejections(t *testing.T) {
	g, u := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrInvalidTxRef},
		{"no delimiter", "yuto", ErrInvalidTxRef},
		{"two segments", "yuto--" + g.String(), ErrInvalidTxRef},
		{"foreign namespace", "stripe--" + g.String() + "--" + u.String() + "--123", ErrForeignNamespace},
		{"bad group id", "yuto--nope--" + u.String() + "--123", ErrInvalidTxRef},
		{"bad user id", "yuto--" + g.String() + "--nope--123", ErrInvalidTxRef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTxRef(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseTxRef(%q) error = %v, want %v", tt.token, err, tt.wantErr)
			}
		})
	}
}

func TestParseTxRefWithoutTimestamp(t *testing.T) {
	// Three segments are enough; the epoch suffix is informational
	g, u := uuid.New(), uuid.New()
	ref, err := ParseTxRef("yuto--" + g.String() + "--" + u.String())
	if err != nil {
		t.Fatalf("ParseTxRef: %v", err)
	}
	if ref.GroupID != g || ref.UserID != u {
		t.Errorf("parsed %+v, want group %s user %s", ref, g, u)
	}
}
