package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sender delivers one push payload to a registered device token
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

// HTTPSender posts payloads to the hosted push delivery service
type HTTPSender struct {
	endpoint  string
	serverKey string
	http      *http.Client
}

// NewHTTPSender creates a sender for the given push service endpoint
func NewHTTPSender(endpoint, serverKey string) *HTTPSender {
	return &HTTPSender{
		endpoint:  endpoint,
		serverKey: serverKey,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the payload; any non-2xx answer is an error for the caller to
// log and swallow
func (s *HTTPSender) Send(ctx context.Context, token, title, body string) error {
	raw, err := json.Marshal(Payload{To: token, Title: title, Body: body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("push send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push service answered %d", resp.StatusCode)
	}
	return nil
}
