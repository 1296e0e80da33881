package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Currency is the only currency this app charges in
const Currency = "KES"

// Common errors
var (
	// ErrGatewayUnavailable is transient: the gateway could not be reached,
	// nothing was confirmed and the user may retry.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrChargeRejected is permanent: the gateway refused the charge.
	ErrChargeRejected = errors.New("payment gateway rejected the charge")
)

// Client talks to the Flutterwave-style mobile-money API
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

// NewClient creates a gateway client
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// ChargeResult is the gateway's answer to a charge initiation
type ChargeResult struct {
	TransactionID int64
	Message       string
}

// VerifyResult is the gateway's authoritative view of a transaction
type VerifyResult struct {
	Status   string
	Currency string
	TxRef    string
	Amount   int64
}

type chargeRequest struct {
	PhoneNumber string `json:"phone_number"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	TxRef       string `json:"tx_ref"`
}

type gatewayEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID       int64  `json:"id"`
		Status   string `json:"status"`
		Currency string `json:"currency"`
		TxRef    string `json:"tx_ref"`
		Amount   int64  `json:"amount"`
	} `json:"data"`
}

// ChargeMpesa initiates an M-PESA charge. It never marks anyone paid;
// confirmation only arrives through the webhook.
func (c *Client) ChargeMpesa(ctx context.Context, phone string, amount int64, txRef string) (*ChargeResult, error) {
	body, err := json.Marshal(chargeRequest{
		PhoneNumber: phone,
		Amount:      amount,
		Currency:    Currency,
		TxRef:       txRef,
	})
	if err != nil {
		return nil, err
	}

	url := c.baseURL + "/charges?type=mpesa"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var envelope gatewayEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: bad response body", ErrGatewayUnavailable)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK || envelope.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrChargeRejected, envelope.Message)
	}

	return &ChargeResult{
		TransactionID: envelope.Data.ID,
		Message:       envelope.Message,
	}, nil
}

// VerifyTransaction re-checks a transaction directly against the gateway.
// Webhook bodies are spoofable; this call is the source of truth.
func (c *Client) VerifyTransaction(ctx context.Context, transactionID int64) (*VerifyResult, error) {
	url := fmt.Sprintf("%s/transactions/%d/verify", c.baseURL, transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var envelope gatewayEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: bad response body", ErrGatewayUnavailable)
	}

	return &VerifyResult{
		Status:   envelope.Data.Status,
		Currency: envelope.Data.Currency,
		TxRef:    envelope.Data.TxRef,
		Amount:   envelope.Data.Amount,
	}, nil
}
