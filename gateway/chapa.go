// Package gateway wraps the Chapa payment provider's HTTP API. Handlers
// never touch raw gateway payloads; everything is parsed into typed results
// or typed errors at this boundary.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// PaymentGateway is the interface the payment workflows depend on
type PaymentGateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, txRef string) (*VerifyResult, error)
}

// InitializeRequest carries the fields Chapa requires to start a
// transaction. Amount must be a decimal string.
type InitializeRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url"`
	ReturnURL   string `json:"return_url"`
	Title       string `json:"customization[title],omitempty"`
	Description string `json:"customization[description],omitempty"`
}

// InitializeResult is a successful initialization
type InitializeResult struct {
	CheckoutURL string
	Raw         json.RawMessage
}

// VerifyResult is any well-formed verification response. Status is the
// outer envelope status, InnerStatus the transaction status reported under
// data. Classification of InnerStatus is the caller's job.
type VerifyResult struct {
	Status      string
	InnerStatus string
	Message     string
	Raw         json.RawMessage
}

// RejectedError is a well-formed business failure reported by the gateway
type RejectedError struct {
	Message string
	Raw     json.RawMessage
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("gateway rejected request: %s", e.Message)
}

// UnreachableError covers network errors, timeouts and malformed or
// non-2xx responses that carry no parseable business error
type UnreachableError struct {
	Op    string
	TxRef string
	Err   error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("gateway unreachable during %s for %s: %v", e.Op, e.TxRef, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// Client is a Chapa API client. The secret key is process-wide
// configuration supplied at construction, never read from the environment
// inside request handling.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// NewClient creates a Chapa client against the given base URL
func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// envelope is Chapa's response shape for both endpoints:
// {"status": "success"|"failed", "message": ..., "data": {...}}
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
		Status      string `json:"status"`
	} `json:"data"`
}

// Initialize starts a hosted-checkout transaction
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &UnreachableError{Op: "initialize", TxRef: req.TxRef, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/transaction/initialize", bytes.NewReader(payload))
	if err != nil {
		return nil, &UnreachableError{Op: "initialize", TxRef: req.TxRef, Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	body, statusCode, err := c.do(httpReq)
	if err != nil {
		return nil, &UnreachableError{Op: "initialize", TxRef: req.TxRef, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Status == "" {
		return nil, &UnreachableError{Op: "initialize", TxRef: req.TxRef,
			Err: fmt.Errorf("unexpected response (HTTP %d)", statusCode)}
	}

	if env.Status != "success" {
		return nil, &RejectedError{Message: env.Message, Raw: body}
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, &UnreachableError{Op: "initialize", TxRef: req.TxRef,
			Err: fmt.Errorf("HTTP %d with success envelope", statusCode)}
	}

	return &InitializeResult{CheckoutURL: env.Data.CheckoutURL, Raw: body}, nil
}

// Verify fetches the authoritative status of a transaction by reference
func (c *Client) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/transaction/verify/"+txRef, nil)
	if err != nil {
		return nil, &UnreachableError{Op: "verify", TxRef: txRef, Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	body, statusCode, err := c.do(httpReq)
	if err != nil {
		return nil, &UnreachableError{Op: "verify", TxRef: txRef, Err: err}
	}

	// a non-2xx verify reply is a transport-level failure even when the
	// body parses, so the caller's record stays retriable
	if statusCode < 200 || statusCode >= 300 {
		return nil, &UnreachableError{Op: "verify", TxRef: txRef,
			Err: fmt.Errorf("HTTP %d", statusCode)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Status == "" {
		return nil, &UnreachableError{Op: "verify", TxRef: txRef,
			Err: fmt.Errorf("unexpected response (HTTP %d)", statusCode)}
	}

	return &VerifyResult{
		Status:      env.Status,
		InnerStatus: env.Data.Status,
		Message:     env.Message,
		Raw:         body,
	}, nil
}

func (c *Client) do(req *http.Request) (json.RawMessage, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
