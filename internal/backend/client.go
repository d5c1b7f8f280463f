// Package backend is the typed client for the commerce REST API the
// storefront talks to. All business logic (order persistence, payments,
// OTP issuance) lives behind these endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/evergreenmart/storefront/internal/models"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// envelope is the response wrapper every backend endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// APIError is a backend-reported failure (success=false or a non-2xx
// status). The message is safe to show to the shopper.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend request failed with status %d", e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body any) (*envelope, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return nil, &APIError{Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("decode backend response: %w", err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

// SendOTP asks the backend to text a one-time code to the phone number.
func (c *Client) SendOTP(ctx context.Context, phone string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/otp/send", nil, map[string]string{
		"phone_number": phone,
	})
	return err
}

// VerifyOTP checks the code the shopper entered.
func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/otp/verify", nil, map[string]string{
		"phone_number": phone,
		"otp":          otp,
	})
	return err
}

// CreateOrder places an order for an authenticated shopper.
func (c *Client) CreateOrder(ctx context.Context, bearerToken string, payload models.OrderPayload) (*models.OrderResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/orders/", map[string]string{
		"Authorization": "Bearer " + bearerToken,
	}, payload)
	if err != nil {
		return nil, err
	}
	return decodeOrder(env)
}

// CreateGuestOrder places an order under an anonymous session.
func (c *Client) CreateGuestOrder(ctx context.Context, sessionID string, payload models.OrderPayload) (*models.OrderResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/api/orders/guest", map[string]string{
		"X-Session-ID": sessionID,
	}, payload)
	if err != nil {
		return nil, err
	}
	return decodeOrder(env)
}

func decodeOrder(env *envelope) (*models.OrderResult, error) {
	var order models.OrderResult
	if err := json.Unmarshal(env.Data, &order); err != nil {
		return nil, fmt.Errorf("decode order result: %w", err)
	}
	return &order, nil
}
