// Package adminclient talks to the activation service's admin and fee
// endpoints.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alovak/card-activation/activation/models"
)

type Client struct {
	Base  string
	HTTP  *http.Client
	Token string
}

func New(base string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{Base: strings.TrimRight(base, "/"), HTTP: hc}
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s status=%d message=%s", e.Op, e.Status, e.Message)
}

type envelope struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message"`
	Token    string                `json:"token"`
	Payments []*models.FeeLineItem `json:"payments"`
}

// Login exchanges admin credentials for a session token and keeps it on
// the client for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out envelope
	err := c.do(ctx, "login", http.MethodPost, "/admin/login", models.LoginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return "", err
	}
	c.Token = out.Token
	return out.Token, nil
}

func (c *Client) UpdateFees(ctx context.Context, update models.FeeUpdate) ([]*models.FeeLineItem, error) {
	var out envelope
	if err := c.do(ctx, "update-fees", http.MethodPost, "/admin/update-fees", update, &out); err != nil {
		return nil, err
	}
	return out.Payments, nil
}

func (c *Client) ListFees(ctx context.Context) ([]*models.FeeLineItem, error) {
	var out envelope
	if err := c.do(ctx, "payments", http.MethodGet, "/api/payments", nil, &out); err != nil {
		return nil, err
	}
	return out.Payments, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in any, out *envelope) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Base+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", op, err)
	}

	if resp.StatusCode/100 != 2 {
		var failed envelope
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &failed) == nil && failed.Message != "" {
			msg = failed.Message
		}
		return &APIError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}
