package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ajopot/internal/apperr"
)

// HTTPGateway talks JSON to the provider's REST API.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Gateway = (*HTTPGateway)(nil)

// NewHTTP creates a gateway client for the given provider base URL.
func NewHTTP(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// CreateAccount provisions a provider account for a member.
func (g *HTTPGateway) CreateAccount(ctx context.Context, ownerUID string) (*Account, error) {
	var account Account
	err := g.do(ctx, http.MethodPost, "/accounts", map[string]string{"owner": ownerUID}, &account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateTransfer moves amount to the destination account.
func (g *HTTPGateway) CreateTransfer(ctx context.Context, amount float64, destination string) (*Transfer, error) {
	var transfer Transfer
	err := g.do(ctx, http.MethodPost, "/transfers", map[string]any{
		"amount":      amount,
		"destination": destination,
	}, &transfer)
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

// RetrieveAccount fetches a provider account by its reference.
func (g *HTTPGateway) RetrieveAccount(ctx context.Context, id string) (*Account, error) {
	var account Account
	err := g.do(ctx, http.MethodGet, "/accounts/"+id, nil, &account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode gateway request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return apperr.BadGateway(err, "payment provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.BadGateway(fmt.Errorf("status %d", resp.StatusCode), "payment provider rejected %s %s", method, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.BadGateway(err, "malformed payment provider response")
	}
	return nil
}
