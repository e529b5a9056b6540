package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type checkoutRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Reference   string `json:"external_reference"`
}

type checkoutResponse struct {
	ID string `json:"id"`
}

// HTTPProvider opens checkouts on a REST payment gateway:
// POST {base}/checkouts with a bearer API key.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) CreateCheckout(ctx context.Context, amountCents int64, reference string) (string, error) {
	body, err := json.Marshal(checkoutRequest{AmountCents: amountCents, Currency: "USD", Reference: reference})
	if err != nil {
		return "", fmt.Errorf("failed to encode checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/checkouts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Idempotency-Key", reference)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode checkout response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("payment gateway returned an empty checkout id")
	}
	return out.ID, nil
}
