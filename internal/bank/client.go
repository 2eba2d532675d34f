// Package bank talks to the banking aggregator that holds the actual
// account transactions. The aggregator is a third party with its own
// rate limits, so fetches go through a cooldown-aware cache.
package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// TransactionWire is a booked transaction as the aggregator reports it.
type TransactionWire struct {
	ExternalID   string `json:"external_id"`
	AmountCents  int64  `json:"amount_cents"`
	CurrencyCode string `json:"currency_code"`
	Description  string `json:"description"`
	BookedAt     int64  `json:"booked_at"`
}

// Client fetches transactions for a requisition.
type Client interface {
	ListTransactions(ctx context.Context, requisitionRef string) ([]TransactionWire, error)
}

// FetchError carries the aggregator's HTTP status so callers can tell a
// revoked consent (401/403) from a transient failure.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("aggregator error %d: %s", e.StatusCode, e.Message)
}

// ReauthRequired reports whether the aggregator rejected our consent,
// meaning the user has to re-link the account.
func ReauthRequired(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.StatusCode == http.StatusUnauthorized || fe.StatusCode == http.StatusForbidden
}

// HTTPClient is the production aggregator client.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) ListTransactions(ctx context.Context, requisitionRef string) ([]TransactionWire, error) {
	url := fmt.Sprintf("%s/requisitions/%s/transactions", c.baseURL, requisitionRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var out []TransactionWire
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return out, nil
}
