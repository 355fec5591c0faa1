// Package gateway provides implementations of the bet placement gateway
// the wager engine submits through: an HTTP client for the platform's
// placement service and an in-memory simulator for demos and tests.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/oddslab/wager-engine/pkg/betslip"
	"github.com/oddslab/wager-engine/pkg/wallet"
)

const (
	// DefaultBaseURL is the placement service base URL.
	DefaultBaseURL = "http://localhost:8083"

	defaultRateLimit = 5.0 // requests per second
	defaultBurst     = 2
)

// HTTPGateway places wagers against the platform's placement service.
type HTTPGateway struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures the gateway client.
type Option func(*HTTPGateway)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(g *HTTPGateway) {
		g.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client. The client's timeout bounds
// the placement call; the engine treats a timeout as a network failure.
func WithHTTPClient(client *http.Client) Option {
	return func(g *HTTPGateway) {
		g.httpClient = client
	}
}

// WithRateLimit sets custom rate limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(g *HTTPGateway) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewHTTPGateway creates a placement client.
func NewHTTPGateway(opts ...Option) *HTTPGateway {
	g := &HTTPGateway{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
	}

	for _, opt := range opts {
		opt(g)
	}
	return g
}

// placeResponse is the placement service's wire format.
type placeResponse struct {
	Success       bool           `json:"success"`
	NewBalance    wallet.Balance `json:"new_balance"`
	PlacedIDs     []string       `json:"placed_ids"`
	ErrorCategory string         `json:"error_category"`
	Message       string         `json:"message"`
}

// PlaceWager submits the wager via POST /v1/wagers. The service is
// expected to be idempotent on the wager's client request id. Rejections
// come back as *betslip.PlacementError; transport problems come back as
// plain errors, which the engine categorizes as network failures.
func (g *HTTPGateway) PlaceWager(ctx context.Context, wager betslip.Wager) (*betslip.PlacementReceipt, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(wager)
	if err != nil {
		return nil, fmt.Errorf("encoding wager: %w", err)
	}

	url := g.baseURL + "/v1/wagers"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", wager.ClientRequestID)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("placing wager: %w", err)
	}
	defer resp.Body.Close()

	var placed placeResponse
	if err := json.NewDecoder(resp.Body).Decode(&placed); err != nil {
		return nil, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}

	if !placed.Success {
		return nil, &betslip.PlacementError{
			Category: mapCategory(placed.ErrorCategory),
			Message:  placed.Message,
		}
	}

	return &betslip.PlacementReceipt{
		NewBalance: placed.NewBalance,
		PlacedIDs:  placed.PlacedIDs,
	}, nil
}

// mapCategory normalizes the service's error categories onto the engine's
// taxonomy. Anything unrecognized is treated as a server-side validation
// failure rather than a retryable network error.
func mapCategory(category string) betslip.FailureCategory {
	switch category {
	case "network":
		return betslip.CategoryNetwork
	case "insufficient_funds", "insufficient-funds-on-server":
		return betslip.CategoryInsufficientFunds
	case "odds_changed", "odds-changed":
		return betslip.CategoryOddsChanged
	default:
		return betslip.CategoryServerValidation
	}
}
