// Package gateway is the HTTP client for the orders service. All requests go
// through the shared envelope decoder; transport failures and non-2xx
// responses surface as ErrPeerUnavailable so callers can degrade uniformly.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/arbio/commerce-platform/pkg/metrics"
	"github.com/arbio/commerce-platform/pkg/models"
)

const defaultTimeout = 5 * time.Second

// Config holds the peer connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the orders service over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *zap.Logger
}

// NewClient creates a Client. A zero Timeout falls back to five seconds.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

// PeerUser is a user record as the orders service serializes it.
type PeerUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PeerOrder is an order summary as the orders service serializes it.
type PeerOrder struct {
	ID          uuid.UUID       `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UserEmail   string          `json:"user_email"`
}

// Health is the orders service liveness report.
type Health struct {
	Status    string  `json:"status"`
	Service   string  `json:"service"`
	Version   string  `json:"version,omitempty"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime,omitempty"`
}

// envelope is the peer's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Health checks peer liveness. The health endpoint is not enveloped.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	body, status, err := c.get(ctx, "/health", "/health")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("health check returned status %d: %w", status, models.ErrPeerUnavailable)
	}
	var health Health
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

// User fetches one user. A missing user is (nil, nil), not an error.
func (c *Client) User(ctx context.Context, userID uuid.UUID) (*PeerUser, error) {
	body, status, err := c.get(ctx, "/api/users/:id", "/api/users/"+userID.String())
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	var user PeerUser
	if ok, err := decodeEnvelope(body, status, &user); err != nil || !ok {
		return nil, err
	}
	return &user, nil
}

// Users fetches every user known to the peer.
func (c *Client) Users(ctx context.Context) ([]PeerUser, error) {
	body, status, err := c.get(ctx, "/api/users", "/api/users")
	if err != nil {
		return nil, err
	}
	var users []PeerUser
	if ok, err := decodeEnvelope(body, status, &users); err != nil || !ok {
		return nil, err
	}
	return users, nil
}

// UserOrders fetches the order history of one user.
func (c *Client) UserOrders(ctx context.Context, userID uuid.UUID) ([]PeerOrder, error) {
	body, status, err := c.get(ctx, "/api/orders/user/:id", "/api/orders/user/"+userID.String())
	if err != nil {
		return nil, err
	}
	var orders []PeerOrder
	if ok, err := decodeEnvelope(body, status, &orders); err != nil || !ok {
		return nil, err
	}
	return orders, nil
}

// UserStats fetches the peer's user-count breakdown.
func (c *Client) UserStats(ctx context.Context) (*models.UserStats, error) {
	body, status, err := c.get(ctx, "/api/users/stats", "/api/users/stats")
	if err != nil {
		return nil, err
	}
	var stats models.UserStats
	if ok, err := decodeEnvelope(body, status, &stats); err != nil || !ok {
		return nil, err
	}
	return &stats, nil
}

// OrderStats fetches the peer's order aggregates.
func (c *Client) OrderStats(ctx context.Context) (*models.OrderStats, error) {
	body, status, err := c.get(ctx, "/api/orders/stats", "/api/orders/stats")
	if err != nil {
		return nil, err
	}
	var stats models.OrderStats
	if ok, err := decodeEnvelope(body, status, &stats); err != nil || !ok {
		return nil, err
	}
	return &stats, nil
}

// get performs one request and returns the raw body and status. Transport
// failures map to ErrPeerUnavailable. The metric label uses the route
// pattern, not the concrete path, to keep cardinality bounded.
func (c *Client) get(ctx context.Context, route, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "analytics-service/1.0.0")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.PeerRequests.WithLabelValues(route, "error").Inc()
		c.logger.Warn("peer request failed", zap.String("path", path), zap.Error(err))
		return nil, 0, fmt.Errorf("request to %s failed: %w", path, models.ErrPeerUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.PeerRequests.WithLabelValues(route, "error").Inc()
		return nil, 0, fmt.Errorf("failed to read response from %s: %w", path, models.ErrPeerUnavailable)
	}
	metrics.PeerRequests.WithLabelValues(route, "ok").Inc()
	return body, resp.StatusCode, nil
}

// decodeEnvelope unwraps a {success, data} response into out. A non-2xx
// status or an unsuccessful envelope reports the peer as unavailable. It
// returns false when there was nothing to decode.
func decodeEnvelope(body []byte, status int, out any) (bool, error) {
	if status < 200 || status >= 300 {
		return false, fmt.Errorf("peer returned status %d: %w", status, models.ErrPeerUnavailable)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return false, fmt.Errorf("failed to decode peer response: %w", err)
	}
	if !env.Success {
		return false, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return false, fmt.Errorf("failed to decode peer payload: %w", err)
	}
	return true, nil
}
