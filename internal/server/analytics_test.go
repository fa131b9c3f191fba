package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arbio/commerce-platform/internal/analytics"
	"github.com/arbio/commerce-platform/internal/analytics/aggregator"
	"github.com/arbio/commerce-platform/internal/analytics/gateway"
	"github.com/arbio/commerce-platform/internal/analytics/repository"
	"github.com/arbio/commerce-platform/pkg/models"
)

type fakePeer struct {
	healthy    bool
	user       *gateway.PeerUser
	userStats  *models.UserStats
	orderStats *models.OrderStats
}

func (f *fakePeer) Health(context.Context) (*gateway.Health, error) {
	if !f.healthy {
		return nil, models.ErrPeerUnavailable
	}
	return &gateway.Health{Status: "healthy", Service: "orders-service"}, nil
}

func (f *fakePeer) User(context.Context, uuid.UUID) (*gateway.PeerUser, error) {
	return f.user, nil
}

func (f *fakePeer) Users(context.Context) ([]gateway.PeerUser, error) {
	if !f.healthy {
		return nil, models.ErrPeerUnavailable
	}
	return []gateway.PeerUser{}, nil
}

func (f *fakePeer) UserOrders(context.Context, uuid.UUID) ([]gateway.PeerOrder, error) {
	return []gateway.PeerOrder{}, nil
}

func (f *fakePeer) UserStats(context.Context) (*models.UserStats, error) {
	if f.userStats == nil {
		return nil, models.ErrPeerUnavailable
	}
	return f.userStats, nil
}

func (f *fakePeer) OrderStats(context.Context) (*models.OrderStats, error) {
	if f.orderStats == nil {
		return nil, models.ErrPeerUnavailable
	}
	return f.orderStats, nil
}

func newAnalyticsRouter(peer *fakePeer) http.Handler {
	logger := zap.NewNop()
	repo := repository.NewMemoryRepository()
	svc := analytics.NewService(logger, aggregator.New(repo), peer, "http://orders.local")
	return NewAnalyticsServer(logger, svc).Router()
}

func getJSON(t *testing.T, handler http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestDashboardEndpointPeerDown(t *testing.T) {
	router := newAnalyticsRouter(&fakePeer{healthy: false})

	rec, body := getJSON(t, router, http.MethodGet, "/api/analytics/dashboard")
	require.Equal(t, http.StatusOK, rec.Code, "a down peer degrades the flag, not the response")

	data := body["data"].(map[string]any)
	health := data["serviceHealth"].(map[string]any)
	assert.Equal(t, false, health["ordersService"])
	assert.Equal(t, true, health["database"])
	assert.NotEmpty(t, data["lastUpdated"])
}

func TestReportEndpoint(t *testing.T) {
	router := newAnalyticsRouter(&fakePeer{healthy: true})

	rec, body := getJSON(t, router, http.MethodGet, "/api/analytics/reports/weekly")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "weekly", data["type"])
	assert.Contains(t, data["period"], "Week of")

	rec, _ = getJSON(t, router, http.MethodGet, "/api/analytics/reports/hourly")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConsistencyEndpoint(t *testing.T) {
	peer := &fakePeer{
		healthy:    true,
		userStats:  &models.UserStats{TotalUsers: 0},
		orderStats: &models.OrderStats{TotalOrders: 0},
	}
	router := newAnalyticsRouter(peer)

	rec, body := getJSON(t, router, http.MethodPost, "/api/analytics/consistency")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["consistent"])
}

func TestConsistencyEndpointPeerDown(t *testing.T) {
	router := newAnalyticsRouter(&fakePeer{healthy: true})

	rec, body := getJSON(t, router, http.MethodPost, "/api/analytics/consistency")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "external service unavailable", body["error"])
}

func TestSyncUserEndpoint(t *testing.T) {
	known := &gateway.PeerUser{ID: uuid.New(), Email: "synced@example.com"}
	router := newAnalyticsRouter(&fakePeer{healthy: true, user: known})

	rec, body := getJSON(t, router, http.MethodGet, "/api/sync/user/"+known.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user data synchronized successfully", body["message"])

	t.Run("missing peer user is 404", func(t *testing.T) {
		missing := newAnalyticsRouter(&fakePeer{healthy: true})
		rec, body := getJSON(t, missing, http.MethodGet, "/api/sync/user/"+uuid.NewString())
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "user not found in orders service", body["error"])
	})
}

func TestSyncHealthCheckEndpoint(t *testing.T) {
	router := newAnalyticsRouter(&fakePeer{healthy: false})

	rec, body := getJSON(t, router, http.MethodGet, "/api/sync/health-check")
	require.Equal(t, http.StatusOK, rec.Code, "health-check reports peer state without failing")
	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["healthy"])
	assert.Equal(t, "http://orders.local", data["url"])
}

func TestSyncAllUsersEndpoint(t *testing.T) {
	router := newAnalyticsRouter(&fakePeer{healthy: true})

	rec, body := getJSON(t, router, http.MethodGet, "/api/sync/all-users")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])
}
