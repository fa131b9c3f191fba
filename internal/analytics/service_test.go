package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arbio/commerce-platform/internal/analytics/aggregator"
	"github.com/arbio/commerce-platform/internal/analytics/gateway"
	"github.com/arbio/commerce-platform/internal/analytics/repository"
	"github.com/arbio/commerce-platform/pkg/models"
)

type stubGateway struct {
	health     *gateway.Health
	healthErr  error
	users      []gateway.PeerUser
	userStats  *models.UserStats
	orderStats *models.OrderStats
	statsErr   error
}

func (s *stubGateway) Health(context.Context) (*gateway.Health, error) {
	return s.health, s.healthErr
}

func (s *stubGateway) User(context.Context, uuid.UUID) (*gateway.PeerUser, error) {
	if len(s.users) == 0 {
		return nil, nil
	}
	return &s.users[0], nil
}

func (s *stubGateway) Users(context.Context) ([]gateway.PeerUser, error) {
	return s.users, nil
}

func (s *stubGateway) UserOrders(context.Context, uuid.UUID) ([]gateway.PeerOrder, error) {
	return nil, nil
}

func (s *stubGateway) UserStats(context.Context) (*models.UserStats, error) {
	return s.userStats, s.statsErr
}

func (s *stubGateway) OrderStats(context.Context) (*models.OrderStats, error) {
	return s.orderStats, s.statsErr
}

func newTestService(t *testing.T, peer PeerGateway) (*Service, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	agg := aggregator.New(repo)
	svc := NewService(zap.NewNop(), agg, peer, "http://orders.local")
	return svc, repo
}

func seedDataset(repo *repository.MemoryRepository) {
	now := time.Now()
	userID := uuid.New()
	repo.AddUser(models.User{ID: userID, Email: "seed@example.com", IsActive: true, CreatedAt: now})
	repo.AddOrder(models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		TotalAmount: decimal.NewFromInt(100),
		Status:      models.OrderStatusDelivered,
		CreatedAt:   now,
	})
}

func TestDashboardWithPeerDown(t *testing.T) {
	svc, repo := newTestService(t, &stubGateway{healthErr: models.ErrPeerUnavailable})
	seedDataset(repo)

	dashboard, err := svc.Dashboard(context.Background())
	require.NoError(t, err, "a down peer must not fail the dashboard")

	assert.False(t, dashboard.ServiceHealth.OrdersService)
	assert.True(t, dashboard.ServiceHealth.Database)
	require.NotNil(t, dashboard.BusinessMetrics)
	assert.Equal(t, int64(1), dashboard.BusinessMetrics.TotalUsers)
	require.NotNil(t, dashboard.PeriodComparison)
	require.NotNil(t, dashboard.RealTimeMetrics)

	_, err = time.Parse(time.RFC3339, dashboard.LastUpdated)
	assert.NoError(t, err, "lastUpdated is RFC 3339")
}

func TestDashboardWithHealthyPeer(t *testing.T) {
	svc, _ := newTestService(t, &stubGateway{health: &gateway.Health{Status: "healthy"}})

	dashboard, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.True(t, dashboard.ServiceHealth.OrdersService)
}

func TestReportPeriodLabels(t *testing.T) {
	svc, _ := newTestService(t, &stubGateway{health: &gateway.Health{Status: "healthy"}})
	// A Wednesday.
	svc.WithClock(func() time.Time { return time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC) })

	daily, err := svc.Report(context.Background(), "daily")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-18", daily.Period)

	weekly, err := svc.Report(context.Background(), "weekly")
	require.NoError(t, err)
	assert.Equal(t, "Week of 2025-06-15", weekly.Period)

	monthly, err := svc.Report(context.Background(), "monthly")
	require.NoError(t, err)
	assert.Equal(t, "2025-06", monthly.Period)
	assert.NotNil(t, monthly.Metrics)
	assert.NotEmpty(t, monthly.Insights)
}

func TestReportUnknownType(t *testing.T) {
	svc, _ := newTestService(t, &stubGateway{})

	_, err := svc.Report(context.Background(), "hourly")
	require.Error(t, err)
}

func TestValidateConsistency(t *testing.T) {
	peer := &stubGateway{
		userStats:  &models.UserStats{TotalUsers: 1},
		orderStats: &models.OrderStats{TotalOrders: 1, TotalRevenue: decimal.NewFromInt(90)},
	}
	svc, repo := newTestService(t, peer)
	seedDataset(repo)

	result, err := svc.ValidateConsistency(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Consistent)
	assert.Equal(t, "10", result.Differences.Revenue.String())
}

func TestValidateConsistencyPeerDown(t *testing.T) {
	svc, _ := newTestService(t, &stubGateway{statsErr: models.ErrPeerUnavailable})

	_, err := svc.ValidateConsistency(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrPeerUnavailable)
}

func TestExternalHealth(t *testing.T) {
	down, _ := newTestService(t, &stubGateway{healthErr: models.ErrPeerUnavailable})
	report := down.ExternalHealth(context.Background())
	assert.False(t, report.Healthy)
	assert.Equal(t, "http://orders.local", report.URL)

	up, _ := newTestService(t, &stubGateway{health: &gateway.Health{Status: "healthy"}})
	report = up.ExternalHealth(context.Background())
	assert.True(t, report.Healthy)
	require.NotNil(t, report.Details)
}
