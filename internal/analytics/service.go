// Package analytics is the application service of the analytics process. It
// composes the aggregator, the insight rules, the peer gateway and the
// reconciler into the operations the HTTP layer exposes.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arbio/commerce-platform/internal/analytics/aggregator"
	"github.com/arbio/commerce-platform/internal/analytics/gateway"
	"github.com/arbio/commerce-platform/internal/analytics/insights"
	"github.com/arbio/commerce-platform/internal/analytics/reconciler"
	"github.com/arbio/commerce-platform/pkg/models"
)

const comparisonWindowDays = 30

// PeerGateway is the orders-service client surface the analytics service
// depends on.
type PeerGateway interface {
	Health(ctx context.Context) (*gateway.Health, error)
	User(ctx context.Context, userID uuid.UUID) (*gateway.PeerUser, error)
	Users(ctx context.Context) ([]gateway.PeerUser, error)
	UserOrders(ctx context.Context, userID uuid.UUID) ([]gateway.PeerOrder, error)
	UserStats(ctx context.Context) (*models.UserStats, error)
	OrderStats(ctx context.Context) (*models.OrderStats, error)
}

// ServiceHealth reports the dependencies of the dashboard.
type ServiceHealth struct {
	OrdersService    bool `json:"ordersService"`
	Database         bool `json:"database"`
	SchemaCompatible bool `json:"schemaCompatible"`
}

// Dashboard is the combined analytics view.
type Dashboard struct {
	BusinessMetrics  *aggregator.BusinessMetrics  `json:"businessMetrics"`
	PeriodComparison *aggregator.PeriodComparison `json:"periodComparison"`
	RealTimeMetrics  *aggregator.RealTimeMetrics  `json:"realTimeMetrics"`
	CohortAnalysis   []aggregator.Cohort          `json:"cohortAnalysis"`
	ServiceHealth    ServiceHealth                `json:"serviceHealth"`
	LastUpdated      string                       `json:"lastUpdated"`
}

// Report is a periodic metrics report with derived findings.
type Report struct {
	Type            string                      `json:"type"`
	Period          string                      `json:"period"`
	Metrics         *aggregator.BusinessMetrics `json:"metrics"`
	Insights        []string                    `json:"insights"`
	Recommendations []string                    `json:"recommendations"`
}

// PeerHealthReport is the sync health-check payload.
type PeerHealthReport struct {
	Healthy   bool            `json:"healthy"`
	URL       string          `json:"url"`
	Details   *gateway.Health `json:"details"`
	Timestamp string          `json:"timestamp"`
}

// StatsComparison bundles the peer's raw statistics.
type StatsComparison struct {
	Users  *models.UserStats  `json:"users"`
	Orders *models.OrderStats `json:"orders"`
}

// Service implements the analytics operations.
type Service struct {
	logger     *zap.Logger
	aggregator *aggregator.Aggregator
	peer       PeerGateway
	peerURL    string
	reconciler *reconciler.Reconciler
	now        func() time.Time
}

// NewService wires the analytics service.
func NewService(logger *zap.Logger, agg *aggregator.Aggregator, peer PeerGateway, peerURL string) *Service {
	return &Service{
		logger:     logger,
		aggregator: agg,
		peer:       peer,
		peerURL:    peerURL,
		reconciler: reconciler.New(peer),
		now:        time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Dashboard assembles the combined view. The four aggregates are computed
// concurrently and joined strictly; the peer health check is best-effort and
// only degrades the health flag when it fails.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		metrics    *aggregator.BusinessMetrics
		comparison *aggregator.PeriodComparison
		realTime   *aggregator.RealTimeMetrics
		cohorts    []aggregator.Cohort
		peerUp     bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metrics, err = s.aggregator.BusinessMetrics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		comparison, err = s.aggregator.ComparePeriods(gctx, comparisonWindowDays)
		return err
	})
	g.Go(func() error {
		var err error
		realTime, err = s.aggregator.RealTimeMetrics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cohorts, err = s.aggregator.CohortAnalysis(gctx)
		return err
	})
	g.Go(func() error {
		// Isolated: a down peer never fails the dashboard.
		health, err := s.peer.Health(gctx)
		if err != nil {
			s.logger.Warn("peer health check failed", zap.Error(err))
			return nil
		}
		peerUp = health.Status == "healthy"
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble dashboard: %w", err)
	}

	return &Dashboard{
		BusinessMetrics:  metrics,
		PeriodComparison: comparison,
		RealTimeMetrics:  realTime,
		CohortAnalysis:   cohorts,
		ServiceHealth: ServiceHealth{
			OrdersService:    peerUp,
			Database:         true,
			SchemaCompatible: true,
		},
		LastUpdated: s.now().UTC().Format(time.RFC3339),
	}, nil
}

// Insights evaluates the threshold rules against fresh aggregates.
func (s *Service) Insights(ctx context.Context) (*insights.Report, error) {
	var (
		metrics    *aggregator.BusinessMetrics
		comparison *aggregator.PeriodComparison
		realTime   *aggregator.RealTimeMetrics
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metrics, err = s.aggregator.BusinessMetrics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		comparison, err = s.aggregator.ComparePeriods(gctx, comparisonWindowDays)
		return err
	})
	g.Go(func() error {
		var err error
		realTime, err = s.aggregator.RealTimeMetrics(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute insights: %w", err)
	}

	return insights.Analyze(metrics, comparison, realTime), nil
}

// Report builds a daily, weekly or monthly report.
func (s *Service) Report(ctx context.Context, reportType string) (*Report, error) {
	if reportType != "daily" && reportType != "weekly" && reportType != "monthly" {
		return nil, fmt.Errorf("unknown report type %q: %w", reportType, models.ErrInvalidStatus)
	}

	var (
		metrics *aggregator.BusinessMetrics
		finding *insights.Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metrics, err = s.aggregator.BusinessMetrics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		finding, err = s.Insights(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	return &Report{
		Type:            reportType,
		Period:          s.periodLabel(reportType),
		Metrics:         metrics,
		Insights:        finding.Insights,
		Recommendations: finding.Recommendations,
	}, nil
}

// ValidateConsistency cross-checks local aggregates against the peer.
func (s *Service) ValidateConsistency(ctx context.Context) (*reconciler.Result, error) {
	metrics, err := s.aggregator.BusinessMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute local metrics: %w", err)
	}
	return s.reconciler.Reconcile(ctx, reconciler.LocalStats{
		TotalUsers:   metrics.TotalUsers,
		TotalOrders:  metrics.TotalOrders,
		TotalRevenue: metrics.TotalRevenue,
	})
}

// SyncUser fetches one user from the peer. A missing user is (nil, nil).
func (s *Service) SyncUser(ctx context.Context, userID uuid.UUID) (*gateway.PeerUser, error) {
	return s.peer.User(ctx, userID)
}

// SyncUserOrders fetches one user's order history from the peer.
func (s *Service) SyncUserOrders(ctx context.Context, userID uuid.UUID) ([]gateway.PeerOrder, error) {
	return s.peer.UserOrders(ctx, userID)
}

// SyncAllUsers fetches every user from the peer.
func (s *Service) SyncAllUsers(ctx context.Context) ([]gateway.PeerUser, error) {
	return s.peer.Users(ctx)
}

// ExternalHealth reports peer reachability without failing when it is down.
func (s *Service) ExternalHealth(ctx context.Context) *PeerHealthReport {
	report := &PeerHealthReport{
		URL:       s.peerURL,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}
	health, err := s.peer.Health(ctx)
	if err != nil {
		s.logger.Warn("external health check failed", zap.Error(err))
		return report
	}
	report.Healthy = health.Status == "healthy"
	report.Details = health
	return report
}

// StatsComparison fetches the peer's raw user and order statistics.
func (s *Service) StatsComparison(ctx context.Context) (*StatsComparison, error) {
	var (
		userStats  *models.UserStats
		orderStats *models.OrderStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userStats, err = s.peer.UserStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orderStats, err = s.peer.OrderStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch peer statistics: %w", err)
	}

	return &StatsComparison{Users: userStats, Orders: orderStats}, nil
}

// periodLabel renders the report period for its type.
func (s *Service) periodLabel(reportType string) string {
	now := s.now()
	switch reportType {
	case "daily":
		return now.Format("2006-01-02")
	case "weekly":
		weekStart := now.AddDate(0, 0, -int(now.Weekday()))
		return "Week of " + weekStart.Format("2006-01-02")
	case "monthly":
		return now.Format("2006-01")
	default:
		return now.Format("2006-01-02")
	}
}
