// Package aggregator computes derived business metrics from the transactional
// dataset. Every aggregate is recomputed from the store on each call; nothing
// is cached and results are immutable once returned.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/arbio/commerce-platform/pkg/metrics"
	"github.com/arbio/commerce-platform/pkg/models"
)

// Orders in these statuses are "realized": they carry revenue. Pending and
// cancelled orders are excluded from revenue-bearing aggregates.
var realizedStatuses = []string{
	models.OrderStatusDelivered,
	models.OrderStatusShipped,
	models.OrderStatusProcessing,
}

// Monthly revenue uses the stricter completed set: delivered and shipped only.
var completedStatuses = []string{
	models.OrderStatusDelivered,
	models.OrderStatusShipped,
}

// UserFilter narrows ListUsers.
type UserFilter struct {
	ActiveOnly bool
}

// OrderFilter narrows ListOrders. Nil bounds mean unbounded.
type OrderFilter struct {
	Statuses      []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// Repository is the read-only storage abstraction the aggregator depends on.
// ListOrders loads the owning user relation so customer rankings can report
// emails.
type Repository interface {
	ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	CountOrdersByStatus(ctx context.Context) (map[string]int64, error)
	CountOrdersCreatedBetween(ctx context.Context, start, end time.Time) (int64, error)
	CountUsersCreatedBetween(ctx context.Context, start, end time.Time) (int64, error)
	SumOrderAmountsByStatusAndDateRange(ctx context.Context, statuses []string, start, end time.Time) (decimal.Decimal, error)
}

// TopCustomer is one entry of the customer ranking by realized spend.
type TopCustomer struct {
	UserID     uuid.UUID       `json:"userId"`
	UserEmail  string          `json:"userEmail"`
	OrderCount int64           `json:"orderCount"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
}

// MonthlyRevenue is revenue and order count for one calendar month. Months
// without completed orders are omitted.
type MonthlyRevenue struct {
	Month      string          `json:"month"` // YYYY-MM
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int64           `json:"orderCount"`
}

// OrderStatistics aggregates realized orders.
type OrderStatistics struct {
	TotalOrders       int64           `json:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	UniqueCustomers   int64           `json:"uniqueCustomers"`
}

// BusinessMetrics is the combined point-in-time metrics snapshot.
type BusinessMetrics struct {
	TotalUsers              int64            `json:"totalUsers"`
	ActiveUsers             int64            `json:"activeUsers"`
	TotalOrders             int64            `json:"totalOrders"`
	TotalRevenue            decimal.Decimal  `json:"totalRevenue"`
	AverageOrderValue       decimal.Decimal  `json:"averageOrderValue"`
	ConversionRate          decimal.Decimal  `json:"conversionRate"`
	TopCustomers            []TopCustomer    `json:"topCustomers"`
	RevenueByMonth          []MonthlyRevenue `json:"revenueByMonth"`
	OrderStatusDistribution map[string]int64 `json:"orderStatusDistribution"`
}

// RealTimeMetrics is the live operational snapshot. The day boundary is local
// midnight.
type RealTimeMetrics struct {
	PendingOrders    int64           `json:"pendingOrders"`
	ProcessingOrders int64           `json:"processingOrders"`
	TodayRevenue     decimal.Decimal `json:"todayRevenue"`
	TodayOrders      int64           `json:"todayOrders"`
	ActiveUsersToday int64           `json:"activeUsersToday"`
}

// Aggregator computes metrics on top of a Repository.
type Aggregator struct {
	repo Repository
	// now is injectable for window-boundary tests.
	now func() time.Time
}

// New creates an Aggregator.
func New(repo Repository) *Aggregator {
	return &Aggregator{repo: repo, now: time.Now}
}

// WithClock overrides the aggregator's clock. Intended for tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// BusinessMetrics assembles the full metrics snapshot. The independent
// sub-aggregations run concurrently; any one failing fails the whole call.
func (a *Aggregator) BusinessMetrics(ctx context.Context) (*BusinessMetrics, error) {
	timer := prometheus.NewTimer(metrics.AggregateDuration.WithLabelValues("business_metrics"))
	defer timer.ObserveDuration()

	var (
		totalUsers, activeUsers int64
		orderStats              *OrderStatistics
		topCustomers            []TopCustomer
		revenueByMonth          []MonthlyRevenue
		distribution            map[string]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalUsers, err = a.TotalUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		activeUsers, err = a.ActiveUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orderStats, err = a.OrderStatistics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		topCustomers, err = a.TopCustomers(gctx, 5)
		return err
	})
	g.Go(func() error {
		var err error
		revenueByMonth, err = a.RevenueByMonth(gctx, 12)
		return err
	})
	g.Go(func() error {
		var err error
		distribution, err = a.OrderStatusDistribution(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute business metrics: %w", err)
	}

	conversion := decimal.Zero
	if totalUsers > 0 {
		conversion = decimal.NewFromInt(orderStats.UniqueCustomers).
			Div(decimal.NewFromInt(totalUsers)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return &BusinessMetrics{
		TotalUsers:              totalUsers,
		ActiveUsers:             activeUsers,
		TotalOrders:             orderStats.TotalOrders,
		TotalRevenue:            orderStats.TotalRevenue,
		AverageOrderValue:       orderStats.AverageOrderValue,
		ConversionRate:          conversion,
		TopCustomers:            topCustomers,
		RevenueByMonth:          revenueByMonth,
		OrderStatusDistribution: distribution,
	}, nil
}

// TotalUsers counts every user.
func (a *Aggregator) TotalUsers(ctx context.Context) (int64, error) {
	users, err := a.repo.ListUsers(ctx, UserFilter{})
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

// ActiveUsers counts users with the active flag set.
func (a *Aggregator) ActiveUsers(ctx context.Context) (int64, error) {
	users, err := a.repo.ListUsers(ctx, UserFilter{ActiveOnly: true})
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

// OrderStatistics aggregates realized orders. An empty order set yields zero
// values, never a division error.
func (a *Aggregator) OrderStatistics(ctx context.Context) (*OrderStatistics, error) {
	realized, err := a.repo.ListOrders(ctx, OrderFilter{Statuses: realizedStatuses})
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	customers := make(map[uuid.UUID]struct{})
	for _, order := range realized {
		total = total.Add(order.TotalAmount)
		customers[order.UserID] = struct{}{}
	}

	average := decimal.Zero
	if len(realized) > 0 {
		average = total.Div(decimal.NewFromInt(int64(len(realized))))
	}

	return &OrderStatistics{
		TotalOrders:       int64(len(realized)),
		TotalRevenue:      total.Round(2),
		AverageOrderValue: average.Round(2),
		UniqueCustomers:   int64(len(customers)),
	}, nil
}

// TopCustomers ranks users by realized spend, highest first. The tie-break
// between equal totals is unspecified.
func (a *Aggregator) TopCustomers(ctx context.Context, limit int) ([]TopCustomer, error) {
	realized, err := a.repo.ListOrders(ctx, OrderFilter{Statuses: realizedStatuses})
	if err != nil {
		return nil, err
	}

	byUser := make(map[uuid.UUID]*TopCustomer)
	for _, order := range realized {
		entry, ok := byUser[order.UserID]
		if !ok {
			email := "Unknown"
			if order.User != nil {
				email = order.User.Email
			}
			entry = &TopCustomer{UserID: order.UserID, UserEmail: email, TotalSpent: decimal.Zero}
			byUser[order.UserID] = entry
		}
		entry.OrderCount++
		entry.TotalSpent = entry.TotalSpent.Add(order.TotalAmount)
	}

	ranking := make([]TopCustomer, 0, len(byUser))
	for _, entry := range byUser {
		entry.TotalSpent = entry.TotalSpent.Round(2)
		ranking = append(ranking, *entry)
	}
	sort.Slice(ranking, func(i, j int) bool {
		return ranking[i].TotalSpent.GreaterThan(ranking[j].TotalSpent)
	})

	if limit > 0 && limit < len(ranking) {
		ranking = ranking[:limit]
	}
	return ranking, nil
}

// RevenueByMonth groups completed orders by calendar month of creation over
// the trailing window. Months without orders are omitted.
func (a *Aggregator) RevenueByMonth(ctx context.Context, monthsBack int) ([]MonthlyRevenue, error) {
	since := a.now().AddDate(0, -monthsBack, 0)
	completed, err := a.repo.ListOrders(ctx, OrderFilter{
		Statuses:     completedStatuses,
		CreatedAfter: &since,
	})
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]*MonthlyRevenue)
	for _, order := range completed {
		month := order.CreatedAt.Format("2006-01")
		entry, ok := byMonth[month]
		if !ok {
			entry = &MonthlyRevenue{Month: month, Revenue: decimal.Zero}
			byMonth[month] = entry
		}
		entry.Revenue = entry.Revenue.Add(order.TotalAmount)
		entry.OrderCount++
	}

	result := make([]MonthlyRevenue, 0, len(byMonth))
	for _, entry := range byMonth {
		entry.Revenue = entry.Revenue.Round(2)
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Month < result[j].Month
	})
	return result, nil
}

// OrderStatusDistribution counts every order per status. All five statuses
// are always present, zero-filled when absent.
func (a *Aggregator) OrderStatusDistribution(ctx context.Context) (map[string]int64, error) {
	counts, err := a.repo.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, err
	}

	distribution := make(map[string]int64, len(models.OrderStatuses))
	for _, status := range models.OrderStatuses {
		distribution[status] = counts[status]
	}
	return distribution, nil
}

// RealTimeMetrics computes the live snapshot. Sub-queries run concurrently.
func (a *Aggregator) RealTimeMetrics(ctx context.Context) (*RealTimeMetrics, error) {
	timer := prometheus.NewTimer(metrics.AggregateDuration.WithLabelValues("real_time_metrics"))
	defer timer.ObserveDuration()

	now := a.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var (
		statusCounts map[string]int64
		today        *WindowMetrics
		activeUsers  int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statusCounts, err = a.repo.CountOrdersByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		today, err = a.windowMetrics(gctx, dayStart, dayEnd)
		return err
	})
	g.Go(func() error {
		var err error
		activeUsers, err = a.ActiveUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute real-time metrics: %w", err)
	}

	return &RealTimeMetrics{
		PendingOrders:    statusCounts[models.OrderStatusPending],
		ProcessingOrders: statusCounts[models.OrderStatusProcessing],
		TodayRevenue:     today.Revenue,
		TodayOrders:      today.Orders,
		ActiveUsersToday: activeUsers,
	}, nil
}
