package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/arbio/commerce-platform/pkg/metrics"
)

// WindowMetrics are the raw metrics of one time window. Revenue covers
// completed orders only; the order count covers all statuses.
type WindowMetrics struct {
	Period   string          `json:"period"`
	Revenue  decimal.Decimal `json:"revenue"`
	Orders   int64           `json:"orders"`
	NewUsers int64           `json:"newUsers"`
}

// GrowthRates are period-over-period percentage deltas. A zero previous
// window yields zero growth, never infinity.
type GrowthRates struct {
	RevenueGrowth decimal.Decimal `json:"revenueGrowth"`
	OrdersGrowth  decimal.Decimal `json:"ordersGrowth"`
	UsersGrowth   decimal.Decimal `json:"usersGrowth"`
}

// PeriodComparison pairs two adjacent windows with their growth rates.
type PeriodComparison struct {
	Current  WindowMetrics `json:"current"`
	Previous WindowMetrics `json:"previous"`
	Growth   GrowthRates   `json:"growth"`
}

// ComparePeriods compares the trailing periodDays window against the window
// immediately before it.
func (a *Aggregator) ComparePeriods(ctx context.Context, periodDays int) (*PeriodComparison, error) {
	timer := prometheus.NewTimer(metrics.AggregateDuration.WithLabelValues("period_comparison"))
	defer timer.ObserveDuration()

	now := a.now()
	currentStart := now.AddDate(0, 0, -periodDays)
	previousStart := currentStart.AddDate(0, 0, -periodDays)

	var current, previous *WindowMetrics

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = a.windowMetrics(gctx, currentStart, now)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = a.windowMetrics(gctx, previousStart, currentStart)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compare periods: %w", err)
	}

	current.Period = periodLabel(currentStart, now)
	previous.Period = periodLabel(previousStart, currentStart)

	return &PeriodComparison{
		Current:  *current,
		Previous: *previous,
		Growth: GrowthRates{
			RevenueGrowth: growthRate(current.Revenue, previous.Revenue),
			OrdersGrowth:  growthRate(decimal.NewFromInt(current.Orders), decimal.NewFromInt(previous.Orders)),
			UsersGrowth:   growthRate(decimal.NewFromInt(current.NewUsers), decimal.NewFromInt(previous.NewUsers)),
		},
	}, nil
}

// windowMetrics computes the raw metrics of [start, end).
func (a *Aggregator) windowMetrics(ctx context.Context, start, end time.Time) (*WindowMetrics, error) {
	var (
		revenue  decimal.Decimal
		orders   int64
		newUsers int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		revenue, err = a.repo.SumOrderAmountsByStatusAndDateRange(gctx, completedStatuses, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = a.repo.CountOrdersCreatedBetween(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		newUsers, err = a.repo.CountUsersCreatedBetween(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &WindowMetrics{
		Revenue:  revenue.Round(2),
		Orders:   orders,
		NewUsers: newUsers,
	}, nil
}

func growthRate(current, previous decimal.Decimal) decimal.Decimal {
	if previous.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}

func periodLabel(start, end time.Time) string {
	return start.Format("2006-01-02") + " to " + end.Format("2006-01-02")
}
