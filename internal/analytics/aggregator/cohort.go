package aggregator

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/arbio/commerce-platform/pkg/metrics"
)

const maxCohorts = 12

// Cohort aggregates the users who signed up in one calendar month. Unlike the
// realized-order aggregates, cohort revenue intentionally spans orders of
// every status.
type Cohort struct {
	Cohort            string          `json:"cohort"` // YYYY-MM
	UsersCount        int64           `json:"usersCount"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	RetentionRate     decimal.Decimal `json:"retentionRate"`
}

// CohortAnalysis groups users by signup month and reports, per cohort, the
// user count, the order amounts across all their orders, and the share of
// users who placed at least one order. Only the 12 most recent cohorts are
// returned, most recent first. A user without orders contributes a single
// zero-amount row to the cohort average.
func (a *Aggregator) CohortAnalysis(ctx context.Context) ([]Cohort, error) {
	timer := prometheus.NewTimer(metrics.AggregateDuration.WithLabelValues("cohort_analysis"))
	defer timer.ObserveDuration()

	users, err := a.repo.ListUsers(ctx, UserFilter{})
	if err != nil {
		return nil, err
	}
	allOrders, err := a.repo.ListOrders(ctx, OrderFilter{})
	if err != nil {
		return nil, err
	}

	ordersByUser := make(map[uuid.UUID][]decimal.Decimal)
	for _, order := range allOrders {
		ordersByUser[order.UserID] = append(ordersByUser[order.UserID], order.TotalAmount)
	}

	type accumulator struct {
		users     int64
		purchased int64
		revenue   decimal.Decimal
		rows      int64
	}
	byMonth := make(map[string]*accumulator)
	for _, user := range users {
		month := user.CreatedAt.Format("2006-01")
		acc, ok := byMonth[month]
		if !ok {
			acc = &accumulator{revenue: decimal.Zero}
			byMonth[month] = acc
		}
		acc.users++

		amounts := ordersByUser[user.ID]
		if len(amounts) == 0 {
			acc.rows++
			continue
		}
		acc.purchased++
		acc.rows += int64(len(amounts))
		for _, amount := range amounts {
			acc.revenue = acc.revenue.Add(amount)
		}
	}

	cohorts := make([]Cohort, 0, len(byMonth))
	for month, acc := range byMonth {
		average := decimal.Zero
		if acc.rows > 0 {
			average = acc.revenue.Div(decimal.NewFromInt(acc.rows))
		}
		retention := decimal.Zero
		if acc.users > 0 {
			retention = decimal.NewFromInt(acc.purchased).
				Div(decimal.NewFromInt(acc.users)).
				Mul(decimal.NewFromInt(100))
		}
		cohorts = append(cohorts, Cohort{
			Cohort:            month,
			UsersCount:        acc.users,
			TotalRevenue:      acc.revenue.Round(2),
			AverageOrderValue: average.Round(2),
			RetentionRate:     retention.Round(2),
		})
	}

	sort.Slice(cohorts, func(i, j int) bool {
		return cohorts[i].Cohort > cohorts[j].Cohort
	})
	if len(cohorts) > maxCohorts {
		cohorts = cohorts[:maxCohorts]
	}
	return cohorts, nil
}
