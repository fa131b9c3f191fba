// Package reconciler cross-checks local aggregates against the orders
// service's own numbers. Revenue differences are reported but never affect
// the consistency verdict, since the two services apply different
// revenue-recognition rules.
package reconciler

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/arbio/commerce-platform/pkg/models"
)

// PeerStatsSource provides the remote side of the comparison.
type PeerStatsSource interface {
	UserStats(ctx context.Context) (*models.UserStats, error)
	OrderStats(ctx context.Context) (*models.OrderStats, error)
}

// LocalStats is the local side of the comparison.
type LocalStats struct {
	TotalUsers   int64           `json:"totalUsers"`
	TotalOrders  int64           `json:"totalOrders"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// PeerStats bundles the remote aggregates as fetched.
type PeerStats struct {
	Users  *models.UserStats  `json:"users"`
	Orders *models.OrderStats `json:"orders"`
}

// Deltas are local minus remote for each compared figure.
type Deltas struct {
	UserCount  int64           `json:"userCount"`
	OrderCount int64           `json:"orderCount"`
	Revenue    decimal.Decimal `json:"revenue"`
}

// Result is the full reconciliation outcome.
type Result struct {
	Consistent  bool       `json:"consistent"`
	Differences Deltas     `json:"differences"`
	PeerStats   PeerStats  `json:"serviceStats"`
	LocalStats  LocalStats `json:"localStats"`
}

// Reconciler compares local aggregates with a peer.
type Reconciler struct {
	peer PeerStatsSource
}

// New creates a Reconciler.
func New(peer PeerStatsSource) *Reconciler {
	return &Reconciler{peer: peer}
}

// Reconcile fetches both remote stat sets concurrently and diffs them
// against the local figures. An unreachable peer fails the whole call.
func (r *Reconciler) Reconcile(ctx context.Context, local LocalStats) (*Result, error) {
	var (
		userStats  *models.UserStats
		orderStats *models.OrderStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		userStats, err = r.peer.UserStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orderStats, err = r.peer.OrderStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch peer statistics: %w", err)
	}

	deltas := Deltas{Revenue: decimal.Zero}
	if userStats != nil {
		deltas.UserCount = local.TotalUsers - userStats.TotalUsers
	}
	if orderStats != nil {
		deltas.OrderCount = local.TotalOrders - orderStats.TotalOrders
		deltas.Revenue = local.TotalRevenue.Sub(orderStats.TotalRevenue)
	}

	return &Result{
		Consistent:  deltas.UserCount == 0 && deltas.OrderCount == 0,
		Differences: deltas,
		PeerStats:   PeerStats{Users: userStats, Orders: orderStats},
		LocalStats:  local,
	}, nil
}
