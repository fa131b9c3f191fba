package repository

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arbio/commerce-platform/internal/analytics/aggregator"
	"github.com/arbio/commerce-platform/pkg/models"
)

// MemoryRepository implements aggregator.Repository over in-memory slices.
// Used in tests and local development.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  []models.User
	orders []models.Order
}

// NewMemoryRepository creates an empty in-memory analytics repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// AddUser registers a user in the dataset.
func (r *MemoryRepository) AddUser(user models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
}

// AddOrder registers an order in the dataset. The owning user relation is
// resolved from previously added users.
func (r *MemoryRepository) AddOrder(order models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.User == nil {
		for i := range r.users {
			if r.users[i].ID == order.UserID {
				user := r.users[i]
				order.User = &user
				break
			}
		}
	}
	r.orders = append(r.orders, order)
}

func (r *MemoryRepository) ListUsers(ctx context.Context, filter aggregator.UserFilter) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []models.User
	for _, user := range r.users {
		if filter.ActiveOnly && !user.IsActive {
			continue
		}
		result = append(result, user)
	}
	return result, nil
}

func (r *MemoryRepository) ListOrders(ctx context.Context, filter aggregator.OrderFilter) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]bool, len(filter.Statuses))
	for _, status := range filter.Statuses {
		wanted[status] = true
	}

	var result []models.Order
	for _, order := range r.orders {
		if len(wanted) > 0 && !wanted[order.Status] {
			continue
		}
		if filter.CreatedAfter != nil && order.CreatedAt.Before(*filter.CreatedAfter) {
			continue
		}
		if filter.CreatedBefore != nil && !order.CreatedAt.Before(*filter.CreatedBefore) {
			continue
		}
		result = append(result, order)
	}
	return result, nil
}

func (r *MemoryRepository) CountOrdersByStatus(ctx context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, order := range r.orders {
		counts[order.Status]++
	}
	return counts, nil
}

func (r *MemoryRepository) CountOrdersCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, order := range r.orders {
		if inRange(order.CreatedAt, start, end) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) CountUsersCreatedBetween(ctx context.Context, start, end time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, user := range r.users {
		if inRange(user.CreatedAt, start, end) {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) SumOrderAmountsByStatusAndDateRange(ctx context.Context, statuses []string, start, end time.Time) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}

	total := decimal.Zero
	for _, order := range r.orders {
		if wanted[order.Status] && inRange(order.CreatedAt, start, end) {
			total = total.Add(order.TotalAmount)
		}
	}
	return total, nil
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
