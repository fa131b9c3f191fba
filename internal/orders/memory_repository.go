package orders

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arbio/commerce-platform/pkg/models"
)

// MemoryRepository is an in-memory Repository used in tests and local
// development. A users.MemoryRepository-style lookup function resolves the
// owning user relation.
type MemoryRepository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*models.Order
	userByID func(uuid.UUID) *models.User
}

// NewMemoryRepository creates an empty in-memory order repository. userByID
// may be nil when user relations are not needed.
func NewMemoryRepository(userByID func(uuid.UUID) *models.User) *MemoryRepository {
	return &MemoryRepository{
		orders:   make(map[uuid.UUID]*models.Order),
		userByID: userByID,
	}
}

func (r *MemoryRepository) withUser(order *models.Order) *models.Order {
	copied := *order
	if r.userByID != nil {
		copied.User = r.userByID(order.UserID)
	}
	return &copied
}

func (r *MemoryRepository) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *order
	copied.User = nil
	r.orders[order.ID] = &copied
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r.withUser(order), nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []*models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			result = append(result, r.withUser(order))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *MemoryRepository) List(ctx context.Context, filters Filters) ([]*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Order
	for _, order := range r.orders {
		if filters.Status != "" && order.Status != filters.Status {
			continue
		}
		if filters.UserID != nil && order.UserID != *filters.UserID {
			continue
		}
		if filters.StartDate != nil && order.CreatedAt.Before(*filters.StartDate) {
			continue
		}
		if filters.EndDate != nil && order.CreatedAt.After(*filters.EndDate) {
			continue
		}
		result = append(result, r.withUser(order))
	}

	asc := filters.SortOrder == "ASC"
	sort.Slice(result, func(i, j int) bool {
		var less bool
		switch filters.SortBy {
		case "total_amount":
			less = result[i].TotalAmount.LessThan(result[j].TotalAmount)
		case "status":
			less = result[i].Status < result[j].Status
		default:
			less = result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(result) {
			return nil, nil
		}
		result = result[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(result) {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (r *MemoryRepository) Update(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; !ok {
		return models.ErrNotFound
	}
	copied := *order
	copied.User = nil
	r.orders[order.ID] = &copied
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *MemoryRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for _, order := range r.orders {
		counts[order.Status]++
	}
	return counts, nil
}

func (r *MemoryRepository) SumAmountByStatuses(ctx context.Context, statuses []string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wanted := make(map[string]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}
	total := decimal.Zero
	for _, order := range r.orders {
		if wanted[order.Status] {
			total = total.Add(order.TotalAmount)
		}
	}
	return total, nil
}

func (r *MemoryRepository) AverageAmount(ctx context.Context) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.orders) == 0 {
		return decimal.Zero, nil
	}
	total := decimal.Zero
	for _, order := range r.orders {
		total = total.Add(order.TotalAmount)
	}
	return total.Div(decimal.NewFromInt(int64(len(r.orders)))), nil
}
