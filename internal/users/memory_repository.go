package users

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/arbio/commerce-platform/pkg/models"
)

// MemoryRepository is an in-memory Repository used in tests and local
// development.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User

	// ordersByUser lets GetWithOrders attach order history without a
	// database join. Order services register orders here in tests.
	ordersByUser map[uuid.UUID][]models.Order
}

// NewMemoryRepository creates an empty in-memory user repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:        make(map[uuid.UUID]*models.User),
		ordersByUser: make(map[uuid.UUID][]models.Order),
	}
}

// AttachOrder records an order against a user for GetWithOrders.
func (r *MemoryRepository) AttachOrder(userID uuid.UUID, order models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ordersByUser[userID] = append(r.ordersByUser[userID], order)
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryRepository) GetWithOrders(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *user
	copied.Orders = append([]models.Order(nil), r.ordersByUser[id]...)
	sort.Slice(copied.Orders, func(i, j int) bool {
		return copied.Orders[i].CreatedAt.After(copied.Orders[j].CreatedAt)
	})
	return &copied, nil
}

func (r *MemoryRepository) List(ctx context.Context, filters Filters) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.User
	for _, user := range r.users {
		if filters.IsActive != nil && user.IsActive != *filters.IsActive {
			continue
		}
		copied := *user
		result = append(result, &copied)
	}

	asc := filters.SortOrder == "ASC"
	sort.Slice(result, func(i, j int) bool {
		var less bool
		switch filters.SortBy {
		case "email":
			less = result[i].Email < result[j].Email
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

func (r *MemoryRepository) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return models.ErrNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *MemoryRepository) CountActive(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, user := range r.users {
		if user.IsActive {
			count++
		}
	}
	return count, nil
}
