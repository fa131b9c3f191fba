package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arbio/commerce-platform/pkg/models"
)

// Filters narrows and orders List results.
type Filters struct {
	Status    string
	UserID    *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
	SortBy    string // created_at, total_amount, status
	SortOrder string // ASC or DESC
}

// Repository is the order storage abstraction consumed by the service layer.
// GetByID and the list operations load the owning user relation.
type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)
	List(ctx context.Context, filters Filters) ([]*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByStatus returns per-status counts for statuses present in the
	// table; the service layer zero-fills the rest.
	CountByStatus(ctx context.Context) (map[string]int64, error)
	// SumAmountByStatuses sums order amounts across the given statuses.
	SumAmountByStatuses(ctx context.Context, statuses []string) (decimal.Decimal, error)
	// AverageAmount averages the amount over all orders regardless of status.
	AverageAmount(ctx context.Context) (decimal.Decimal, error)
}
