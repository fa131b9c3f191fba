package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/arbio/commerce-platform/pkg/models"
)

// Filters narrows and orders List results.
type Filters struct {
	IsActive  *bool
	Limit     int
	Offset    int
	SortBy    string // created_at, email, first_name, last_name
	SortOrder string // ASC or DESC
}

// Repository is the user storage abstraction consumed by the service layer.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetWithOrders(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, filters Filters) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}
