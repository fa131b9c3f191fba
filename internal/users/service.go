package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arbio/commerce-platform/pkg/models"
)

// CreateUserRequest carries the fields accepted when registering a user.
type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required,min=2"`
	LastName  string `json:"last_name" binding:"required,min=2"`
	Phone     string `json:"phone"`
}

// UpdateUserRequest carries the optional fields accepted on update.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,min=2"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,min=2"`
	Phone     *string `json:"phone,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// UserService defines user operations.
type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetWithOrders(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, filters Filters) ([]*models.User, error)
	Create(ctx context.Context, req CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*models.UserStats, error)
}

// Service implements UserService.
type Service struct {
	logger *zap.Logger
	repo   Repository
}

// NewService creates a new UserService.
func NewService(logger *zap.Logger, repo Repository) *Service {
	return &Service{logger: logger, repo: repo}
}

// GetByID returns the user or models.ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail looks a user up by case-normalized email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(email))
}

// GetWithOrders returns the user with their order history, newest first.
func (s *Service) GetWithOrders(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.repo.GetWithOrders(ctx, id)
}

// List returns users matching the filters.
func (s *Service) List(ctx context.Context, filters Filters) ([]*models.User, error) {
	return s.repo.List(ctx, filters)
}

// Create registers a new user. Emails are stored lower-cased and must be
// unique.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	email := strings.ToLower(req.Email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && err != models.ErrNotFound {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}
	if existing != nil {
		return nil, models.ErrEmailExists
	}

	now := time.Now()
	user := &models.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))
	return user, nil
}

// Update applies the non-nil fields of req.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// Deactivate soft-deletes a user by clearing the active flag.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.IsActive = false
	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.logger.Info("user deactivated", zap.String("user_id", id.String()))
	return user, nil
}

// Delete removes a user permanently.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted", zap.String("user_id", id.String()))
	return nil
}

// Stats returns total/active/inactive user counts.
func (s *Service) Stats(ctx context.Context) (*models.UserStats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	active, err := s.repo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active users: %w", err)
	}

	return &models.UserStats{
		TotalUsers:    total,
		ActiveUsers:   active,
		InactiveUsers: total - active,
	}, nil
}
