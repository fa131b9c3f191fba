package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/arbio/commerce-platform/internal/orders/lifecycle"
	"github.com/arbio/commerce-platform/internal/users"
	"github.com/arbio/commerce-platform/pkg/metrics"
	"github.com/arbio/commerce-platform/pkg/models"
)

// CreateOrderRequest carries the fields accepted when placing an order.
type CreateOrderRequest struct {
	UserID      uuid.UUID       `json:"user_id" binding:"required"`
	TotalAmount decimal.Decimal `json:"total_amount" binding:"required"`
	Notes       string          `json:"notes"`
}

// UpdateOrderRequest carries the optional fields accepted on update. A status
// change goes through the lifecycle state machine like any other transition.
type UpdateOrderRequest struct {
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	Status      *string          `json:"status,omitempty"`
}

// OrderService defines order operations. All mutation of order status is
// gated by the lifecycle package.
type OrderService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.OrderSummary, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderSummary, error)
	List(ctx context.Context, filters Filters) ([]models.OrderSummary, error)
	Create(ctx context.Context, req CreateOrderRequest) (*models.OrderSummary, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*models.OrderSummary, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.OrderSummary, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*models.OrderStats, error)
	UserStats(ctx context.Context, userID uuid.UUID) (*models.UserOrderStats, error)
}

// Service implements OrderService.
type Service struct {
	logger   *zap.Logger
	repo     Repository
	userRepo users.Repository
}

// NewService creates a new OrderService.
func NewService(logger *zap.Logger, repo Repository, userRepo users.Repository) *Service {
	return &Service{logger: logger, repo: repo, userRepo: userRepo}
}

// GetByID returns the order summary or models.ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.OrderSummary, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := order.Summary()
	return &summary, nil
}

// ListByUser returns a user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderSummary, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summarize(orders), nil
}

// List returns orders matching the filters.
func (s *Service) List(ctx context.Context, filters Filters) ([]models.OrderSummary, error) {
	orders, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	return summarize(orders), nil
}

// Create places a new order for an existing, active user. The amount must be
// positive and is stored with two-decimal precision.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*models.OrderSummary, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrUserInactive
	}
	if req.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, models.ErrInvalidAmount
	}

	now := time.Now()
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      req.UserID,
		TotalAmount: req.TotalAmount.Round(2),
		Status:      models.OrderStatusPending,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.String("amount", order.TotalAmount.String()))

	order.User = user
	summary := order.Summary()
	return &summary, nil
}

// Update applies the non-nil fields of req, validating amount positivity and
// the status transition.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*models.OrderSummary, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.TotalAmount != nil {
		if req.TotalAmount.LessThanOrEqual(decimal.Zero) {
			return nil, models.ErrInvalidAmount
		}
		order.TotalAmount = req.TotalAmount.Round(2)
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}
	if req.Status != nil && *req.Status != order.Status {
		if err := lifecycle.DecideTransition(order.Status, *req.Status); err != nil {
			return nil, err
		}
		order.Status = *req.Status
	}
	order.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	summary := order.Summary()
	return &summary, nil
}

// UpdateStatus moves an order to a new status if the transition is legal.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := lifecycle.DecideTransition(order.Status, status); err != nil {
		metrics.OrderRejections.Inc()
		return err
	}

	metrics.OrderTransitions.WithLabelValues(order.Status, status).Inc()
	order.Status = status
	order.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, order); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("order status updated",
		zap.String("order_id", id.String()),
		zap.String("status", status))
	return nil
}

// Cancel cancels a pending or processing order. A non-empty reason is
// appended to the order notes.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.OrderSummary, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.DecideCancellation(order.Status); err != nil {
		return nil, err
	}

	order.Status = models.OrderStatusCancelled
	if reason != "" {
		order.Notes = lifecycle.AppendCancellationReason(order.Notes, reason)
	}
	order.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	s.logger.Info("order cancelled",
		zap.String("order_id", id.String()),
		zap.String("reason", reason))
	summary := order.Summary()
	return &summary, nil
}

// Delete removes an order that never entered fulfilment.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := lifecycle.DecideDeletion(order.Status); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.logger.Info("order deleted", zap.String("order_id", id.String()))
	return nil
}

// Stats returns the service-wide order aggregate. Revenue counts delivered
// and shipped orders; the average covers all orders.
func (s *Service) Stats(ctx context.Context) (*models.OrderStats, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	revenue, err := s.repo.SumAmountByStatuses(ctx,
		[]string{models.OrderStatusDelivered, models.OrderStatusShipped})
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	average, err := s.repo.AverageAmount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to average order value: %w", err)
	}

	distribution := make(map[string]int64, len(models.OrderStatuses))
	var total int64
	for _, status := range models.OrderStatuses {
		distribution[status] = byStatus[status]
		total += byStatus[status]
	}

	return &models.OrderStats{
		TotalOrders:       total,
		TotalRevenue:      revenue.Round(2),
		AverageOrderValue: average.Round(2),
		OrdersByStatus:    distribution,
	}, nil
}

// UserStats returns the per-user aggregate with the five most recent orders.
func (s *Service) UserStats(ctx context.Context, userID uuid.UUID) (*models.UserOrderStats, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	userOrders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	totalSpent := decimal.Zero
	distribution := make(map[string]int64, len(models.OrderStatuses))
	for _, status := range models.OrderStatuses {
		distribution[status] = 0
	}
	for _, order := range userOrders {
		totalSpent = totalSpent.Add(order.TotalAmount)
		distribution[order.Status]++
	}

	average := decimal.Zero
	if len(userOrders) > 0 {
		average = totalSpent.Div(decimal.NewFromInt(int64(len(userOrders))))
	}

	recent := userOrders
	if len(recent) > 5 {
		recent = recent[:5]
	}

	return &models.UserOrderStats{
		TotalOrders:       int64(len(userOrders)),
		TotalSpent:        totalSpent.Round(2),
		AverageOrderValue: average.Round(2),
		OrdersByStatus:    distribution,
		RecentOrders:      summarize(recent),
	}, nil
}

func summarize(orders []*models.Order) []models.OrderSummary {
	summaries := make([]models.OrderSummary, 0, len(orders))
	for _, order := range orders {
		summaries = append(summaries, order.Summary())
	}
	return summaries
}
