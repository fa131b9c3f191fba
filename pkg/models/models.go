package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses. The set is closed: anything else is rejected with
// ErrInvalidStatus rather than coerced.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// OrderStatuses lists every valid order status in lifecycle order.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ValidOrderStatus reports whether s is one of the five known statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// User represents a customer account. Email uniqueness is enforced by the
// database; the application normalizes emails to lower case before storing.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Email     string    `json:"email" gorm:"uniqueIndex" validate:"required,email,max=254"`
	FirstName string    `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string    `json:"last_name" validate:"required,min=2,max=50"`
	Phone     string    `json:"phone,omitempty" validate:"omitempty,max=30"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Orders []Order `json:"orders,omitempty" gorm:"foreignKey:UserID"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Order represents a customer order. TotalAmount is a fixed two-decimal
// monetary value; status changes go through the lifecycle package.
type Order struct {
	ID          uuid.UUID       `json:"id" gorm:"primaryKey;type:uuid"`
	UserID      uuid.UUID       `json:"user_id" gorm:"type:uuid;index" validate:"required,uuid"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2)"`
	Status      string          `json:"status" gorm:"index;default:pending" validate:"required,orderstatus"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time       `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// OrderSummary is the order shape returned to API consumers: the order plus
// the owning user's email instead of the full relation.
type OrderSummary struct {
	ID          uuid.UUID       `json:"id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UserEmail   string          `json:"user_email"`
}

// Summary converts an order to its summary shape. When the user relation was
// not loaded the email falls back to "Unknown", matching the peer contract.
func (o *Order) Summary() OrderSummary {
	email := "Unknown"
	if o.User != nil {
		email = o.User.Email
	}
	return OrderSummary{
		ID:          o.ID,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		Notes:       o.Notes,
		CreatedAt:   o.CreatedAt,
		UserEmail:   email,
	}
}

// UserStats is the user-count breakdown reported by the users stats endpoint.
type UserStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	ActiveUsers   int64 `json:"activeUsers"`
	InactiveUsers int64 `json:"inactiveUsers"`
}

// OrderStats is the order aggregate reported by the orders stats endpoint.
// TotalRevenue covers delivered and shipped orders only; AverageOrderValue
// covers all orders.
type OrderStats struct {
	TotalOrders       int64            `json:"totalOrders"`
	TotalRevenue      decimal.Decimal  `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal  `json:"averageOrderValue"`
	OrdersByStatus    map[string]int64 `json:"ordersByStatus"`
}

// UserOrderStats is the per-user aggregate with the user's five most recent
// orders attached.
type UserOrderStats struct {
	TotalOrders       int64            `json:"totalOrders"`
	TotalSpent        decimal.Decimal  `json:"totalSpent"`
	AverageOrderValue decimal.Decimal  `json:"averageOrderValue"`
	OrdersByStatus    map[string]int64 `json:"ordersByStatus"`
	RecentOrders      []OrderSummary   `json:"recentOrders"`
}
