package models

import "time"

// Order statuses.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// OrderStatuses lists every valid order status, used by the admin API to
// validate transitions.
var OrderStatuses = []string{
	OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled,
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Order is a completed order-collection flow. ExternalUserID is denormalized
// from the owning chat so order listings don't need a join. Reference is the
// customer-facing identifier quoted in confirmations.
type Order struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	Reference       string `gorm:"size:36;not null;uniqueIndex"`
	ChatID          uint   `gorm:"not null;index"`
	ExternalUserID  string `gorm:"size:255;not null;index"`
	ProductName     string `gorm:"size:255;not null"`
	CustomerName    string `gorm:"size:255"`
	DeliveryAddress string `gorm:"type:text"`
	PaymentMethod   string `gorm:"size:100"`
	Status          string `gorm:"size:50;default:pending;index"` // pending, confirmed, shipped, delivered, cancelled
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
