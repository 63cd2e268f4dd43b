// internal/models/subscription.go
package models

import "time"

type OrderStatus string

const (
	OrderPending  OrderStatus = "PENDING"
	OrderApproved OrderStatus = "APPROVED"
	OrderRejected OrderStatus = "REJECTED"
)

// SubscriptionOrder is a manual bank-transfer upgrade request. Orders start
// PENDING and are resolved exactly once by an administrator.
type SubscriptionOrder struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	UserID           uint             `json:"user_id" gorm:"index;not null"`
	User             *User            `json:"user,omitempty"`
	PlanType         SubscriptionTier `json:"plan_type" gorm:"not null"` // MONTHLY or YEARLY
	Amount           float64          `json:"amount"`
	PaymentReference string           `json:"payment_reference,omitempty"`
	OrderStatus      OrderStatus      `json:"order_status" gorm:"default:PENDING"`
	ApprovedByID     *uint            `json:"approved_by_id,omitempty"`
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`
	RejectedReason   string           `json:"rejected_reason,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (SubscriptionOrder) TableName() string { return "subscription_orders" }
