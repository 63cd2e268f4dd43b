// internal/models/user.go
package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "FREE"
	TierMonthly SubscriptionTier = "MONTHLY"
	TierYearly  SubscriptionTier = "YEARLY"
)

type SubscriptionState string

const (
	SubscriptionInactive SubscriptionState = "INACTIVE"
	SubscriptionActive   SubscriptionState = "ACTIVE"
	SubscriptionExpired  SubscriptionState = "EXPIRED"
)

// User is an account, either an administrator or a subscriber.
type User struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"not null"`
	Name         string   `json:"name"`
	Role         UserRole `json:"role" gorm:"default:USER"`

	SubscriptionTier      SubscriptionTier  `json:"subscription_tier" gorm:"default:FREE"`
	SubscriptionStatus    SubscriptionState `json:"subscription_status" gorm:"default:INACTIVE"`
	SubscriptionStartDate *time.Time        `json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *time.Time        `json:"subscription_end_date,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the account carries the administrator role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// HasActiveSubscription reports whether the user currently holds a paid,
// unexpired plan.
func (u *User) HasActiveSubscription(now time.Time) bool {
	if u.SubscriptionStatus != SubscriptionActive || u.SubscriptionTier == TierFree {
		return false
	}
	return u.SubscriptionEndDate == nil || u.SubscriptionEndDate.After(now)
}
