package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription holds one row per user; re-activation refreshes the period in place.
type Subscription struct {
	ID                        uint           `gorm:"primaryKey" json:"id"`
	UserID                    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	PlanID                    string         `gorm:"size:64;not null" json:"plan_id"`
	BillingCycle              string         `gorm:"size:20;not null" json:"billing_cycle"`
	Status                    string         `gorm:"size:20;not null;index" json:"status"` // active | cancelled | expired
	CurrentPeriodStart        time.Time      `json:"current_period_start"`
	CurrentPeriodEnd          time.Time      `gorm:"index" json:"current_period_end"`
	ExternalOrderID           string         `gorm:"size:255;index" json:"external_order_id"`
	NowpaymentsSubscriptionID string         `gorm:"size:255" json:"nowpayments_subscription_id"`
	CancelledAt               *time.Time     `json:"cancelled_at"`
	CreatedAt                 time.Time      `json:"created_at"`
	UpdatedAt                 time.Time      `json:"updated_at"`
	DeletedAt                 gorm.DeletedAt `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
