package models

import "time"

// FinancialCategory rows are created lazily by name the first time a
// transaction references them.
type FinancialCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Type      string    `gorm:"size:20;not null" json:"type"` // income | expense
	CreatedAt time.Time `json:"created_at"`
}

func (FinancialCategory) TableName() string {
	return "financial_categories"
}

// FinancialTransaction is an immutable income/expense ledger row. ExternalID
// (the provider invoice/order id) is the idempotency key for reconciliation:
// a given external id is recorded at most once.
type FinancialTransaction struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CategoryID  uint       `gorm:"not null;index" json:"category_id"`
	Type        string     `gorm:"size:20;not null;index" json:"type"` // income | expense
	Amount      float64    `gorm:"not null" json:"amount"`
	Currency    string     `gorm:"size:8;not null;default:'USD'" json:"currency"`
	Description string     `gorm:"size:255" json:"description"`
	UserID      *uint      `gorm:"index" json:"user_id"`
	AffiliateID *uint      `gorm:"index" json:"affiliate_id"`
	ExternalID  *string    `gorm:"size:255;uniqueIndex" json:"external_id"`
	Provider    string     `gorm:"size:32" json:"provider"`
	Metadata    string     `gorm:"type:text" json:"metadata"` // JSON
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
	CreatedAt   time.Time  `json:"created_at"`

	Category FinancialCategory `gorm:"foreignKey:CategoryID" json:"-"`
}

func (FinancialTransaction) TableName() string {
	return "financial_transactions"
}
