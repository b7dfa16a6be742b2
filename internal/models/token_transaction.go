package models

import "time"

// TokenTransaction is the append-only ledger entry written once per balance
// mutation. Rows are never updated or deleted; balance_after is a denormalized
// snapshot for audit and history display.
type TokenTransaction struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	Amount          int64     `gorm:"not null" json:"amount"` // positive = credit, negative = debit
	TransactionType string    `gorm:"size:32;not null;index" json:"transaction_type"`
	Description     string    `gorm:"size:255" json:"description"`
	BalanceAfter    int64     `gorm:"not null" json:"balance_after"`
	Metadata        string    `gorm:"type:text" json:"metadata"` // JSON
	CreatedAt       time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (TokenTransaction) TableName() string {
	return "token_transactions"
}
