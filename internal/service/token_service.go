package service

import (
	"encoding/json"
	"errors"

	"reverie/internal/models"

	"gorm.io/gorm"
)

var (
	ErrInsufficientTokens = errors.New("insufficient token balance")
	ErrInvalidAmount      = errors.New("amount must be positive")
)

// TokenService is the only writer of users.token_balance. Every mutation
// appends exactly one token_transactions row whose balance_after matches the
// post-mutation balance.
//
// Methods take an explicit *gorm.DB handle so callers decide the unit of work:
// pass the service's DB() for a standalone operation, or the tx inside
// db.Transaction to compose with other writes atomically. The balance update
// and ledger append always run in one transaction of their own (a savepoint
// when the handle is already transactional), so a failed append rolls the
// mutation back.
type TokenService struct {
	db *gorm.DB
}

func NewTokenService(db *gorm.DB) *TokenService {
	return &TokenService{db: db}
}

// DB returns the root handle for standalone calls.
func (s *TokenService) DB() *gorm.DB {
	return s.db
}

// AddTokens credits amount to the user's balance and appends a ledger row.
// Returns the new balance.
func (s *TokenService) AddTokens(tx *gorm.DB, userID uint, amount int64, txType, description string, metadata map[string]interface{}) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var balance int64
	err := tx.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("token_balance", gorm.Expr("token_balance + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		var err error
		balance, err = s.appendEntry(tx, userID, amount, txType, description, metadata)
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// DeductTokens debits amount from the user's balance, failing closed with
// ErrInsufficientTokens when the balance would go negative. The debit is a
// guarded conditional update, so concurrent deductions cannot overdraw.
func (s *TokenService) DeductTokens(tx *gorm.DB, userID uint, amount int64, txType, description string, metadata map[string]interface{}) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var balance int64
	err := tx.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND token_balance >= ?", userID, amount).
			Update("token_balance", gorm.Expr("token_balance - ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return ErrInsufficientTokens
		}
		var err error
		balance, err = s.appendEntry(tx, userID, -amount, txType, description, metadata)
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *TokenService) appendEntry(tx *gorm.DB, userID uint, amount int64, txType, description string, metadata map[string]interface{}) (int64, error) {
	var balance int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).
		Select("token_balance").Scan(&balance).Error; err != nil {
		return 0, err
	}
	var metaJSON string
	if metadata != nil {
		b, _ := json.Marshal(metadata)
		metaJSON = string(b)
	}
	entry := models.TokenTransaction{
		UserID:          userID,
		Amount:          amount,
		TransactionType: txType,
		Description:     description,
		BalanceAfter:    balance,
		Metadata:        metaJSON,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *TokenService) GetBalance(userID uint) (int64, error) {
	var u models.User
	if err := s.db.Select("token_balance").First(&u, userID).Error; err != nil {
		return 0, err
	}
	return u.TokenBalance, nil
}

// HasEnoughTokens is the non-throwing variant of the deduction precondition.
func (s *TokenService) HasEnoughTokens(userID uint, amount int64) (bool, error) {
	balance, err := s.GetBalance(userID)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

// GetTransactionHistory returns the user's ledger entries, most recent first.
func (s *TokenService) GetTransactionHistory(userID uint, limit int) ([]models.TokenTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows []models.TokenTransaction
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(limit).
		Find(&rows).Error
	return rows, err
}
