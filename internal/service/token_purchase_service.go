package service

import (
	"errors"
	"fmt"

	"reverie/internal/domain"
	"reverie/internal/models"
	"reverie/internal/repository"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrUnknownPackage = errors.New("unknown token package")

type TokenPurchaseService struct {
	db      *gorm.DB
	tokens  *TokenService
	finRepo *repository.FinancialRepository
}

func NewTokenPurchaseService(db *gorm.DB, tokens *TokenService, finRepo *repository.FinancialRepository) *TokenPurchaseService {
	return &TokenPurchaseService{db: db, tokens: tokens, finRepo: finRepo}
}

// PurchaseResult reports what a reconciliation run did. Duplicate is true
// when the invoice was already recorded and the call was a no-op.
type PurchaseResult struct {
	CreditedTokens int64
	NewBalance     int64
	Duplicate      bool
}

// ProcessTokenPurchase idempotently credits tokens for a completed one-time
// purchase and records the matching financial transaction. Payment webhooks
// may be delivered more than once; the invoice id acts as the replay guard,
// and a duplicate delivery is treated as success without re-mutation.
func (s *TokenPurchaseService) ProcessTokenPurchase(userID uint, packageID, invoiceID string, amount float64, provider string) (*PurchaseResult, error) {
	pkg, ok := domain.TokenPackageByID(packageID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPackage, packageID)
	}
	total := pkg.TotalTokens()

	var result PurchaseResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		exists, err := s.finRepo.ExistsByExternalID(tx, invoiceID)
		if err != nil {
			return err
		}
		if exists {
			result.Duplicate = true
			return nil
		}

		desc := fmt.Sprintf("Token purchase %s (%d tokens)", packageID, total)
		newBalance, err := s.tokens.AddTokens(tx, userID, total, domain.TokenTxPurchase, desc, map[string]interface{}{
			"invoice_id": invoiceID,
			"package_id": packageID,
		})
		if err != nil {
			return err
		}

		cat, err := s.finRepo.EnsureCategory(tx, domain.CategoryTokenPurchaseIncome, domain.FinancialIncome)
		if err != nil {
			return err
		}
		extID := invoiceID
		ft := models.FinancialTransaction{
			CategoryID:  cat.ID,
			Type:        domain.FinancialIncome,
			Amount:      amount,
			Currency:    "USD",
			Description: desc,
			UserID:      &userID,
			ExternalID:  &extID,
			Provider:    provider,
		}
		if err := s.finRepo.CreateTx(tx, &ft); err != nil {
			return err
		}
		result.CreditedTokens = total
		result.NewBalance = newBalance
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Duplicate {
		log.WithFields(log.Fields{"user_id": userID, "invoice": invoiceID}).
			Info("[TokenPurchase] duplicate delivery, no-op")
	} else {
		log.WithFields(log.Fields{"user_id": userID, "invoice": invoiceID, "tokens": result.CreditedTokens}).
			Info("[TokenPurchase] reconciled")
	}
	return &result, nil
}
