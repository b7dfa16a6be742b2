package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reverie/internal/domain"
	"reverie/internal/models"
	"reverie/internal/repository"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrUnknownPlan    = errors.New("unknown billing cycle")
	ErrNoSubscription = errors.New("no subscription for user")
)

// RemoteCanceller cancels a provider-side recurring subscription.
type RemoteCanceller interface {
	CancelSubscription(ctx context.Context, subscriptionID string) error
}

type SubscriptionService struct {
	db        *gorm.DB
	tokens    *TokenService
	finRepo   *repository.FinancialRepository
	canceller RemoteCanceller
}

func NewSubscriptionService(db *gorm.DB, tokens *TokenService, finRepo *repository.FinancialRepository, canceller RemoteCanceller) *SubscriptionService {
	return &SubscriptionService{db: db, tokens: tokens, finRepo: finRepo, canceller: canceller}
}

// ActivateSubscription upserts the user's subscription to active with a
// refreshed period, credits the token grant and records the income
// transaction, all in one database transaction.
//
// Invoked once per successful payment webhook. There is no internal guard
// against duplicate invocation for the same invoice; the webhook layer checks
// the invoice id against recorded financial transactions before calling here.
func (s *SubscriptionService) ActivateSubscription(userID uint, billingCycle, invoiceID string, amount float64, provider string, grantOverride int64) (*models.Subscription, error) {
	plan, ok := domain.PlanByCycle(billingCycle)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, billingCycle)
	}
	grant := grantOverride
	if grant <= 0 {
		grant = plan.Grant()
	}
	periodStart := time.Now()
	periodEnd := periodStart.AddDate(0, plan.Months, 0)

	var sub models.Subscription
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&sub).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		sub.UserID = userID
		sub.PlanID = plan.ID
		sub.BillingCycle = billingCycle
		sub.Status = domain.SubscriptionActive
		sub.CurrentPeriodStart = periodStart
		sub.CurrentPeriodEnd = periodEnd
		sub.ExternalOrderID = invoiceID
		sub.CancelledAt = nil
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}

		desc := fmt.Sprintf("Subscription grant (%s)", billingCycle)
		if _, err := s.tokens.AddTokens(tx, userID, grant, domain.TokenTxSubscriptionGrant, desc, map[string]interface{}{
			"invoice_id":    invoiceID,
			"billing_cycle": billingCycle,
		}); err != nil {
			return err
		}

		cat, err := s.finRepo.EnsureCategory(tx, domain.CategorySubscriptionIncome, domain.FinancialIncome)
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
			PeriodStart: &periodStart,
			PeriodEnd:   &periodEnd,
		}
		return s.finRepo.CreateTx(tx, &ft)
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"user_id": userID, "cycle": billingCycle, "invoice": invoiceID}).
		Info("[Subscription] activated")
	return &sub, nil
}

// AttachRemoteSubscription stores the provider-side subscription id so
// cancellation can propagate upstream.
func (s *SubscriptionService) AttachRemoteSubscription(userID uint, remoteID string) error {
	return s.db.Model(&models.Subscription{}).Where("user_id = ?", userID).
		Update("nowpayments_subscription_id", remoteID).Error
}

func (s *SubscriptionService) GetByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSubscription
		}
		return nil, err
	}
	return &sub, nil
}

// CancelSubscription cancels upstream best-effort, then transitions the local
// row to cancelled. Local state is the source of truth: a remote failure is
// logged, never propagated.
func (s *SubscriptionService) CancelSubscription(ctx context.Context, userID uint) (*models.Subscription, error) {
	sub, err := s.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if sub.NowpaymentsSubscriptionID != "" && s.canceller != nil {
		if err := s.canceller.CancelSubscription(ctx, sub.NowpaymentsSubscriptionID); err != nil {
			log.WithFields(log.Fields{"user_id": userID, "remote_id": sub.NowpaymentsSubscriptionID}).
				Warnf("[Subscription] remote cancel failed: %v", err)
		}
	}
	now := time.Now()
	sub.Status = domain.SubscriptionCancelled
	sub.CancelledAt = &now
	if err := s.db.Save(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// CheckAndExpireSubscriptions transitions every active subscription whose
// period has lapsed to expired and returns the count affected. Idempotent.
func (s *SubscriptionService) CheckAndExpireSubscriptions() (int64, error) {
	res := s.db.Model(&models.Subscription{}).
		Where("status = ? AND current_period_end < ?", domain.SubscriptionActive, time.Now()).
		Update("status", domain.SubscriptionExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.Infof("[Subscription] expired %d lapsed subscriptions", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
