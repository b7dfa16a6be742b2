package handler

import (
	"errors"
	"net/http"

	"reverie/config"
	"reverie/internal/domain"
	"reverie/internal/middleware"
	"reverie/internal/service"
	"reverie/pkg/payment"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type PaymentHandler struct {
	cfg          *config.Config
	coinremitter *payment.Coinremitter
	nowpayments  *payment.NOWPayments
	subSvc       *service.SubscriptionService
}

func NewPaymentHandler(cfg *config.Config, cr *payment.Coinremitter, np *payment.NOWPayments, subSvc *service.SubscriptionService) *PaymentHandler {
	return &PaymentHandler{cfg: cfg, coinremitter: cr, nowpayments: np, subSvc: subSvc}
}

func (h *PaymentHandler) webhookURL(provider string) string {
	return h.cfg.Payments.AppBaseURL + "/api/v1/webhooks/" + provider
}

// InitiateSubscription creates a provider invoice for a subscription plan and
// returns the pay URL. Activation happens later, on the payment webhook.
func (h *PaymentHandler) InitiateSubscription(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		BillingCycle string `json:"billing_cycle" binding:"required,oneof=monthly quarterly annually"`
		Provider     string `json:"provider" binding:"required,oneof=coinremitter nowpayments"`
		Email        string `json:"email"`
		Recurring    bool   `json:"recurring"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	plan, ok := domain.PlanByCycle(req.BillingCycle)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown billing cycle"})
		return
	}
	price := plan.Price(h.cfg.Payments.TestMode)
	corr := payment.Correlation{UserID: userID, BillingCycle: req.BillingCycle}

	switch req.Provider {
	case domain.ProviderCoinremitter:
		inv, err := h.coinremitter.CreateInvoice(c.Request.Context(), payment.CoinremitterInvoiceRequest{
			Amount:      price,
			Currency:    "USD",
			Description: "Subscription " + plan.ID,
			Email:       req.Email,
			NotifyURL:   h.webhookURL(domain.ProviderCoinremitter),
			ExpireTime:  60,
			Correlation: corr,
		})
		if err != nil {
			log.Errorf("[Payment] coinremitter subscription invoice: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "invoice creation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice_id": inv.ID, "pay_url": inv.PayURL, "status": inv.Status})
	case domain.ProviderNOWPayments:
		if req.Recurring {
			h.initiateRecurring(c, userID, plan, price, req.Email)
			return
		}
		inv, err := h.nowpayments.CreatePayment(c.Request.Context(), payment.NOWPaymentRequest{
			PriceAmount:   price,
			PriceCurrency: "usd",
			Description:   "Subscription " + plan.ID,
			IPNCallback:   h.webhookURL(domain.ProviderNOWPayments),
			Correlation:   corr,
		})
		if err != nil {
			log.Errorf("[Payment] nowpayments subscription payment: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment creation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"payment_id": inv.ID, "pay_url": inv.PayURL, "status": inv.Status})
	}
}

// initiateRecurring sets up a NOWPayments plan + subscription; the provider
// emails the payment link and the first IPN activates locally.
func (h *PaymentHandler) initiateRecurring(c *gin.Context, userID uint, plan domain.SubscriptionPlan, price float64, email string) {
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email required for recurring subscriptions"})
		return
	}
	ctx := c.Request.Context()
	planID, err := h.nowpayments.CreateSubscriptionPlan(ctx, "reverie "+plan.ID, plan.Months*30, price, "usd")
	if err != nil {
		log.Errorf("[Payment] nowpayments plan: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "plan creation failed"})
		return
	}
	subID, err := h.nowpayments.CreateSubscription(ctx, planID, email)
	if err != nil {
		log.Errorf("[Payment] nowpayments subscription: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "subscription creation failed"})
		return
	}
	if err := h.subSvc.AttachRemoteSubscription(userID, subID); err != nil {
		log.Warnf("[Payment] attach remote subscription %s: %v", subID, err)
	}
	c.JSON(http.StatusOK, gin.H{
		"subscription_id": subID,
		"message":         "Payment instructions were emailed by the provider.",
	})
}

// InitiateTokenPurchase creates a provider invoice for a one-time token package.
func (h *PaymentHandler) InitiateTokenPurchase(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		PackageID string `json:"package_id" binding:"required"`
		Provider  string `json:"provider" binding:"required,oneof=coinremitter nowpayments"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pkg, ok := domain.TokenPackageByID(req.PackageID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown token package"})
		return
	}
	price := pkg.Price(h.cfg.Payments.TestMode)
	corr := payment.Correlation{UserID: userID, PackageID: pkg.ID}

	switch req.Provider {
	case domain.ProviderCoinremitter:
		inv, err := h.coinremitter.CreateInvoice(c.Request.Context(), payment.CoinremitterInvoiceRequest{
			Amount:      price,
			Currency:    "USD",
			Description: "Token package " + pkg.ID,
			Email:       req.Email,
			NotifyURL:   h.webhookURL(domain.ProviderCoinremitter),
			ExpireTime:  60,
			Correlation: corr,
		})
		if err != nil {
			log.Errorf("[Payment] coinremitter token invoice: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "invoice creation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"invoice_id": inv.ID, "pay_url": inv.PayURL, "status": inv.Status})
	case domain.ProviderNOWPayments:
		inv, err := h.nowpayments.CreatePayment(c.Request.Context(), payment.NOWPaymentRequest{
			PriceAmount:   price,
			PriceCurrency: "usd",
			Description:   "Token package " + pkg.ID,
			IPNCallback:   h.webhookURL(domain.ProviderNOWPayments),
			Correlation:   corr,
		})
		if err != nil {
			log.Errorf("[Payment] nowpayments token payment: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment creation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"payment_id": inv.ID, "pay_url": inv.PayURL, "status": inv.Status})
	}
}

type SubscriptionHandler struct {
	subSvc *service.SubscriptionService
}

func NewSubscriptionHandler(subSvc *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subSvc: subSvc}
}

// GetMine returns the current user's subscription.
func (h *SubscriptionHandler) GetMine(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sub, err := h.subSvc.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, service.ErrNoSubscription) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no subscription"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscription lookup failed"})
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Cancel cancels the user's subscription; the remote provider cancel is
// best-effort, local state always transitions.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID := middleware.GetUserID(c)
	sub, err := h.subSvc.CancelSubscription(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoSubscription) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no subscription"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cancellation failed"})
		return
	}
	c.JSON(http.StatusOK, sub)
}
