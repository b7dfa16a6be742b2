package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"reverie/config"
	"reverie/internal/domain"
	"reverie/internal/repository"
	"reverie/internal/service"
	"reverie/pkg/payment"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// WebhookHandler receives provider payment callbacks and routes completed
// payments into subscription activation or token purchase reconciliation.
//
// Provider retries on non-2xx, so the rule is: ack (200) everything we will
// never be able to process (bad correlation, unknown status), return 5xx only
// for transient internal failures worth retrying.
type WebhookHandler struct {
	cfg          *config.Config
	coinremitter *payment.Coinremitter
	nowpayments  *payment.NOWPayments
	subSvc       *service.SubscriptionService
	purchaseSvc  *service.TokenPurchaseService
	finRepo      *repository.FinancialRepository
}

func NewWebhookHandler(cfg *config.Config, cr *payment.Coinremitter, np *payment.NOWPayments,
	subSvc *service.SubscriptionService, purchaseSvc *service.TokenPurchaseService,
	finRepo *repository.FinancialRepository) *WebhookHandler {
	return &WebhookHandler{
		cfg:          cfg,
		coinremitter: cr,
		nowpayments:  np,
		subSvc:       subSvc,
		purchaseSvc:  purchaseSvc,
		finRepo:      finRepo,
	}
}

// Coinremitter handles the Coinremitter IPN callback. Correlation rides in
// custom_data1/custom_data2; the fiat amount is resolved from the catalog
// because the payload reports the paid amount in crypto.
func (h *WebhookHandler) Coinremitter(c *gin.Context) {
	var payload payment.CoinremitterWebhook
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Warnf("[Webhook] coinremitter: unreadable payload: %v", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	corr := h.coinremitter.ParseWebhookCorrelation(&payload)
	if corr == nil {
		log.Warnf("[Webhook] coinremitter: invoice %s without correlation data", payload.InvoiceID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	switch {
	case h.coinremitter.IsInvoiceComplete(payload.Status):
		var amount float64
		if corr.IsSubscription() {
			if plan, ok := domain.PlanByCycle(corr.BillingCycle); ok {
				amount = plan.Price(h.cfg.Payments.TestMode)
			}
		} else {
			if pkg, ok := domain.TokenPackageByID(corr.PackageID); ok {
				amount = pkg.Price(h.cfg.Payments.TestMode)
			}
		}
		h.settle(c, corr, payload.InvoiceID, amount, domain.ProviderCoinremitter)
	case h.coinremitter.IsInvoicePending(payload.Status):
		log.Infof("[Webhook] coinremitter: invoice %s pending (%s)", payload.InvoiceID, payload.Status)
		c.JSON(http.StatusOK, gin.H{"received": true})
	case h.coinremitter.IsInvoiceFailed(payload.Status):
		log.Infof("[Webhook] coinremitter: invoice %s failed (%s)", payload.InvoiceID, payload.Status)
		c.JSON(http.StatusOK, gin.H{"received": true})
	default:
		log.Warnf("[Webhook] coinremitter: invoice %s unknown status %q", payload.InvoiceID, payload.Status)
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// NOWPayments handles the NOWPayments IPN callback. The x-nowpayments-sig
// header is verified before the payload is trusted.
func (h *WebhookHandler) NOWPayments(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	sig := c.GetHeader("x-nowpayments-sig")
	if !h.nowpayments.VerifyIPNSignature(body, sig) {
		log.Warn("[Webhook] nowpayments: signature verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	var payload payment.NOWPaymentsWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Warnf("[Webhook] nowpayments: unreadable payload: %v", err)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	corr := h.nowpayments.ParseWebhookCorrelation(&payload)
	if corr == nil {
		log.Warnf("[Webhook] nowpayments: payment %s with foreign order id %q", payload.PaymentID, payload.OrderID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	switch {
	case h.nowpayments.IsPaymentComplete(payload.PaymentStatus):
		h.settle(c, corr, payload.PaymentID.String(), payload.PriceAmount, domain.ProviderNOWPayments)
	case h.nowpayments.IsPaymentPending(payload.PaymentStatus):
		log.Infof("[Webhook] nowpayments: payment %s pending (%s)", payload.PaymentID, payload.PaymentStatus)
		c.JSON(http.StatusOK, gin.H{"received": true})
	case h.nowpayments.IsPaymentFailed(payload.PaymentStatus):
		log.Infof("[Webhook] nowpayments: payment %s failed (%s)", payload.PaymentID, payload.PaymentStatus)
		c.JSON(http.StatusOK, gin.H{"received": true})
	default:
		log.Warnf("[Webhook] nowpayments: payment %s unknown status %q", payload.PaymentID, payload.PaymentStatus)
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// settle routes a completed payment to the right service. Subscription
// activation has no internal replay guard, so the invoice id is checked
// against recorded financial transactions first; token purchases carry their
// own guard inside the service transaction.
func (h *WebhookHandler) settle(c *gin.Context, corr *payment.Correlation, invoiceID string, amount float64, provider string) {
	if corr.IsSubscription() {
		seen, err := h.finRepo.HasExternalID(invoiceID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
			return
		}
		if seen {
			log.WithFields(log.Fields{"invoice": invoiceID, "provider": provider}).
				Info("[Webhook] duplicate subscription delivery, no-op")
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}
		if _, err := h.subSvc.ActivateSubscription(corr.UserID, corr.BillingCycle, invoiceID, amount, provider, 0); err != nil {
			log.Errorf("[Webhook] %s: activate subscription invoice=%s: %v", provider, invoiceID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "activation failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	res, err := h.purchaseSvc.ProcessTokenPurchase(corr.UserID, corr.PackageID, invoiceID, amount, provider)
	if err != nil {
		log.Errorf("[Webhook] %s: token purchase invoice=%s: %v", provider, invoiceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconciliation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": res.Duplicate})
}
