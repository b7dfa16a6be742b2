package handler

import (
	"errors"
	"net/http"
	"strconv"

	"reverie/config"
	"reverie/internal/domain"
	"reverie/internal/middleware"
	"reverie/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TokenHandler struct {
	cfg    *config.Config
	tokens *service.TokenService
}

func NewTokenHandler(cfg *config.Config, tokens *service.TokenService) *TokenHandler {
	return &TokenHandler{cfg: cfg, tokens: tokens}
}

// GetBalance returns the current user's token balance.
func (h *TokenHandler) GetBalance(c *gin.Context) {
	userID := middleware.GetUserID(c)
	balance, err := h.tokens.GetBalance(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "balance lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token_balance": balance})
}

// GetTransactions returns the user's ledger history, most recent first.
func (h *TokenHandler) GetTransactions(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	rows, err := h.tokens.GetTransactionHistory(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": rows})
}

// ListPackages returns the static token package catalog with the price table
// matching the current mode.
func (h *TokenHandler) ListPackages(c *gin.Context) {
	type pkgView struct {
		ID           string  `json:"id"`
		Tokens       int64   `json:"tokens"`
		BonusPercent int64   `json:"bonus_percent"`
		TotalTokens  int64   `json:"total_tokens"`
		PriceUSD     float64 `json:"price_usd"`
	}
	out := make([]pkgView, 0, len(domain.TokenPackages))
	for _, p := range domain.TokenPackages {
		out = append(out, pkgView{
			ID:           p.ID,
			Tokens:       p.Tokens,
			BonusPercent: p.BonusPercent,
			TotalTokens:  p.TotalTokens(),
			PriceUSD:     p.Price(h.cfg.Payments.TestMode),
		})
	}
	c.JSON(http.StatusOK, gin.H{"packages": out})
}

// AdjustBalance credits or debits a user's balance out of band, recorded as
// an admin adjustment in the ledger.
func (h *TokenHandler) AdjustBalance(c *gin.Context) {
	userID, ok := parseUintParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req struct {
		Amount int64  `json:"amount" binding:"required"`
		Reason string `json:"reason" binding:"required,max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	meta := map[string]interface{}{"actor_id": middleware.GetUserID(c)}
	var balance int64
	var err error
	if req.Amount > 0 {
		balance, err = h.tokens.AddTokens(h.tokens.DB(), userID, req.Amount, domain.TokenTxAdminAdjustment, req.Reason, meta)
	} else {
		balance, err = h.tokens.DeductTokens(h.tokens.DB(), userID, -req.Amount, domain.TokenTxAdminAdjustment, req.Reason, meta)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInsufficientTokens):
			c.JSON(http.StatusConflict, gin.H{"error": "adjustment would overdraw balance"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		case errors.Is(err, service.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be non-zero"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "adjustment failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"token_balance": balance})
}

// ListPlans returns the subscription plan catalog.
func (h *TokenHandler) ListPlans(c *gin.Context) {
	type planView struct {
		ID           string  `json:"id"`
		BillingCycle string  `json:"billing_cycle"`
		Months       int     `json:"months"`
		TokenGrant   int64   `json:"token_grant"`
		PriceUSD     float64 `json:"price_usd"`
	}
	out := make([]planView, 0, len(domain.SubscriptionPlans))
	for _, p := range domain.SubscriptionPlans {
		out = append(out, planView{
			ID:           p.ID,
			BillingCycle: p.BillingCycle,
			Months:       p.Months,
			TokenGrant:   p.Grant(),
			PriceUSD:     p.Price(h.cfg.Payments.TestMode),
		})
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}
