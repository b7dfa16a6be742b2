package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"reverie/config"
	"reverie/internal/models"
	"reverie/internal/repository"
	"reverie/internal/service"
	"reverie/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const ipnTestSecret = "ipn-test-secret"

type webhookFixture struct {
	db     *gorm.DB
	router *gin.Engine
	tokens *service.TokenService
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.TokenTransaction{},
		&models.Subscription{},
		&models.FinancialCategory{},
		&models.FinancialTransaction{},
	))

	finRepo := repository.NewFinancialRepository(db)
	tokens := service.NewTokenService(db)
	subSvc := service.NewSubscriptionService(db, tokens, finRepo, nil)
	purchaseSvc := service.NewTokenPurchaseService(db, tokens, finRepo)

	cfg := &config.Config{}
	cr := payment.NewCoinremitter("", "", "", "")
	np := payment.NewNOWPayments("", "", ipnTestSecret, "", "")
	h := NewWebhookHandler(cfg, cr, np, subSvc, purchaseSvc, finRepo)

	r := gin.New()
	r.POST("/webhooks/nowpayments", h.NOWPayments)
	return &webhookFixture{db: db, router: r, tokens: tokens}
}

// deliver posts the payload signed the way the provider signs it: HMAC-SHA512
// over the JSON with sorted keys.
func (f *webhookFixture) deliver(t *testing.T, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(payload))
	body := bytes.TrimRight(buf.Bytes(), "\n")

	mac := hmac.New(sha512.New, []byte(ipnTestSecret))
	mac.Write(body)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/nowpayments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-nowpayments-sig", hex.EncodeToString(mac.Sum(nil)))
	f.router.ServeHTTP(w, req)
	return w
}

func (f *webhookFixture) seedUser(t *testing.T) *models.User {
	t.Helper()
	u := &models.User{
		Username: fmt.Sprintf("user-%s", t.Name()),
		Email:    fmt.Sprintf("%s@test.local", t.Name()),
		Role:     "USER",
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func TestNOWPaymentsSubscriptionDuplicateDelivery(t *testing.T) {
	f := newWebhookFixture(t)
	u := f.seedUser(t)

	payload := map[string]interface{}{
		"payment_id":     90001,
		"payment_status": "finished",
		"price_amount":   9.99,
		"price_currency": "usd",
		"order_id":       fmt.Sprintf("sub-monthly-%d", u.ID),
	}

	w := f.deliver(t, payload)
	require.Equal(t, http.StatusOK, w.Code)

	// The redelivery is acked without a second activation.
	w = f.deliver(t, payload)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Duplicate bool `json:"duplicate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Duplicate)

	var subCount, ftCount int64
	f.db.Model(&models.Subscription{}).Where("user_id = ?", u.ID).Count(&subCount)
	f.db.Model(&models.FinancialTransaction{}).Where("external_id = ?", "90001").Count(&ftCount)
	assert.Equal(t, int64(1), subCount)
	assert.Equal(t, int64(1), ftCount)

	// A single monthly grant.
	balance, err := f.tokens.GetBalance(u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(120), balance)
}

func TestNOWPaymentsWebhookRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)
	u := f.seedUser(t)

	body, err := json.Marshal(map[string]interface{}{
		"payment_id":     90002,
		"payment_status": "finished",
		"price_amount":   9.99,
		"order_id":       fmt.Sprintf("sub-monthly-%d", u.ID),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/nowpayments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-nowpayments-sig", "not-a-real-signature")
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var subCount int64
	f.db.Model(&models.Subscription{}).Where("user_id = ?", u.ID).Count(&subCount)
	assert.Zero(t, subCount)
}
