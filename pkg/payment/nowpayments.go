package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// bearerTTL is how long we trust a NOWPayments auth token. The server expires
// tokens after five minutes; caching for four leaves a refresh margin.
const bearerTTL = 4 * time.Minute

// tokenCache holds the short-lived bearer token for the subscription
// endpoints. Scoped to the provider value so tests construct a fresh one.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NOWPayments talks to the NOWPayments v1 API. Payment creation uses the API
// key; subscription management needs a bearer token from /auth.
type NOWPayments struct {
	BaseURL   string
	APIKey    string
	IPNSecret string
	Email     string
	Password  string
	client    *http.Client
	bearer    tokenCache
}

func NewNOWPayments(baseURL, apiKey, ipnSecret, email, password string) *NOWPayments {
	if baseURL == "" {
		baseURL = "https://api.nowpayments.io/v1"
	}
	return &NOWPayments{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		IPNSecret: ipnSecret,
		Email:     email,
		Password:  password,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *NOWPayments) do(ctx context.Context, method, path string, payload interface{}, bearer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.APIKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("nowpayments %s %s: %d %s", method, path, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// getBearer returns the cached auth token, refreshing it via /auth on expiry.
func (p *NOWPayments) getBearer(ctx context.Context) (string, error) {
	p.bearer.mu.Lock()
	defer p.bearer.mu.Unlock()
	if p.bearer.token != "" && time.Now().Before(p.bearer.expiresAt) {
		return p.bearer.token, nil
	}
	body, err := p.do(ctx, http.MethodPost, "/auth", map[string]string{
		"email":    p.Email,
		"password": p.Password,
	}, "")
	if err != nil {
		return "", fmt.Errorf("nowpayments auth: %w", err)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Token == "" {
		return "", fmt.Errorf("nowpayments auth: bad response %s", string(body))
	}
	p.bearer.token = out.Token
	p.bearer.expiresAt = time.Now().Add(bearerTTL)
	return out.Token, nil
}

type NOWPaymentRequest struct {
	PriceAmount   float64
	PriceCurrency string
	PayCurrency   string
	Description   string
	IPNCallback   string
	SuccessURL    string
	CancelURL     string
	Correlation   Correlation
}

type nowPaymentResp struct {
	PaymentID     json.Number `json:"payment_id"`
	PaymentStatus string      `json:"payment_status"`
	PayAddress    string      `json:"pay_address"`
	InvoiceURL    string      `json:"invoice_url"`
	PriceAmount   float64     `json:"price_amount"`
	OrderID       string      `json:"order_id"`
}

// CreatePayment creates a payment whose order id carries the correlation.
func (p *NOWPayments) CreatePayment(ctx context.Context, req NOWPaymentRequest) (*Invoice, error) {
	orderID := BuildOrderID(req.Correlation)
	payload := map[string]interface{}{
		"price_amount":      req.PriceAmount,
		"price_currency":    req.PriceCurrency,
		"order_id":          orderID,
		"order_description": EncodePurpose(req.Correlation),
		"ipn_callback_url":  req.IPNCallback,
	}
	if req.PayCurrency != "" {
		payload["pay_currency"] = req.PayCurrency
	}
	if req.SuccessURL != "" {
		payload["success_url"] = req.SuccessURL
	}
	if req.CancelURL != "" {
		payload["cancel_url"] = req.CancelURL
	}
	log.Infof("[NOWPayments] create payment order_id=%s amount=%.2f %s", orderID, req.PriceAmount, req.PriceCurrency)
	body, err := p.do(ctx, http.MethodPost, "/payment", payload, "")
	if err != nil {
		return nil, err
	}
	var out nowPaymentResp
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("nowpayments payment: bad response %s", string(body))
	}
	return &Invoice{
		ID:     out.PaymentID.String(),
		PayURL: out.InvoiceURL,
		Status: out.PaymentStatus,
		Amount: out.PriceAmount,
	}, nil
}

// CreateSubscriptionPlan registers a recurring plan and returns its id.
func (p *NOWPayments) CreateSubscriptionPlan(ctx context.Context, title string, intervalDays int, amount float64, currency string) (string, error) {
	bearer, err := p.getBearer(ctx)
	if err != nil {
		return "", err
	}
	body, err := p.do(ctx, http.MethodPost, "/subscriptions/plans", map[string]interface{}{
		"title":        title,
		"interval_day": intervalDays,
		"amount":       amount,
		"currency":     currency,
	}, bearer)
	if err != nil {
		return "", err
	}
	var out struct {
		Result struct {
			ID json.Number `json:"id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("nowpayments plan: bad response %s", string(body))
	}
	return out.Result.ID.String(), nil
}

// CreateSubscription subscribes an email to a plan and returns the
// provider-side subscription id.
func (p *NOWPayments) CreateSubscription(ctx context.Context, planID, email string) (string, error) {
	bearer, err := p.getBearer(ctx)
	if err != nil {
		return "", err
	}
	body, err := p.do(ctx, http.MethodPost, "/subscriptions", map[string]interface{}{
		"subscription_plan_id": planID,
		"email":                email,
	}, bearer)
	if err != nil {
		return "", err
	}
	var out struct {
		Result []struct {
			ID json.Number `json:"id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &out); err != nil || len(out.Result) == 0 {
		return "", fmt.Errorf("nowpayments subscription: bad response %s", string(body))
	}
	return out.Result[0].ID.String(), nil
}

// CancelSubscription cancels a provider-side recurring subscription.
func (p *NOWPayments) CancelSubscription(ctx context.Context, subscriptionID string) error {
	bearer, err := p.getBearer(ctx)
	if err != nil {
		return err
	}
	_, err = p.do(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, nil, bearer)
	return err
}

// Payment status predicates over NOWPayments status strings.

func (p *NOWPayments) IsPaymentComplete(status string) bool {
	switch status {
	case "finished", "confirmed":
		return true
	}
	return false
}

func (p *NOWPayments) IsPaymentPending(status string) bool {
	switch status {
	case "waiting", "confirming", "sending", "partially_paid":
		return true
	}
	return false
}

func (p *NOWPayments) IsPaymentFailed(status string) bool {
	switch status {
	case "failed", "refunded", "expired":
		return true
	}
	return false
}

// VerifyIPNSignature checks the x-nowpayments-sig header: HMAC-SHA512 over
// the JSON payload re-serialized with lexicographically sorted keys. Fails
// closed when the shared secret is not configured.
func (p *NOWPayments) VerifyIPNSignature(body []byte, signature string) bool {
	if p.IPNSecret == "" || signature == "" {
		return false
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	// json.Marshal writes map keys in sorted order.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return false
	}
	sorted := bytes.TrimRight(buf.Bytes(), "\n")
	mac := hmac.New(sha512.New, []byte(p.IPNSecret))
	mac.Write(sorted)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// NOWPaymentsWebhook is the IPN callback payload.
type NOWPaymentsWebhook struct {
	PaymentID        json.Number `json:"payment_id"`
	PaymentStatus    string      `json:"payment_status"`
	PriceAmount      float64     `json:"price_amount"`
	PriceCurrency    string      `json:"price_currency"`
	ActuallyPaid     float64     `json:"actually_paid"`
	OrderID          string      `json:"order_id"`
	OrderDescription string      `json:"order_description"`
}

// ParseWebhookCorrelation recovers the correlation from the order id; nil
// when the order id was not produced by BuildOrderID.
func (p *NOWPayments) ParseWebhookCorrelation(w *NOWPaymentsWebhook) *Correlation {
	return ParseOrderID(w.OrderID)
}
