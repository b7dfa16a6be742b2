package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Coinremitter creates crypto invoices via the Coinremitter v1 API.
// Correlation data rides in custom_data1 (user id) and custom_data2
// (billing cycle or "tokens-<package>").
type Coinremitter struct {
	BaseURL  string
	APIKey   string
	Password string
	Coin     string
	client   *http.Client
}

func NewCoinremitter(baseURL, apiKey, password, coin string) *Coinremitter {
	if baseURL == "" {
		baseURL = "https://api.coinremitter.com/v1"
	}
	return &Coinremitter{
		BaseURL:  baseURL,
		APIKey:   apiKey,
		Password: password,
		Coin:     coin,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type CoinremitterInvoiceRequest struct {
	Amount      float64
	Currency    string
	Description string
	Email       string
	NotifyURL   string
	SuccessURL  string
	FailURL     string
	ExpireTime  int // minutes
	Correlation Correlation
}

type coinremitterCreateReq struct {
	APIKey      string  `json:"api_key"`
	Password    string  `json:"password"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"fiat_currency"`
	Description string  `json:"description"`
	Email       string  `json:"email"`
	NotifyURL   string  `json:"notify_url"`
	SuccessURL  string  `json:"suceess_url"`
	FailURL     string  `json:"fail_url"`
	ExpireTime  int     `json:"expire_time"`
	CustomData1 string  `json:"custom_data1"`
	CustomData2 string  `json:"custom_data2"`
}

type coinremitterInvoice struct {
	InvoiceID   string  `json:"invoice_id"`
	URL         string  `json:"url"`
	Status      string  `json:"status"`
	StatusCode  int     `json:"status_code"`
	TotalAmount struct {
		Fiat string `json:"USD"`
	} `json:"total_amount"`
	CustomData1 string `json:"custom_data1"`
	CustomData2 string `json:"custom_data2"`
}

type coinremitterEnvelope struct {
	Flag int             `json:"flag"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (p *Coinremitter) call(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coinremitter %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	var env coinremitterEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("coinremitter %s: bad response %s", path, string(respBody))
	}
	if env.Flag != 1 {
		return nil, fmt.Errorf("coinremitter %s: %s (%s)", path, env.Msg, string(respBody))
	}
	return env.Data, nil
}

// CreateInvoice creates a payable invoice and returns its id, pay URL and status.
func (p *Coinremitter) CreateInvoice(ctx context.Context, req CoinremitterInvoiceRequest) (*Invoice, error) {
	payload := coinremitterCreateReq{
		APIKey:      p.APIKey,
		Password:    p.Password,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Email:       req.Email,
		NotifyURL:   req.NotifyURL,
		SuccessURL:  req.SuccessURL,
		FailURL:     req.FailURL,
		ExpireTime:  req.ExpireTime,
		CustomData1: fmt.Sprintf("%d", req.Correlation.UserID),
		CustomData2: EncodePurpose(req.Correlation),
	}
	log.Infof("[Coinremitter] create invoice user=%d purpose=%s amount=%.2f",
		req.Correlation.UserID, payload.CustomData2, req.Amount)
	data, err := p.call(ctx, "/invoice/create", payload)
	if err != nil {
		return nil, err
	}
	var inv coinremitterInvoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("coinremitter invoice/create: bad data %s", string(data))
	}
	return &Invoice{ID: inv.InvoiceID, PayURL: inv.URL, Status: inv.Status, Amount: req.Amount}, nil
}

// GetInvoice fetches the current state of an invoice.
func (p *Coinremitter) GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error) {
	payload := map[string]string{
		"api_key":    p.APIKey,
		"password":   p.Password,
		"invoice_id": invoiceID,
	}
	data, err := p.call(ctx, "/invoice/get", payload)
	if err != nil {
		return nil, err
	}
	var inv coinremitterInvoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("coinremitter invoice/get: bad data %s", string(data))
	}
	return &Invoice{ID: inv.InvoiceID, PayURL: inv.URL, Status: inv.Status}, nil
}

// Invoice status predicates. Coinremitter reports "Pending", "Paid",
// "Under Paid", "Over Paid", "Expired" and "Cancelled".

func (p *Coinremitter) IsInvoiceComplete(status string) bool {
	switch strings.ToLower(status) {
	case "paid", "over paid":
		return true
	}
	return false
}

func (p *Coinremitter) IsInvoicePending(status string) bool {
	switch strings.ToLower(status) {
	case "pending", "under paid":
		return true
	}
	return false
}

func (p *Coinremitter) IsInvoiceFailed(status string) bool {
	switch strings.ToLower(status) {
	case "expired", "cancelled":
		return true
	}
	return false
}

// CoinremitterWebhook is the IPN payload posted to our callback URL.
type CoinremitterWebhook struct {
	InvoiceID   string `json:"invoice_id"`
	Status      string `json:"status"`
	StatusCode  int    `json:"status_code"`
	Coin        string `json:"coin"`
	PaidAmount  string `json:"paid_amount"`
	CustomData1 string `json:"custom_data1"`
	CustomData2 string `json:"custom_data2"`
}

// ParseWebhookCorrelation extracts the embedded user/purpose correlation;
// nil when the payload lacks the required custom fields.
func (p *Coinremitter) ParseWebhookCorrelation(w *CoinremitterWebhook) *Correlation {
	return ParseCorrelation(w.CustomData1, w.CustomData2)
}
