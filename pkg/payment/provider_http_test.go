package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinremitterCreateInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/invoice/create", r.URL.Path)
		var req coinremitterCreateReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req.APIKey)
		assert.Equal(t, "42", req.CustomData1)
		assert.Equal(t, "tokens-pack_550", req.CustomData2)
		assert.Equal(t, 19.99, req.Amount)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"flag": 1,
			"msg":  "Invoice created",
			"data": map[string]interface{}{
				"invoice_id": "CR-1001",
				"url":        "https://coinremitter.test/pay/CR-1001",
				"status":     "Pending",
			},
		})
	}))
	defer srv.Close()

	p := NewCoinremitter(srv.URL, "test-key", "pw", "USDT")
	inv, err := p.CreateInvoice(context.Background(), CoinremitterInvoiceRequest{
		Amount:      19.99,
		Currency:    "USD",
		Correlation: Correlation{UserID: 42, PackageID: "pack_550"},
	})
	require.NoError(t, err)
	assert.Equal(t, "CR-1001", inv.ID)
	assert.Equal(t, "https://coinremitter.test/pay/CR-1001", inv.PayURL)
	assert.Equal(t, "Pending", inv.Status)
}

func TestCoinremitterErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"flag": 0,
			"msg":  "Invalid api key",
		})
	}))
	defer srv.Close()

	p := NewCoinremitter(srv.URL, "bad-key", "pw", "USDT")
	_, err := p.CreateInvoice(context.Background(), CoinremitterInvoiceRequest{
		Amount:      1,
		Correlation: Correlation{UserID: 1, BillingCycle: "monthly"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid api key")
}

func TestNOWPaymentsCreatePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/payment", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sub-monthly-7", req["order_id"])
		assert.Equal(t, "monthly", req["order_description"])
		assert.Equal(t, "https://app.test/webhooks/nowpayments", req["ipn_callback_url"])
		json.NewEncoder(w).Encode(map[string]interface{}{
			"payment_id":     123456,
			"payment_status": "waiting",
			"invoice_url":    "https://nowpayments.test/pay/123456",
			"price_amount":   9.99,
			"order_id":       req["order_id"],
		})
	}))
	defer srv.Close()

	p := NewNOWPayments(srv.URL, "test-key", "secret", "a@b.c", "pw")
	inv, err := p.CreatePayment(context.Background(), NOWPaymentRequest{
		PriceAmount:   9.99,
		PriceCurrency: "usd",
		IPNCallback:   "https://app.test/webhooks/nowpayments",
		Correlation:   Correlation{UserID: 7, BillingCycle: "monthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "123456", inv.ID)
	assert.Equal(t, "waiting", inv.Status)
	assert.Equal(t, 9.99, inv.Amount)
}

func TestNOWPaymentsBearerCachedAcrossCalls(t *testing.T) {
	authCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth":
			authCalls++
			json.NewEncoder(w).Encode(map[string]string{"token": "bearer-1"})
		case "/subscriptions/plans":
			assert.Equal(t, "Bearer bearer-1", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"result": map[string]interface{}{"id": 555},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	p := NewNOWPayments(srv.URL, "key", "secret", "a@b.c", "pw")
	ctx := context.Background()

	id, err := p.CreateSubscriptionPlan(ctx, "plan a", 30, 9.99, "usd")
	require.NoError(t, err)
	assert.Equal(t, "555", id)

	_, err = p.CreateSubscriptionPlan(ctx, "plan b", 90, 26.99, "usd")
	require.NoError(t, err)
	assert.Equal(t, 1, authCalls)
}

func TestNOWPaymentsErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Invalid api key"}`))
	}))
	defer srv.Close()

	p := NewNOWPayments(srv.URL, "bad", "secret", "a@b.c", "pw")
	_, err := p.CreatePayment(context.Background(), NOWPaymentRequest{
		PriceAmount: 1, PriceCurrency: "usd",
		Correlation: Correlation{UserID: 1, PackageID: "pack_100"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid api key")
}
