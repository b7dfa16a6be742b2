package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signSorted(t *testing.T, secret string, body []byte) string {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(payload))
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyIPNSignature(t *testing.T) {
	p := NewNOWPayments("", "key", "topsecret", "a@b.c", "pw")
	body := []byte(`{"payment_id":123,"payment_status":"finished","order_id":"sub-monthly-7","price_amount":9.99}`)

	sig := signSorted(t, "topsecret", body)
	assert.True(t, p.VerifyIPNSignature(body, sig))
}

func TestVerifyIPNSignatureKeyOrderIndependent(t *testing.T) {
	p := NewNOWPayments("", "key", "topsecret", "a@b.c", "pw")
	// Same fields, different key order in the delivered body.
	delivered := []byte(`{"price_amount":9.99,"order_id":"sub-monthly-7","payment_status":"finished","payment_id":123}`)
	canonical := []byte(`{"payment_id":123,"payment_status":"finished","order_id":"sub-monthly-7","price_amount":9.99}`)

	sig := signSorted(t, "topsecret", canonical)
	assert.True(t, p.VerifyIPNSignature(delivered, sig))
}

func TestVerifyIPNSignatureRejectsTampering(t *testing.T) {
	p := NewNOWPayments("", "key", "topsecret", "a@b.c", "pw")
	body := []byte(`{"payment_id":123,"payment_status":"finished","price_amount":9.99}`)
	sig := signSorted(t, "topsecret", body)

	tampered := []byte(`{"payment_id":123,"payment_status":"finished","price_amount":999.99}`)
	assert.False(t, p.VerifyIPNSignature(tampered, sig))
}

func TestVerifyIPNSignatureRejectsWrongSecret(t *testing.T) {
	p := NewNOWPayments("", "key", "topsecret", "a@b.c", "pw")
	body := []byte(`{"payment_id":123}`)
	sig := signSorted(t, "othersecret", body)
	assert.False(t, p.VerifyIPNSignature(body, sig))
}

func TestVerifyIPNSignatureFailsClosed(t *testing.T) {
	body := []byte(`{"payment_id":123}`)

	// No secret configured.
	unconfigured := NewNOWPayments("", "key", "", "a@b.c", "pw")
	assert.False(t, unconfigured.VerifyIPNSignature(body, signSorted(t, "", body)))

	// No signature header.
	p := NewNOWPayments("", "key", "topsecret", "a@b.c", "pw")
	assert.False(t, p.VerifyIPNSignature(body, ""))

	// Non-JSON body.
	assert.False(t, p.VerifyIPNSignature([]byte("not json"), "deadbeef"))
}

func TestParseWebhookCorrelation(t *testing.T) {
	p := NewNOWPayments("", "key", "secret", "a@b.c", "pw")

	w := &NOWPaymentsWebhook{OrderID: "tok-pack_1200-9"}
	got := p.ParseWebhookCorrelation(w)
	require.NotNil(t, got)
	assert.Equal(t, uint(9), got.UserID)
	assert.Equal(t, "pack_1200", got.PackageID)

	assert.Nil(t, p.ParseWebhookCorrelation(&NOWPaymentsWebhook{OrderID: "merchant-ref-1"}))
}
