package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeParseCorrelationSubscription(t *testing.T) {
	c := Correlation{UserID: 42, BillingCycle: "quarterly"}
	assert.Equal(t, "quarterly", EncodePurpose(c))

	got := ParseCorrelation("42", "quarterly")
	require.NotNil(t, got)
	assert.Equal(t, uint(42), got.UserID)
	assert.Equal(t, "quarterly", got.BillingCycle)
	assert.True(t, got.IsSubscription())
}

func TestEncodeParseCorrelationTokens(t *testing.T) {
	c := Correlation{UserID: 7, PackageID: "pack_550"}
	assert.Equal(t, "tokens-pack_550", EncodePurpose(c))

	got := ParseCorrelation("7", "tokens-pack_550")
	require.NotNil(t, got)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, "pack_550", got.PackageID)
	assert.False(t, got.IsSubscription())
}

func TestParseCorrelationRejectsBadInput(t *testing.T) {
	cases := map[string][2]string{
		"empty user":    {"", "monthly"},
		"non-numeric":   {"abc", "monthly"},
		"zero user":     {"0", "monthly"},
		"empty purpose": {"42", ""},
		"unknown cycle": {"42", "weekly"},
		"empty package": {"42", "tokens-"},
		"negative user": {"-1", "monthly"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, ParseCorrelation(in[0], in[1]))
		})
	}
}

func TestBuildParseOrderID(t *testing.T) {
	sub := Correlation{UserID: 11, BillingCycle: "annually"}
	assert.Equal(t, "sub-annually-11", BuildOrderID(sub))
	got := ParseOrderID("sub-annually-11")
	require.NotNil(t, got)
	assert.Equal(t, sub, *got)

	tok := Correlation{UserID: 3, PackageID: "pack_100"}
	assert.Equal(t, "tok-pack_100-3", BuildOrderID(tok))
	got = ParseOrderID("tok-pack_100-3")
	require.NotNil(t, got)
	assert.Equal(t, tok, *got)
}

func TestParseOrderIDRejectsForeign(t *testing.T) {
	for _, id := range []string{
		"",
		"sub-monthly",
		"sub-weekly-5",
		"tok--5",
		"ref-pack_100-5",
		"sub-monthly-zero",
		"sub-monthly-0",
	} {
		assert.Nil(t, ParseOrderID(id), "order id %q", id)
	}
}

func TestCoinremitterStatusPredicates(t *testing.T) {
	p := NewCoinremitter("", "key", "pass", "USDT")

	assert.True(t, p.IsInvoiceComplete("Paid"))
	assert.True(t, p.IsInvoiceComplete("over paid"))
	assert.False(t, p.IsInvoiceComplete("Pending"))

	assert.True(t, p.IsInvoicePending("pending"))
	assert.True(t, p.IsInvoicePending("Under Paid"))

	assert.True(t, p.IsInvoiceFailed("Expired"))
	assert.True(t, p.IsInvoiceFailed("cancelled"))
	assert.False(t, p.IsInvoiceFailed("Paid"))
}

func TestNOWPaymentsStatusPredicates(t *testing.T) {
	p := NewNOWPayments("", "key", "secret", "a@b.c", "pw")

	assert.True(t, p.IsPaymentComplete("finished"))
	assert.True(t, p.IsPaymentComplete("confirmed"))
	assert.False(t, p.IsPaymentComplete("waiting"))

	for _, s := range []string{"waiting", "confirming", "sending", "partially_paid"} {
		assert.True(t, p.IsPaymentPending(s), s)
	}
	for _, s := range []string{"failed", "refunded", "expired"} {
		assert.True(t, p.IsPaymentFailed(s), s)
	}
}
