package payment

import (
	"fmt"
	"strconv"
	"strings"
)

// Invoice is the provider-agnostic handle returned by invoice/payment creation.
type Invoice struct {
	ID     string
	PayURL string
	Status string
	Amount float64
}

// Correlation is the data embedded in a payment so the webhook can route it:
// the paying user plus either a billing cycle (subscription) or a token
// package id (one-time purchase).
type Correlation struct {
	UserID       uint
	BillingCycle string
	PackageID    string
}

func (c *Correlation) IsSubscription() bool {
	return c.BillingCycle != ""
}

var billingCycles = map[string]bool{
	"monthly":   true,
	"quarterly": true,
	"annually":  true,
}

// tokenMarkerPrefix tags a purchase correlation value, e.g. "tokens-pack_550".
const tokenMarkerPrefix = "tokens-"

// EncodePurpose renders the cycle-or-package correlation value carried in
// provider custom fields (custom_data2 / order description).
func EncodePurpose(c Correlation) string {
	if c.IsSubscription() {
		return c.BillingCycle
	}
	return tokenMarkerPrefix + c.PackageID
}

// ParseCorrelation reconstructs a Correlation from the user-id field and the
// purpose field of a webhook payload. Returns nil when either field is
// missing or malformed, or the billing cycle is unknown.
func ParseCorrelation(userField, purposeField string) *Correlation {
	uid, err := strconv.ParseUint(strings.TrimSpace(userField), 10, 32)
	if err != nil || uid == 0 {
		return nil
	}
	purpose := strings.TrimSpace(purposeField)
	if purpose == "" {
		return nil
	}
	c := Correlation{UserID: uint(uid)}
	if pkg, ok := strings.CutPrefix(purpose, tokenMarkerPrefix); ok {
		if pkg == "" {
			return nil
		}
		c.PackageID = pkg
		return &c
	}
	if !billingCycles[purpose] {
		return nil
	}
	c.BillingCycle = purpose
	return &c
}

// BuildOrderID encodes a correlation into a provider order id,
// "sub-<cycle>-<uid>" or "tok-<package>-<uid>".
func BuildOrderID(c Correlation) string {
	if c.IsSubscription() {
		return fmt.Sprintf("sub-%s-%d", c.BillingCycle, c.UserID)
	}
	return fmt.Sprintf("tok-%s-%d", c.PackageID, c.UserID)
}

// ParseOrderID is the inverse of BuildOrderID; nil on any malformed input.
func ParseOrderID(orderID string) *Correlation {
	parts := strings.Split(orderID, "-")
	if len(parts) != 3 {
		return nil
	}
	uid, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil || uid == 0 {
		return nil
	}
	switch parts[0] {
	case "sub":
		if !billingCycles[parts[1]] {
			return nil
		}
		return &Correlation{UserID: uint(uid), BillingCycle: parts[1]}
	case "tok":
		if parts[1] == "" {
			return nil
		}
		return &Correlation{UserID: uint(uid), PackageID: parts[1]}
	}
	return nil
}
