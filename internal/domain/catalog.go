package domain

// TokenPackage is a static catalog entry for one-time token purchases.
// Packages are defined in code, not persisted.
type TokenPackage struct {
	ID           string
	Tokens       int64
	PriceUSD     float64
	TestPriceUSD float64
	BonusPercent int64
}

// TotalTokens returns base tokens plus the floor of the bonus percentage.
func (p TokenPackage) TotalTokens() int64 {
	return p.Tokens + p.Tokens*p.BonusPercent/100
}

// Price returns the production or reduced test-mode price.
func (p TokenPackage) Price(testMode bool) float64 {
	if testMode {
		return p.TestPriceUSD
	}
	return p.PriceUSD
}

var TokenPackages = []TokenPackage{
	{ID: "pack_100", Tokens: 100, PriceUSD: 4.99, TestPriceUSD: 0.50, BonusPercent: 0},
	{ID: "pack_550", Tokens: 550, PriceUSD: 19.99, TestPriceUSD: 1.00, BonusPercent: 10},
	{ID: "pack_1200", Tokens: 1200, PriceUSD: 39.99, TestPriceUSD: 2.00, BonusPercent: 15},
	{ID: "pack_2500", Tokens: 2500, PriceUSD: 74.99, TestPriceUSD: 3.00, BonusPercent: 20},
}

// TokenPackageByID looks up a catalog entry; ok is false for unknown ids.
func TokenPackageByID(id string) (TokenPackage, bool) {
	for _, p := range TokenPackages {
		if p.ID == id {
			return p, true
		}
	}
	return TokenPackage{}, false
}

// SubscriptionPlan maps a billing cycle to its duration, price and token grant.
type SubscriptionPlan struct {
	ID           string
	BillingCycle string
	Months       int
	PriceUSD     float64
	TestPriceUSD float64
	// TokenGrant is the total grant for the whole period; zero means
	// fall back to DefaultTokensPerMonth * Months.
	TokenGrant int64
}

func (p SubscriptionPlan) Price(testMode bool) float64 {
	if testMode {
		return p.TestPriceUSD
	}
	return p.PriceUSD
}

// Grant resolves the token grant for the plan.
func (p SubscriptionPlan) Grant() int64 {
	if p.TokenGrant > 0 {
		return p.TokenGrant
	}
	return int64(p.Months) * DefaultTokensPerMonth
}

var SubscriptionPlans = []SubscriptionPlan{
	{ID: "plan_monthly", BillingCycle: BillingMonthly, Months: 1, PriceUSD: 9.99, TestPriceUSD: 0.50, TokenGrant: 120},
	{ID: "plan_quarterly", BillingCycle: BillingQuarterly, Months: 3, PriceUSD: 26.99, TestPriceUSD: 1.00, TokenGrant: 400},
	{ID: "plan_annually", BillingCycle: BillingAnnually, Months: 12, PriceUSD: 95.99, TestPriceUSD: 2.00, TokenGrant: 1800},
}

// PlanByCycle looks up a plan by billing cycle; ok is false for unknown cycles.
func PlanByCycle(cycle string) (SubscriptionPlan, bool) {
	for _, p := range SubscriptionPlans {
		if p.BillingCycle == cycle {
			return p, true
		}
	}
	return SubscriptionPlan{}, false
}
