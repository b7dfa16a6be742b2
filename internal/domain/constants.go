package domain

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

const (
	BillingMonthly   = "monthly"
	BillingQuarterly = "quarterly"
	BillingAnnually  = "annually"
)

// Token transaction types recorded in the ledger.
const (
	TokenTxPurchase          = "purchase"
	TokenTxSubscriptionGrant = "subscription_grant"
	TokenTxUsage             = "usage"
	TokenTxAdminAdjustment   = "admin_adjustment"
)

const (
	FinancialIncome  = "income"
	FinancialExpense = "expense"
)

// Financial categories created lazily by name.
const (
	CategorySubscriptionIncome  = "subscription_income"
	CategoryTokenPurchaseIncome = "token_purchase_income"
)

const (
	ProviderCoinremitter = "coinremitter"
	ProviderNOWPayments  = "nowpayments"
)

const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// DefaultTokensPerMonth is the fallback grant when a plan has no configured amount.
const DefaultTokensPerMonth = 100
