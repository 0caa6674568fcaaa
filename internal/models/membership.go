package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Membership statuses.
const (
	MembershipPending   = "pending"
	MembershipActive    = "active"
	MembershipExpired   = "expired"
	MembershipCancelled = "cancelled"
)

// Invoice statuses.
const (
	InvoicePending   = "pending"
	InvoiceCompleted = "completed"
	InvoiceFailed    = "failed"
)

// MembershipPlan is a purchasable plan priced in one currency.
type MembershipPlan struct {
	Id           string          `db:"id"`
	Name         string          `db:"name"`
	CurrencyCode string          `db:"currency_code"`
	Amount       decimal.Decimal `db:"amount"`
	DurationDays int             `db:"duration_days"`
	IsActive     bool            `db:"is_active"`
}

// MembershipUpgradeRule permits moving between two plans at a given cost.
// A non-positive AdditionalCost means "charge the plan price difference".
type MembershipUpgradeRule struct {
	Id             string          `db:"id"`
	FromPlanId     string          `db:"from_plan_id"`
	ToPlanId       string          `db:"to_plan_id"`
	AdditionalCost decimal.Decimal `db:"additional_cost"`
	IsActive       bool            `db:"is_active"`
}

// MembershipInvoice records one attempted plan purchase or upgrade.
type MembershipInvoice struct {
	Id            string          `db:"id"`
	UserId        string          `db:"user_id"`
	PlanId        string          `db:"plan_id"`
	CurrencyCode  string          `db:"currency_code"`
	Amount        decimal.Decimal `db:"amount"`
	Status        string          `db:"status"`
	TransactionId string          `db:"transaction_id"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// UserMembership is the active plan assignment for a user.
type UserMembership struct {
	Id                string    `db:"id"`
	UserId            string    `db:"user_id"`
	PlanId            string    `db:"plan_id"`
	Status            string    `db:"status"`
	LastTransactionId string    `db:"last_transaction_id"`
	StartedAt         time.Time `db:"started_at"`
	ExpiresAt         time.Time `db:"expires_at"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// DeliveryLog is the receipt returned by the notification collaborator.
type DeliveryLog struct {
	Id        string    `json:"id"`
	UserId    string    `json:"user_id"`
	EventCode string    `json:"event_code"`
	Channel   string    `json:"channel"`
	SentAt    time.Time `json:"sent_at"`
}
