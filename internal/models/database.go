package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user in the system
type User struct {
	Id        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Currency is immutable reference data describing a supported asset.
type Currency struct {
	Code      string `db:"code"`
	Name      string `db:"name"`
	Precision int    `db:"precision"`
	IsCrypto  bool   `db:"is_crypto"`
	Network   string `db:"network"`
	IsActive  bool   `db:"is_active"`
}

// NodeConfiguration holds the RPC endpoint for a currency's self-hosted node.
// Owned exclusively by its currency (one node per currency code).
type NodeConfiguration struct {
	Id           string            `db:"id"`
	CurrencyCode string            `db:"currency_code"`
	RpcUrl       string            `db:"rpc_url"`
	RpcUsername  string            `db:"rpc_username"`
	RpcPassword  string            `db:"rpc_password"`
	Headers      map[string]string `db:"headers"`
	IsActive     bool              `db:"is_active"`
	CreatedAt    time.Time         `db:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at"`
}

// WalletAccount is a balance container scoped to one user and one currency.
// Invariant: AvailableBalance <= Balance, both non-negative.
type WalletAccount struct {
	Id               string          `db:"id"`
	UserId           string          `db:"user_id"`
	CurrencyCode     string          `db:"currency_code"`
	Balance          decimal.Decimal `db:"balance"`
	AvailableBalance decimal.Decimal `db:"available_balance"`
	Version          int64           `db:"version"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// Transaction directions.
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Transaction statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// WalletTransaction is an immutable ledger entry. Once confirmed it is never
// mutated; the table is append-only.
type WalletTransaction struct {
	Id            string            `db:"id"`
	AccountId     string            `db:"account_id"`
	Amount        decimal.Decimal   `db:"amount"`
	Direction     string            `db:"direction"`
	Status        string            `db:"status"`
	Reference     string            `db:"reference"`
	Metadata      map[string]string `db:"metadata"`
	BalanceBefore decimal.Decimal   `db:"balance_before"`
	BalanceAfter  decimal.Decimal   `db:"balance_after"`
	CreatedAt     time.Time         `db:"created_at"`
}

// DepositAddress binds an external receiving address to a wallet account.
type DepositAddress struct {
	Id        string    `db:"id"`
	AccountId string    `db:"account_id"`
	Address   string    `db:"address"`
	Label     string    `db:"label"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

// BalanceSnapshot is a point-in-time copy of an account's balances,
// captured for analytics.
type BalanceSnapshot struct {
	Id               string          `db:"id"`
	AccountId        string          `db:"account_id"`
	Balance          decimal.Decimal `db:"balance"`
	AvailableBalance decimal.Decimal `db:"available_balance"`
	CapturedAt       time.Time       `db:"captured_at"`
}
