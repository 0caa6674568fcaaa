package store

import (
	"context"
	"errors"

	"wallet-node-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInsufficientBalance    = errors.New("insufficient available balance")
	ErrDuplicateReference     = errors.New("duplicate transaction reference")
	ErrAccountNotFound        = errors.New("wallet account not found")
	ErrCurrencyNotFound       = errors.New("currency not found")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// EntryParams contains the parameters for recording a ledger entry.
type EntryParams struct {
	AccountId string
	Amount    decimal.Decimal
	Reference string
	Metadata  map[string]string
}

// StoreDepositAddressParams contains the parameters for persisting a
// generated deposit address.
type StoreDepositAddressParams struct {
	AccountId string
	Address   string
	Label     string
}

// PurchasePlanParams describes a membership purchase funded by one account.
type PurchasePlanParams struct {
	UserId    string
	PlanId    string
	AccountId string
}

// UpgradePlanParams describes a membership upgrade funded by one account.
type UpgradePlanParams struct {
	MembershipId string
	TargetPlanId string
	AccountId    string
}

// LedgerStore defines the contract the SQLite backend satisfies. Credit and
// Debit are the only balance-mutating operations; each is atomic per account
// and idempotent on (account, reference, direction). On ErrDuplicateReference
// the previously recorded transaction is returned alongside the error.
type LedgerStore interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, userId, name, email string) (*models.User, error)

	// --- Currencies & nodes ---
	ListActiveCurrencies(ctx context.Context) ([]models.Currency, error)
	GetCurrency(ctx context.Context, code string) (*models.Currency, error)
	UpsertCurrency(ctx context.Context, currency models.Currency) error
	GetNodeConfiguration(ctx context.Context, currencyCode string) (*models.NodeConfiguration, error)
	UpsertNodeConfiguration(ctx context.Context, node models.NodeConfiguration) error

	// --- Accounts ---
	EnsureAccount(ctx context.Context, userId, currencyCode string) (*models.WalletAccount, error)
	GetAccount(ctx context.Context, accountId string) (*models.WalletAccount, error)
	GetUserAccounts(ctx context.Context, userId string) ([]models.WalletAccount, error)
	FindAccountsByDepositAddress(ctx context.Context, address string) ([]models.WalletAccount, error)

	// --- Deposit addresses ---
	StoreDepositAddress(ctx context.Context, params StoreDepositAddressParams) (*models.DepositAddress, error)
	GetActiveDepositAddress(ctx context.Context, accountId string) (*models.DepositAddress, error)

	// --- Ledger ---
	Credit(ctx context.Context, params EntryParams) (*models.WalletTransaction, error)
	Debit(ctx context.Context, params EntryParams) (*models.WalletTransaction, error)
	GetTransactionHistory(ctx context.Context, accountId string, limit, offset int) ([]models.WalletTransaction, error)
	ReconcileAccountBalance(ctx context.Context, accountId string) error
	CaptureBalanceSnapshots(ctx context.Context) (int, error)

	// --- Lifecycle ---
	Close()
}
