package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupLedgerTestDB(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// A second pool connection would see a different in-memory database.
	db.SetMaxOpenConns(1)

	service := &Service{db: db, locks: newAccountLocks()}
	if err := service.initSchema(false); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}
	return service, cleanup
}

func seedTestAccount(t *testing.T, service *Service, currencyCode string) *models.WalletAccount {
	ctx := context.Background()

	if err := service.UpsertCurrency(ctx, models.Currency{
		Code: currencyCode, Name: currencyCode, Precision: 8, IsCrypto: true, IsActive: true,
	}); err != nil {
		t.Fatalf("Failed to seed currency: %v", err)
	}

	user, err := service.CreateUser(ctx, "user1", "Test User", "test@example.com")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	account, err := service.EnsureAccount(ctx, user.Id, currencyCode)
	if err != nil {
		t.Fatalf("Failed to ensure account: %v", err)
	}
	return account
}

func TestCredit_UpdatesBalances(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := seedTestAccount(t, service, "BTC")

	entry, err := service.Credit(ctx, store.EntryParams{
		AccountId: account.Id,
		Amount:    decimal.RequireFromString("1.5"),
		Reference: "tx1",
	})
	if err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	if !entry.BalanceBefore.Equal(decimal.Zero) {
		t.Errorf("Expected balance_before 0, got %s", entry.BalanceBefore.String())
	}
	if !entry.BalanceAfter.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("Expected balance_after 1.5, got %s", entry.BalanceAfter.String())
	}

	updated, err := service.GetAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !updated.Balance.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("Expected balance 1.5, got %s", updated.Balance.String())
	}
	if !updated.AvailableBalance.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("Expected available balance 1.5, got %s", updated.AvailableBalance.String())
	}
	if updated.Version != account.Version+1 {
		t.Errorf("Expected version %d, got %d", account.Version+1, updated.Version)
	}
}

func TestRecordEntry_RejectsNonPositiveAmounts(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := seedTestAccount(t, service, "BTC")

	for _, amount := range []string{"0", "-1"} {
		_, err := service.Credit(ctx, store.EntryParams{
			AccountId: account.Id,
			Amount:    decimal.RequireFromString(amount),
		})
		if !errors.Is(err, store.ErrInvalidAmount) {
			t.Errorf("Credit(%s): expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestDebit_InsufficientBalanceLeavesAccountUntouched(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := seedTestAccount(t, service, "BTC")

	if _, err := service.Credit(ctx, store.EntryParams{
		AccountId: account.Id,
		Amount:    decimal.RequireFromString("20"),
		Reference: "fund",
	}); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	if _, err := service.Debit(ctx, store.EntryParams{
		AccountId: account.Id,
		Amount:    decimal.RequireFromString("15"),
		Reference: "spend1",
	}); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}

	_, err := service.Debit(ctx, store.EntryParams{
		AccountId: account.Id,
		Amount:    decimal.RequireFromString("10"),
		Reference: "spend2",
	})
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	updated, err := service.GetAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !updated.Balance.Equal(decimal.RequireFromString("5")) {
		t.Errorf("Expected balance 5, got %s", updated.Balance.String())
	}
	if !updated.AvailableBalance.Equal(decimal.RequireFromString("5")) {
		t.Errorf("Expected available balance 5, got %s", updated.AvailableBalance.String())
	}

	history, err := service.GetTransactionHistory(ctx, account.Id, 10, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected 2 transactions, got %d", len(history))
	}
}

func TestCredit_DuplicateReferenceReturnsPriorTransaction(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := seedTestAccount(t, service, "BTC")

	params := store.EntryParams{
		AccountId: account.Id,
		Amount:    decimal.RequireFromString("3"),
		Reference: "txid123",
	}

	first, err := service.Credit(ctx, params)
	if err != nil {
		t.Fatalf("First credit failed: %v", err)
	}

	second, err := service.Credit(ctx, params)
	if !errors.Is(err, store.ErrDuplicateReference) {
		t.Fatalf("Expected ErrDuplicateReference, got %v", err)
	}
	if second == nil || second.Id != first.Id {
		t.Errorf("Expected the prior transaction to be returned")
	}

	updated, err := service.GetAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !updated.Balance.Equal(decimal.RequireFromString("3")) {
		t.Errorf("Expected balance 3 after duplicate, got %s", updated.Balance.String())
	}
}

func TestCredit_SameReferenceDifferentDirections(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := seedTestAccount(t, service, "BTC")

	if _, err := service.Credit(ctx, store.EntryParams{
		AccountId: account.Id,
		Amount:    decimal.RequireFromString("10"),
		Reference: "shared-ref",
	}); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	// The guard is per (account, reference, direction): a debit may reuse a
	// credit's reference.
	if _, err := service.Debit(ctx, store.EntryParams{
		AccountId: account.Id,
		Amount:    decimal.RequireFromString("4"),
		Reference: "shared-ref",
	}); err != nil {
		t.Fatalf("Debit with same reference failed: %v", err)
	}

	updated, err := service.GetAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !updated.Balance.Equal(decimal.RequireFromString("6")) {
		t.Errorf("Expected balance 6, got %s", updated.Balance.String())
	}
}

func TestDebit_UnknownAccount(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	_, err := service.Debit(context.Background(), store.EntryParams{
		AccountId: "missing",
		Amount:    decimal.RequireFromString("1"),
	})
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestConcurrentDebits_NeverOverspend(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := seedTestAccount(t, service, "BTC")

	if _, err := service.Credit(ctx, store.EntryParams{
		AccountId: account.Id,
		Amount:    decimal.RequireFromString("10"),
		Reference: "fund",
	}); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	// 20 workers each try to take 1; only 10 can succeed.
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Debit(ctx, store.EntryParams{
				AccountId: account.Id,
				Amount:    decimal.NewFromInt(1),
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, store.ErrInsufficientBalance) {
				t.Errorf("Unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Errorf("Expected 10 successful debits, got %d", succeeded)
	}

	updated, err := service.GetAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !updated.Balance.Equal(decimal.Zero) {
		t.Errorf("Expected balance 0, got %s", updated.Balance.String())
	}
	if updated.AvailableBalance.IsNegative() {
		t.Errorf("Available balance went negative: %s", updated.AvailableBalance.String())
	}
}
