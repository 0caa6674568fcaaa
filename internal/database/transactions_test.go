package database

import (
	"context"
	"strings"
	"testing"

	"wallet-node-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestGetTransactionHistory_NewestFirst(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := seedTestAccount(t, service, "BTC")

	for _, ref := range []string{"tx1", "tx2", "tx3"} {
		if _, err := service.Credit(ctx, store.EntryParams{
			AccountId: account.Id,
			Amount:    decimal.NewFromInt(1),
			Reference: ref,
		}); err != nil {
			t.Fatalf("Credit %s failed: %v", ref, err)
		}
	}

	history, err := service.GetTransactionHistory(ctx, account.Id, 2, 0)
	if err != nil {
		t.Fatalf("GetTransactionHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(history))
	}
	if history[0].Reference != "tx3" {
		t.Errorf("Expected newest transaction first, got reference %s", history[0].Reference)
	}

	rest, err := service.GetTransactionHistory(ctx, account.Id, 2, 2)
	if err != nil {
		t.Fatalf("GetTransactionHistory with offset failed: %v", err)
	}
	if len(rest) != 1 || rest[0].Reference != "tx1" {
		t.Errorf("Expected the oldest transaction on the last page, got %+v", rest)
	}
}

func TestReconcileAccountBalance(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := seedTestAccount(t, service, "BTC")

	if _, err := service.Credit(ctx, store.EntryParams{
		AccountId: account.Id, Amount: decimal.RequireFromString("2.5"), Reference: "tx1",
	}); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if _, err := service.Debit(ctx, store.EntryParams{
		AccountId: account.Id, Amount: decimal.RequireFromString("1.25"), Reference: "tx2",
	}); err != nil {
		t.Fatalf("Debit failed: %v", err)
	}

	if err := service.ReconcileAccountBalance(ctx, account.Id); err != nil {
		t.Fatalf("Expected reconciliation to pass: %v", err)
	}

	// Corrupt the stored balance behind the ledger's back.
	if _, err := service.db.Exec("UPDATE wallet_accounts SET balance = '99' WHERE id = ?", account.Id); err != nil {
		t.Fatalf("Failed to corrupt balance: %v", err)
	}

	err := service.ReconcileAccountBalance(ctx, account.Id)
	if err == nil {
		t.Fatal("Expected reconciliation to fail after corruption")
	}
	if !strings.Contains(err.Error(), "balance mismatch") {
		t.Errorf("Expected balance mismatch error, got %v", err)
	}
}

func TestCaptureBalanceSnapshots(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := seedTestAccount(t, service, "BTC")

	if _, err := service.Credit(ctx, store.EntryParams{
		AccountId: account.Id, Amount: decimal.NewFromInt(7), Reference: "tx1",
	}); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	count, err := service.CaptureBalanceSnapshots(ctx)
	if err != nil {
		t.Fatalf("CaptureBalanceSnapshots failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 snapshot, got %d", count)
	}

	var balance string
	err = service.db.QueryRow("SELECT balance FROM balance_snapshots WHERE account_id = ?", account.Id).Scan(&balance)
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	if balance != "7" {
		t.Errorf("Expected snapshot balance 7, got %s", balance)
	}
}

func TestDepositAddressRoundTrip(t *testing.T) {
	service, cleanup := setupLedgerTestDB(t)
	defer cleanup()

	ctx := context.Background()
	account := seedTestAccount(t, service, "BTC")

	existing, err := service.GetActiveDepositAddress(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetActiveDepositAddress failed: %v", err)
	}
	if existing != nil {
		t.Fatalf("Expected no address yet, got %+v", existing)
	}

	stored, err := service.StoreDepositAddress(ctx, store.StoreDepositAddressParams{
		AccountId: account.Id,
		Address:   "bc1qtestaddress",
		Label:     "BTC deposit",
	})
	if err != nil {
		t.Fatalf("StoreDepositAddress failed: %v", err)
	}
	if stored.Address != "bc1qtestaddress" {
		t.Errorf("Expected stored address to round trip, got %s", stored.Address)
	}

	active, err := service.GetActiveDepositAddress(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetActiveDepositAddress failed: %v", err)
	}
	if active == nil || active.Address != "bc1qtestaddress" {
		t.Errorf("Expected active address bc1qtestaddress, got %+v", active)
	}

	accounts, err := service.FindAccountsByDepositAddress(ctx, "BC1QTESTADDRESS")
	if err != nil {
		t.Fatalf("FindAccountsByDepositAddress failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Id != account.Id {
		t.Errorf("Expected case-insensitive address lookup to find the account")
	}
}
