package wallet

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wallet-node-ledger-go/internal/database"
	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/node"
	"wallet-node-ledger-go/internal/notify"
	"wallet-node-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

// fakeNodeClient hands out sequential addresses and counts calls.
type fakeNodeClient struct {
	generated int
}

func (f *fakeNodeClient) GenerateAddress(_ context.Context, account *models.WalletAccount) (string, error) {
	f.generated++
	return "bc1qtest" + account.Id, nil
}

func (f *fakeNodeClient) GetBalance(_ context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakeNodeClient) ListTransactions(_ context.Context) ([]models.ExternalTransfer, error) {
	return nil, nil
}

type fakeClientSource struct {
	client node.Client
}

func (f *fakeClientSource) ClientFor(_ context.Context, _ models.Currency) (node.Client, error) {
	return f.client, nil
}

// recordingDispatcher captures dispatched event codes.
type recordingDispatcher struct {
	events []string
}

func (r *recordingDispatcher) SendEvent(_ context.Context, userId, eventCode string, _ map[string]string) (*models.DeliveryLog, error) {
	r.events = append(r.events, eventCode)
	return &models.DeliveryLog{UserId: userId, EventCode: eventCode}, nil
}

func setupWalletService(t *testing.T) (*Service, store.LedgerStore, *fakeNodeClient, *recordingDispatcher) {
	ctx := context.Background()

	ledger, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "wallet_test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create database service: %v", err)
	}
	t.Cleanup(ledger.Close)

	if err := ledger.UpsertCurrency(ctx, models.Currency{
		Code: "BTC", Name: "Bitcoin", Precision: 8, IsCrypto: true, IsActive: true,
	}); err != nil {
		t.Fatalf("Failed to seed currency: %v", err)
	}
	if _, err := ledger.CreateUser(ctx, "user1", "Test User", "test@example.com"); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	client := &fakeNodeClient{}
	dispatcher := &recordingDispatcher{}
	service := NewService(ledger, &fakeClientSource{client: client}, dispatcher)
	return service, ledger, client, dispatcher
}

func TestGetOrCreateDepositAddress_Idempotent(t *testing.T) {
	service, _, client, _ := setupWalletService(t)

	ctx := context.Background()
	account, err := service.EnsureAccount(ctx, "user1", "BTC")
	if err != nil {
		t.Fatalf("EnsureAccount failed: %v", err)
	}

	first, err := service.GetOrCreateDepositAddress(ctx, account)
	if err != nil {
		t.Fatalf("GetOrCreateDepositAddress failed: %v", err)
	}
	second, err := service.GetOrCreateDepositAddress(ctx, account)
	if err != nil {
		t.Fatalf("GetOrCreateDepositAddress failed: %v", err)
	}

	if first.Address != second.Address {
		t.Errorf("Expected the same address, got %s and %s", first.Address, second.Address)
	}
	if client.generated != 1 {
		t.Errorf("Expected exactly one node call, got %d", client.generated)
	}
}

func TestRecordDeposit_CreditsAndNotifies(t *testing.T) {
	service, ledger, _, dispatcher := setupWalletService(t)

	ctx := context.Background()
	account, err := service.EnsureAccount(ctx, "user1", "BTC")
	if err != nil {
		t.Fatalf("EnsureAccount failed: %v", err)
	}

	entry, err := service.RecordDeposit(ctx, account, decimal.RequireFromString("0.75"), "txid-abc")
	if err != nil {
		t.Fatalf("RecordDeposit failed: %v", err)
	}
	if entry.Reference != "txid-abc" {
		t.Errorf("Expected reference txid-abc, got %s", entry.Reference)
	}

	updated, err := ledger.GetAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !updated.Balance.Equal(decimal.RequireFromString("0.75")) {
		t.Errorf("Expected balance 0.75, got %s", updated.Balance.String())
	}

	if len(dispatcher.events) != 1 || dispatcher.events[0] != notify.EventDepositReceived {
		t.Errorf("Expected deposit notification, got %v", dispatcher.events)
	}

	// Replaying the same external id must not notify or credit again.
	_, err = service.RecordDeposit(ctx, account, decimal.RequireFromString("0.75"), "txid-abc")
	if !errors.Is(err, store.ErrDuplicateReference) {
		t.Fatalf("Expected ErrDuplicateReference, got %v", err)
	}
	if len(dispatcher.events) != 1 {
		t.Errorf("Expected no second notification, got %v", dispatcher.events)
	}
}

func TestRequestWithdrawal_DebitsAccount(t *testing.T) {
	service, ledger, _, dispatcher := setupWalletService(t)

	ctx := context.Background()
	account, err := service.EnsureAccount(ctx, "user1", "BTC")
	if err != nil {
		t.Fatalf("EnsureAccount failed: %v", err)
	}
	if _, err := service.RecordDeposit(ctx, account, decimal.NewFromInt(5), "fund"); err != nil {
		t.Fatalf("RecordDeposit failed: %v", err)
	}

	// Two withdrawals to the same address must both go through.
	for i := 0; i < 2; i++ {
		if _, err := service.RequestWithdrawal(ctx, account, decimal.NewFromInt(2), "bc1qexternal"); err != nil {
			t.Fatalf("RequestWithdrawal %d failed: %v", i, err)
		}
	}

	updated, err := ledger.GetAccount(ctx, account.Id)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !updated.Balance.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected balance 1, got %s", updated.Balance.String())
	}

	withdrawals := 0
	for _, event := range dispatcher.events {
		if event == notify.EventWithdrawalRequested {
			withdrawals++
		}
	}
	if withdrawals != 2 {
		t.Errorf("Expected 2 withdrawal notifications, got %d", withdrawals)
	}
}

func TestRequestWithdrawal_InsufficientBalance(t *testing.T) {
	service, _, _, _ := setupWalletService(t)

	ctx := context.Background()
	account, err := service.EnsureAccount(ctx, "user1", "BTC")
	if err != nil {
		t.Fatalf("EnsureAccount failed: %v", err)
	}

	_, err = service.RequestWithdrawal(ctx, account, decimal.NewFromInt(1), "bc1qexternal")
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}
}
