package node

import (
	"context"
	"errors"
	"testing"

	"wallet-node-ledger-go/internal/models"
)

// stubConfigSource returns a fixed configuration per currency code.
type stubConfigSource struct {
	configs map[string]*models.NodeConfiguration
	err     error
}

func (s *stubConfigSource) GetNodeConfiguration(_ context.Context, currencyCode string) (*models.NodeConfiguration, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.configs[currencyCode], nil
}

func TestClientFor_EligibleCurrencyGetsRPCClient(t *testing.T) {
	source := &stubConfigSource{configs: map[string]*models.NodeConfiguration{
		"BTC": {CurrencyCode: "BTC", RpcUrl: "http://localhost:8332"},
	}}
	registry := NewRegistry(source, models.NodeClientConfig{})

	client, err := registry.ClientFor(context.Background(), models.Currency{Code: "BTC"})
	if err != nil {
		t.Fatalf("ClientFor failed: %v", err)
	}
	if _, ok := client.(*RPCClient); !ok {
		t.Errorf("Expected *RPCClient, got %T", client)
	}
}

func TestClientFor_UnconfiguredCurrencyGetsPlaceholder(t *testing.T) {
	source := &stubConfigSource{}
	registry := NewRegistry(source, models.NodeClientConfig{})

	ctx := context.Background()
	client, err := registry.ClientFor(ctx, models.Currency{Code: "BTC"})
	if err != nil {
		t.Fatalf("ClientFor failed: %v", err)
	}
	placeholder, ok := client.(*PlaceholderClient)
	if !ok {
		t.Fatalf("Expected *PlaceholderClient, got %T", client)
	}

	balance, err := placeholder.GetBalance(ctx)
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("Expected zero placeholder balance, got %s", balance.String())
	}

	transfers, err := placeholder.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("ListTransactions failed: %v", err)
	}
	if len(transfers) != 0 {
		t.Errorf("Expected no placeholder transfers, got %d", len(transfers))
	}
}

func TestClientFor_IneligibleCurrencyGetsPlaceholder(t *testing.T) {
	// A configuration exists, but the currency has no RPC support.
	source := &stubConfigSource{configs: map[string]*models.NodeConfiguration{
		"EUR": {CurrencyCode: "EUR", RpcUrl: "http://localhost:9999"},
	}}
	registry := NewRegistry(source, models.NodeClientConfig{})

	client, err := registry.ClientFor(context.Background(), models.Currency{Code: "EUR"})
	if err != nil {
		t.Fatalf("ClientFor failed: %v", err)
	}
	if _, ok := client.(*PlaceholderClient); !ok {
		t.Errorf("Expected *PlaceholderClient for ineligible currency, got %T", client)
	}
}

func TestClientFor_RequireLive(t *testing.T) {
	source := &stubConfigSource{}
	registry := NewRegistry(source, models.NodeClientConfig{}, RequireLive())

	_, err := registry.ClientFor(context.Background(), models.Currency{Code: "BTC"})
	if !errors.Is(err, ErrConfigurationMissing) {
		t.Fatalf("Expected ErrConfigurationMissing, got %v", err)
	}
}

func TestClientFor_ConfigSourceError(t *testing.T) {
	sourceErr := errors.New("database unavailable")
	registry := NewRegistry(&stubConfigSource{err: sourceErr}, models.NodeClientConfig{})

	_, err := registry.ClientFor(context.Background(), models.Currency{Code: "BTC"})
	if !errors.Is(err, sourceErr) {
		t.Fatalf("Expected config source error to propagate, got %v", err)
	}
}

func TestPlaceholderAddressesAreDistinct(t *testing.T) {
	client := NewPlaceholderClient(models.Currency{Code: "DOGE"})

	ctx := context.Background()
	first, err := client.GenerateAddress(ctx, &models.WalletAccount{Id: "acct1", UserId: "user1"})
	if err != nil {
		t.Fatalf("GenerateAddress failed: %v", err)
	}
	second, err := client.GenerateAddress(ctx, &models.WalletAccount{Id: "acct2", UserId: "user1"})
	if err != nil {
		t.Fatalf("GenerateAddress failed: %v", err)
	}
	if first == second {
		t.Errorf("Expected distinct placeholder addresses, got %s twice", first)
	}
}
