package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func writeSeedFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "currencies.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}
	return path
}

func TestLoadSeedData(t *testing.T) {
	path := writeSeedFile(t, `
currencies:
  - code: BTC
    name: Bitcoin
    precision: 8
    crypto: true
    node:
      rpc_url: http://localhost:8332
      rpc_username: rpcuser
      rpc_password: rpcpass
  - code: EUR
    name: Euro
    precision: 2
    crypto: false

plans:
  - id: basic
    name: Basic
    currency: BTC
    amount: "0.001"

upgrade_rules:
  - from_plan: basic
    to_plan: pro
    additional_cost: "0.002"
`)

	seed, err := LoadSeedData(path)
	if err != nil {
		t.Fatalf("LoadSeedData failed: %v", err)
	}

	if len(seed.Currencies) != 2 {
		t.Fatalf("Expected 2 currencies, got %d", len(seed.Currencies))
	}
	btc := seed.Currencies[0]
	if btc.Code != "BTC" || btc.Node == nil || btc.Node.RpcUrl != "http://localhost:8332" {
		t.Errorf("Unexpected BTC seed: %+v", btc)
	}
	if seed.Currencies[1].Node != nil {
		t.Errorf("Expected EUR to have no node section")
	}

	if len(seed.Plans) != 1 {
		t.Fatalf("Expected 1 plan, got %d", len(seed.Plans))
	}
	plan := seed.Plans[0]
	if !plan.Amount.Equal(decimal.RequireFromString("0.001")) {
		t.Errorf("Expected plan amount 0.001, got %s", plan.Amount.String())
	}
	if plan.DurationDays != 30 {
		t.Errorf("Expected default duration 30, got %d", plan.DurationDays)
	}

	if len(seed.UpgradeRules) != 1 {
		t.Fatalf("Expected 1 upgrade rule, got %d", len(seed.UpgradeRules))
	}
	if !seed.UpgradeRules[0].AdditionalCost.Equal(decimal.RequireFromString("0.002")) {
		t.Errorf("Expected additional cost 0.002, got %s", seed.UpgradeRules[0].AdditionalCost.String())
	}
}

func TestLoadSeedData_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing code",
			content: "currencies:\n  - name: Mystery\n",
			wantErr: "missing code",
		},
		{
			name:    "node without url",
			content: "currencies:\n  - code: BTC\n    node:\n      rpc_username: user\n",
			wantErr: "without rpc_url",
		},
		{
			name:    "bad plan amount",
			content: "plans:\n  - id: basic\n    currency: BTC\n    amount: lots\n",
			wantErr: "invalid amount",
		},
		{
			name:    "bad upgrade cost",
			content: "upgrade_rules:\n  - from_plan: a\n    to_plan: b\n    additional_cost: heaps\n",
			wantErr: "invalid cost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSeedFile(t, tt.content)
			_, err := LoadSeedData(path)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
