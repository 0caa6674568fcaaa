package node

import (
	"context"
	"fmt"

	"wallet-node-ledger-go/internal/models"

	"go.uber.org/zap"
)

// rpcEligible lists the currency codes served by the JSON-RPC client; every
// other currency falls back to the placeholder.
var rpcEligible = map[string]bool{
	"BTC":  true,
	"XMR":  true,
	"USDT": true,
}

// ConfigSource supplies node configurations. The database service satisfies
// it; tests substitute a stub.
type ConfigSource interface {
	GetNodeConfiguration(ctx context.Context, currencyCode string) (*models.NodeConfiguration, error)
}

// Registry selects the client variant for a currency. New transport types
// stay additive: register a new constructor, no subclassing chains.
type Registry struct {
	configs     ConfigSource
	clientCfg   models.NodeClientConfig
	requireLive bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// RequireLive makes lookups fail with ErrConfigurationMissing instead of
// handing out a placeholder. Used by flows that must not touch a synthetic
// client (user-initiated address generation for crypto currencies).
func RequireLive() RegistryOption {
	return func(r *Registry) { r.requireLive = true }
}

func NewRegistry(configs ConfigSource, clientCfg models.NodeClientConfig, opts ...RegistryOption) *Registry {
	r := &Registry{configs: configs, clientCfg: clientCfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClientFor returns the node client for a currency: the RPC client when the
// currency is eligible and has an active configuration, otherwise the
// placeholder (or ErrConfigurationMissing under RequireLive).
func (r *Registry) ClientFor(ctx context.Context, currency models.Currency) (Client, error) {
	cfg, err := r.configs.GetNodeConfiguration(ctx, currency.Code)
	if err != nil {
		return nil, fmt.Errorf("unable to load node configuration for %s: %w", currency.Code, err)
	}

	if cfg != nil && rpcEligible[currency.Code] {
		return NewRPCClient(cfg, r.clientCfg)
	}

	if r.requireLive {
		return nil, fmt.Errorf("%w: %s", ErrConfigurationMissing, currency.Code)
	}

	zap.L().Debug("Falling back to placeholder node client",
		zap.String("currency", currency.Code),
		zap.Bool("has_configuration", cfg != nil))
	return NewPlaceholderClient(currency), nil
}
