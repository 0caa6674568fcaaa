package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) ListActiveCurrencies(ctx context.Context) ([]models.Currency, error) {
	rows, err := s.db.QueryContext(ctx, queryListActiveCurrencies)
	if err != nil {
		return nil, fmt.Errorf("unable to query currencies: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var currencies []models.Currency
	for rows.Next() {
		var currency models.Currency
		err := rows.Scan(&currency.Code, &currency.Name, &currency.Precision,
			&currency.IsCrypto, &currency.Network, &currency.IsActive)
		if err != nil {
			return nil, fmt.Errorf("unable to scan currency row: %w", err)
		}
		currencies = append(currencies, currency)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency rows: %w", err)
	}
	return currencies, nil
}

func (s *Service) GetCurrency(ctx context.Context, code string) (*models.Currency, error) {
	var currency models.Currency
	err := s.db.QueryRowContext(ctx, queryGetCurrency, code).Scan(
		&currency.Code, &currency.Name, &currency.Precision,
		&currency.IsCrypto, &currency.Network, &currency.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrCurrencyNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query currency: %w", err)
	}
	return &currency, nil
}

func (s *Service) UpsertCurrency(ctx context.Context, currency models.Currency) error {
	_, err := s.db.ExecContext(ctx, queryUpsertCurrency,
		currency.Code, currency.Name, currency.Precision,
		currency.IsCrypto, currency.Network, currency.IsActive)
	if err != nil {
		return fmt.Errorf("unable to upsert currency %s: %w", currency.Code, err)
	}
	zap.L().Info("Currency upserted", zap.String("code", currency.Code))
	return nil
}

// GetNodeConfiguration returns the active node configuration for a currency,
// or (nil, nil) when the currency has no configured node.
func (s *Service) GetNodeConfiguration(ctx context.Context, currencyCode string) (*models.NodeConfiguration, error) {
	var node models.NodeConfiguration
	var headersJson string
	err := s.db.QueryRowContext(ctx, queryGetNodeConfiguration, currencyCode).Scan(
		&node.Id, &node.CurrencyCode, &node.RpcUrl, &node.RpcUsername, &node.RpcPassword,
		&headersJson, &node.IsActive, &node.CreatedAt, &node.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query node configuration: %w", err)
	}

	if headersJson != "" && headersJson != "{}" {
		if err := json.Unmarshal([]byte(headersJson), &node.Headers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node headers '%s': %w", headersJson, err)
		}
	}
	return &node, nil
}

func (s *Service) UpsertNodeConfiguration(ctx context.Context, node models.NodeConfiguration) error {
	headersJson := "{}"
	if len(node.Headers) > 0 {
		data, err := json.Marshal(node.Headers)
		if err != nil {
			return fmt.Errorf("failed to marshal node headers: %w", err)
		}
		headersJson = string(data)
	}

	nodeId := node.Id
	if nodeId == "" {
		nodeId = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, queryUpsertNodeConfiguration,
		nodeId, node.CurrencyCode, node.RpcUrl, node.RpcUsername, node.RpcPassword,
		headersJson, node.IsActive)
	if err != nil {
		return fmt.Errorf("unable to upsert node configuration for %s: %w", node.CurrencyCode, err)
	}

	zap.L().Info("Node configuration upserted",
		zap.String("currency", node.CurrencyCode),
		zap.String("rpc_url", node.RpcUrl))
	return nil
}
