package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) StoreDepositAddress(ctx context.Context, params store.StoreDepositAddressParams) (*models.DepositAddress, error) {
	zap.L().Info("Storing deposit address",
		zap.String("account_id", params.AccountId),
		zap.String("address", params.Address))

	addressId := uuid.New().String()

	addr := &models.DepositAddress{}
	err := s.db.QueryRowContext(ctx, queryInsertDepositAddress, addressId, params.AccountId, params.Address, params.Label).Scan(
		&addr.Id, &addr.AccountId, &addr.Address, &addr.Label, &addr.IsActive, &addr.CreatedAt,
	)
	if err != nil {
		zap.L().Error("Failed to insert deposit address",
			zap.String("account_id", params.AccountId),
			zap.String("address", params.Address),
			zap.Error(err))
		return nil, fmt.Errorf("unable to insert deposit address: %w", err)
	}

	zap.L().Info("Deposit address stored successfully", zap.String("id", addressId))
	return addr, nil
}

// GetActiveDepositAddress returns the account's oldest active address, or
// (nil, nil) when the account has none yet.
func (s *Service) GetActiveDepositAddress(ctx context.Context, accountId string) (*models.DepositAddress, error) {
	var addr models.DepositAddress
	err := s.db.QueryRowContext(ctx, queryGetActiveDepositAddress, accountId).Scan(
		&addr.Id, &addr.AccountId, &addr.Address, &addr.Label, &addr.IsActive, &addr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to query deposit address: %w", err)
	}
	return &addr, nil
}
