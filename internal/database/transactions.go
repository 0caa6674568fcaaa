package database

import (
	"context"
	"database/sql"
	"fmt"

	"wallet-node-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetTransactionHistory returns paginated transaction history for an account,
// newest first.
func (s *Service) GetTransactionHistory(ctx context.Context, accountId string, limit, offset int) ([]models.WalletTransaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("account_id", accountId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, accountId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.WalletTransaction
	for rows.Next() {
		entry, err := scanTransactionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *entry)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// ReconcileAccountBalance verifies that the stored balance matches the signed
// sum of all confirmed transactions for the account.
func (s *Service) ReconcileAccountBalance(ctx context.Context, accountId string) error {
	zap.L().Info("Reconciling account balance", zap.String("account_id", accountId))

	account, err := s.GetAccount(ctx, accountId)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, queryReconcileAccountBalance, accountId)
	if err != nil {
		return fmt.Errorf("failed to query confirmed transactions: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	calculated := decimal.Zero
	for rows.Next() {
		var amountStr, direction string
		if err := rows.Scan(&amountStr, &direction); err != nil {
			return fmt.Errorf("failed to scan transaction amount: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		if direction == models.DirectionCredit {
			calculated = calculated.Add(amount)
		} else {
			calculated = calculated.Sub(amount)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating transaction rows: %w", err)
	}

	if !account.Balance.Equal(calculated) {
		zap.L().Error("Balance reconciliation failed",
			zap.String("account_id", accountId),
			zap.String("current_balance", account.Balance.String()),
			zap.String("calculated_balance", calculated.String()),
			zap.String("difference", account.Balance.Sub(calculated).String()))
		return fmt.Errorf("balance mismatch: current=%s, calculated=%s", account.Balance.String(), calculated.String())
	}

	zap.L().Info("Balance reconciliation successful",
		zap.String("account_id", accountId),
		zap.String("balance", account.Balance.String()))
	return nil
}
