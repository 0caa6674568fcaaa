/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Credit applies a confirmed credit to the account and records the
// transaction atomically. Idempotent on (account, reference): re-applying the
// same reference returns the original transaction with
// store.ErrDuplicateReference and does not move the balance.
func (s *Service) Credit(ctx context.Context, params store.EntryParams) (*models.WalletTransaction, error) {
	return s.recordEntry(ctx, models.DirectionCredit, params)
}

// Debit applies a confirmed debit to the account and records the transaction
// atomically. Fails with store.ErrInsufficientBalance when the available
// balance does not cover the amount; the account is left untouched.
func (s *Service) Debit(ctx context.Context, params store.EntryParams) (*models.WalletTransaction, error) {
	return s.recordEntry(ctx, models.DirectionDebit, params)
}

func (s *Service) recordEntry(ctx context.Context, direction string, params store.EntryParams) (*models.WalletTransaction, error) {
	zap.L().Info("Recording ledger entry",
		zap.String("account_id", params.AccountId),
		zap.String("direction", direction),
		zap.String("amount", params.Amount.String()),
		zap.String("reference", params.Reference))

	// Amount validation needs no lock; everything after does.
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: got %s", store.ErrInvalidAmount, params.Amount.String())
	}

	unlock := s.locks.Lock(params.AccountId)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entry, err := s.applyEntry(ctx, tx, direction, params)
	if err != nil {
		// The duplicate guard returns the prior transaction; nothing was
		// written, so the rollback is a no-op.
		return entry, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Ledger entry recorded",
		zap.String("transaction_id", entry.Id),
		zap.String("account_id", params.AccountId),
		zap.String("direction", direction),
		zap.String("old_balance", entry.BalanceBefore.String()),
		zap.String("new_balance", entry.BalanceAfter.String()))

	return entry, nil
}

// applyEntry performs the balance update and transaction insert inside the
// caller's sql transaction. The caller must hold the account lock and commit
// or roll back; this lets larger business scopes (membership purchase) make
// the debit part of their own atomic unit.
func (s *Service) applyEntry(ctx context.Context, tx *sql.Tx, direction string, params store.EntryParams) (*models.WalletTransaction, error) {
	// Duplicate reference guard
	if params.Reference != "" {
		prior, err := scanTransactionRow(tx.QueryRowContext(ctx, queryFindTransactionByReference,
			params.AccountId, params.Reference, direction))
		if err == nil {
			zap.L().Warn("Duplicate reference detected, skipping",
				zap.String("account_id", params.AccountId),
				zap.String("reference", params.Reference),
				zap.String("existing_transaction_id", prior.Id))
			return prior, fmt.Errorf("%w: reference %q already recorded for account %s",
				store.ErrDuplicateReference, params.Reference, params.AccountId)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check for duplicate reference: %w", err)
		}
	}

	var balanceStr, availableStr string
	var version int64
	err := tx.QueryRowContext(ctx, queryGetAccountBalances, params.AccountId).Scan(&balanceStr, &availableStr, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, params.AccountId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account balances: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	available, err := decimal.NewFromString(availableStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse available balance '%s': %w", availableStr, err)
	}

	var newBalance, newAvailable decimal.Decimal
	switch direction {
	case models.DirectionCredit:
		newBalance = balance.Add(params.Amount)
		newAvailable = available.Add(params.Amount)
	case models.DirectionDebit:
		if available.LessThan(params.Amount) {
			return nil, fmt.Errorf("%w: available %s, requested %s",
				store.ErrInsufficientBalance, available.String(), params.Amount.String())
		}
		newBalance = balance.Sub(params.Amount)
		newAvailable = available.Sub(params.Amount)
	default:
		return nil, fmt.Errorf("unknown direction %q", direction)
	}

	metadataJson, err := marshalMetadata(params.Metadata)
	if err != nil {
		return nil, err
	}

	entry := &models.WalletTransaction{
		Id:            uuid.New().String(),
		AccountId:     params.AccountId,
		Amount:        params.Amount,
		Direction:     direction,
		Status:        models.StatusConfirmed,
		Reference:     params.Reference,
		Metadata:      params.Metadata,
		BalanceBefore: balance,
		BalanceAfter:  newBalance,
		CreatedAt:     time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, queryInsertTransaction,
		entry.Id, entry.AccountId, entry.Amount.String(), entry.Direction, entry.Status,
		entry.Reference, metadataJson, entry.BalanceBefore.String(), entry.BalanceAfter.String(), entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryUpdateAccountBalances,
		newBalance.String(), newAvailable.String(), params.AccountId, version)
	if err != nil {
		return nil, fmt.Errorf("failed to update balances: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Cannot happen while the account lock is held; kept as a guard
		// against callers bypassing the lock.
		return nil, fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	return entry, nil
}

func marshalMetadata(metadata map[string]string) (string, error) {
	if len(metadata) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return string(data), nil
}

func unmarshalMetadata(raw string) (map[string]string, error) {
	if raw == "" || raw == "{}" {
		return nil, nil
	}
	var metadata map[string]string
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata '%s': %w", raw, err)
	}
	return metadata, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransactionRow(row rowScanner) (*models.WalletTransaction, error) {
	var entry models.WalletTransaction
	var amountStr, balanceBeforeStr, balanceAfterStr, metadataStr string
	err := row.Scan(&entry.Id, &entry.AccountId, &amountStr, &entry.Direction, &entry.Status,
		&entry.Reference, &metadataStr, &balanceBeforeStr, &balanceAfterStr, &entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if entry.BalanceBefore, err = decimal.NewFromString(balanceBeforeStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance_before '%s': %w", balanceBeforeStr, err)
	}
	if entry.BalanceAfter, err = decimal.NewFromString(balanceAfterStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance_after '%s': %w", balanceAfterStr, err)
	}
	if entry.Metadata, err = unmarshalMetadata(metadataStr); err != nil {
		return nil, err
	}

	return &entry, nil
}
