package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EnsureAccount returns the wallet account for (user, currency), creating it
// with zero balances on first use.
func (s *Service) EnsureAccount(ctx context.Context, userId, currencyCode string) (*models.WalletAccount, error) {
	account, err := s.getAccountForUserCurrency(ctx, userId, currencyCode)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	if _, err := s.GetCurrency(ctx, currencyCode); err != nil {
		return nil, err
	}

	accountId := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, queryInsertAccount, accountId, userId, currencyCode); err != nil {
		// Lost a race with a concurrent EnsureAccount for the same pair.
		existing, lookupErr := s.getAccountForUserCurrency(ctx, userId, currencyCode)
		if lookupErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	zap.L().Info("Wallet account created",
		zap.String("account_id", accountId),
		zap.String("user_id", userId),
		zap.String("currency", currencyCode))

	return s.GetAccount(ctx, accountId)
}

func (s *Service) getAccountForUserCurrency(ctx context.Context, userId, currencyCode string) (*models.WalletAccount, error) {
	return scanAccountRow(s.db.QueryRowContext(ctx, queryGetAccountForUserCurrency, userId, currencyCode))
}

func (s *Service) GetAccount(ctx context.Context, accountId string) (*models.WalletAccount, error) {
	account, err := scanAccountRow(s.db.QueryRowContext(ctx, queryGetAccountById, accountId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

func (s *Service) GetUserAccounts(ctx context.Context, userId string) ([]models.WalletAccount, error) {
	zap.L().Debug("Querying accounts for user", zap.String("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryGetUserAccounts, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to query accounts: %w", err)
	}
	return collectAccounts(rows)
}

// FindAccountsByDepositAddress resolves a receiving address to every account
// it is bound to. More than one match is possible when an address was
// historically reused; callers credit all of them.
func (s *Service) FindAccountsByDepositAddress(ctx context.Context, address string) ([]models.WalletAccount, error) {
	rows, err := s.db.QueryContext(ctx, queryFindAccountsByDepositAddress, address)
	if err != nil {
		return nil, fmt.Errorf("unable to query accounts by address: %w", err)
	}
	return collectAccounts(rows)
}

func collectAccounts(rows *sql.Rows) ([]models.WalletAccount, error) {
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var accounts []models.WalletAccount
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan account row: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}
	return accounts, nil
}

func scanAccountRow(row rowScanner) (*models.WalletAccount, error) {
	var account models.WalletAccount
	var balanceStr, availableStr string
	err := row.Scan(&account.Id, &account.UserId, &account.CurrencyCode,
		&balanceStr, &availableStr, &account.Version, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if account.Balance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	if account.AvailableBalance, err = decimal.NewFromString(availableStr); err != nil {
		return nil, fmt.Errorf("failed to parse available balance '%s': %w", availableStr, err)
	}
	return &account, nil
}
