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
	"fmt"

	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/store"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

type Service struct {
	db    *sql.DB
	locks *accountLocks
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		err := db.Close()
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db, locks: newAccountLocks()}
	if err := service.initSchema(cfg.CreateDummyUsers); err != nil {
		err := db.Close()
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema(createDummyUsers bool) error {
	schema := `
	-- Create users table
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_active ON users(active);

	-- Supported currencies (reference data, edited rarely)
	CREATE TABLE IF NOT EXISTS currencies (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		precision INTEGER NOT NULL DEFAULT 8,
		is_crypto BOOLEAN NOT NULL DEFAULT 1,
		network TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_currencies_active ON currencies(is_active);

	-- Node endpoint configuration, one per currency
	CREATE TABLE IF NOT EXISTS node_configurations (
		id TEXT PRIMARY KEY,
		currency_code TEXT NOT NULL UNIQUE REFERENCES currencies(code) ON DELETE CASCADE,
		rpc_url TEXT NOT NULL,
		rpc_username TEXT NOT NULL DEFAULT '',
		rpc_password TEXT NOT NULL DEFAULT '',
		headers TEXT NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Wallet accounts (current balance state - hot data)
	CREATE TABLE IF NOT EXISTS wallet_accounts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		currency_code TEXT NOT NULL REFERENCES currencies(code),
		balance TEXT NOT NULL DEFAULT '0',
		available_balance TEXT NOT NULL DEFAULT '0',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, currency_code)
	);

	CREATE INDEX IF NOT EXISTS idx_wallet_accounts_user_id ON wallet_accounts(user_id);

	-- Wallet transactions (audit trail - append only)
	CREATE TABLE IF NOT EXISTS wallet_transactions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES wallet_accounts(id) ON DELETE CASCADE,
		amount TEXT NOT NULL,
		direction TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'confirmed',
		reference TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_wallet_transactions_account ON wallet_transactions(account_id);
	CREATE INDEX IF NOT EXISTS idx_wallet_transactions_created_at ON wallet_transactions(created_at);
	-- Idempotency guard: one transaction per (account, reference, direction)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_wallet_transactions_reference
		ON wallet_transactions(account_id, reference, direction)
		WHERE reference != '';

	-- Deposit addresses bound to accounts
	CREATE TABLE IF NOT EXISTS deposit_addresses (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES wallet_accounts(id) ON DELETE CASCADE,
		address TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, address)
	);

	CREATE INDEX IF NOT EXISTS idx_deposit_addresses_address ON deposit_addresses(address);

	-- Historical balance snapshots for analytics
	CREATE TABLE IF NOT EXISTS balance_snapshots (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES wallet_accounts(id) ON DELETE CASCADE,
		balance TEXT NOT NULL,
		available_balance TEXT NOT NULL,
		captured_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_balance_snapshots_account ON balance_snapshots(account_id, captured_at);

	-- Membership billing
	CREATE TABLE IF NOT EXISTS membership_plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency_code TEXT NOT NULL REFERENCES currencies(code),
		amount TEXT NOT NULL,
		duration_days INTEGER NOT NULL DEFAULT 30,
		is_active BOOLEAN NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS membership_upgrade_rules (
		id TEXT PRIMARY KEY,
		from_plan_id TEXT NOT NULL REFERENCES membership_plans(id),
		to_plan_id TEXT NOT NULL REFERENCES membership_plans(id),
		additional_cost TEXT NOT NULL DEFAULT '0',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		UNIQUE(from_plan_id, to_plan_id)
	);

	CREATE TABLE IF NOT EXISTS membership_invoices (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		plan_id TEXT NOT NULL REFERENCES membership_plans(id),
		currency_code TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		transaction_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_membership_invoices_user ON membership_invoices(user_id);

	CREATE TABLE IF NOT EXISTS user_memberships (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		plan_id TEXT NOT NULL REFERENCES membership_plans(id),
		status TEXT NOT NULL DEFAULT 'pending',
		last_transaction_id TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_user_memberships_user ON user_memberships(user_id);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return err
	}

	// Insert dummy users for testing if configured to do so
	if createDummyUsers {
		users := []struct {
			id    string
			name  string
			email string
		}{
			{uuid.New().String(), "Alice Johnson", "alice.johnson@example.com"},
			{uuid.New().String(), "Bob Smith", "bob.smith@example.com"},
			{uuid.New().String(), "Carol Williams", "carol.williams@example.com"},
		}

		for _, user := range users {
			_, err := s.db.Exec(queryInsertUser, user.id, user.name, user.email)
			if err != nil {
				zap.L().Error("Failed to insert dummy user", zap.String("name", user.name), zap.Error(err))
			} else {
				zap.L().Info("Dummy user created", zap.String("id", user.id), zap.String("name", user.name))
			}
		}
	} else {
		zap.L().Info("Skipping dummy user creation (CREATE_DUMMY_USERS=false)")
	}

	return nil
}
