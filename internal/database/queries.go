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

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email) VALUES (?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserByEmail = `
		SELECT id, name, email, created_at, updated_at
		FROM users
		WHERE email = ? AND active = 1`

	// Currency queries
	queryListActiveCurrencies = `
		SELECT code, name, precision, is_crypto, network, is_active
		FROM currencies
		WHERE is_active = 1
		ORDER BY code`

	queryGetCurrency = `
		SELECT code, name, precision, is_crypto, network, is_active
		FROM currencies
		WHERE code = ?`

	queryUpsertCurrency = `
		INSERT INTO currencies (code, name, precision, is_crypto, network, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			precision = excluded.precision,
			is_crypto = excluded.is_crypto,
			network = excluded.network,
			is_active = excluded.is_active`

	queryGetNodeConfiguration = `
		SELECT id, currency_code, rpc_url, rpc_username, rpc_password, headers, is_active, created_at, updated_at
		FROM node_configurations
		WHERE currency_code = ? AND is_active = 1`

	queryUpsertNodeConfiguration = `
		INSERT INTO node_configurations (id, currency_code, rpc_url, rpc_username, rpc_password, headers, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(currency_code) DO UPDATE SET
			rpc_url = excluded.rpc_url,
			rpc_username = excluded.rpc_username,
			rpc_password = excluded.rpc_password,
			headers = excluded.headers,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP`

	// Account queries
	queryGetAccountForUserCurrency = `
		SELECT id, user_id, currency_code, balance, available_balance, version, created_at, updated_at
		FROM wallet_accounts
		WHERE user_id = ? AND currency_code = ?`

	queryInsertAccount = `
		INSERT INTO wallet_accounts (id, user_id, currency_code, balance, available_balance, version)
		VALUES (?, ?, ?, '0', '0', 1)`

	queryGetAccountById = `
		SELECT id, user_id, currency_code, balance, available_balance, version, created_at, updated_at
		FROM wallet_accounts
		WHERE id = ?`

	queryGetUserAccounts = `
		SELECT id, user_id, currency_code, balance, available_balance, version, created_at, updated_at
		FROM wallet_accounts
		WHERE user_id = ?
		ORDER BY currency_code`

	queryFindAccountsByDepositAddress = `
		SELECT DISTINCT a.id, a.user_id, a.currency_code, a.balance, a.available_balance, a.version, a.created_at, a.updated_at
		FROM wallet_accounts a
		JOIN deposit_addresses d ON d.account_id = a.id
		WHERE LOWER(d.address) = LOWER(?) AND d.is_active = 1`

	queryGetAccountBalances = `
		SELECT balance, available_balance, version
		FROM wallet_accounts
		WHERE id = ?`

	queryUpdateAccountBalances = `
		UPDATE wallet_accounts
		SET balance = ?, available_balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	// Deposit address queries
	queryInsertDepositAddress = `
		INSERT INTO deposit_addresses (id, account_id, address, label)
		VALUES (?, ?, ?, ?)
		RETURNING id, account_id, address, label, is_active, created_at`

	queryGetActiveDepositAddress = `
		SELECT id, account_id, address, label, is_active, created_at
		FROM deposit_addresses
		WHERE account_id = ? AND is_active = 1
		ORDER BY created_at
		LIMIT 1`

	// Ledger queries
	queryFindTransactionByReference = `
		SELECT id, account_id, amount, direction, status, reference, metadata, balance_before, balance_after, created_at
		FROM wallet_transactions
		WHERE account_id = ? AND reference = ? AND direction = ?
		LIMIT 1`

	queryInsertTransaction = `
		INSERT INTO wallet_transactions (
			id, account_id, amount, direction, status, reference, metadata,
			balance_before, balance_after, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, account_id, amount, direction, status, reference, metadata, balance_before, balance_after, created_at
		FROM wallet_transactions
		WHERE account_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	queryReconcileAccountBalance = `
		SELECT amount, direction
		FROM wallet_transactions
		WHERE account_id = ? AND status = 'confirmed'`

	// Snapshot queries
	queryInsertBalanceSnapshot = `
		INSERT INTO balance_snapshots (id, account_id, balance, available_balance)
		SELECT ?, id, balance, available_balance FROM wallet_accounts WHERE id = ?`

	queryListAccountIds = `
		SELECT id FROM wallet_accounts ORDER BY created_at`

	// Membership queries
	queryGetPlan = `
		SELECT id, name, currency_code, amount, duration_days, is_active
		FROM membership_plans
		WHERE id = ? AND is_active = 1`

	queryInsertPlan = `
		INSERT OR IGNORE INTO membership_plans (id, name, currency_code, amount, duration_days, is_active)
		VALUES (?, ?, ?, ?, ?, 1)`

	queryGetUpgradeRule = `
		SELECT id, from_plan_id, to_plan_id, additional_cost, is_active
		FROM membership_upgrade_rules
		WHERE from_plan_id = ? AND to_plan_id = ? AND is_active = 1`

	queryInsertUpgradeRule = `
		INSERT OR IGNORE INTO membership_upgrade_rules (id, from_plan_id, to_plan_id, additional_cost, is_active)
		VALUES (?, ?, ?, ?, 1)`

	queryInsertInvoice = `
		INSERT INTO membership_invoices (id, user_id, plan_id, currency_code, amount, status)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryUpdateInvoice = `
		UPDATE membership_invoices
		SET status = ?, transaction_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryGetInvoice = `
		SELECT id, user_id, plan_id, currency_code, amount, status, transaction_id, created_at, updated_at
		FROM membership_invoices
		WHERE id = ?`

	queryInsertMembership = `
		INSERT INTO user_memberships (id, user_id, plan_id, status, last_transaction_id, started_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetMembership = `
		SELECT id, user_id, plan_id, status, last_transaction_id, started_at, expires_at, created_at, updated_at
		FROM user_memberships
		WHERE id = ?`

	queryUpdateMembershipPlan = `
		UPDATE user_memberships
		SET plan_id = ?, status = ?, last_transaction_id = ?, expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
)
