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

package wallet

import (
	"context"
	"fmt"

	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/node"
	"wallet-node-ledger-go/internal/notify"
	"wallet-node-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClientSource hands out node clients per currency.
type ClientSource interface {
	ClientFor(ctx context.Context, currency models.Currency) (node.Client, error)
}

// Service provides the high-level wallet operations: account provisioning,
// deposit address management, deposits and withdrawals.
type Service struct {
	ledger   store.LedgerStore
	clients  ClientSource
	notifier notify.Dispatcher
}

func NewService(ledger store.LedgerStore, clients ClientSource, notifier notify.Dispatcher) *Service {
	return &Service{ledger: ledger, clients: clients, notifier: notifier}
}

// EnsureAccount returns the user's wallet account for a currency, creating
// it on first use.
func (s *Service) EnsureAccount(ctx context.Context, userId, currencyCode string) (*models.WalletAccount, error) {
	return s.ledger.EnsureAccount(ctx, userId, currencyCode)
}

// GetOrCreateDepositAddress returns the account's deposit address, asking
// the currency's node for a fresh one only when the account has none yet.
// Idempotent per account: a second address is never generated, so future
// deposits always resolve unambiguously.
func (s *Service) GetOrCreateDepositAddress(ctx context.Context, account *models.WalletAccount) (*models.DepositAddress, error) {
	existing, err := s.ledger.GetActiveDepositAddress(ctx, account.Id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	currency, err := s.ledger.GetCurrency(ctx, account.CurrencyCode)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.ClientFor(ctx, *currency)
	if err != nil {
		return nil, err
	}

	address, err := client.GenerateAddress(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("unable to generate deposit address: %w", err)
	}

	return s.ledger.StoreDepositAddress(ctx, store.StoreDepositAddressParams{
		AccountId: account.Id,
		Address:   address,
		Label:     fmt.Sprintf("%s deposit", currency.Code),
	})
}

// RecordDeposit credits an externally observed deposit, idempotent on the
// external transaction id.
func (s *Service) RecordDeposit(ctx context.Context, account *models.WalletAccount, amount decimal.Decimal, externalId string) (*models.WalletTransaction, error) {
	entry, err := s.ledger.Credit(ctx, store.EntryParams{
		AccountId: account.Id,
		Amount:    amount,
		Reference: externalId,
		Metadata:  map[string]string{"type": "deposit"},
	})
	if err != nil {
		return entry, err
	}

	s.dispatch(ctx, account.UserId, notify.EventDepositReceived, map[string]string{
		"currency": account.CurrencyCode,
		"amount":   amount.String(),
	})
	return entry, nil
}

// RequestWithdrawal debits the account for a withdrawal to an external
// address. The reference carries a fresh uuid so separate withdrawals to the
// same address never trip the duplicate-reference guard.
func (s *Service) RequestWithdrawal(ctx context.Context, account *models.WalletAccount, amount decimal.Decimal, targetAddress string) (*models.WalletTransaction, error) {
	entry, err := s.ledger.Debit(ctx, store.EntryParams{
		AccountId: account.Id,
		Amount:    amount,
		Reference: fmt.Sprintf("withdrawal:%s:%s", targetAddress, uuid.New().String()),
		Metadata:  map[string]string{"type": "withdrawal", "target_address": targetAddress},
	})
	if err != nil {
		return entry, err
	}

	zap.L().Info("Withdrawal requested",
		zap.String("account_id", account.Id),
		zap.String("amount", amount.String()),
		zap.String("target_address", targetAddress))

	s.dispatch(ctx, account.UserId, notify.EventWithdrawalRequested, map[string]string{
		"currency": account.CurrencyCode,
		"amount":   amount.String(),
		"address":  targetAddress,
	})
	return entry, nil
}

// dispatch fires a notification and logs failures without propagating them;
// notification problems never unwind a completed ledger mutation.
func (s *Service) dispatch(ctx context.Context, userId, eventCode string, payload map[string]string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.SendEvent(ctx, userId, eventCode, payload); err != nil {
		zap.L().Warn("Notification dispatch failed",
			zap.String("user_id", userId),
			zap.String("event_code", eventCode),
			zap.Error(err))
	}
}
