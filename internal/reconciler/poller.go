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

package reconciler

import (
	"context"
	"errors"
	"time"

	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/node"
	"wallet-node-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClientSource hands out node clients per currency. node.Registry satisfies
// it; tests substitute fakes.
type ClientSource interface {
	ClientFor(ctx context.Context, currency models.Currency) (node.Client, error)
}

// PollerConfig contains configuration for Poller
type PollerConfig struct {
	Ledger          store.LedgerStore
	Clients         ClientSource
	PollingInterval time.Duration
}

// Poller periodically queries each active currency's node for incoming
// transfers and applies them as ledger credits, exactly once per external
// event. It keeps no state between runs: the ledger's duplicate-reference
// guard makes re-scanning the same transfers a no-op, so Run is safely
// re-entrant even if two invocations overlap.
type Poller struct {
	ledger          store.LedgerStore
	clients         ClientSource
	pollingInterval time.Duration

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

// RunStats summarizes one reconciliation pass.
type RunStats struct {
	CurrenciesPolled  int
	CurrenciesSkipped int
	TransfersSeen     int
	CreditsApplied    int
	DuplicatesSkipped int
}

func NewPoller(cfg PollerConfig) *Poller {
	return &Poller{
		ledger:          cfg.Ledger,
		clients:         cfg.Clients,
		pollingInterval: cfg.PollingInterval,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start begins the polling loop. Run stays directly callable for callers
// that bring their own scheduler.
func (p *Poller) Start(ctx context.Context) {
	zap.L().Info("Starting reconciliation poller",
		zap.Duration("polling_interval", p.pollingInterval))
	go p.pollLoop(ctx)
}

// Stop gracefully stops the polling loop.
func (p *Poller) Stop() {
	zap.L().Info("Stopping reconciliation poller")
	close(p.stopChan)
	<-p.doneChan
	zap.L().Info("Reconciliation poller stopped")
}

func (p *Poller) pollLoop(ctx context.Context) {
	defer close(p.doneChan)

	ticker := time.NewTicker(p.pollingInterval)
	defer ticker.Stop()

	p.Run(ctx)

	for {
		select {
		case <-ticker.C:
			p.Run(ctx)
		case <-p.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Run performs one reconciliation pass over all active currencies. A failing
// currency is logged and skipped; it never aborts the run or the poller.
func (p *Poller) Run(ctx context.Context) RunStats {
	var stats RunStats

	currencies, err := p.ledger.ListActiveCurrencies(ctx)
	if err != nil {
		zap.L().Error("Failed to list active currencies", zap.Error(err))
		return stats
	}

	for _, currency := range currencies {
		if err := p.reconcileCurrency(ctx, currency, &stats); err != nil {
			stats.CurrenciesSkipped++
			zap.L().Error("Skipping currency for this run",
				zap.String("currency", currency.Code),
				zap.Error(err))
			continue
		}
		stats.CurrenciesPolled++
	}

	zap.L().Info("Reconciliation run completed",
		zap.Int("currencies_polled", stats.CurrenciesPolled),
		zap.Int("currencies_skipped", stats.CurrenciesSkipped),
		zap.Int("transfers_seen", stats.TransfersSeen),
		zap.Int("credits_applied", stats.CreditsApplied),
		zap.Int("duplicates_skipped", stats.DuplicatesSkipped))

	return stats
}

func (p *Poller) reconcileCurrency(ctx context.Context, currency models.Currency, stats *RunStats) error {
	client, err := p.clients.ClientFor(ctx, currency)
	if err != nil {
		return err
	}

	transfers, err := client.ListTransactions(ctx)
	if err != nil {
		return err
	}
	stats.TransfersSeen += len(transfers)

	// Transfers are applied in the order the node returned them; crediting
	// is commutative per account, so no cross-currency ordering is needed.
	for _, transfer := range transfers {
		if !eligibleForCredit(transfer) {
			continue
		}
		p.applyTransfer(ctx, currency, transfer, stats)
	}

	return nil
}

// eligibleForCredit keeps only confirmed incoming value: category "receive",
// a present external id and address, and a positive amount.
func eligibleForCredit(transfer models.ExternalTransfer) bool {
	if transfer.Category != models.CategoryReceive {
		return false
	}
	if transfer.ExternalId == "" || transfer.Address == "" {
		return false
	}
	return transfer.Amount.GreaterThan(decimal.Zero)
}

// applyTransfer credits every account bound to the transfer's address. An
// address can match more than one account after historical reuse; crediting
// all matches avoids silently dropping funds.
func (p *Poller) applyTransfer(ctx context.Context, currency models.Currency, transfer models.ExternalTransfer, stats *RunStats) {
	accounts, err := p.ledger.FindAccountsByDepositAddress(ctx, transfer.Address)
	if err != nil {
		zap.L().Error("Failed to resolve deposit address",
			zap.String("currency", currency.Code),
			zap.String("address", transfer.Address),
			zap.Error(err))
		return
	}
	if len(accounts) == 0 {
		zap.L().Warn("Transfer to unknown address",
			zap.String("currency", currency.Code),
			zap.String("address", transfer.Address),
			zap.String("external_id", transfer.ExternalId))
		return
	}

	for _, account := range accounts {
		_, err := p.ledger.Credit(ctx, store.EntryParams{
			AccountId: account.Id,
			Amount:    transfer.Amount,
			Reference: transfer.ExternalId,
			Metadata: map[string]string{
				"type":     "deposit",
				"currency": currency.Code,
				"address":  transfer.Address,
			},
		})
		if errors.Is(err, store.ErrDuplicateReference) {
			stats.DuplicatesSkipped++
			continue
		}
		if err != nil {
			zap.L().Error("Failed to credit deposit",
				zap.String("account_id", account.Id),
				zap.String("external_id", transfer.ExternalId),
				zap.Error(err))
			continue
		}

		stats.CreditsApplied++
		zap.L().Info("Deposit credited",
			zap.String("account_id", account.Id),
			zap.String("currency", currency.Code),
			zap.String("amount", transfer.Amount.String()),
			zap.String("external_id", transfer.ExternalId))
	}
}
