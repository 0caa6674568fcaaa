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

package main

import (
	"context"
	"flag"
	"fmt"

	"wallet-node-ledger-go/internal/common"
	"wallet-node-ledger-go/internal/config"
	"wallet-node-ledger-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	currenciesFile := flag.String("currencies", "", "Path to currencies.yaml (default: CURRENCIES_FILE env or currencies.yaml)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx := context.Background()

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	seedFile := *currenciesFile
	if seedFile == "" {
		seedFile = cfg.Reconciler.CurrenciesFile
	}

	seed, err := common.LoadSeedData(seedFile)
	if err != nil {
		zap.L().Fatal("Failed to load seed data", zap.String("file", seedFile), zap.Error(err))
	}

	for _, currency := range seed.Currencies {
		err := dbService.UpsertCurrency(ctx, models.Currency{
			Code:      currency.Code,
			Name:      currency.Name,
			Precision: currency.Precision,
			IsCrypto:  currency.Crypto,
			Network:   currency.Network,
			IsActive:  true,
		})
		if err != nil {
			zap.L().Fatal("Failed to seed currency", zap.String("code", currency.Code), zap.Error(err))
		}
		fmt.Printf("Currency %s ready\n", currency.Code)

		if currency.Node == nil {
			continue
		}
		err = dbService.UpsertNodeConfiguration(ctx, models.NodeConfiguration{
			Id:           uuid.New().String(),
			CurrencyCode: currency.Code,
			RpcUrl:       currency.Node.RpcUrl,
			RpcUsername:  currency.Node.RpcUsername,
			RpcPassword:  currency.Node.RpcPassword,
			Headers:      currency.Node.Headers,
			IsActive:     true,
		})
		if err != nil {
			zap.L().Fatal("Failed to seed node configuration", zap.String("code", currency.Code), zap.Error(err))
		}
		fmt.Printf("  node: %s\n", currency.Node.RpcUrl)
	}

	for _, plan := range seed.Plans {
		if err := dbService.SeedPlan(ctx, plan); err != nil {
			zap.L().Fatal("Failed to seed plan", zap.String("plan_id", plan.Id), zap.Error(err))
		}
		fmt.Printf("Plan %s (%s %s) ready\n", plan.Id, plan.Amount.String(), plan.CurrencyCode)
	}

	for _, rule := range seed.UpgradeRules {
		if err := dbService.SeedUpgradeRule(ctx, rule); err != nil {
			zap.L().Fatal("Failed to seed upgrade rule", zap.Error(err))
		}
	}

	fmt.Printf("\nSetup complete: %d currencies, %d plans, %d upgrade rules\n",
		len(seed.Currencies), len(seed.Plans), len(seed.UpgradeRules))
}
