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

	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "Email of the user")
	currency := flag.String("currency", "", "Currency code (e.g. BTC)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *email == "" || *currency == "" {
		zap.L().Fatal("Both -email and -currency are required")
	}

	ctx := context.Background()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := services.DbService.GetUserByEmail(ctx, *email)
	if err != nil {
		zap.L().Fatal("User lookup failed", zap.String("email", *email), zap.Error(err))
	}

	account, err := services.WalletService.EnsureAccount(ctx, user.Id, *currency)
	if err != nil {
		zap.L().Fatal("Failed to ensure wallet account", zap.Error(err))
	}

	address, err := services.WalletService.GetOrCreateDepositAddress(ctx, account)
	if err != nil {
		zap.L().Fatal("Failed to get deposit address", zap.Error(err))
	}

	fmt.Printf("Deposit address for %s (%s):\n", user.Name, *currency)
	fmt.Printf("  address: %s\n", address.Address)
	fmt.Printf("  label:   %s\n", address.Label)
	fmt.Printf("  created: %s\n", address.CreatedAt.Format("2006-01-02 15:04:05"))
}
