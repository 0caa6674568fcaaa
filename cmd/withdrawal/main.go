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
	"errors"
	"flag"
	"fmt"
	"os"

	"wallet-node-ledger-go/internal/common"
	"wallet-node-ledger-go/internal/config"
	"wallet-node-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	email := flag.String("email", "", "Email of the user")
	currency := flag.String("currency", "", "Currency code (e.g. BTC)")
	amountStr := flag.String("amount", "", "Amount to withdraw")
	address := flag.String("address", "", "Destination address")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if *email == "" || *currency == "" || *amountStr == "" || *address == "" {
		zap.L().Fatal("-email, -currency, -amount and -address are all required")
	}

	amount, err := decimal.NewFromString(*amountStr)
	if err != nil {
		zap.L().Fatal("Invalid amount", zap.String("amount", *amountStr), zap.Error(err))
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

	entry, err := services.WalletService.RequestWithdrawal(ctx, account, amount, *address)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			fmt.Printf("Withdrawal rejected: insufficient available balance (have %s, requested %s)\n",
				account.AvailableBalance.String(), amount.String())
			os.Exit(1)
		}
		zap.L().Fatal("Withdrawal failed", zap.Error(err))
	}

	fmt.Printf("Withdrawal recorded: %s\n", entry.Id)
	fmt.Printf("  amount:      %s %s\n", entry.Amount.String(), *currency)
	fmt.Printf("  destination: %s\n", *address)
	fmt.Printf("  new balance: %s\n", entry.BalanceAfter.String())
}
