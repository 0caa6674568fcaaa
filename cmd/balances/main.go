package main

import (
	"context"
	"flag"
	"fmt"

	"wallet-node-ledger-go/internal/common"
	"wallet-node-ledger-go/internal/config"
	"wallet-node-ledger-go/internal/database"
	"wallet-node-ledger-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers        int
	totalAccounts     int
	usersWithAccounts int
}

func printAccounts(accounts []models.WalletAccount) {
	for _, account := range accounts {
		fmt.Printf("  %-8s balance: %20s  available: %20s  (v%d, updated: %s)\n",
			account.CurrencyCode,
			account.Balance.String(),
			account.AvailableBalance.String(),
			account.Version,
			account.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func processUsers(ctx context.Context, users []models.User, dbService *database.Service) balanceStats {
	stats := balanceStats{}

	for _, user := range users {
		stats.totalUsers++

		accounts, err := dbService.GetUserAccounts(ctx, user.Id)
		if err != nil {
			zap.L().Error("Failed to get accounts",
				zap.String("user_id", user.Id),
				zap.Error(err))
			continue
		}
		if len(accounts) == 0 {
			continue
		}

		fmt.Printf("\nUser: %s (%s)\n", user.Name, user.Email)
		printAccounts(accounts)

		stats.usersWithAccounts++
		stats.totalAccounts += len(accounts)
	}

	return stats
}

func main() {
	snapshot := flag.Bool("snapshot", false, "Also capture a balance snapshot for every account")
	reconcile := flag.Bool("reconcile", false, "Verify every account balance against its transaction history")
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

	users, err := dbService.GetUsers(ctx)
	if err != nil {
		zap.L().Fatal("Failed to list users", zap.Error(err))
	}

	stats := processUsers(ctx, users, dbService)

	fmt.Printf("\n%d users, %d with wallet accounts, %d accounts total\n",
		stats.totalUsers, stats.usersWithAccounts, stats.totalAccounts)

	if *reconcile {
		mismatches := 0
		for _, user := range users {
			accounts, err := dbService.GetUserAccounts(ctx, user.Id)
			if err != nil {
				continue
			}
			for _, account := range accounts {
				if err := dbService.ReconcileAccountBalance(ctx, account.Id); err != nil {
					mismatches++
					fmt.Printf("MISMATCH %s/%s: %v\n", user.Email, account.CurrencyCode, err)
				}
			}
		}
		if mismatches == 0 {
			fmt.Println("All account balances reconcile")
		}
	}

	if *snapshot {
		captured, err := dbService.CaptureBalanceSnapshots(ctx)
		if err != nil {
			zap.L().Fatal("Failed to capture snapshots", zap.Error(err))
		}
		fmt.Printf("Captured %d balance snapshots\n", captured)
	}
}
