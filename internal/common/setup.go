package common

import (
	"context"
	"log"
	"strings"

	"wallet-node-ledger-go/internal/database"
	"wallet-node-ledger-go/internal/models"
	"wallet-node-ledger-go/internal/node"
	"wallet-node-ledger-go/internal/notify"
	"wallet-node-ledger-go/internal/wallet"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via other means (shell export,
	// docker, etc.), so a missing .env file is fine.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	} else {
		log.Println("Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService     *database.Service
	NodeRegistry  *node.Registry
	WalletService *wallet.Service
	Notifier      notify.Dispatcher
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	registry := node.NewRegistry(dbService, cfg.Node)
	notifier := notify.NewLogDispatcher()
	walletService := wallet.NewService(dbService, registry, notifier)

	return &Services{
		DbService:     dbService,
		NodeRegistry:  registry,
		WalletService: walletService,
		Notifier:      notifier,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service, for
// read-only tools like balance queries.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
