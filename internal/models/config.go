package models

import "time"

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Node       NodeClientConfig
	Reconciler ReconcilerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path             string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ConnMaxIdleTime  time.Duration
	PingTimeout      time.Duration
	CreateDummyUsers bool
}

// NodeClientConfig holds settings for outbound node RPC calls.
type NodeClientConfig struct {
	RequestTimeout    time.Duration
	TransactionsLimit int
}

// ReconcilerConfig holds reconciliation poller settings
type ReconcilerConfig struct {
	PollingInterval time.Duration
	CurrenciesFile  string
}
