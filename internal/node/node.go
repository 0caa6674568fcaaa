package node

import (
	"context"
	"errors"
	"fmt"

	"wallet-node-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors for node access.
var (
	// ErrConfigurationMissing is returned when a currency has no active node
	// configuration and the caller required a live client.
	ErrConfigurationMissing = errors.New("no node configured for currency")

	// ErrUnavailable covers transport failures: timeouts, refused
	// connections and non-2xx responses.
	ErrUnavailable = errors.New("node unavailable")

	// ErrRPC is the sentinel that *RPCError unwraps to; it marks an error
	// payload reported by the node itself.
	ErrRPC = errors.New("node rpc error")
)

// RPCError is a remote-reported error payload from a node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("node rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) Unwrap() error {
	return ErrRPC
}

// Client is the capability set every node variant provides. A node is the
// external system of record for one currency's transfers.
type Client interface {
	// GenerateAddress asks the node for a fresh receiving address labelled
	// for the owning account.
	GenerateAddress(ctx context.Context, account *models.WalletAccount) (string, error)

	// GetBalance returns the node wallet's total confirmed balance.
	GetBalance(ctx context.Context) (decimal.Decimal, error)

	// ListTransactions returns the node's recent transfers, most recent
	// window only; the reconciler filters and applies them.
	ListTransactions(ctx context.Context) ([]models.ExternalTransfer, error)
}
