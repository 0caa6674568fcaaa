package node

import (
	"context"
	"fmt"
	"time"

	"wallet-node-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlaceholderClient stands in for currencies without a capable node. It never
// moves real value: generated addresses are locally-unique labels, the
// balance is zero and there are no transfers to reconcile.
type PlaceholderClient struct {
	currency models.Currency
}

func NewPlaceholderClient(currency models.Currency) *PlaceholderClient {
	return &PlaceholderClient{currency: currency}
}

func (c *PlaceholderClient) GenerateAddress(_ context.Context, account *models.WalletAccount) (string, error) {
	address := fmt.Sprintf("%s_ADDR_%d_%s", c.currency.Code, time.Now().UTC().Unix(), account.Id)
	zap.L().Warn("Using placeholder address generation",
		zap.String("currency", c.currency.Code),
		zap.String("account_id", account.Id),
		zap.String("address", address))
	return address, nil
}

func (c *PlaceholderClient) GetBalance(_ context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (c *PlaceholderClient) ListTransactions(_ context.Context) ([]models.ExternalTransfer, error) {
	return nil, nil
}
