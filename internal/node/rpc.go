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

package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"wallet-node-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const defaultRequestTimeout = 15 * time.Second

// RPCClient talks JSON-RPC 2.0 to a self-hosted node (bitcoind-style wire
// contract: getnewaddress, getbalance, listtransactions).
type RPCClient struct {
	node              *models.NodeConfiguration
	httpClient        *http.Client
	transactionsLimit int
}

type rpcRequest struct {
	JsonRpc string `json:"jsonrpc"`
	Id      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// NewRPCClient builds a client for one node configuration. The configuration
// is passed in explicitly so tests can substitute endpoints without ambient
// state.
func NewRPCClient(node *models.NodeConfiguration, cfg models.NodeClientConfig) (*RPCClient, error) {
	if node == nil || node.RpcUrl == "" {
		return nil, fmt.Errorf("%w: empty rpc url", ErrConfigurationMissing)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	limit := cfg.TransactionsLimit
	if limit <= 0 {
		limit = 100
	}

	httpClient, err := createCustomHttpClient(timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &RPCClient{
		node:              node,
		httpClient:        httpClient,
		transactionsLimit: limit,
	}, nil
}

func createCustomHttpClient(timeout time.Duration) (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   timeout,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// call issues one JSON-RPC request. Transport failures and non-2xx responses
// map to ErrUnavailable; an error payload in a 2xx response maps to *RPCError.
func (c *RPCClient) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{JsonRpc: "2.0", Id: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("unable to marshal rpc request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.node.RpcUrl, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to build rpc request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.node.Headers {
		req.Header.Set(key, value)
	}
	if c.node.RpcUsername != "" {
		req.SetBasicAuth(c.node.RpcUsername, c.node.RpcPassword)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, c.node.CurrencyCode, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s: unexpected status %d", ErrUnavailable, method, c.node.CurrencyCode, resp.StatusCode)
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %s %s: invalid response body: %v", ErrUnavailable, method, c.node.CurrencyCode, err)
	}
	if parsed.Error != nil {
		zap.L().Warn("Node reported rpc error",
			zap.String("currency", c.node.CurrencyCode),
			zap.String("method", method),
			zap.Int("code", parsed.Error.Code),
			zap.String("message", parsed.Error.Message))
		return nil, parsed.Error
	}

	return parsed.Result, nil
}

func (c *RPCClient) GenerateAddress(ctx context.Context, account *models.WalletAccount) (string, error) {
	label := fmt.Sprintf("user_%s", account.UserId)

	result, err := c.call(ctx, "getnewaddress", []any{label})
	if err != nil {
		return "", err
	}

	var address string
	if err := json.Unmarshal(result, &address); err != nil {
		return "", fmt.Errorf("unable to parse getnewaddress result: %w", err)
	}

	zap.L().Info("Generated node address",
		zap.String("currency", c.node.CurrencyCode),
		zap.String("account_id", account.Id),
		zap.String("address", address))
	return address, nil
}

func (c *RPCClient) GetBalance(ctx context.Context) (decimal.Decimal, error) {
	result, err := c.call(ctx, "getbalance", nil)
	if err != nil {
		return decimal.Zero, err
	}

	var raw json.Number
	if err := json.Unmarshal(result, &raw); err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse getbalance result: %w", err)
	}

	balance, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to parse balance '%s': %w", raw.String(), err)
	}
	return balance, nil
}

func (c *RPCClient) ListTransactions(ctx context.Context) ([]models.ExternalTransfer, error) {
	result, err := c.call(ctx, "listtransactions", []any{"*", c.transactionsLimit})
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Address  string      `json:"address"`
		Amount   json.Number `json:"amount"`
		TxId     string      `json:"txid"`
		Category string      `json:"category"`
	}
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("unable to parse listtransactions result: %w", err)
	}

	transfers := make([]models.ExternalTransfer, 0, len(raw))
	for _, item := range raw {
		amount, err := decimal.NewFromString(item.Amount.String())
		if err != nil {
			zap.L().Warn("Skipping transfer with unparseable amount",
				zap.String("currency", c.node.CurrencyCode),
				zap.String("txid", item.TxId),
				zap.String("amount", item.Amount.String()))
			continue
		}
		transfers = append(transfers, models.ExternalTransfer{
			Address:    item.Address,
			Amount:     amount,
			ExternalId: item.TxId,
			Category:   item.Category,
		})
	}

	return transfers, nil
}
