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

package prime

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"travel-cover-go/internal/models"

	"github.com/coinbase-samples/prime-sdk-go/client"
	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/coinbase-samples/prime-sdk-go/model"
	"github.com/coinbase-samples/prime-sdk-go/portfolios"
	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"github.com/coinbase-samples/prime-sdk-go/wallets"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// DisburserConfig contains configuration for Disburser
type DisburserConfig struct {
	Credentials *credentials.Credentials
	PortfolioId string
	WalletId    string
	// PayoutAsset is the network profile asset, e.g. USDC-base-sepolia
	PayoutAsset string
}

// Disburser sends committed payouts on-chain from a Prime wallet to the
// policyholder address.
type Disburser struct {
	client          client.RestClient
	portfoliosSvc   portfolios.PortfoliosService
	walletsSvc      wallets.WalletsService
	transactionsSvc transactions.TransactionsService

	portfolioId string
	walletId    string
	payoutAsset string
}

func NewDisburser(cfg DisburserConfig) (*Disburser, error) {
	if cfg.Credentials == nil {
		return nil, fmt.Errorf("prime credentials are required")
	}
	if cfg.PortfolioId == "" || cfg.WalletId == "" {
		return nil, fmt.Errorf("prime disbursements require PRIME_PORTFOLIO_ID and PRIME_PAYOUT_WALLET_ID")
	}
	if cfg.PayoutAsset == "" {
		return nil, fmt.Errorf("payout asset cannot be empty")
	}

	httpClient, err := createCustomHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	restClient := client.NewRestClient(cfg.Credentials, httpClient)

	return &Disburser{
		client:          restClient,
		portfoliosSvc:   portfolios.NewPortfoliosService(restClient),
		walletsSvc:      wallets.NewWalletsService(restClient),
		transactionsSvc: transactions.NewTransactionsService(restClient),
		portfolioId:     cfg.PortfolioId,
		walletId:        cfg.WalletId,
		payoutAsset:     cfg.PayoutAsset,
	}, nil
}

func createCustomHttpClient() (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

func (d *Disburser) Name() string { return "prime" }

// RecordPayout withdraws the payout amount to the policyholder. The payout id
// is the idempotency key, so a retried payout never sends funds twice.
func (d *Disburser) RecordPayout(ctx context.Context, payout models.Payout) error {
	_, err := d.Disburse(ctx, payout)
	return err
}

// Disburse creates the Prime wallet withdrawal for one payout
func (d *Disburser) Disburse(ctx context.Context, payout models.Payout) (*models.Disbursement, error) {
	request := buildWithdrawalRequest(d.portfolioId, d.walletId, d.payoutAsset, payout)

	zap.L().Info("Creating payout withdrawal via Prime API",
		zap.String("payout_id", payout.Id),
		zap.String("wallet_id", request.SourceWalletId),
		zap.String("symbol", request.Symbol),
		zap.String("amount", request.Amount),
		zap.String("destination", payout.UserAddress))
	zap.L().Debug("Withdrawal request details",
		zap.String("idempotency_key", request.IdempotencyKey),
		zap.Any("blockchain_address", request.BlockchainAddress))

	response, err := d.transactionsSvc.CreateWalletWithdrawal(ctx, request)
	if err != nil {
		zap.L().Error("Failed to create payout withdrawal",
			zap.String("payout_id", payout.Id),
			zap.String("amount", request.Amount),
			zap.Error(err))
		return nil, fmt.Errorf("unable to create withdrawal: %w", err)
	}

	zap.L().Info("Payout withdrawal created",
		zap.String("activity_id", response.ActivityId),
		zap.String("payout_id", payout.Id))

	return &models.Disbursement{
		ActivityId:     response.ActivityId,
		PayoutId:       payout.Id,
		Asset:          d.payoutAsset,
		Amount:         request.Amount,
		Destination:    payout.UserAddress,
		IdempotencyKey: request.IdempotencyKey,
	}, nil
}

// buildWithdrawalRequest parses the asset the same way Prime names them:
// USDC-base-sepolia --> USDC on network base/sepolia, plain USDC uses the
// asset's default network.
func buildWithdrawalRequest(portfolioId, walletId, asset string, payout models.Payout) *transactions.CreateWalletWithdrawalRequest {
	parts := strings.Split(asset, "-")

	blockchainAddr := &model.BlockchainAddress{
		Address: payout.UserAddress,
	}
	if len(parts) >= 3 {
		blockchainAddr.Network = &model.NetworkDetails{
			Id:   parts[1],
			Type: strings.Join(parts[2:], "-"),
		}
	}

	return &transactions.CreateWalletWithdrawalRequest{
		PortfolioId:       portfolioId,
		SourceWalletId:    walletId,
		Amount:            payout.Amount.String(),
		IdempotencyKey:    payout.Id,
		Symbol:            parts[0],
		DestinationType:   "DESTINATION_BLOCKCHAIN",
		BlockchainAddress: blockchainAddr,
	}
}

// CheckWallet confirms the configured payout wallet exists in the portfolio
// and holds the payout asset.
func (d *Disburser) CheckWallet(ctx context.Context) (*models.Wallet, error) {
	symbol := strings.Split(d.payoutAsset, "-")[0]
	response, err := d.walletsSvc.ListWallets(ctx, &wallets.ListWalletsRequest{
		PortfolioId: d.portfolioId,
		Type:        "TRADING",
		Symbols:     []string{symbol},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list wallets: %w", err)
	}

	for _, w := range response.Wallets {
		if w.Id == d.walletId {
			return &models.Wallet{Id: w.Id, Name: w.Name, Symbol: w.Symbol, Type: w.Type}, nil
		}
	}
	return nil, fmt.Errorf("payout wallet %s not found for %s in portfolio %s", d.walletId, symbol, d.portfolioId)
}

// CheckPortfolio confirms the configured portfolio is visible to the API key
func (d *Disburser) CheckPortfolio(ctx context.Context) (*models.Portfolio, error) {
	response, err := d.portfoliosSvc.ListPortfolios(ctx, &portfolios.ListPortfoliosRequest{})
	if err != nil {
		return nil, fmt.Errorf("unable to list portfolios: %w", err)
	}

	for _, p := range response.Portfolios {
		if p.Id == d.portfolioId {
			return &models.Portfolio{Id: p.Id, Name: p.Name}, nil
		}
	}
	return nil, fmt.Errorf("portfolio %s not found", d.portfolioId)
}
