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

	"travel-cover-go/internal/common"
	"travel-cover-go/internal/config"
	"travel-cover-go/internal/models"

	"go.uber.org/zap"
)

func printNetwork(cfg *models.Config) {
	common.PrintHeader("NETWORK PROFILE: "+cfg.Environment, common.DefaultWidth)
	fmt.Printf("Name:             %s\n", cfg.Network.Name)
	fmt.Printf("Chain ID:         %d\n", cfg.Network.ChainId)
	fmt.Printf("Payout asset:     %s\n", cfg.Network.PayoutAsset)
	fmt.Printf("Verification URL: %s\n", cfg.Network.VerificationBaseURL)
	if cfg.Network.ExplorerURL != "" {
		fmt.Printf("Explorer:         %s\n", cfg.Network.ExplorerURL)
	}
}

// checkLedger creates the Formance ledger if it does not exist yet
func checkLedger(ctx context.Context, cfg *models.Config) bool {
	if cfg.Payouts.Formance.StackURL == "" {
		fmt.Println("– Formance ledger: disabled (FORMANCE_STACK_URL not set)")
		return true
	}

	if _, err := common.InitializeLedger(ctx, cfg); err != nil {
		zap.L().Error("Formance ledger check failed", zap.Error(err))
		fmt.Printf("✗ Formance ledger %s: %v\n", cfg.Payouts.Formance.LedgerName, err)
		return false
	}
	fmt.Printf("✓ Formance ledger: %s\n", cfg.Payouts.Formance.LedgerName)
	return true
}

// checkPrime confirms the configured portfolio and payout wallet are reachable
func checkPrime(ctx context.Context, cfg *models.Config) bool {
	if !cfg.Payouts.Prime.Enabled {
		fmt.Println("– Prime disbursements: disabled (PRIME_DISBURSEMENTS_ENABLED=false)")
		return true
	}

	disburser, err := common.InitializeDisburser(cfg)
	if err != nil {
		zap.L().Error("Prime disburser setup failed", zap.Error(err))
		fmt.Printf("✗ Prime disbursements: %v\n", err)
		return false
	}

	portfolio, err := disburser.CheckPortfolio(ctx)
	if err != nil {
		zap.L().Error("Prime portfolio check failed", zap.Error(err))
		fmt.Printf("✗ Prime portfolio %s: %v\n", cfg.Payouts.Prime.PortfolioId, err)
		return false
	}
	fmt.Printf("✓ Prime portfolio: %s (%s)\n", portfolio.Name, portfolio.Id)

	wallet, err := disburser.CheckWallet(ctx)
	if err != nil {
		zap.L().Error("Prime wallet check failed", zap.Error(err))
		fmt.Printf("✗ Prime payout wallet %s: %v\n", cfg.Payouts.Prime.WalletId, err)
		return false
	}
	fmt.Printf("✓ Prime payout wallet: %s %s (%s, %s)\n", wallet.Name, wallet.Symbol, wallet.Type, wallet.Id)
	return true
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	demoFlag := flag.Bool("demo", false, "Seed demo policies into an empty database")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}
	if *demoFlag {
		cfg.Database.CreateDemoPolicies = true
	}

	printNetwork(cfg)

	common.PrintSeparatorNewline("-", common.DefaultWidth)
	zap.L().Info("Setting up SQLite database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()
	fmt.Printf("✓ Database schema ready: %s\n", cfg.Database.Path)

	if cfg.Verification.VerifierURL != "" {
		fmt.Printf("✓ Proof verifier: %s\n", cfg.Verification.VerifierURL)
	} else if cfg.Environment == config.EnvLocal {
		fmt.Println("– Proof verifier: not set, local mode accepts every proof")
	} else {
		fmt.Printf("✗ Proof verifier: PROOF_VERIFIER_URL is required when APP_ENV=%s\n", cfg.Environment)
	}

	ok := checkLedger(ctx, cfg)
	ok = checkPrime(ctx, cfg) && ok

	if !ok {
		common.PrintFooter("SETUP INCOMPLETE: fix the errors above", common.DefaultWidth)
		return
	}
	common.PrintFooter("SETUP COMPLETE", common.DefaultWidth)
}
