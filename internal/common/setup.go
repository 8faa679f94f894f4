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

package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"travel-cover-go/internal/api"
	"travel-cover-go/internal/config"
	"travel-cover-go/internal/database"
	"travel-cover-go/internal/formance"
	"travel-cover-go/internal/models"
	"travel-cover-go/internal/oracle"
	"travel-cover-go/internal/prime"
	"travel-cover-go/internal/verification"

	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService    *database.Service
	Ledger       *formance.PayoutLedger
	Disburser    *prime.Disburser
	Verification *verification.Service
	Ingestor     *oracle.Ingestor
	Cover        *api.CoverService
}

func InitializeLogger() (*zap.Logger, func()) {
	var (
		logger *zap.Logger
		err    error
	)
	if os.Getenv("APP_ENV") == config.EnvLocal || os.Getenv("APP_ENV") == "" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
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

// InitializeServices wires the database, optional payout sinks, the proof
// verifier and the HTTP facade. Partially built services are closed on error.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	verifier, err := newProofVerifier(cfg)
	if err != nil {
		return nil, err
	}

	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	sinks, ledger, disburser, err := initializeSinks(ctx, cfg)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	verificationService, err := verification.NewService(verification.ServiceConfig{
		Store:    dbService,
		Verifier: verifier,
		BaseURL:  cfg.Network.VerificationBaseURL,
	})
	if err != nil {
		dbService.Close()
		return nil, err
	}

	ingestor := oracle.NewIngestor(oracle.IngestorConfig{
		Store:         dbService,
		Sinks:         sinks,
		PayoutTimeout: cfg.Oracle.IngestTimeout,
	})

	cover := api.NewCoverService(api.CoverServiceConfig{
		Store:        dbService,
		Ingestor:     ingestor,
		Verification: verificationService,
	})

	return &Services{
		DbService:    dbService,
		Ledger:       ledger,
		Disburser:    disburser,
		Verification: verificationService,
		Ingestor:     ingestor,
		Cover:        cover,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service without any
// payout sinks. Used by the admin tools.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	return database.NewService(ctx, cfg.Database)
}

// InitializeLedger connects to Formance when configured. It returns nil, nil
// when the ledger is disabled.
func InitializeLedger(ctx context.Context, cfg *models.Config) (*formance.PayoutLedger, error) {
	if cfg.Payouts.Formance.StackURL == "" {
		return nil, nil
	}
	return formance.NewPayoutLedger(ctx, cfg.Payouts.Formance, cfg.Network.PayoutAsset)
}

// InitializeDisburser connects to Coinbase Prime when disbursements are
// enabled. It returns nil, nil otherwise.
func InitializeDisburser(cfg *models.Config) (*prime.Disburser, error) {
	if !cfg.Payouts.Prime.Enabled {
		return nil, nil
	}

	zap.L().Info("Loading Prime API credentials")
	creds, err := loadPrimeCredentials()
	if err != nil {
		return nil, err
	}

	return prime.NewDisburser(prime.DisburserConfig{
		Credentials: creds,
		PortfolioId: cfg.Payouts.Prime.PortfolioId,
		WalletId:    cfg.Payouts.Prime.WalletId,
		PayoutAsset: cfg.Network.PayoutAsset,
	})
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func initializeSinks(ctx context.Context, cfg *models.Config) ([]oracle.PayoutSink, *formance.PayoutLedger, *prime.Disburser, error) {
	var sinks []oracle.PayoutSink

	ledger, err := InitializeLedger(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize formance ledger: %w", err)
	}
	if ledger != nil {
		sinks = append(sinks, ledger)
		zap.L().Info("Formance payout ledger enabled", zap.String("ledger", cfg.Payouts.Formance.LedgerName))
	}

	disburser, err := InitializeDisburser(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize prime disburser: %w", err)
	}
	if disburser != nil {
		sinks = append(sinks, disburser)
		zap.L().Info("Prime disbursements enabled",
			zap.String("portfolio_id", cfg.Payouts.Prime.PortfolioId),
			zap.String("wallet_id", cfg.Payouts.Prime.WalletId))
	}

	return sinks, ledger, disburser, nil
}

// newProofVerifier refuses to run without a real verifier outside local mode
func newProofVerifier(cfg *models.Config) (verification.ProofVerifier, error) {
	if cfg.Verification.VerifierURL != "" {
		verifier, err := verification.NewHTTPVerifier(cfg.Verification.VerifierURL, cfg.Verification.VerifierTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to create proof verifier: %w", err)
		}
		return verifier, nil
	}
	if cfg.Environment != config.EnvLocal {
		return nil, fmt.Errorf("PROOF_VERIFIER_URL is required when APP_ENV=%s", cfg.Environment)
	}
	zap.L().Warn("PROOF_VERIFIER_URL not set; accepting every proof in local mode")
	return verification.StaticVerifier{Valid: true}, nil
}

func loadPrimeCredentials() (*credentials.Credentials, error) {
	accessKey := os.Getenv("PRIME_ACCESS_KEY")
	passphrase := os.Getenv("PRIME_PASSPHRASE")
	signingKey := os.Getenv("PRIME_SIGNING_KEY")

	if accessKey == "" || passphrase == "" || signingKey == "" {
		return nil, fmt.Errorf("missing required Prime API credentials: PRIME_ACCESS_KEY, PRIME_PASSPHRASE, PRIME_SIGNING_KEY")
	}

	return &credentials.Credentials{
		AccessKey:  accessKey,
		Passphrase: passphrase,
		SigningKey: signingKey,
	}, nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
