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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"travel-cover-go/internal/models"
)

const (
	EnvLocal   = "local"
	EnvTestnet = "testnet"
	EnvMainnet = "mainnet"
)

func Load() (*models.Config, error) {
	environment := getEnvString("APP_ENV", EnvLocal)

	network, err := LoadNetwork(environment, os.Getenv("NETWORKS_FILE"))
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	ingestTimeout, err := getEnvDuration("ORACLE_INGEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	expirySweepInterval, err := getEnvDuration("POLICY_EXPIRY_SWEEP_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	redeliveryInterval, err := getEnvDuration("PAYOUT_REDELIVERY_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	verifierTimeout, err := getEnvDuration("PROOF_VERIFIER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Environment: environment,
		Network:     network,
		Database: models.DatabaseConfig{
			Path:               getEnvString("DATABASE_PATH", "travel-cover.db"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:    connMaxLifetime,
			ConnMaxIdleTime:    connMaxIdleTime,
			PingTimeout:        pingTimeout,
			CreateDemoPolicies: getEnvBool("CREATE_DEMO_POLICIES", false),
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Oracle: models.OracleConfig{
			ApiKey:              os.Getenv("ORACLE_API_KEY"),
			IngestTimeout:       ingestTimeout,
			ExpirySweepInterval: expirySweepInterval,
			RedeliveryInterval:  redeliveryInterval,
		},
		Verification: models.VerificationConfig{
			VerifierURL:     os.Getenv("PROOF_VERIFIER_URL"),
			VerifierTimeout: verifierTimeout,
		},
		Payouts: models.PayoutsConfig{
			Formance: models.FormanceConfig{
				StackURL:     os.Getenv("FORMANCE_STACK_URL"),
				ClientID:     os.Getenv("FORMANCE_CLIENT_ID"),
				ClientSecret: os.Getenv("FORMANCE_CLIENT_SECRET"),
				LedgerName:   getEnvString("FORMANCE_LEDGER", "travel-cover-payouts"),
			},
			Prime: models.PrimeConfig{
				Enabled:     getEnvBool("PRIME_DISBURSEMENTS_ENABLED", false),
				PortfolioId: os.Getenv("PRIME_PORTFOLIO_ID"),
				WalletId:    os.Getenv("PRIME_PAYOUT_WALLET_ID"),
			},
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
