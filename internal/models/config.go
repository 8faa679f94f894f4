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

package models

import "time"

// Config represents the application configuration
type Config struct {
	Environment  string
	Network      NetworkConfig
	Database     DatabaseConfig
	Server       ServerConfig
	Oracle       OracleConfig
	Verification VerificationConfig
	Payouts      PayoutsConfig
}

// NetworkConfig is the per-environment profile (chain, payout asset, URLs)
type NetworkConfig struct {
	Name                string `yaml:"name"`
	ChainId             int64  `yaml:"chain_id"`
	PayoutAsset         string `yaml:"payout_asset"`
	VerificationBaseURL string `yaml:"verification_base_url"`
	ExplorerURL         string `yaml:"explorer_url"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path               string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	PingTimeout        time.Duration
	CreateDemoPolicies bool
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// OracleConfig holds oracle ingestion settings
type OracleConfig struct {
	ApiKey              string
	IngestTimeout       time.Duration
	ExpirySweepInterval time.Duration
	RedeliveryInterval  time.Duration
}

// VerificationConfig holds proof verification settings
type VerificationConfig struct {
	VerifierURL     string
	VerifierTimeout time.Duration
}

// PayoutsConfig selects the optional post-commit payout sinks
type PayoutsConfig struct {
	Formance FormanceConfig
	Prime    PrimeConfig
}

// FormanceConfig holds Formance ledger settings; disabled when StackURL is empty
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// PrimeConfig holds Coinbase Prime disbursement settings; disabled unless Enabled
type PrimeConfig struct {
	Enabled     bool
	PortfolioId string
	WalletId    string
}
