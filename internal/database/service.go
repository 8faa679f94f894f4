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

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.CoverStore.
var _ store.CoverStore = (*Service)(nil)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_busy_timeout=5000&_txlock=immediate&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	if cfg.CreateDemoPolicies {
		service.createDemoPolicies(ctx)
	} else {
		zap.L().Info("Skipping demo policy creation (CREATE_DEMO_POLICIES=false)")
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		user_address TEXT NOT NULL,
		policy_type TEXT NOT NULL,
		premium TEXT NOT NULL,
		payout_amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		expires_at TEXT NOT NULL,
		conditions TEXT NOT NULL DEFAULT '{}',
		claim_amount TEXT,
		claimed_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_policies_user_address ON policies(user_address);
	CREATE INDEX IF NOT EXISTS idx_policies_type_status ON policies(policy_type, status, expires_at);

	-- Payout records; one per claimed policy
	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		policy_id TEXT NOT NULL UNIQUE REFERENCES policies(id),
		user_address TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		trigger_source TEXT NOT NULL,
		oracle_event_id TEXT,
		completed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_claims_user_address ON claims(user_address);

	-- One row per payout and sink; delivered_at stays NULL until the sink accepts it
	CREATE TABLE IF NOT EXISTS sink_deliveries (
		payout_id TEXT NOT NULL REFERENCES claims(id),
		sink TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		delivered_at TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (payout_id, sink)
	);

	CREATE INDEX IF NOT EXISTS idx_sink_deliveries_pending ON sink_deliveries(sink, delivered_at);

	-- Append-only audit log of ingested oracle events
	CREATE TABLE IF NOT EXISTS oracle_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		event_data TEXT NOT NULL,
		payout_triggered INTEGER NOT NULL,
		processed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_oracle_events_processed_at ON oracle_events(processed_at);

	CREATE TABLE IF NOT EXISTS verification_sessions (
		id TEXT PRIMARY KEY,
		user_address TEXT NOT NULL,
		status TEXT NOT NULL,
		config TEXT NOT NULL DEFAULT '{}',
		attributes TEXT,
		created_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_verification_sessions_user ON verification_sessions(user_address, created_at);

	CREATE TABLE IF NOT EXISTS user_profiles (
		user_address TEXT PRIMARY KEY,
		is_verified INTEGER NOT NULL DEFAULT 0,
		verification_attributes TEXT,
		verified_at TEXT,
		updated_at TEXT NOT NULL
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	// Databases created before sessions kept their own attributes
	return s.addColumnIfMissing(ctx, "verification_sessions", "attributes", "TEXT")
}

func (s *Service) addColumnIfMissing(ctx context.Context, table, column, definition string) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("unable to read %s columns: %w", table, err)
	}
	defer closeRows(rows)

	for rows.Next() {
		var (
			cid        int
			name, kind string
			notNull    int
			dflt       sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &kind, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("unable to scan %s columns: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("unable to read %s columns: %w", table, err)
	}

	zap.L().Info("Adding column", zap.String("table", table), zap.String("column", column))
	_, err = s.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

// createDemoPolicies seeds one active policy per recognized event so a fresh
// local database can exercise the payout flow.
func (s *Service) createDemoPolicies(ctx context.Context) {
	expiresAt := time.Now().UTC().Add(30 * 24 * time.Hour)
	demo := []store.CreatePolicyParams{
		{UserAddress: "0x1111111111111111111111111111111111111111", PolicyType: models.PolicyTypeTravel, Premium: decimal.NewFromInt(25), PayoutAmount: decimal.NewFromInt(500), ExpiresAt: expiresAt},
		{UserAddress: "0x2222222222222222222222222222222222222222", PolicyType: models.PolicyTypeWeather, Premium: decimal.NewFromInt(15), PayoutAmount: decimal.NewFromInt(300), ExpiresAt: expiresAt},
		{UserAddress: "0x3333333333333333333333333333333333333333", PolicyType: models.PolicyTypeMedical, Premium: decimal.NewFromInt(40), PayoutAmount: decimal.NewFromInt(2000), ExpiresAt: expiresAt},
	}

	for _, params := range demo {
		policy, err := s.CreatePolicy(ctx, params)
		if err != nil {
			zap.L().Error("Failed to insert demo policy", zap.String("user_address", params.UserAddress), zap.Error(err))
			continue
		}
		zap.L().Info("Demo policy created",
			zap.String("id", policy.Id),
			zap.String("user_address", policy.UserAddress),
			zap.String("policy_type", string(policy.PolicyType)))
	}
}

// NormalizeAddress lowercases and trims a wallet address
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
		}
	}
	return t.UTC(), nil
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseNullDecimal(value sql.NullString) (decimal.Decimal, error) {
	if !value.Valid || value.String == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value.String)
}

// jsonOrEmpty returns raw when it holds a JSON value, or "{}" otherwise.
func jsonOrEmpty(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "{}", nil
	}
	if !json.Valid([]byte(trimmed)) {
		return "", fmt.Errorf("%w: invalid JSON document", store.ErrValidation)
	}
	return trimmed, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}
