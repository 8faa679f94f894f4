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

package api

import (
	"context"
	"encoding/json"
	"fmt"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/oracle"
)

// EventIngestor is the oracle ingestion capability
type EventIngestor interface {
	Ingest(ctx context.Context, eventType models.EventType, eventData map[string]interface{}) (*oracle.IngestResult, error)
}

// Verifier is the identity verification capability
type Verifier interface {
	Start(ctx context.Context, address string, config json.RawMessage) (*models.StartVerificationResponse, error)
	Complete(ctx context.Context, sessionId string, proof, attributes json.RawMessage) error
	Status(ctx context.Context, address, sessionId string) (*models.VerificationStatus, error)
}

// CoverStore is the read side the facade needs
type CoverStore interface {
	Ping(ctx context.Context) error
	GetPoliciesByUser(ctx context.Context, userAddress string) ([]models.Policy, error)
	GetPayoutsByUser(ctx context.Context, userAddress string) ([]models.Payout, error)
	GetRecentOracleEvents(ctx context.Context, limit int) ([]models.OracleEvent, error)
}

// CoverServiceConfig contains configuration for CoverService
type CoverServiceConfig struct {
	Store        CoverStore
	Ingestor     EventIngestor
	Verification Verifier
}

// CoverService validates requests and delegates to the domain services
type CoverService struct {
	db           CoverStore
	ingestor     EventIngestor
	verification Verifier
}

func NewCoverService(cfg CoverServiceConfig) *CoverService {
	return &CoverService{
		db:           cfg.Store,
		ingestor:     cfg.Ingestor,
		verification: cfg.Verification,
	}
}

func (s *CoverService) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
