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

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"travel-cover-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across the store, services and HTTP layer.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrSessionClosed      = errors.New("verification session already finalized")
	ErrInvalidProof       = errors.New("invalid proof")
	ErrPolicyNotClaimable = errors.New("policy is not active")
	ErrDuplicateClaim     = errors.New("payout already recorded for policy")
)

// CreatePolicyParams contains the parameters for seeding a policy.
type CreatePolicyParams struct {
	UserAddress  string
	PolicyType   models.PolicyType
	Premium      decimal.Decimal
	PayoutAmount decimal.Decimal
	ExpiresAt    time.Time
	Conditions   json.RawMessage
}

// ClaimParams identifies the policy to pay out and the event that caused it.
// Sinks names the payout sinks that must deliver the payout; a pending
// delivery is recorded for each in the claim transaction.
type ClaimParams struct {
	PolicyId      string
	OracleEventId string
	ClaimedAt     time.Time
	Sinks         []string
}

// CompleteSessionParams carries a verified session's outcome.
type CompleteSessionParams struct {
	SessionId  string
	Attributes json.RawMessage
	VerifiedAt time.Time
}

// PolicyStore is the durable record of purchased policies.
type PolicyStore interface {
	CreatePolicy(ctx context.Context, params CreatePolicyParams) (*models.Policy, error)
	GetPolicy(ctx context.Context, policyId string) (*models.Policy, error)
	GetPoliciesByUser(ctx context.Context, userAddress string) ([]models.Policy, error)
	FindPayoutEligible(ctx context.Context, types []models.PolicyType, now time.Time) ([]models.Policy, error)
	ExpireLapsedPolicies(ctx context.Context, now time.Time) (int64, error)
}

// PayoutStore applies payouts and reads them back.
type PayoutStore interface {
	ClaimPolicy(ctx context.Context, params ClaimParams) (*models.Payout, error)
	GetPayoutsByPolicy(ctx context.Context, policyId string) ([]models.Payout, error)
	GetPayoutsByUser(ctx context.Context, userAddress string) ([]models.Payout, error)
}

// DeliveryStore tracks delivery of committed payouts to each payout sink.
type DeliveryStore interface {
	MarkPayoutDelivered(ctx context.Context, payoutId, sink string, at time.Time) error
	RecordDeliveryFailure(ctx context.Context, payoutId, sink, cause string, at time.Time) error
	GetUndeliveredPayouts(ctx context.Context, sink string, limit int) ([]models.Payout, error)
	GetSinkDeliveries(ctx context.Context, payoutId string) ([]models.SinkDelivery, error)
}

// OracleEventStore is the append-only audit log of ingested events.
type OracleEventStore interface {
	RecordOracleEvent(ctx context.Context, eventType models.EventType, eventData json.RawMessage, payoutTriggered bool) (*models.OracleEvent, error)
	GetRecentOracleEvents(ctx context.Context, limit int) ([]models.OracleEvent, error)
}

// SessionStore owns verification sessions and the profiles they update.
type SessionStore interface {
	CreateSession(ctx context.Context, userAddress string, config json.RawMessage) (*models.VerificationSession, error)
	GetSession(ctx context.Context, sessionId string) (*models.VerificationSession, error)
	GetLatestSessionByUser(ctx context.Context, userAddress string) (*models.VerificationSession, error)
	CompleteSession(ctx context.Context, params CompleteSessionParams) error
	FailSession(ctx context.Context, sessionId string, failedAt time.Time) error
	GetUserProfile(ctx context.Context, userAddress string) (*models.UserProfile, error)
}

// CoverStore is the full contract the SQLite backend satisfies.
type CoverStore interface {
	PolicyStore
	PayoutStore
	DeliveryStore
	OracleEventStore
	SessionStore

	Ping(ctx context.Context) error
	Close()
}
