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

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PolicyType is the coverage category of a policy
type PolicyType string

const (
	PolicyTypeTravel       PolicyType = "travel"
	PolicyTypeMedical      PolicyType = "medical"
	PolicyTypeBaggage      PolicyType = "baggage"
	PolicyTypeCancellation PolicyType = "cancellation"
	PolicyTypeWeather      PolicyType = "weather"
	PolicyTypeVisa         PolicyType = "visa"
)

// PolicyTypes lists every known policy type
var PolicyTypes = []PolicyType{
	PolicyTypeTravel,
	PolicyTypeMedical,
	PolicyTypeBaggage,
	PolicyTypeCancellation,
	PolicyTypeWeather,
	PolicyTypeVisa,
}

func (t PolicyType) Valid() bool {
	for _, known := range PolicyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PolicyStatus is the lifecycle state of a policy
type PolicyStatus string

const (
	PolicyStatusActive  PolicyStatus = "active"
	PolicyStatusExpired PolicyStatus = "expired"
	PolicyStatusClaimed PolicyStatus = "claimed"
)

// EventType identifies the kind of oracle event. Unknown values are allowed
// and simply never trigger a payout.
type EventType string

const (
	EventTypeFlightDelay     EventType = "flight_delay"
	EventTypeExtremeWeather  EventType = "extreme_weather"
	EventTypeHealthEmergency EventType = "health_emergency"
)

// coverage maps each recognized event type to the policy types it pays out.
// Shared by the ingestor and the policy store.
var coverage = map[EventType][]PolicyType{
	EventTypeFlightDelay:     {PolicyTypeTravel, PolicyTypeCancellation},
	EventTypeExtremeWeather:  {PolicyTypeWeather},
	EventTypeHealthEmergency: {PolicyTypeMedical},
}

// Recognized reports whether the event type has a payout rule
func (e EventType) Recognized() bool {
	_, ok := coverage[e]
	return ok
}

// CoveredPolicyTypes returns the policy types paid out by this event type,
// or nil for unrecognized events.
func (e EventType) CoveredPolicyTypes() []PolicyType {
	types := coverage[e]
	if types == nil {
		return nil
	}
	out := make([]PolicyType, len(types))
	copy(out, types)
	return out
}

// Policy represents a purchased coverage record
type Policy struct {
	Id           string          `db:"id"`
	UserAddress  string          `db:"user_address"`
	PolicyType   PolicyType      `db:"policy_type"`
	Premium      decimal.Decimal `db:"premium"`
	PayoutAmount decimal.Decimal `db:"payout_amount"`
	Status       PolicyStatus    `db:"status"`
	ExpiresAt    time.Time       `db:"expires_at"`
	Conditions   json.RawMessage `db:"conditions"`
	ClaimAmount  decimal.Decimal `db:"claim_amount"`
	ClaimedAt    *time.Time      `db:"claimed_at"`
	CreatedAt    time.Time       `db:"created_at"`
}

// OracleEvent is an append-only audit record of an ingested oracle event
type OracleEvent struct {
	Id              string          `db:"id"`
	EventType       EventType       `db:"event_type"`
	EventData       json.RawMessage `db:"event_data"`
	PayoutTriggered bool            `db:"payout_triggered"`
	ProcessedAt     time.Time       `db:"processed_at"`
}

// PayoutStatus is the state of a payout record; only completed payouts exist
type PayoutStatus string

const PayoutStatusCompleted PayoutStatus = "completed"

// PayoutTriggerOracleEvent is the only trigger currently recorded on payouts
const PayoutTriggerOracleEvent = "oracle_event"

// Payout is the immutable disbursement record written when a policy is claimed
type Payout struct {
	Id            string          `db:"id"`
	PolicyId      string          `db:"policy_id"`
	UserAddress   string          `db:"user_address"`
	Amount        decimal.Decimal `db:"amount"`
	Status        PayoutStatus    `db:"status"`
	Trigger       string          `db:"trigger_source"`
	OracleEventId string          `db:"oracle_event_id"`
	CompletedAt   time.Time       `db:"completed_at"`
}

// SinkDelivery is the delivery state of one payout at one payout sink.
// DeliveredAt stays nil until the sink accepts the payout.
type SinkDelivery struct {
	PayoutId    string     `db:"payout_id"`
	Sink        string     `db:"sink"`
	Attempts    int        `db:"attempts"`
	LastError   string     `db:"last_error"`
	DeliveredAt *time.Time `db:"delivered_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// SessionStatus is the state of an identity verification session
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "not_started"
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

// VerificationSession tracks one identity-proof exchange
type VerificationSession struct {
	Id          string          `db:"id"`
	UserAddress string          `db:"user_address"`
	Status      SessionStatus   `db:"status"`
	Config      json.RawMessage `db:"config"`
	Attributes  json.RawMessage `db:"attributes"`
	CreatedAt   time.Time       `db:"created_at"`
	CompletedAt *time.Time      `db:"completed_at"`
}

// UserProfile holds verification results for a user address
type UserProfile struct {
	UserAddress            string          `db:"user_address"`
	IsVerified             bool            `db:"is_verified"`
	VerificationAttributes json.RawMessage `db:"verification_attributes"`
	VerifiedAt             *time.Time      `db:"verified_at"`
	UpdatedAt              time.Time       `db:"updated_at"`
}
