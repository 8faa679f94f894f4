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

const (
	// Policy queries
	policyColumns = `id, user_address, policy_type, premium, payout_amount, status,
		expires_at, conditions, claim_amount, claimed_at, created_at`

	queryInsertPolicy = `
		INSERT INTO policies (id, user_address, policy_type, premium, payout_amount, status, expires_at, conditions, created_at)
		VALUES (?, ?, ?, ?, ?, 'active', ?, ?, ?)`

	queryGetPolicy = `
		SELECT ` + policyColumns + `
		FROM policies
		WHERE id = ?`

	queryGetPoliciesByUser = `
		SELECT ` + policyColumns + `
		FROM policies
		WHERE user_address = ?
		ORDER BY created_at, id`

	// queryFindPayoutEligible is completed with one placeholder per policy type
	queryFindPayoutEligible = `
		SELECT ` + policyColumns + `
		FROM policies
		WHERE status = 'active' AND expires_at > ? AND policy_type IN (%s)
		ORDER BY created_at, id`

	queryExpireLapsedPolicies = `
		UPDATE policies
		SET status = 'expired'
		WHERE status = 'active' AND expires_at <= ?`

	// Claim queries
	queryClaimPolicy = `
		UPDATE policies
		SET status = 'claimed', claim_amount = payout_amount, claimed_at = ?
		WHERE id = ? AND status = 'active'`

	queryGetPolicyStatus = `
		SELECT status FROM policies WHERE id = ?`

	queryGetClaimedPolicy = `
		SELECT user_address, claim_amount FROM policies WHERE id = ?`

	queryInsertClaim = `
		INSERT INTO claims (id, policy_id, user_address, amount, status, trigger_source, oracle_event_id, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	claimColumns = `id, policy_id, user_address, amount, status, trigger_source, oracle_event_id, completed_at`

	queryGetClaimsByPolicy = `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE policy_id = ?
		ORDER BY completed_at`

	queryGetClaimsByUser = `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE user_address = ?
		ORDER BY completed_at DESC`

	// Sink delivery queries
	queryInsertPendingDelivery = `
		INSERT INTO sink_deliveries (payout_id, sink, attempts, updated_at)
		VALUES (?, ?, 0, ?)`

	queryMarkDelivered = `
		INSERT INTO sink_deliveries (payout_id, sink, attempts, last_error, delivered_at, updated_at)
		VALUES (?, ?, 1, NULL, ?, ?)
		ON CONFLICT(payout_id, sink) DO UPDATE SET
			attempts = attempts + 1,
			last_error = NULL,
			delivered_at = excluded.delivered_at,
			updated_at = excluded.updated_at
		WHERE sink_deliveries.delivered_at IS NULL`

	queryRecordDeliveryFailure = `
		INSERT INTO sink_deliveries (payout_id, sink, attempts, last_error, updated_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(payout_id, sink) DO UPDATE SET
			attempts = attempts + 1,
			last_error = excluded.last_error,
			updated_at = excluded.updated_at
		WHERE sink_deliveries.delivered_at IS NULL`

	queryGetUndeliveredPayouts = `
		SELECT c.id, c.policy_id, c.user_address, c.amount, c.status, c.trigger_source, c.oracle_event_id, c.completed_at
		FROM sink_deliveries d
		JOIN claims c ON c.id = d.payout_id
		WHERE d.sink = ? AND d.delivered_at IS NULL
		ORDER BY c.completed_at, c.id
		LIMIT ?`

	queryGetSinkDeliveries = `
		SELECT payout_id, sink, attempts, last_error, delivered_at, updated_at
		FROM sink_deliveries
		WHERE payout_id = ?
		ORDER BY sink`

	// Oracle event queries
	queryInsertOracleEvent = `
		INSERT INTO oracle_events (id, event_type, event_data, payout_triggered, processed_at)
		VALUES (?, ?, ?, ?, ?)`

	queryGetRecentOracleEvents = `
		SELECT id, event_type, event_data, payout_triggered, processed_at
		FROM oracle_events
		ORDER BY processed_at DESC
		LIMIT ?`

	// Verification session queries
	sessionColumns = `id, user_address, status, config, attributes, created_at, completed_at`

	queryInsertSession = `
		INSERT INTO verification_sessions (id, user_address, status, config, created_at)
		VALUES (?, ?, 'pending', ?, ?)`

	queryGetSession = `
		SELECT ` + sessionColumns + `
		FROM verification_sessions
		WHERE id = ?`

	queryGetLatestSessionByUser = `
		SELECT ` + sessionColumns + `
		FROM verification_sessions
		WHERE user_address = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	queryFinalizeSession = `
		UPDATE verification_sessions
		SET status = ?, attributes = ?, completed_at = ?
		WHERE id = ? AND status = 'pending'`

	querySessionExists = `
		SELECT user_address FROM verification_sessions WHERE id = ?`

	// User profile queries
	queryUpsertVerifiedProfile = `
		INSERT INTO user_profiles (user_address, is_verified, verification_attributes, verified_at, updated_at)
		VALUES (?, 1, ?, ?, ?)
		ON CONFLICT(user_address) DO UPDATE SET
			is_verified = 1,
			verification_attributes = excluded.verification_attributes,
			verified_at = excluded.verified_at,
			updated_at = excluded.updated_at`

	queryGetUserProfile = `
		SELECT user_address, is_verified, verification_attributes, verified_at, updated_at
		FROM user_profiles
		WHERE user_address = ?`
)
