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
	"errors"
	"fmt"
	"time"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ClaimPolicy atomically moves an active policy to claimed and records its
// payout. A policy that is no longer active yields store.ErrPolicyNotClaimable,
// so concurrent triggers pay out at most once.
func (s *Service) ClaimPolicy(ctx context.Context, params store.ClaimParams) (*models.Payout, error) {
	if params.PolicyId == "" {
		return nil, fmt.Errorf("%w: policy id is required", store.ErrValidation)
	}
	claimedAt := params.ClaimedAt
	if claimedAt.IsZero() {
		claimedAt = time.Now()
	}
	claimedAt = claimedAt.UTC()

	zap.L().Info("Processing payout",
		zap.String("policy_id", params.PolicyId),
		zap.String("oracle_event_id", params.OracleEventId))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, queryClaimPolicy, formatTime(claimedAt), params.PolicyId)
	if err != nil {
		return nil, fmt.Errorf("failed to update policy status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var status string
		err := tx.QueryRowContext(ctx, queryGetPolicyStatus, params.PolicyId).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: policy %s", store.ErrNotFound, params.PolicyId)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read policy status: %w", err)
		}
		return nil, fmt.Errorf("%w: policy %s is %s", store.ErrPolicyNotClaimable, params.PolicyId, status)
	}

	var userAddress, amountStr string
	if err := tx.QueryRowContext(ctx, queryGetClaimedPolicy, params.PolicyId).Scan(&userAddress, &amountStr); err != nil {
		return nil, fmt.Errorf("failed to read claimed policy: %w", err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse claim amount '%s': %w", amountStr, err)
	}

	payout := &models.Payout{
		Id:            uuid.New().String(),
		PolicyId:      params.PolicyId,
		UserAddress:   userAddress,
		Amount:        amount,
		Status:        models.PayoutStatusCompleted,
		Trigger:       models.PayoutTriggerOracleEvent,
		OracleEventId: params.OracleEventId,
		CompletedAt:   claimedAt,
	}

	_, err = tx.ExecContext(ctx, queryInsertClaim,
		payout.Id, payout.PolicyId, payout.UserAddress, payout.Amount.String(),
		string(payout.Status), payout.Trigger, nullString(payout.OracleEventId), formatTime(payout.CompletedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: policy %s", store.ErrDuplicateClaim, params.PolicyId)
		}
		return nil, fmt.Errorf("failed to insert payout: %w", err)
	}

	for _, sink := range params.Sinks {
		_, err = tx.ExecContext(ctx, queryInsertPendingDelivery, payout.Id, sink, formatTime(claimedAt))
		if err != nil {
			return nil, fmt.Errorf("failed to record pending delivery to %s: %w", sink, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Payout recorded",
		zap.String("payout_id", payout.Id),
		zap.String("policy_id", payout.PolicyId),
		zap.String("user_address", payout.UserAddress),
		zap.String("amount", payout.Amount.String()))

	return payout, nil
}

func (s *Service) GetPayoutsByPolicy(ctx context.Context, policyId string) ([]models.Payout, error) {
	rows, err := s.db.QueryContext(ctx, queryGetClaimsByPolicy, policyId)
	if err != nil {
		return nil, fmt.Errorf("failed to get payouts: %w", err)
	}
	defer closeRows(rows)

	return collectPayouts(rows)
}

func (s *Service) GetPayoutsByUser(ctx context.Context, userAddress string) ([]models.Payout, error) {
	rows, err := s.db.QueryContext(ctx, queryGetClaimsByUser, NormalizeAddress(userAddress))
	if err != nil {
		return nil, fmt.Errorf("failed to get payouts: %w", err)
	}
	defer closeRows(rows)

	return collectPayouts(rows)
}

func collectPayouts(rows *sql.Rows) ([]models.Payout, error) {
	var payouts []models.Payout
	for rows.Next() {
		var (
			payout                         models.Payout
			amountStr, status, completedAt string
			oracleEventId                  sql.NullString
		)
		err := rows.Scan(&payout.Id, &payout.PolicyId, &payout.UserAddress, &amountStr,
			&status, &payout.Trigger, &oracleEventId, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}

		payout.Status = models.PayoutStatus(status)
		payout.OracleEventId = oracleEventId.String
		if payout.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}
		if payout.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, err
		}
		payouts = append(payouts, payout)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during payout row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating payout rows: %w", err)
	}
	return payouts, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
