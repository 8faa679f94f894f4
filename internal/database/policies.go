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
	"strings"
	"time"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Service) CreatePolicy(ctx context.Context, params store.CreatePolicyParams) (*models.Policy, error) {
	address := NormalizeAddress(params.UserAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: user address is required", store.ErrValidation)
	}
	if !params.PolicyType.Valid() {
		return nil, fmt.Errorf("%w: unknown policy type %q", store.ErrValidation, params.PolicyType)
	}
	if params.Premium.IsNegative() {
		return nil, fmt.Errorf("%w: premium cannot be negative", store.ErrValidation)
	}
	if !params.PayoutAmount.IsPositive() {
		return nil, fmt.Errorf("%w: payout amount must be positive", store.ErrValidation)
	}
	if params.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: expiry is required", store.ErrValidation)
	}
	conditions, err := jsonOrEmpty(params.Conditions)
	if err != nil {
		return nil, err
	}

	policyId := uuid.New().String()
	now := time.Now().UTC()

	zap.L().Info("Creating policy",
		zap.String("id", policyId),
		zap.String("user_address", address),
		zap.String("policy_type", string(params.PolicyType)),
		zap.String("payout_amount", params.PayoutAmount.String()))

	_, err = s.db.ExecContext(ctx, queryInsertPolicy,
		policyId, address, string(params.PolicyType),
		params.Premium.String(), params.PayoutAmount.String(),
		formatTime(params.ExpiresAt), conditions, formatTime(now))
	if err != nil {
		zap.L().Error("Failed to insert policy", zap.String("user_address", address), zap.Error(err))
		return nil, fmt.Errorf("unable to insert policy: %w", err)
	}

	return s.GetPolicy(ctx, policyId)
}

func (s *Service) GetPolicy(ctx context.Context, policyId string) (*models.Policy, error) {
	zap.L().Debug("Querying policy by ID", zap.String("policy_id", policyId))

	policy, err := scanPolicy(s.db.QueryRowContext(ctx, queryGetPolicy, policyId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: policy %s", store.ErrNotFound, policyId)
		}
		zap.L().Error("Failed to query policy", zap.String("policy_id", policyId), zap.Error(err))
		return nil, fmt.Errorf("unable to query policy: %w", err)
	}
	return policy, nil
}

func (s *Service) GetPoliciesByUser(ctx context.Context, userAddress string) ([]models.Policy, error) {
	address := NormalizeAddress(userAddress)
	zap.L().Debug("Querying policies by user", zap.String("user_address", address))

	rows, err := s.db.QueryContext(ctx, queryGetPoliciesByUser, address)
	if err != nil {
		return nil, fmt.Errorf("unable to query policies: %w", err)
	}
	defer closeRows(rows)

	return collectPolicies(rows)
}

// FindPayoutEligible returns active policies of the given types that have not
// expired at now, oldest first.
func (s *Service) FindPayoutEligible(ctx context.Context, types []models.PolicyType, now time.Time) ([]models.Policy, error) {
	if len(types) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(types))
	args := make([]any, 0, len(types)+1)
	args = append(args, formatTime(now))
	for i, t := range types {
		placeholders[i] = "?"
		args = append(args, string(t))
	}
	query := fmt.Sprintf(queryFindPayoutEligible, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		zap.L().Error("Failed to query eligible policies", zap.Error(err))
		return nil, fmt.Errorf("unable to query eligible policies: %w", err)
	}
	defer closeRows(rows)

	policies, err := collectPolicies(rows)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Found payout-eligible policies",
		zap.Int("count", len(policies)),
		zap.Time("evaluated_at", now))
	return policies, nil
}

// ExpireLapsedPolicies marks active policies whose expiry has passed as expired.
func (s *Service) ExpireLapsedPolicies(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryExpireLapsedPolicies, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("unable to expire policies: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unable to get rows affected: %w", err)
	}
	return affected, nil
}

func collectPolicies(rows *sql.Rows) ([]models.Policy, error) {
	var policies []models.Policy
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan policy row: %w", err)
		}
		policies = append(policies, *policy)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during policy row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating policy rows: %w", err)
	}
	return policies, nil
}

func scanPolicy(row rowScanner) (*models.Policy, error) {
	var (
		policy                                        models.Policy
		policyType, status, conditions                string
		premiumStr, payoutStr, expiresStr, createdStr string
		claimAmount, claimedAt                        sql.NullString
	)

	err := row.Scan(&policy.Id, &policy.UserAddress, &policyType, &premiumStr, &payoutStr, &status,
		&expiresStr, &conditions, &claimAmount, &claimedAt, &createdStr)
	if err != nil {
		return nil, err
	}

	policy.PolicyType = models.PolicyType(policyType)
	policy.Status = models.PolicyStatus(status)
	policy.Conditions = []byte(conditions)

	if policy.Premium, err = decimal.NewFromString(premiumStr); err != nil {
		return nil, fmt.Errorf("failed to parse premium '%s': %w", premiumStr, err)
	}
	if policy.PayoutAmount, err = decimal.NewFromString(payoutStr); err != nil {
		return nil, fmt.Errorf("failed to parse payout amount '%s': %w", payoutStr, err)
	}
	if policy.ClaimAmount, err = parseNullDecimal(claimAmount); err != nil {
		return nil, fmt.Errorf("failed to parse claim amount: %w", err)
	}
	if policy.ExpiresAt, err = parseTime(expiresStr); err != nil {
		return nil, err
	}
	if policy.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	if policy.ClaimedAt, err = parseNullTime(claimedAt); err != nil {
		return nil, err
	}
	return &policy, nil
}
