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
	"fmt"
	"strings"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"github.com/shopspring/decimal"
)

// CoverageSummary is a user's policies and the payouts made on them
type CoverageSummary struct {
	UserAddress string
	Policies    []models.Policy
	Payouts     []models.Payout
	TotalPaid   decimal.Decimal
}

// GetCoverage reports every policy and payout for one user address
func (s *CoverService) GetCoverage(ctx context.Context, address string) (*CoverageSummary, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", store.ErrValidation)
	}

	policies, err := s.db.GetPoliciesByUser(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get policies: %w", err)
	}
	payouts, err := s.db.GetPayoutsByUser(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get payouts: %w", err)
	}

	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(p.Amount)
	}

	return &CoverageSummary{
		UserAddress: strings.ToLower(address),
		Policies:    policies,
		Payouts:     payouts,
		TotalPaid:   total,
	}, nil
}

// RecentOracleEvents returns the newest audit log entries
func (s *CoverService) RecentOracleEvents(ctx context.Context, limit int) ([]models.OracleEvent, error) {
	return s.db.GetRecentOracleEvents(ctx, limit)
}
