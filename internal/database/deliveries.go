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
	"fmt"
	"time"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"go.uber.org/zap"
)

// MarkPayoutDelivered records that a sink accepted a payout. Marking an
// already delivered payout is a no-op.
func (s *Service) MarkPayoutDelivered(ctx context.Context, payoutId, sink string, at time.Time) error {
	if payoutId == "" || sink == "" {
		return fmt.Errorf("%w: payout id and sink are required", store.ErrValidation)
	}
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx, queryMarkDelivered, payoutId, sink, formatTime(at), formatTime(at))
	if err != nil {
		zap.L().Error("Failed to mark payout delivered",
			zap.String("payout_id", payoutId),
			zap.String("sink", sink),
			zap.Error(err))
		return fmt.Errorf("unable to mark payout delivered: %w", err)
	}
	return nil
}

// RecordDeliveryFailure counts a failed attempt and keeps the payout pending
func (s *Service) RecordDeliveryFailure(ctx context.Context, payoutId, sink, cause string, at time.Time) error {
	if payoutId == "" || sink == "" {
		return fmt.Errorf("%w: payout id and sink are required", store.ErrValidation)
	}
	if at.IsZero() {
		at = time.Now()
	}

	_, err := s.db.ExecContext(ctx, queryRecordDeliveryFailure, payoutId, sink, cause, formatTime(at))
	if err != nil {
		zap.L().Error("Failed to record delivery failure",
			zap.String("payout_id", payoutId),
			zap.String("sink", sink),
			zap.Error(err))
		return fmt.Errorf("unable to record delivery failure: %w", err)
	}
	return nil
}

// GetUndeliveredPayouts returns the oldest payouts still pending at a sink
func (s *Service) GetUndeliveredPayouts(ctx context.Context, sink string, limit int) ([]models.Payout, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, queryGetUndeliveredPayouts, sink, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get undelivered payouts: %w", err)
	}
	defer closeRows(rows)

	return collectPayouts(rows)
}

func (s *Service) GetSinkDeliveries(ctx context.Context, payoutId string) ([]models.SinkDelivery, error) {
	rows, err := s.db.QueryContext(ctx, queryGetSinkDeliveries, payoutId)
	if err != nil {
		return nil, fmt.Errorf("failed to get sink deliveries: %w", err)
	}
	defer closeRows(rows)

	var deliveries []models.SinkDelivery
	for rows.Next() {
		var (
			delivery    models.SinkDelivery
			lastError   sql.NullString
			deliveredAt sql.NullString
			updatedAt   string
		)
		err := rows.Scan(&delivery.PayoutId, &delivery.Sink, &delivery.Attempts, &lastError, &deliveredAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sink delivery: %w", err)
		}

		delivery.LastError = lastError.String
		if delivery.DeliveredAt, err = parseNullTime(deliveredAt); err != nil {
			return nil, err
		}
		if delivery.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, delivery)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sink delivery rows: %w", err)
	}
	return deliveries, nil
}
