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
	"encoding/json"
	"fmt"
	"time"

	"travel-cover-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RecordOracleEvent appends one audit entry for an ingested event.
func (s *Service) RecordOracleEvent(ctx context.Context, eventType models.EventType, eventData json.RawMessage, payoutTriggered bool) (*models.OracleEvent, error) {
	data, err := jsonOrEmpty(eventData)
	if err != nil {
		return nil, err
	}

	event := &models.OracleEvent{
		Id:              uuid.New().String(),
		EventType:       eventType,
		EventData:       json.RawMessage(data),
		PayoutTriggered: payoutTriggered,
		ProcessedAt:     time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, queryInsertOracleEvent,
		event.Id, string(event.EventType), data, event.PayoutTriggered, formatTime(event.ProcessedAt))
	if err != nil {
		zap.L().Error("Failed to record oracle event",
			zap.String("event_type", string(eventType)),
			zap.Error(err))
		return nil, fmt.Errorf("unable to record oracle event: %w", err)
	}

	zap.L().Info("Oracle event recorded",
		zap.String("event_id", event.Id),
		zap.String("event_type", string(event.EventType)),
		zap.Bool("payout_triggered", event.PayoutTriggered))
	return event, nil
}

func (s *Service) GetRecentOracleEvents(ctx context.Context, limit int) ([]models.OracleEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, queryGetRecentOracleEvents, limit)
	if err != nil {
		return nil, fmt.Errorf("unable to query oracle events: %w", err)
	}
	defer closeRows(rows)

	var events []models.OracleEvent
	for rows.Next() {
		var event models.OracleEvent
		var eventType, eventData, processedAt string
		if err := rows.Scan(&event.Id, &eventType, &eventData, &event.PayoutTriggered, &processedAt); err != nil {
			return nil, fmt.Errorf("unable to scan oracle event row: %w", err)
		}
		event.EventType = models.EventType(eventType)
		event.EventData = json.RawMessage(eventData)
		if event.ProcessedAt, err = parseTime(processedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating oracle event rows: %w", err)
	}
	return events, nil
}
