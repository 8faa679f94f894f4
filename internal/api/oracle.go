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

	"go.uber.org/zap"
)

// IngestOracleEvent handles an oracle notification. Unknown event types are
// accepted and audited but never pay out.
func (s *CoverService) IngestOracleEvent(ctx context.Context, req models.OracleEventRequest) (*models.OracleEventResponse, error) {
	eventType := strings.TrimSpace(req.EventType)
	if eventType == "" {
		return nil, fmt.Errorf("%w: eventType is required", store.ErrValidation)
	}

	result, err := s.ingestor.Ingest(ctx, models.EventType(eventType), req.EventData)
	if err != nil {
		zap.L().Error("Oracle event ingestion failed",
			zap.String("event_type", eventType),
			zap.Error(err))
		return nil, err
	}

	if result.Failed > 0 || result.Skipped > 0 {
		zap.L().Warn("Oracle event processed with unpaid policies",
			zap.String("event_id", result.EventId),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped))
	}

	return &models.OracleEventResponse{
		Success:         true,
		PayoutTriggered: result.PayoutTriggered,
	}, nil
}
