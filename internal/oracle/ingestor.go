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

package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"go.uber.org/zap"
)

// Store is the subset of persistence the ingestor needs.
type Store interface {
	store.OracleEventStore
	store.DeliveryStore
	FindPayoutEligible(ctx context.Context, types []models.PolicyType, now time.Time) ([]models.Policy, error)
	ClaimPolicy(ctx context.Context, params store.ClaimParams) (*models.Payout, error)
}

// PayoutSink receives every payout after it has been committed. Sink failures
// never undo a payout; the payout stays pending at that sink until a later
// delivery succeeds.
type PayoutSink interface {
	Name() string
	RecordPayout(ctx context.Context, payout models.Payout) error
}

// IngestorConfig contains configuration for Ingestor
type IngestorConfig struct {
	Store         Store
	Sinks         []PayoutSink
	PayoutTimeout time.Duration
}

// Ingestor classifies oracle events, records them and pays out matching policies
type Ingestor struct {
	store         Store
	sinks         []PayoutSink
	payoutTimeout time.Duration
	now           func() time.Time
}

// IngestResult summarizes one ingestion
type IngestResult struct {
	EventId         string
	PayoutTriggered bool
	Matched         int
	Paid            int
	AlreadyClaimed  int
	Failed          int
	Skipped         int
	SinkFailures    int
	Payouts         []models.Payout
}

// RedeliveryResult summarizes one pass over undelivered payouts
type RedeliveryResult struct {
	Attempted int
	Delivered int
	Failed    int
}

func NewIngestor(cfg IngestorConfig) *Ingestor {
	timeout := cfg.PayoutTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Ingestor{
		store:         cfg.Store,
		sinks:         cfg.Sinks,
		payoutTimeout: timeout,
		now:           time.Now,
	}
}

// Ingest records the event and, when its threshold is met, pays out every
// active unexpired policy of a covered type. Only a failed audit write is
// returned as an error; individual payout failures are counted in the result.
func (i *Ingestor) Ingest(ctx context.Context, eventType models.EventType, eventData map[string]interface{}) (*IngestResult, error) {
	if eventData == nil {
		eventData = map[string]interface{}{}
	}
	payload, err := json.Marshal(eventData)
	if err != nil {
		return nil, fmt.Errorf("%w: event data is not serializable: %v", store.ErrValidation, err)
	}

	triggered := ShouldTriggerPayout(eventType, eventData)

	zap.L().Info("Oracle event received",
		zap.String("event_type", string(eventType)),
		zap.Bool("recognized", eventType.Recognized()),
		zap.Bool("payout_triggered", triggered))

	event, err := i.store.RecordOracleEvent(ctx, eventType, payload, triggered)
	if err != nil {
		return nil, fmt.Errorf("failed to record oracle event: %w", err)
	}

	result := &IngestResult{EventId: event.Id, PayoutTriggered: triggered}
	if !triggered {
		return result, nil
	}

	payoutCtx, cancel := context.WithTimeout(ctx, i.payoutTimeout)
	defer cancel()

	policies, err := i.store.FindPayoutEligible(payoutCtx, eventType.CoveredPolicyTypes(), i.now())
	if err != nil {
		zap.L().Error("Failed to find eligible policies",
			zap.String("event_id", event.Id),
			zap.Error(err))
		return result, nil
	}
	result.Matched = len(policies)

	for idx, policy := range policies {
		if payoutCtx.Err() != nil {
			result.Skipped = len(policies) - idx
			zap.L().Warn("Payout deadline reached, skipping remaining policies",
				zap.String("event_id", event.Id),
				zap.Int("skipped", result.Skipped))
			break
		}

		payout, err := i.store.ClaimPolicy(payoutCtx, store.ClaimParams{
			PolicyId:      policy.Id,
			OracleEventId: event.Id,
			ClaimedAt:     i.now(),
			Sinks:         i.sinkNames(),
		})
		switch {
		case err == nil:
			result.Paid++
			result.Payouts = append(result.Payouts, *payout)
			for _, sink := range i.sinks {
				if !i.deliver(payoutCtx, sink, *payout) {
					result.SinkFailures++
				}
			}
		case errors.Is(err, store.ErrPolicyNotClaimable), errors.Is(err, store.ErrDuplicateClaim):
			result.AlreadyClaimed++
			zap.L().Info("Policy already claimed",
				zap.String("policy_id", policy.Id),
				zap.String("event_id", event.Id))
		default:
			result.Failed++
			zap.L().Error("Failed to pay out policy",
				zap.String("policy_id", policy.Id),
				zap.String("event_id", event.Id),
				zap.Error(err))
		}
	}

	zap.L().Info("Oracle event processed",
		zap.String("event_id", event.Id),
		zap.String("event_type", string(eventType)),
		zap.Int("matched", result.Matched),
		zap.Int("paid", result.Paid),
		zap.Int("already_claimed", result.AlreadyClaimed),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Int("sink_failures", result.SinkFailures))

	return result, nil
}

// RedeliverPending retries payouts that a sink has not yet accepted, oldest
// first, at most limit per sink.
func (i *Ingestor) RedeliverPending(ctx context.Context, limit int) (*RedeliveryResult, error) {
	result := &RedeliveryResult{}
	for _, sink := range i.sinks {
		payouts, err := i.store.GetUndeliveredPayouts(ctx, sink.Name(), limit)
		if err != nil {
			return result, fmt.Errorf("failed to list undelivered payouts for %s: %w", sink.Name(), err)
		}

		for _, payout := range payouts {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.Attempted++
			if i.deliver(ctx, sink, payout) {
				result.Delivered++
			} else {
				result.Failed++
			}
		}
	}

	if result.Attempted > 0 {
		zap.L().Info("Payout redelivery finished",
			zap.Int("attempted", result.Attempted),
			zap.Int("delivered", result.Delivered),
			zap.Int("failed", result.Failed))
	}
	return result, nil
}

func (i *Ingestor) sinkNames() []string {
	names := make([]string, 0, len(i.sinks))
	for _, sink := range i.sinks {
		names = append(names, sink.Name())
	}
	return names
}

// deliver hands one payout to one sink and records the outcome. The outcome
// is written even when ctx has expired so that a timed out call stays pending.
func (i *Ingestor) deliver(ctx context.Context, sink PayoutSink, payout models.Payout) bool {
	bookkeeping := context.WithoutCancel(ctx)

	if err := sink.RecordPayout(ctx, payout); err != nil {
		zap.L().Error("Payout sink failed",
			zap.String("sink", sink.Name()),
			zap.String("payout_id", payout.Id),
			zap.String("policy_id", payout.PolicyId),
			zap.Error(err))
		if recErr := i.store.RecordDeliveryFailure(bookkeeping, payout.Id, sink.Name(), err.Error(), i.now()); recErr != nil {
			zap.L().Error("Failed to record payout delivery failure",
				zap.String("sink", sink.Name()),
				zap.String("payout_id", payout.Id),
				zap.Error(recErr))
		}
		return false
	}

	if err := i.store.MarkPayoutDelivered(bookkeeping, payout.Id, sink.Name(), i.now()); err != nil {
		zap.L().Error("Failed to mark payout delivered",
			zap.String("sink", sink.Name()),
			zap.String("payout_id", payout.Id),
			zap.Error(err))
	}
	return true
}
