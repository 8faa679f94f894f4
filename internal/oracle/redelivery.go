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
	"time"

	"go.uber.org/zap"
)

const redeliveryBatchSize = 100

// Redeliverer retries payouts a sink has not accepted yet
type Redeliverer interface {
	RedeliverPending(ctx context.Context, limit int) (*RedeliveryResult, error)
}

// PayoutRedeliverer periodically hands undelivered payouts back to their sinks
type PayoutRedeliverer struct {
	redeliverer Redeliverer
	interval    time.Duration

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewPayoutRedeliverer(redeliverer Redeliverer, interval time.Duration) *PayoutRedeliverer {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PayoutRedeliverer{
		redeliverer: redeliverer,
		interval:    interval,
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// Start runs one pass immediately and then one per interval until Stop or
// ctx cancellation.
func (r *PayoutRedeliverer) Start(ctx context.Context) {
	zap.L().Info("Starting payout redeliverer", zap.Duration("interval", r.interval))
	go r.redeliveryLoop(ctx)
}

// Stop halts the redeliverer and waits for the loop to exit
func (r *PayoutRedeliverer) Stop() {
	close(r.stopChan)
	<-r.doneChan
	zap.L().Info("Payout redeliverer stopped")
}

func (r *PayoutRedeliverer) redeliveryLoop(ctx context.Context) {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.redeliver(ctx)

	for {
		select {
		case <-ticker.C:
			r.redeliver(ctx)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (r *PayoutRedeliverer) redeliver(ctx context.Context) {
	if _, err := r.redeliverer.RedeliverPending(ctx, redeliveryBatchSize); err != nil {
		zap.L().Error("Failed to redeliver pending payouts", zap.Error(err))
	}
}
