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

// Expirer marks lapsed policies as expired
type Expirer interface {
	ExpireLapsedPolicies(ctx context.Context, now time.Time) (int64, error)
}

// ExpirySweeper periodically moves active policies past their expiry to expired
type ExpirySweeper struct {
	store    Expirer
	interval time.Duration

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewExpirySweeper(store Expirer, interval time.Duration) *ExpirySweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &ExpirySweeper{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval until Stop or
// ctx cancellation.
func (s *ExpirySweeper) Start(ctx context.Context) {
	zap.L().Info("Starting policy expiry sweeper", zap.Duration("interval", s.interval))
	go s.sweepLoop(ctx)
}

// Stop halts the sweeper and waits for the loop to exit
func (s *ExpirySweeper) Stop() {
	close(s.stopChan)
	<-s.doneChan
	zap.L().Info("Policy expiry sweeper stopped")
}

func (s *ExpirySweeper) sweepLoop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) {
	expired, err := s.store.ExpireLapsedPolicies(ctx, time.Now())
	if err != nil {
		zap.L().Error("Failed to expire lapsed policies", zap.Error(err))
		return
	}
	if expired > 0 {
		zap.L().Info("Expired lapsed policies", zap.Int64("count", expired))
	}
}
