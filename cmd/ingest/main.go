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

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"travel-cover-go/internal/common"
	"travel-cover-go/internal/config"
	"travel-cover-go/internal/models"

	"go.uber.org/zap"
)

func redeliver(ctx context.Context, services *common.Services, limit int) {
	result, err := services.Ingestor.RedeliverPending(ctx, limit)
	if err != nil {
		zap.L().Fatal("Failed to redeliver payouts", zap.Error(err))
	}

	common.PrintHeader("PAYOUT REDELIVERY", common.DefaultWidth)
	fmt.Printf("Attempted: %d\n", result.Attempted)
	fmt.Printf("Delivered: %d\n", result.Delivered)
	fmt.Printf("Failed:    %d\n", result.Failed)
	common.PrintSeparator("=", common.DefaultWidth)
}

// ingest replays one oracle event through the same pipeline the HTTP server
// uses, including any configured payout sinks.
func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	typeFlag := flag.String("type", "", "Event type: flight_delay, extreme_weather, health_emergency")
	dataFlag := flag.String("data", "{}", "Event data as a JSON object")
	redeliverFlag := flag.Bool("redeliver", false, "Retry payouts a sink has not accepted yet instead of ingesting")
	limitFlag := flag.Int("limit", 100, "Maximum payouts per sink to retry with -redeliver")
	flag.Parse()

	if *typeFlag == "" && !*redeliverFlag {
		fmt.Println("Usage: ingest -type <event_type> -data '{\"delayMinutes\":180}' | ingest -redeliver [-limit N]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *redeliverFlag {
		redeliver(ctx, services, *limitFlag)
		return
	}

	var eventData map[string]interface{}
	if err := json.Unmarshal([]byte(*dataFlag), &eventData); err != nil {
		logger.Fatal("Event data must be a JSON object", zap.Error(err))
	}

	result, err := services.Ingestor.Ingest(ctx, models.EventType(*typeFlag), eventData)
	if err != nil {
		logger.Fatal("Failed to ingest oracle event", zap.Error(err))
	}

	common.PrintHeader("ORACLE EVENT INGESTED", common.DefaultWidth)
	fmt.Printf("Event ID:         %s\n", result.EventId)
	fmt.Printf("Payout triggered: %t\n", result.PayoutTriggered)
	fmt.Printf("Matched policies: %d\n", result.Matched)
	fmt.Printf("Paid:             %d\n", result.Paid)
	fmt.Printf("Already claimed:  %d\n", result.AlreadyClaimed)
	fmt.Printf("Failed:           %d\n", result.Failed)
	fmt.Printf("Skipped:          %d\n", result.Skipped)
	fmt.Printf("Sink failures:    %d\n", result.SinkFailures)

	common.PrintSection("Payouts", len(result.Payouts), common.DefaultWidth)
	for i, payout := range result.Payouts {
		isLast := i == len(result.Payouts)-1
		fmt.Printf("%s %s → %s (policy %s)\n",
			common.BoxPrefix(isLast),
			common.ShortId(payout.Id),
			common.FormatAmount(payout.Amount, cfg.Network.PayoutAsset),
			payout.PolicyId)
	}
	common.PrintSeparator("=", common.DefaultWidth)
}
