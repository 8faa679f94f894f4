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
	"errors"
	"flag"
	"fmt"

	"travel-cover-go/internal/api"
	"travel-cover-go/internal/common"
	"travel-cover-go/internal/config"
	"travel-cover-go/internal/database"
	"travel-cover-go/internal/formance"
	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"go.uber.org/zap"
)

func printPolicy(policy models.Policy, asset string, isLast bool) {
	fmt.Printf("%s %-13s %-8s payout %20s (expires %s, id %s)\n",
		common.BoxPrefix(isLast),
		policy.PolicyType,
		policy.Status,
		common.FormatAmount(policy.PayoutAmount, asset),
		common.FormatTimestamp(policy.ExpiresAt),
		common.ShortId(policy.Id))

	if policy.ClaimedAt != nil {
		fmt.Printf("%s    claimed %s at %s\n",
			common.BoxDetailPrefix(isLast),
			common.FormatAmount(policy.ClaimAmount, asset),
			common.FormatTimestamp(*policy.ClaimedAt))
	}
}

func printPayout(payout models.Payout, deliveries []models.SinkDelivery, asset string, isLast bool) {
	fmt.Printf("%s %20s  policy %s  event %s  at %s\n",
		common.BoxPrefix(isLast),
		common.FormatAmount(payout.Amount, asset),
		common.ShortId(payout.PolicyId),
		common.ShortId(payout.OracleEventId),
		common.FormatTimestamp(payout.CompletedAt))

	for _, delivery := range deliveries {
		state := "pending"
		if delivery.DeliveredAt != nil {
			state = "delivered " + common.FormatTimestamp(*delivery.DeliveredAt)
		}
		fmt.Printf("%s    %-9s %s (attempts %d)", common.BoxDetailPrefix(isLast), delivery.Sink, state, delivery.Attempts)
		if delivery.DeliveredAt == nil && delivery.LastError != "" {
			fmt.Printf(": %s", delivery.LastError)
		}
		fmt.Println()
	}
}

func printVerification(ctx context.Context, db *database.Service, address string) {
	profile, err := db.GetUserProfile(ctx, address)
	switch {
	case errors.Is(err, store.ErrNotFound):
		fmt.Println("Verified: no")
	case err != nil:
		zap.L().Warn("Failed to read user profile", zap.Error(err))
	case profile.VerifiedAt != nil:
		fmt.Printf("Verified: yes, at %s %s\n", common.FormatTimestamp(*profile.VerifiedAt), string(profile.VerificationAttributes))
	default:
		fmt.Println("Verified: no")
	}
}

func printLedgerBalances(ctx context.Context, ledger *formance.PayoutLedger, address string, symbol string) {
	holder, err := ledger.PolicyholderBalance(ctx, address)
	if err != nil {
		zap.L().Warn("Failed to read policyholder ledger balance", zap.Error(err))
		return
	}
	reserve, err := ledger.ReserveBalance(ctx)
	if err != nil {
		zap.L().Warn("Failed to read reserve ledger balance", zap.Error(err))
		return
	}

	common.PrintSeparatorNewline("-", common.DefaultWidth)
	fmt.Printf("Ledger balance (policyholder): %s\n", common.FormatAmount(holder, symbol))
	fmt.Printf("Ledger balance (reserve):      %s\n", common.FormatAmount(reserve, symbol))
}

func printRecentEvents(ctx context.Context, cover *api.CoverService, limit int) {
	events, err := cover.RecentOracleEvents(ctx, limit)
	if err != nil {
		zap.L().Error("Failed to read oracle events", zap.Error(err))
		return
	}

	common.PrintHeader(fmt.Sprintf("RECENT ORACLE EVENTS (%d)", len(events)), common.WideWidth)
	for i, event := range events {
		fmt.Printf("%s %-17s triggered=%-5t %s  %s\n",
			common.BoxPrefix(i == len(events)-1),
			event.EventType,
			event.PayoutTriggered,
			common.FormatTimestamp(event.ProcessedAt),
			string(event.EventData))
	}
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	addressFlag := flag.String("address", "", "Policyholder wallet address")
	eventsFlag := flag.Int("events", 0, "Also list the N most recent oracle events")
	flag.Parse()

	if *addressFlag == "" && *eventsFlag <= 0 {
		fmt.Println("Usage: claims -address <0x...> [-events N]")
		flag.PrintDefaults()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	cover := api.NewCoverService(api.CoverServiceConfig{Store: dbService})

	if *addressFlag != "" {
		summary, err := cover.GetCoverage(ctx, *addressFlag)
		if err != nil {
			logger.Fatal("Failed to load coverage", zap.Error(err))
		}

		common.PrintHeader("COVERAGE REPORT: "+summary.UserAddress, common.WideWidth)

		asset := cfg.Network.PayoutAsset

		printVerification(ctx, dbService, summary.UserAddress)

		common.PrintSection("Policies", len(summary.Policies), common.WideWidth)
		for i, policy := range summary.Policies {
			printPolicy(policy, asset, i == len(summary.Policies)-1)
		}

		common.PrintSection("Payouts", len(summary.Payouts), common.WideWidth)
		for i, payout := range summary.Payouts {
			deliveries, err := dbService.GetSinkDeliveries(ctx, payout.Id)
			if err != nil {
				logger.Warn("Failed to read payout deliveries", zap.String("payout_id", payout.Id), zap.Error(err))
			}
			printPayout(payout, deliveries, asset, i == len(summary.Payouts)-1)
		}

		ledger, err := common.InitializeLedger(ctx, cfg)
		if err != nil {
			logger.Warn("Formance ledger unavailable", zap.Error(err))
		} else if ledger != nil {
			printLedgerBalances(ctx, ledger, summary.UserAddress, cfg.Network.PayoutAsset)
		}

		common.PrintFooter("TOTAL PAID: "+common.FormatAmount(summary.TotalPaid, asset), common.WideWidth)
	}

	if *eventsFlag > 0 {
		printRecentEvents(ctx, cover, *eventsFlag)
	}
}
