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
	"strings"
	"time"

	"travel-cover-go/internal/common"
	"travel-cover-go/internal/config"
	"travel-cover-go/internal/formance"
	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func parseExpiry(value string) (time.Time, error) {
	if d, err := time.ParseDuration(value); err == nil {
		if d <= 0 {
			return time.Time{}, fmt.Errorf("expiry duration must be positive")
		}
		return time.Now().UTC().Add(d), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expiry must be a duration (720h) or RFC3339 time: %w", err)
	}
	return t.UTC(), nil
}

func policyTypeNames() string {
	names := make([]string, len(models.PolicyTypes))
	for i, t := range models.PolicyTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	addressFlag := flag.String("address", "", "Policyholder wallet address (required)")
	typeFlag := flag.String("type", "", "Policy type: "+policyTypeNames())
	premiumFlag := flag.String("premium", "0", "Premium paid")
	payoutFlag := flag.String("payout", "", "Payout amount (required)")
	expiresFlag := flag.String("expires", "720h", "Expiry as a duration from now or an RFC3339 time")
	conditionsFlag := flag.String("conditions", "", "Optional JSON object of policy conditions")
	flag.Parse()

	if *addressFlag == "" || *typeFlag == "" || *payoutFlag == "" {
		fmt.Println("Usage: addpolicy -address <0x...> -type <type> -payout <amount> [-premium <amount>] [-expires <720h|RFC3339>]")
		flag.PrintDefaults()
		return
	}

	premium, err := decimal.NewFromString(*premiumFlag)
	if err != nil {
		logger.Fatal("Invalid premium", zap.String("premium", *premiumFlag), zap.Error(err))
	}
	payout, err := decimal.NewFromString(*payoutFlag)
	if err != nil {
		logger.Fatal("Invalid payout amount", zap.String("payout", *payoutFlag), zap.Error(err))
	}
	expiresAt, err := parseExpiry(*expiresFlag)
	if err != nil {
		logger.Fatal("Invalid expiry", zap.Error(err))
	}

	var conditions json.RawMessage
	if *conditionsFlag != "" {
		if !json.Valid([]byte(*conditionsFlag)) {
			logger.Fatal("Conditions must be valid JSON")
		}
		conditions = json.RawMessage(*conditionsFlag)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if err := formance.ValidateAmount(cfg.Network.PayoutAsset, payout); err != nil {
		logger.Fatal("Invalid payout amount", zap.Error(err))
	}

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	policy, err := dbService.CreatePolicy(ctx, store.CreatePolicyParams{
		UserAddress:  *addressFlag,
		PolicyType:   models.PolicyType(strings.ToLower(*typeFlag)),
		Premium:      premium,
		PayoutAmount: payout,
		ExpiresAt:    expiresAt,
		Conditions:   conditions,
	})
	if err != nil {
		logger.Fatal("Failed to create policy", zap.Error(err))
	}

	common.PrintHeader("POLICY CREATED", common.DefaultWidth)
	fmt.Printf("ID:        %s\n", policy.Id)
	fmt.Printf("Holder:    %s\n", policy.UserAddress)
	fmt.Printf("Type:      %s\n", policy.PolicyType)
	fmt.Printf("Premium:   %s\n", common.FormatAmount(policy.Premium, cfg.Network.PayoutAsset))
	fmt.Printf("Payout:    %s\n", common.FormatAmount(policy.PayoutAmount, cfg.Network.PayoutAsset))
	fmt.Printf("Expires:   %s\n", common.FormatTimestamp(policy.ExpiresAt))
	common.PrintSeparator("=", common.DefaultWidth)
}
