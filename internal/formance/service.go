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

package formance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"travel-cover-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// assetPrecision maps canonical asset symbols to their decimal precision.
var assetPrecision = map[string]int{
	"USD":  2,
	"USDC": 6,
	"USDT": 6,
	"BTC":  8,
	"ETH":  18,
	"SOL":  9,
}

// PayoutLedger mirrors committed payouts into a Formance Stack ledger so the
// reserve and every policyholder account can be audited double-entry.
type PayoutLedger struct {
	client *v3.Formance
	ledger string
	symbol string
}

// NewPayoutLedger connects to the stack and creates the ledger if needed.
// payoutAsset is the network profile asset, e.g. "USDC-base-sepolia".
func NewPayoutLedger(ctx context.Context, cfg models.FormanceConfig, payoutAsset string) (*PayoutLedger, error) {
	if cfg.StackURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = "travel-cover-payouts"
	}
	symbol := canonicalSymbol(payoutAsset)
	if symbol == "" {
		return nil, fmt.Errorf("payout asset cannot be empty")
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName),
		zap.String("asset", formanceAsset(symbol)))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	l := &PayoutLedger{client: client, ledger: cfg.LedgerName, symbol: symbol}
	if err := l.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance payout ledger initialized", zap.String("ledger", cfg.LedgerName))
	return l, nil
}

func (l *PayoutLedger) Name() string { return "formance" }

func (l *PayoutLedger) ensureLedger(ctx context.Context) error {
	_, err := l.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: l.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "travel-cover",
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", l.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", l.ledger))
	return nil
}

// ---------- helpers ----------

// formanceAsset returns the Formance UMN notation, e.g. "USDC/6".
func formanceAsset(symbol string) string {
	return fmt.Sprintf("%s/%d", symbol, precisionFor(symbol))
}

// ValidateAmount reports whether amount can be posted in asset without losing
// digits beyond the asset's precision.
func ValidateAmount(asset string, amount decimal.Decimal) error {
	symbol := canonicalSymbol(asset)
	if p := precisionFor(symbol); !amount.Shift(int32(p)).IsInteger() {
		return fmt.Errorf("amount %s has more than %d decimal places for %s", amount.String(), p, symbol)
	}
	return nil
}

func precisionFor(symbol string) int {
	if p, ok := assetPrecision[symbol]; ok {
		return p
	}
	return 6
}

// canonicalSymbol strips the network suffix: USDC-base-sepolia -> USDC
func canonicalSymbol(asset string) string {
	symbol, _, _ := strings.Cut(strings.TrimSpace(asset), "-")
	return strings.ToUpper(symbol)
}

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

func isNotFoundError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumNotFound
}

func strPtr(s string) *string { return &s }
