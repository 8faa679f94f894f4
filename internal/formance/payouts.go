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
	"fmt"
	"math/big"

	"travel-cover-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// reserveAccount funds every payout; it is allowed to go negative so the
// ledger shows total claims paid as its debit.
const reserveAccount = "travel_cover:reserve"

const numscriptPolicyPayout = `vars {
  asset $asset
  number $amount
  account $holder
  string $payout_id
  string $policy_id
  string $oracle_event_id
  string $amount_human
}

send [$asset $amount] (
  source = @travel_cover:reserve allowing unbounded overdraft
  destination = @policyholders:$holder
)

set_tx_meta("event_type", "policy_payout")
set_tx_meta("payout_id", $payout_id)
set_tx_meta("policy_id", $policy_id)
set_tx_meta("oracle_event_id", $oracle_event_id)
set_tx_meta("amount_human", $amount_human)
`

// RecordPayout posts the payout as a ledger transaction referenced by the
// payout id. Re-posting the same payout is a no-op.
func (l *PayoutLedger) RecordPayout(ctx context.Context, payout models.Payout) error {
	vars, err := payoutVars(payout, l.symbol)
	if err != nil {
		return err
	}

	postTx := shared.V2PostTransaction{
		Reference: strPtr(payout.Id),
		Timestamp: &payout.CompletedAt,
		Script: &shared.V2PostTransactionScript{
			Plain: numscriptPolicyPayout,
			Vars:  vars,
		},
	}

	_, err = l.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            l.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			zap.L().Debug("Payout already posted to ledger", zap.String("payout_id", payout.Id))
			return nil
		}
		return fmt.Errorf("error posting payout to ledger: %w", err)
	}

	zap.L().Info("Payout posted to Formance",
		zap.String("payout_id", payout.Id),
		zap.String("policy_id", payout.PolicyId),
		zap.String("holder", payout.UserAddress),
		zap.String("amount", payout.Amount.String()))
	return nil
}

func payoutVars(payout models.Payout, symbol string) (map[string]string, error) {
	if err := ValidateAmount(symbol, payout.Amount); err != nil {
		return nil, fmt.Errorf("payout %s cannot be posted: %w", payout.Id, err)
	}
	return map[string]string{
		"asset":           formanceAsset(symbol),
		"amount":          payout.Amount.Shift(int32(precisionFor(symbol))).BigInt().String(),
		"holder":          payout.UserAddress,
		"payout_id":       payout.Id,
		"policy_id":       payout.PolicyId,
		"oracle_event_id": payout.OracleEventId,
		"amount_human":    payout.Amount.String(),
	}, nil
}

// PolicyholderBalance returns the total paid out to an address according to
// the ledger.
func (l *PayoutLedger) PolicyholderBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	return l.accountBalance(ctx, "policyholders:"+address)
}

// ReserveBalance returns the reserve account balance; negative once payouts
// have been made.
func (l *PayoutLedger) ReserveBalance(ctx context.Context) (decimal.Decimal, error) {
	return l.accountBalance(ctx, reserveAccount)
}

func (l *PayoutLedger) accountBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	resp, err := l.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  l.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		if isNotFoundError(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("unable to get ledger account %s: %w", address, err)
	}

	bal := volumeBalance(resp.V2AccountResponse.Data.Volumes, formanceAsset(l.symbol))
	return bigIntToDecimal(bal, l.symbol), nil
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string) *big.Int {
	vol, ok := vols[fAsset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}

// bigIntToDecimal converts a *big.Int in smallest-unit to a human-readable decimal.
func bigIntToDecimal(raw *big.Int, symbol string) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(precisionFor(symbol)))
}
