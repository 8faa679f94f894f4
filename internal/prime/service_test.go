package prime

import (
	"testing"

	"travel-cover-go/internal/models"

	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/shopspring/decimal"
)

func TestBuildWithdrawalRequest(t *testing.T) {
	payout := models.Payout{
		Id:          "payout-42",
		UserAddress: "0xabc",
		Amount:      decimal.RequireFromString("500.25"),
	}

	tests := []struct {
		asset       string
		wantSymbol  string
		wantNetwork *expectedNetwork
	}{
		{"USDC-base-sepolia", "USDC", &expectedNetwork{"base", "sepolia"}},
		{"USDC-base-mainnet", "USDC", &expectedNetwork{"base", "mainnet"}},
		{"USDC", "USDC", nil},
	}
	for _, tt := range tests {
		req := buildWithdrawalRequest("portfolio-1", "wallet-1", tt.asset, payout)

		if req.Symbol != tt.wantSymbol {
			t.Errorf("%s: symbol = %q, want %q", tt.asset, req.Symbol, tt.wantSymbol)
		}
		if req.IdempotencyKey != payout.Id {
			t.Errorf("%s: idempotency key = %q, want payout id", tt.asset, req.IdempotencyKey)
		}
		if req.Amount != "500.25" {
			t.Errorf("%s: amount = %q, want 500.25", tt.asset, req.Amount)
		}
		if req.DestinationType != "DESTINATION_BLOCKCHAIN" {
			t.Errorf("%s: unexpected destination type %q", tt.asset, req.DestinationType)
		}
		if req.BlockchainAddress == nil || req.BlockchainAddress.Address != "0xabc" {
			t.Fatalf("%s: expected destination 0xabc", tt.asset)
		}

		network := req.BlockchainAddress.Network
		switch {
		case tt.wantNetwork == nil && network != nil:
			t.Errorf("%s: expected no network details, got %+v", tt.asset, network)
		case tt.wantNetwork != nil && network == nil:
			t.Errorf("%s: expected network details", tt.asset)
		case tt.wantNetwork != nil && (network.Id != tt.wantNetwork.id || network.Type != tt.wantNetwork.typ):
			t.Errorf("%s: network = %s/%s, want %s/%s", tt.asset, network.Id, network.Type, tt.wantNetwork.id, tt.wantNetwork.typ)
		}
	}
}

type expectedNetwork struct {
	id  string
	typ string
}

func TestNewDisburser_Validation(t *testing.T) {
	creds := &credentials.Credentials{AccessKey: "a", Passphrase: "p", SigningKey: "s"}

	tests := []struct {
		name string
		cfg  DisburserConfig
	}{
		{"missing credentials", DisburserConfig{PortfolioId: "p", WalletId: "w", PayoutAsset: "USDC"}},
		{"missing portfolio", DisburserConfig{Credentials: creds, WalletId: "w", PayoutAsset: "USDC"}},
		{"missing wallet", DisburserConfig{Credentials: creds, PortfolioId: "p", PayoutAsset: "USDC"}},
		{"missing asset", DisburserConfig{Credentials: creds, PortfolioId: "p", WalletId: "w"}},
	}
	for _, tt := range tests {
		if _, err := NewDisburser(tt.cfg); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}

	d, err := NewDisburser(DisburserConfig{Credentials: creds, PortfolioId: "p", WalletId: "w", PayoutAsset: "USDC"})
	if err != nil {
		t.Fatalf("NewDisburser failed: %v", err)
	}
	if d.Name() != "prime" {
		t.Errorf("unexpected sink name %q", d.Name())
	}
}
