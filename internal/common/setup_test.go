package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-cover-go/internal/config"
	"travel-cover-go/internal/models"
	"travel-cover-go/internal/verification"
)

func TestNewProofVerifier(t *testing.T) {
	t.Run("local without url accepts proofs", func(t *testing.T) {
		cfg := &models.Config{Environment: config.EnvLocal}
		v, err := newProofVerifier(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		valid, err := v.Verify(context.Background(), "s1", []byte(`{}`))
		if err != nil || !valid {
			t.Errorf("local verifier = (%v, %v), want (true, nil)", valid, err)
		}
	})

	t.Run("testnet without url is refused", func(t *testing.T) {
		cfg := &models.Config{Environment: config.EnvTestnet}
		if _, err := newProofVerifier(cfg); err == nil {
			t.Error("expected error when PROOF_VERIFIER_URL is missing outside local")
		}
	})

	t.Run("url selects the http verifier", func(t *testing.T) {
		cfg := &models.Config{
			Environment: config.EnvMainnet,
			Verification: models.VerificationConfig{
				VerifierURL:     "https://verifier.example/verify",
				VerifierTimeout: time.Second,
			},
		}
		v, err := newProofVerifier(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := v.(*verification.HTTPVerifier); !ok {
			t.Errorf("verifier type = %T, want *verification.HTTPVerifier", v)
		}
	})
}

func TestInitializeSinksDisabled(t *testing.T) {
	cfg := &models.Config{Network: models.NetworkConfig{PayoutAsset: "USDC"}}

	sinks, ledger, disburser, err := initializeSinks(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sinks) != 0 || ledger != nil || disburser != nil {
		t.Errorf("expected no sinks, got %d (ledger=%v disburser=%v)", len(sinks), ledger, disburser)
	}
}

func TestInitializeDisburserRequiresCredentials(t *testing.T) {
	t.Setenv("PRIME_ACCESS_KEY", "")
	t.Setenv("PRIME_PASSPHRASE", "")
	t.Setenv("PRIME_SIGNING_KEY", "")

	cfg := &models.Config{Payouts: models.PayoutsConfig{Prime: models.PrimeConfig{Enabled: true}}}
	if _, err := InitializeDisburser(cfg); err == nil {
		t.Error("expected missing credentials error")
	}
}

func TestIsIgnorableSyncError(t *testing.T) {
	if !isIgnorableSyncError(errors.New("sync /dev/stderr: inappropriate ioctl for device")) {
		t.Error("stderr ioctl error should be ignorable")
	}
	if isIgnorableSyncError(errors.New("disk full")) {
		t.Error("disk full should not be ignorable")
	}
}
