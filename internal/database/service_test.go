package database

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"github.com/shopspring/decimal"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "cover.db"),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     5 * time.Second,
	}
	svc, err := NewService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func seedPolicy(t *testing.T, svc *Service, address string, policyType models.PolicyType, expiresAt time.Time) *models.Policy {
	t.Helper()
	policy, err := svc.CreatePolicy(context.Background(), store.CreatePolicyParams{
		UserAddress:  address,
		PolicyType:   policyType,
		Premium:      decimal.NewFromInt(10),
		PayoutAmount: decimal.RequireFromString("250.50"),
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		t.Fatalf("CreatePolicy failed: %v", err)
	}
	return policy
}

func TestNewService_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  models.DatabaseConfig
	}{
		{"empty path", models.DatabaseConfig{MaxOpenConns: 1, PingTimeout: time.Second}},
		{"zero open conns", models.DatabaseConfig{Path: "x.db", PingTimeout: time.Second}},
		{"negative idle conns", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1, MaxIdleConns: -1, PingTimeout: time.Second}},
		{"zero ping timeout", models.DatabaseConfig{Path: "x.db", MaxOpenConns: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewService(context.Background(), tt.cfg); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestCreatePolicy(t *testing.T) {
	svc := newTestService(t)
	expiresAt := time.Now().Add(48 * time.Hour)

	policy := seedPolicy(t, svc, "  0xABCDef0000000000000000000000000000000001 ", models.PolicyTypeTravel, expiresAt)

	if policy.UserAddress != "0xabcdef0000000000000000000000000000000001" {
		t.Errorf("expected normalized address, got %q", policy.UserAddress)
	}
	if policy.Status != models.PolicyStatusActive {
		t.Errorf("expected active status, got %s", policy.Status)
	}
	if !policy.PayoutAmount.Equal(decimal.RequireFromString("250.5")) {
		t.Errorf("expected payout 250.5, got %s", policy.PayoutAmount)
	}
	if string(policy.Conditions) != "{}" {
		t.Errorf("expected empty conditions object, got %s", policy.Conditions)
	}
	if policy.ClaimedAt != nil {
		t.Errorf("expected no claim timestamp, got %v", policy.ClaimedAt)
	}
	if !policy.ExpiresAt.Equal(expiresAt.UTC()) {
		t.Errorf("expected expiry %v, got %v", expiresAt.UTC(), policy.ExpiresAt)
	}
}

func TestCreatePolicy_Validation(t *testing.T) {
	svc := newTestService(t)
	valid := store.CreatePolicyParams{
		UserAddress:  "0xabc",
		PolicyType:   models.PolicyTypeWeather,
		Premium:      decimal.NewFromInt(1),
		PayoutAmount: decimal.NewFromInt(100),
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	tests := []struct {
		name   string
		mutate func(p *store.CreatePolicyParams)
	}{
		{"missing address", func(p *store.CreatePolicyParams) { p.UserAddress = " " }},
		{"unknown type", func(p *store.CreatePolicyParams) { p.PolicyType = "pet" }},
		{"negative premium", func(p *store.CreatePolicyParams) { p.Premium = decimal.NewFromInt(-1) }},
		{"zero payout", func(p *store.CreatePolicyParams) { p.PayoutAmount = decimal.Zero }},
		{"missing expiry", func(p *store.CreatePolicyParams) { p.ExpiresAt = time.Time{} }},
		{"invalid conditions", func(p *store.CreatePolicyParams) { p.Conditions = json.RawMessage(`{"a":`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)
			_, err := svc.CreatePolicy(context.Background(), params)
			if !errors.Is(err, store.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestGetPolicy_NotFound(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.GetPolicy(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindPayoutEligible_Filters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	travel := seedPolicy(t, svc, "0x01", models.PolicyTypeTravel, now.Add(time.Hour))
	cancellation := seedPolicy(t, svc, "0x02", models.PolicyTypeCancellation, now.Add(time.Hour))
	seedPolicy(t, svc, "0x03", models.PolicyTypeWeather, now.Add(time.Hour))
	seedPolicy(t, svc, "0x04", models.PolicyTypeTravel, now.Add(-time.Minute))
	claimed := seedPolicy(t, svc, "0x05", models.PolicyTypeTravel, now.Add(time.Hour))
	if _, err := svc.ClaimPolicy(ctx, store.ClaimParams{PolicyId: claimed.Id}); err != nil {
		t.Fatalf("ClaimPolicy failed: %v", err)
	}

	policies, err := svc.FindPayoutEligible(ctx, models.EventTypeFlightDelay.CoveredPolicyTypes(), now)
	if err != nil {
		t.Fatalf("FindPayoutEligible failed: %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("expected 2 eligible policies, got %d", len(policies))
	}

	got := map[string]bool{policies[0].Id: true, policies[1].Id: true}
	if !got[travel.Id] || !got[cancellation.Id] {
		t.Errorf("unexpected eligible set: %v", got)
	}
}

func TestFindPayoutEligible_NoTypes(t *testing.T) {
	svc := newTestService(t)
	seedPolicy(t, svc, "0x01", models.PolicyTypeTravel, time.Now().Add(time.Hour))

	policies, err := svc.FindPayoutEligible(context.Background(), nil, time.Now())
	if err != nil {
		t.Fatalf("FindPayoutEligible failed: %v", err)
	}
	if len(policies) != 0 {
		t.Errorf("expected no policies, got %d", len(policies))
	}
}

func TestExpireLapsedPolicies(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	now := time.Now()

	lapsed := seedPolicy(t, svc, "0x01", models.PolicyTypeMedical, now.Add(-time.Hour))
	live := seedPolicy(t, svc, "0x02", models.PolicyTypeMedical, now.Add(time.Hour))

	n, err := svc.ExpireLapsedPolicies(ctx, now)
	if err != nil {
		t.Fatalf("ExpireLapsedPolicies failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired policy, got %d", n)
	}

	policy, _ := svc.GetPolicy(ctx, lapsed.Id)
	if policy.Status != models.PolicyStatusExpired {
		t.Errorf("expected expired, got %s", policy.Status)
	}
	policy, _ = svc.GetPolicy(ctx, live.Id)
	if policy.Status != models.PolicyStatusActive {
		t.Errorf("expected active, got %s", policy.Status)
	}

	if _, err := svc.ClaimPolicy(ctx, store.ClaimParams{PolicyId: lapsed.Id}); !errors.Is(err, store.ErrPolicyNotClaimable) {
		t.Errorf("expected ErrPolicyNotClaimable for expired policy, got %v", err)
	}
}
