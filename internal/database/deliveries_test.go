package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"
)

func TestSinkDeliveries_PendingUntilDelivered(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	policy := seedPolicy(t, svc, "0xAA", models.PolicyTypeTravel, time.Now().Add(time.Hour))

	payout, err := svc.ClaimPolicy(ctx, store.ClaimParams{PolicyId: policy.Id, Sinks: []string{"formance", "prime"}})
	if err != nil {
		t.Fatalf("ClaimPolicy failed: %v", err)
	}

	deliveries, err := svc.GetSinkDeliveries(ctx, payout.Id)
	if err != nil {
		t.Fatalf("GetSinkDeliveries failed: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("expected a pending delivery per sink, got %+v", deliveries)
	}
	for _, d := range deliveries {
		if d.Attempts != 0 || d.DeliveredAt != nil {
			t.Errorf("expected untouched pending delivery, got %+v", d)
		}
	}

	if err := svc.RecordDeliveryFailure(ctx, payout.Id, "prime", "503 service unavailable", time.Time{}); err != nil {
		t.Fatalf("RecordDeliveryFailure failed: %v", err)
	}
	if err := svc.MarkPayoutDelivered(ctx, payout.Id, "formance", time.Time{}); err != nil {
		t.Fatalf("MarkPayoutDelivered failed: %v", err)
	}

	pending, err := svc.GetUndeliveredPayouts(ctx, "prime", 0)
	if err != nil {
		t.Fatalf("GetUndeliveredPayouts failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Id != payout.Id || !pending[0].Amount.Equal(payout.Amount) {
		t.Fatalf("expected the payout pending at prime, got %+v", pending)
	}
	pending, _ = svc.GetUndeliveredPayouts(ctx, "formance", 0)
	if len(pending) != 0 {
		t.Errorf("expected nothing pending at formance, got %d", len(pending))
	}

	if err := svc.MarkPayoutDelivered(ctx, payout.Id, "prime", time.Time{}); err != nil {
		t.Fatalf("MarkPayoutDelivered failed: %v", err)
	}
	// late failures and repeated marks leave a delivered row alone
	if err := svc.RecordDeliveryFailure(ctx, payout.Id, "prime", "timeout", time.Time{}); err != nil {
		t.Fatalf("RecordDeliveryFailure failed: %v", err)
	}
	if err := svc.MarkPayoutDelivered(ctx, payout.Id, "prime", time.Time{}); err != nil {
		t.Fatalf("MarkPayoutDelivered failed: %v", err)
	}

	deliveries, _ = svc.GetSinkDeliveries(ctx, payout.Id)
	for _, d := range deliveries {
		if d.DeliveredAt == nil || d.LastError != "" {
			t.Errorf("expected %s delivered without error, got %+v", d.Sink, d)
		}
		if d.Sink == "prime" && d.Attempts != 2 {
			t.Errorf("expected 2 prime attempts, got %d", d.Attempts)
		}
	}
	pending, _ = svc.GetUndeliveredPayouts(ctx, "prime", 0)
	if len(pending) != 0 {
		t.Errorf("expected nothing pending at prime, got %d", len(pending))
	}
}

func TestSinkDeliveries_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if err := svc.MarkPayoutDelivered(ctx, "", "prime", time.Now()); !errors.Is(err, store.ErrValidation) {
		t.Errorf("expected ErrValidation for missing payout id, got %v", err)
	}
	if err := svc.RecordDeliveryFailure(ctx, "payout-1", "", "boom", time.Now()); !errors.Is(err, store.ErrValidation) {
		t.Errorf("expected ErrValidation for missing sink, got %v", err)
	}
}
