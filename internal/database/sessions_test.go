package database

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"
)

func TestSessionLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "0xBEEF", json.RawMessage(`{"minAge":18}`))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if session.Status != models.SessionStatusPending {
		t.Errorf("expected pending, got %s", session.Status)
	}

	latest, err := svc.GetLatestSessionByUser(ctx, "0xbeef")
	if err != nil {
		t.Fatalf("GetLatestSessionByUser failed: %v", err)
	}
	if latest.Id != session.Id {
		t.Errorf("expected latest session %s, got %s", session.Id, latest.Id)
	}

	verifiedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err = svc.CompleteSession(ctx, store.CompleteSessionParams{
		SessionId:  session.Id,
		Attributes: json.RawMessage(`{"nationality":"FR"}`),
		VerifiedAt: verifiedAt,
	})
	if err != nil {
		t.Fatalf("CompleteSession failed: %v", err)
	}

	completed, err := svc.GetSession(ctx, session.Id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if completed.Status != models.SessionStatusCompleted {
		t.Errorf("expected completed, got %s", completed.Status)
	}
	if completed.CompletedAt == nil || !completed.CompletedAt.Equal(verifiedAt) {
		t.Errorf("expected completed_at %v, got %v", verifiedAt, completed.CompletedAt)
	}

	profile, err := svc.GetUserProfile(ctx, "0xbeef")
	if err != nil {
		t.Fatalf("GetUserProfile failed: %v", err)
	}
	if !profile.IsVerified {
		t.Error("expected verified profile")
	}
	if string(profile.VerificationAttributes) != `{"nationality":"FR"}` {
		t.Errorf("unexpected attributes %s", profile.VerificationAttributes)
	}
	if profile.VerifiedAt == nil || !profile.VerifiedAt.Equal(verifiedAt) {
		t.Errorf("expected verified_at %v, got %v", verifiedAt, profile.VerifiedAt)
	}
}

func TestSession_TerminalStatesAreFinal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "0x01", nil)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := svc.FailSession(ctx, session.Id, time.Now()); err != nil {
		t.Fatalf("FailSession failed: %v", err)
	}

	err = svc.CompleteSession(ctx, store.CompleteSessionParams{SessionId: session.Id})
	if !errors.Is(err, store.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed after failure, got %v", err)
	}
	if err := svc.FailSession(ctx, session.Id, time.Now()); !errors.Is(err, store.ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed on second failure, got %v", err)
	}

	if _, err := svc.GetUserProfile(ctx, "0x01"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("failed session must not create a profile, got %v", err)
	}
}

func TestSession_UnknownIds(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetSession: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetLatestSessionByUser(ctx, "0xnobody"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetLatestSessionByUser: expected ErrNotFound, got %v", err)
	}
	if err := svc.CompleteSession(ctx, store.CompleteSessionParams{SessionId: "nope"}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("CompleteSession: expected ErrNotFound, got %v", err)
	}
	if err := svc.FailSession(ctx, "nope", time.Now()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("FailSession: expected ErrNotFound, got %v", err)
	}
}

func TestCreateSession_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateSession(ctx, "", nil); !errors.Is(err, store.ErrValidation) {
		t.Errorf("expected ErrValidation for empty address, got %v", err)
	}
	if _, err := svc.CreateSession(ctx, "0x01", json.RawMessage(`not json`)); !errors.Is(err, store.ErrValidation) {
		t.Errorf("expected ErrValidation for invalid config, got %v", err)
	}
}

func TestCompleteSession_ReverificationUpdatesProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, _ := svc.CreateSession(ctx, "0x02", nil)
	if err := svc.CompleteSession(ctx, store.CompleteSessionParams{SessionId: first.Id, Attributes: json.RawMessage(`{"v":1}`)}); err != nil {
		t.Fatalf("first CompleteSession failed: %v", err)
	}
	second, _ := svc.CreateSession(ctx, "0x02", nil)
	if err := svc.CompleteSession(ctx, store.CompleteSessionParams{SessionId: second.Id, Attributes: json.RawMessage(`{"v":2}`)}); err != nil {
		t.Fatalf("second CompleteSession failed: %v", err)
	}

	profile, err := svc.GetUserProfile(ctx, "0x02")
	if err != nil {
		t.Fatalf("GetUserProfile failed: %v", err)
	}
	if string(profile.VerificationAttributes) != `{"v":2}` {
		t.Errorf("expected latest attributes, got %s", profile.VerificationAttributes)
	}

	older, err := svc.GetSession(ctx, first.Id)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if string(older.Attributes) != `{"v":1}` {
		t.Errorf("expected first session to keep its own attributes, got %s", older.Attributes)
	}
	if older.CompletedAt == nil || profile.VerifiedAt == nil || older.CompletedAt.After(*profile.VerifiedAt) {
		t.Errorf("expected first completion (%v) no later than profile verification (%v)", older.CompletedAt, profile.VerifiedAt)
	}
}
