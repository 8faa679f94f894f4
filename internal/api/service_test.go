package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/oracle"
	"travel-cover-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockIngestor struct {
	IngestFunc func(ctx context.Context, eventType models.EventType, eventData map[string]interface{}) (*oracle.IngestResult, error)
}

func (m *mockIngestor) Ingest(ctx context.Context, eventType models.EventType, eventData map[string]interface{}) (*oracle.IngestResult, error) {
	return m.IngestFunc(ctx, eventType, eventData)
}

type mockVerifier struct {
	StartFunc    func(ctx context.Context, address string, config json.RawMessage) (*models.StartVerificationResponse, error)
	CompleteFunc func(ctx context.Context, sessionId string, proof, attributes json.RawMessage) error
	StatusFunc   func(ctx context.Context, address, sessionId string) (*models.VerificationStatus, error)
}

func (m *mockVerifier) Start(ctx context.Context, address string, config json.RawMessage) (*models.StartVerificationResponse, error) {
	return m.StartFunc(ctx, address, config)
}

func (m *mockVerifier) Complete(ctx context.Context, sessionId string, proof, attributes json.RawMessage) error {
	return m.CompleteFunc(ctx, sessionId, proof, attributes)
}

func (m *mockVerifier) Status(ctx context.Context, address, sessionId string) (*models.VerificationStatus, error) {
	return m.StatusFunc(ctx, address, sessionId)
}

type mockStore struct {
	pingErr  error
	policies []models.Policy
	payouts  []models.Payout
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) GetPoliciesByUser(context.Context, string) ([]models.Policy, error) {
	return m.policies, nil
}

func (m *mockStore) GetPayoutsByUser(context.Context, string) ([]models.Payout, error) {
	return m.payouts, nil
}

func (m *mockStore) GetRecentOracleEvents(context.Context, int) ([]models.OracleEvent, error) {
	return nil, nil
}

func TestIngestOracleEvent(t *testing.T) {
	var gotType models.EventType
	svc := NewCoverService(CoverServiceConfig{
		Ingestor: &mockIngestor{IngestFunc: func(_ context.Context, eventType models.EventType, _ map[string]interface{}) (*oracle.IngestResult, error) {
			gotType = eventType
			return &oracle.IngestResult{EventId: "e1", PayoutTriggered: true, Paid: 2}, nil
		}},
	})

	resp, err := svc.IngestOracleEvent(context.Background(), models.OracleEventRequest{
		EventType: " flight_delay ",
		EventData: map[string]interface{}{"delayMinutes": 200},
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventTypeFlightDelay, gotType)
	assert.Equal(t, &models.OracleEventResponse{Success: true, PayoutTriggered: true}, resp)
}

func TestIngestOracleEvent_Errors(t *testing.T) {
	auditErr := errors.New("disk full")
	svc := NewCoverService(CoverServiceConfig{
		Ingestor: &mockIngestor{IngestFunc: func(context.Context, models.EventType, map[string]interface{}) (*oracle.IngestResult, error) {
			return nil, auditErr
		}},
	})

	_, err := svc.IngestOracleEvent(context.Background(), models.OracleEventRequest{})
	assert.ErrorIs(t, err, store.ErrValidation)

	_, err = svc.IngestOracleEvent(context.Background(), models.OracleEventRequest{EventType: "extreme_weather"})
	assert.ErrorIs(t, err, auditErr)
}

func TestCompleteVerification(t *testing.T) {
	svc := NewCoverService(CoverServiceConfig{
		Verification: &mockVerifier{CompleteFunc: func(_ context.Context, sessionId string, _, _ json.RawMessage) error {
			if sessionId == "closed" {
				return store.ErrSessionClosed
			}
			return nil
		}},
	})

	resp, err := svc.CompleteVerification(context.Background(), models.VerificationCallbackRequest{SessionId: "s1"})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	_, err = svc.CompleteVerification(context.Background(), models.VerificationCallbackRequest{SessionId: "closed"})
	assert.ErrorIs(t, err, store.ErrSessionClosed)
}

func TestGetCoverage(t *testing.T) {
	svc := NewCoverService(CoverServiceConfig{
		Store: &mockStore{
			policies: []models.Policy{{Id: "p1"}, {Id: "p2"}},
			payouts: []models.Payout{
				{Id: "a", Amount: decimal.RequireFromString("100.50")},
				{Id: "b", Amount: decimal.RequireFromString("49.50")},
			},
		},
	})

	summary, err := svc.GetCoverage(context.Background(), "0xABC")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", summary.UserAddress)
	assert.Len(t, summary.Policies, 2)
	assert.True(t, summary.TotalPaid.Equal(decimal.NewFromInt(150)), "total paid %s", summary.TotalPaid)

	_, err = svc.GetCoverage(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestHealthCheck(t *testing.T) {
	healthy := NewCoverService(CoverServiceConfig{Store: &mockStore{}})
	assert.NoError(t, healthy.HealthCheck(context.Background()))

	broken := NewCoverService(CoverServiceConfig{Store: &mockStore{pingErr: errors.New("closed")}})
	assert.Error(t, broken.HealthCheck(context.Background()))
}
