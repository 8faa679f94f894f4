package verification

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"travel-cover-go/internal/database"
	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://verify.example.com/start"

func newTestService(t *testing.T, verifier ProofVerifier) (*Service, *database.Service) {
	t.Helper()
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "verification.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	svc, err := NewService(ServiceConfig{Store: db, Verifier: verifier, BaseURL: testBaseURL})
	require.NoError(t, err)
	return svc, db
}

func TestStart_BuildsVerificationUrl(t *testing.T) {
	svc, db := newTestService(t, StaticVerifier{Valid: true})
	ctx := context.Background()

	resp, err := svc.Start(ctx, "0xUSER", json.RawMessage(`{ "minAge": 21 }`))
	require.NoError(t, err)
	require.NotEmpty(t, resp.SessionId)

	u, err := url.Parse(resp.VerificationUrl)
	require.NoError(t, err)
	assert.Equal(t, "verify.example.com", u.Host)
	assert.Equal(t, resp.SessionId, u.Query().Get("sessionId"))

	config, err := base64.RawURLEncoding.DecodeString(u.Query().Get("config"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"minAge":21}`, string(config))

	session, err := db.GetSession(ctx, resp.SessionId)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPending, session.Status)
	assert.Equal(t, "0xuser", session.UserAddress)
}

func TestStart_RequiresAddress(t *testing.T) {
	svc, _ := newTestService(t, StaticVerifier{Valid: true})
	_, err := svc.Start(context.Background(), "  ", nil)
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestSessionFlow_PendingToCompleted(t *testing.T) {
	svc, _ := newTestService(t, StaticVerifier{Valid: true})
	ctx := context.Background()

	resp, err := svc.Start(ctx, "0xabc", nil)
	require.NoError(t, err)

	status, err := svc.Status(ctx, "", resp.SessionId)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusInProgress, status.Status)

	err = svc.Complete(ctx, resp.SessionId, json.RawMessage(`{"zk":"proof"}`), json.RawMessage(`{"country":"NL"}`))
	require.NoError(t, err)

	status, err = svc.Status(ctx, "0xABC", "")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, status.Status)
	assert.JSONEq(t, `{"country":"NL"}`, string(status.Attributes))
	require.NotNil(t, status.VerifiedAt)

	err = svc.Complete(ctx, resp.SessionId, json.RawMessage(`{"zk":"proof"}`), nil)
	assert.ErrorIs(t, err, store.ErrSessionClosed)
}

func TestStatus_SessionReportsItsOwnAttributes(t *testing.T) {
	svc, _ := newTestService(t, StaticVerifier{Valid: true})
	ctx := context.Background()

	first, err := svc.Start(ctx, "0xabc", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, first.SessionId, json.RawMessage(`"p1"`), json.RawMessage(`{"country":"NL"}`)))

	firstStatus, err := svc.Status(ctx, "", first.SessionId)
	require.NoError(t, err)
	require.NotNil(t, firstStatus.VerifiedAt)

	second, err := svc.Start(ctx, "0xabc", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Complete(ctx, second.SessionId, json.RawMessage(`"p2"`), json.RawMessage(`{"country":"BE"}`)))

	status, err := svc.Status(ctx, "", first.SessionId)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, status.Status)
	assert.JSONEq(t, `{"country":"NL"}`, string(status.Attributes))
	require.NotNil(t, status.VerifiedAt)
	assert.True(t, status.VerifiedAt.Equal(*firstStatus.VerifiedAt))

	status, err = svc.Status(ctx, "", second.SessionId)
	require.NoError(t, err)
	assert.JSONEq(t, `{"country":"BE"}`, string(status.Attributes))

	status, err = svc.Status(ctx, "0xABC", "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"country":"BE"}`, string(status.Attributes))
}

func TestComplete_InvalidProofFailsSession(t *testing.T) {
	svc, db := newTestService(t, StaticVerifier{Valid: false})
	ctx := context.Background()

	resp, err := svc.Start(ctx, "0xabc", nil)
	require.NoError(t, err)

	err = svc.Complete(ctx, resp.SessionId, json.RawMessage(`"bad"`), nil)
	assert.ErrorIs(t, err, store.ErrInvalidProof)

	session, err := db.GetSession(ctx, resp.SessionId)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFailed, session.Status)

	status, err := svc.Status(ctx, "0xabc", "")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFailed, status.Status)
	assert.Nil(t, status.Attributes)
}

func TestComplete_VerifierOutageLeavesSessionPending(t *testing.T) {
	svc, db := newTestService(t, StaticVerifier{Err: errors.New("connection refused")})
	ctx := context.Background()

	resp, err := svc.Start(ctx, "0xabc", nil)
	require.NoError(t, err)

	err = svc.Complete(ctx, resp.SessionId, json.RawMessage(`{"zk":"proof"}`), nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrInvalidProof)

	session, err := db.GetSession(ctx, resp.SessionId)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPending, session.Status)
}

func TestComplete_Validation(t *testing.T) {
	svc, _ := newTestService(t, StaticVerifier{Valid: true})
	ctx := context.Background()

	tests := []struct {
		name      string
		sessionId string
		proof     json.RawMessage
		want      error
	}{
		{"missing session id", "", json.RawMessage(`"p"`), store.ErrValidation},
		{"missing proof", "abc", nil, store.ErrValidation},
		{"null proof", "abc", json.RawMessage(`null`), store.ErrValidation},
		{"unknown session", "abc", json.RawMessage(`"p"`), store.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Complete(ctx, tt.sessionId, tt.proof, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStatus_Defaults(t *testing.T) {
	svc, _ := newTestService(t, StaticVerifier{Valid: true})
	ctx := context.Background()

	status, err := svc.Status(ctx, "0xnobody", "")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusNotStarted, status.Status)

	status, err = svc.Status(ctx, "", "no-such-session")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusNotStarted, status.Status)

	_, err = svc.Status(ctx, "", "")
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceConfig{Verifier: StaticVerifier{}, BaseURL: testBaseURL})
	assert.Error(t, err)

	_, err = NewService(ServiceConfig{Store: &database.Service{}, BaseURL: testBaseURL})
	assert.Error(t, err)

	_, err = NewService(ServiceConfig{Store: &database.Service{}, Verifier: StaticVerifier{}})
	assert.Error(t, err)
}
