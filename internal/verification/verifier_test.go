package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPVerifier_Verify(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{"valid", http.StatusOK, `{"valid":true}`, true, false},
		{"invalid", http.StatusOK, `{"valid":false}`, false, false},
		{"server error", http.StatusBadGateway, `upstream down`, false, true},
		{"missing field", http.StatusOK, `{}`, false, true},
		{"not json", http.StatusOK, `<html>`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var received verifyRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			verifier, err := NewHTTPVerifier(server.URL, time.Second)
			require.NoError(t, err)

			got, err := verifier.Verify(context.Background(), "session-1", json.RawMessage(`{"zk":"x"}`))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, "session-1", received.SessionId)
			assert.JSONEq(t, `{"zk":"x"}`, string(received.Proof))
		})
	}
}

func TestHTTPVerifier_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	verifier, err := NewHTTPVerifier(url, 200*time.Millisecond)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), "s", json.RawMessage(`"p"`))
	assert.Error(t, err)
}

func TestNewHTTPVerifier_RequiresURL(t *testing.T) {
	_, err := NewHTTPVerifier("", time.Second)
	assert.Error(t, err)
}
