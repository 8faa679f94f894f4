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

package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// ProofVerifier decides whether an identity proof is valid. A non-nil error
// means the verifier could not be reached or answered unexpectedly, not that
// the proof was rejected.
type ProofVerifier interface {
	Verify(ctx context.Context, sessionId string, proof json.RawMessage) (bool, error)
}

// HTTPVerifier posts proofs to a remote verification service
type HTTPVerifier struct {
	url    string
	client http.Client
}

type verifyRequest struct {
	SessionId string          `json:"sessionId"`
	Proof     json.RawMessage `json:"proof"`
}

type verifyResponse struct {
	Valid *bool `json:"valid"`
}

func NewHTTPVerifier(url string, timeout time.Duration) (*HTTPVerifier, error) {
	if url == "" {
		return nil, fmt.Errorf("proof verifier url cannot be empty")
	}
	httpClient, err := createVerifierHttpClient(timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create verifier http client: %w", err)
	}
	return &HTTPVerifier{url: url, client: httpClient}, nil
}

func createVerifierHttpClient(timeout time.Duration) (http.Client, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   5 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConnsPerHost: 5,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

func (v *HTTPVerifier) Verify(ctx context.Context, sessionId string, proof json.RawMessage) (bool, error) {
	body, err := json.Marshal(verifyRequest{SessionId: sessionId, Proof: proof})
	if err != nil {
		return false, fmt.Errorf("unable to encode verification request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("unable to build verification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		zap.L().Error("Proof verifier request failed", zap.String("session_id", sessionId), zap.Error(err))
		return false, fmt.Errorf("proof verifier unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("proof verifier returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var decoded verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return false, fmt.Errorf("unable to decode verifier response: %w", err)
	}
	if decoded.Valid == nil {
		return false, fmt.Errorf("verifier response missing 'valid' field")
	}

	zap.L().Debug("Proof verified",
		zap.String("session_id", sessionId),
		zap.Bool("valid", *decoded.Valid))
	return *decoded.Valid, nil
}

// StaticVerifier returns a fixed answer. Used in tests and explicitly wired
// for local development only.
type StaticVerifier struct {
	Valid bool
	Err   error
}

func (s StaticVerifier) Verify(context.Context, string, json.RawMessage) (bool, error) {
	return s.Valid, s.Err
}
