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
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"go.uber.org/zap"
)

// ServiceConfig contains configuration for Service
type ServiceConfig struct {
	Store    store.SessionStore
	Verifier ProofVerifier
	BaseURL  string
}

// Service runs identity verification sessions
type Service struct {
	store    store.SessionStore
	verifier ProofVerifier
	baseURL  string
	now      func() time.Time
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Verifier == nil {
		return nil, fmt.Errorf("proof verifier is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid verification base url %q", cfg.BaseURL)
	}
	return &Service{
		store:    cfg.Store,
		verifier: cfg.Verifier,
		baseURL:  cfg.BaseURL,
		now:      time.Now,
	}, nil
}

// Start opens a pending session and returns the url the user completes it at
func (s *Service) Start(ctx context.Context, address string, config json.RawMessage) (*models.StartVerificationResponse, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("%w: address is required", store.ErrValidation)
	}

	session, err := s.store.CreateSession(ctx, address, config)
	if err != nil {
		return nil, err
	}

	verificationUrl, err := s.buildVerificationUrl(session.Id, session.Config)
	if err != nil {
		return nil, err
	}

	return &models.StartVerificationResponse{
		SessionId:       session.Id,
		VerificationUrl: verificationUrl,
	}, nil
}

func (s *Service) buildVerificationUrl(sessionId string, config json.RawMessage) (string, error) {
	compact := &bytes.Buffer{}
	if err := json.Compact(compact, config); err != nil {
		return "", fmt.Errorf("unable to encode session config: %w", err)
	}

	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid verification base url: %w", err)
	}
	query := u.Query()
	query.Set("sessionId", sessionId)
	query.Set("config", base64.RawURLEncoding.EncodeToString(compact.Bytes()))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Complete checks the proof for a pending session. An invalid proof closes
// the session as failed; a verifier outage leaves it pending so the callback
// can be retried.
func (s *Service) Complete(ctx context.Context, sessionId string, proof, attributes json.RawMessage) error {
	if strings.TrimSpace(sessionId) == "" {
		return fmt.Errorf("%w: sessionId is required", store.ErrValidation)
	}
	if isEmptyJSON(proof) {
		return fmt.Errorf("%w: proof is required", store.ErrValidation)
	}

	session, err := s.store.GetSession(ctx, sessionId)
	if err != nil {
		return err
	}
	if session.Status != models.SessionStatusPending {
		return fmt.Errorf("%w: session %s is %s", store.ErrSessionClosed, sessionId, session.Status)
	}

	valid, err := s.verifier.Verify(ctx, sessionId, proof)
	if err != nil {
		return fmt.Errorf("proof verification unavailable: %w", err)
	}

	if !valid {
		if err := s.store.FailSession(ctx, sessionId, s.now()); err != nil {
			return err
		}
		zap.L().Warn("Verification proof rejected",
			zap.String("session_id", sessionId),
			zap.String("user_address", session.UserAddress))
		return fmt.Errorf("%w: session %s", store.ErrInvalidProof, sessionId)
	}

	return s.store.CompleteSession(ctx, store.CompleteSessionParams{
		SessionId:  sessionId,
		Attributes: attributes,
		VerifiedAt: s.now(),
	})
}

// Status resolves a session by id, or the latest session for an address.
// Missing records report not_started and stored pending reports in_progress.
// A completed session reports the attributes and time of its own proof, even
// after the user has verified again.
func (s *Service) Status(ctx context.Context, address, sessionId string) (*models.VerificationStatus, error) {
	if strings.TrimSpace(address) == "" && strings.TrimSpace(sessionId) == "" {
		return nil, fmt.Errorf("%w: address or sessionId is required", store.ErrValidation)
	}

	var (
		session *models.VerificationSession
		err     error
	)
	if sessionId != "" {
		session, err = s.store.GetSession(ctx, sessionId)
	} else {
		session, err = s.store.GetLatestSessionByUser(ctx, address)
	}
	if errors.Is(err, store.ErrNotFound) {
		return &models.VerificationStatus{Status: models.SessionStatusNotStarted}, nil
	}
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case models.SessionStatusPending:
		return &models.VerificationStatus{Status: models.SessionStatusInProgress}, nil
	case models.SessionStatusCompleted:
		return &models.VerificationStatus{
			Status:     models.SessionStatusCompleted,
			VerifiedAt: session.CompletedAt,
			Attributes: session.Attributes,
		}, nil
	default:
		return &models.VerificationStatus{Status: session.Status}, nil
	}
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null" || trimmed == `""`
}
