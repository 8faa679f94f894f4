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

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"travel-cover-go/internal/models"
	"travel-cover-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) CreateSession(ctx context.Context, userAddress string, config json.RawMessage) (*models.VerificationSession, error) {
	address := NormalizeAddress(userAddress)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", store.ErrValidation)
	}
	configDoc, err := jsonOrEmpty(config)
	if err != nil {
		return nil, err
	}

	session := &models.VerificationSession{
		Id:          uuid.New().String(),
		UserAddress: address,
		Status:      models.SessionStatusPending,
		Config:      json.RawMessage(configDoc),
		CreatedAt:   time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, queryInsertSession, session.Id, session.UserAddress, configDoc, formatTime(session.CreatedAt))
	if err != nil {
		zap.L().Error("Failed to insert verification session", zap.String("user_address", address), zap.Error(err))
		return nil, fmt.Errorf("unable to insert verification session: %w", err)
	}

	zap.L().Info("Verification session created",
		zap.String("session_id", session.Id),
		zap.String("user_address", session.UserAddress))
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, sessionId string) (*models.VerificationSession, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx, queryGetSession, sessionId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %s", store.ErrNotFound, sessionId)
		}
		return nil, fmt.Errorf("unable to query verification session: %w", err)
	}
	return session, nil
}

func (s *Service) GetLatestSessionByUser(ctx context.Context, userAddress string) (*models.VerificationSession, error) {
	address := NormalizeAddress(userAddress)
	session, err := scanSession(s.db.QueryRowContext(ctx, queryGetLatestSessionByUser, address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no session for %s", store.ErrNotFound, address)
		}
		return nil, fmt.Errorf("unable to query verification session: %w", err)
	}
	return session, nil
}

// CompleteSession finalizes a pending session and marks its owner verified in
// one transaction.
func (s *Service) CompleteSession(ctx context.Context, params store.CompleteSessionParams) error {
	verifiedAt := params.VerifiedAt
	if verifiedAt.IsZero() {
		verifiedAt = time.Now()
	}
	attributes, err := jsonOrEmpty(params.Attributes)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	userAddress, err := finalizeSession(ctx, tx, params.SessionId, models.SessionStatusCompleted, nullString(attributes), verifiedAt)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, queryUpsertVerifiedProfile,
		userAddress, attributes, formatTime(verifiedAt), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Verification session completed",
		zap.String("session_id", params.SessionId),
		zap.String("user_address", userAddress))
	return nil
}

func (s *Service) FailSession(ctx context.Context, sessionId string, failedAt time.Time) error {
	if failedAt.IsZero() {
		failedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	userAddress, err := finalizeSession(ctx, tx, sessionId, models.SessionStatusFailed, sql.NullString{}, failedAt)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Verification session failed",
		zap.String("session_id", sessionId),
		zap.String("user_address", userAddress))
	return nil
}

// finalizeSession moves a pending session to a terminal status and returns the
// session's user address.
func finalizeSession(ctx context.Context, tx *sql.Tx, sessionId string, status models.SessionStatus, attributes sql.NullString, at time.Time) (string, error) {
	var userAddress string
	err := tx.QueryRowContext(ctx, querySessionExists, sessionId).Scan(&userAddress)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: session %s", store.ErrNotFound, sessionId)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read verification session: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryFinalizeSession, string(status), attributes, formatTime(at), sessionId)
	if err != nil {
		return "", fmt.Errorf("failed to update verification session: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return "", fmt.Errorf("%w: session %s", store.ErrSessionClosed, sessionId)
	}
	return userAddress, nil
}

func (s *Service) GetUserProfile(ctx context.Context, userAddress string) (*models.UserProfile, error) {
	address := NormalizeAddress(userAddress)

	var (
		profile    models.UserProfile
		attributes sql.NullString
		verifiedAt sql.NullString
		updatedAt  string
	)
	err := s.db.QueryRowContext(ctx, queryGetUserProfile, address).Scan(
		&profile.UserAddress, &profile.IsVerified, &attributes, &verifiedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: profile %s", store.ErrNotFound, address)
		}
		zap.L().Error("Failed to query user profile", zap.String("user_address", address), zap.Error(err))
		return nil, fmt.Errorf("unable to query user profile: %w", err)
	}

	if attributes.Valid {
		profile.VerificationAttributes = json.RawMessage(attributes.String)
	}
	if profile.VerifiedAt, err = parseNullTime(verifiedAt); err != nil {
		return nil, err
	}
	if profile.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &profile, nil
}

func scanSession(row rowScanner) (*models.VerificationSession, error) {
	var (
		session                   models.VerificationSession
		status, config, createdAt string
		attributes, completedAt   sql.NullString
	)
	if err := row.Scan(&session.Id, &session.UserAddress, &status, &config, &attributes, &createdAt, &completedAt); err != nil {
		return nil, err
	}

	var err error
	session.Status = models.SessionStatus(status)
	session.Config = json.RawMessage(config)
	if attributes.Valid {
		session.Attributes = json.RawMessage(attributes.String)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if session.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return nil, err
	}
	return &session, nil
}
