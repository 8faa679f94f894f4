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

package api

import (
	"context"

	"travel-cover-go/internal/models"

	"go.uber.org/zap"
)

func (s *CoverService) StartVerification(ctx context.Context, req models.StartVerificationRequest) (*models.StartVerificationResponse, error) {
	resp, err := s.verification.Start(ctx, req.Address, req.Config)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Verification started",
		zap.String("session_id", resp.SessionId),
		zap.String("address", req.Address))
	return resp, nil
}

func (s *CoverService) CompleteVerification(ctx context.Context, req models.VerificationCallbackRequest) (*models.SuccessResponse, error) {
	if err := s.verification.Complete(ctx, req.SessionId, req.Proof, req.Attributes); err != nil {
		zap.L().Warn("Verification callback rejected",
			zap.String("session_id", req.SessionId),
			zap.Error(err))
		return nil, err
	}
	return &models.SuccessResponse{Success: true}, nil
}

func (s *CoverService) VerificationStatus(ctx context.Context, address, sessionId string) (*models.VerificationStatus, error) {
	return s.verification.Status(ctx, address, sessionId)
}
