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

package server

import (
	"context"
	"errors"
	"net/http"

	"travel-cover-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CoverAPI is the service facade the HTTP handlers call
type CoverAPI interface {
	IngestOracleEvent(ctx context.Context, req models.OracleEventRequest) (*models.OracleEventResponse, error)
	StartVerification(ctx context.Context, req models.StartVerificationRequest) (*models.StartVerificationResponse, error)
	CompleteVerification(ctx context.Context, req models.VerificationCallbackRequest) (*models.SuccessResponse, error)
	VerificationStatus(ctx context.Context, address, sessionId string) (*models.VerificationStatus, error)
	HealthCheck(ctx context.Context) error
}

// Config contains configuration for Server
type Config struct {
	Server       models.ServerConfig
	OracleApiKey string
}

// Server is the travel cover HTTP API
type Server struct {
	api        CoverAPI
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(api CoverAPI, cfg Config) *Server {
	router := gin.New()
	router.Use(requestLogger(), recoverPanics())

	s := &Server{
		api:    api,
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	router.GET("/healthz", s.handleHealth)
	router.POST("/oracle-events", requireOracleKey(cfg.OracleApiKey), s.handleOracleEvent)

	verification := router.Group("/verification")
	{
		verification.POST("/start", s.handleStartVerification)
		verification.POST("/callback", s.handleVerificationCallback)
		verification.GET("/status", s.handleVerificationStatus)
	}

	return s
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	zap.L().Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	zap.L().Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
