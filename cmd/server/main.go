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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"travel-cover-go/internal/common"
	"travel-cover-go/internal/config"
	"travel-cover-go/internal/oracle"
	"travel-cover-go/internal/server"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	addrFlag := flag.String("addr", "", "Listen address (overrides SERVER_ADDR)")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}
	if *addrFlag != "" {
		cfg.Server.Addr = *addrFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zap.L().Info("Starting travel cover server",
		zap.String("environment", cfg.Environment),
		zap.String("network", cfg.Network.Name),
		zap.String("payout_asset", cfg.Network.PayoutAsset))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if cfg.Oracle.ApiKey == "" {
		zap.L().Warn("ORACLE_API_KEY not set; /oracle-events accepts unauthenticated requests")
	}

	srv := server.NewServer(services.Cover, server.Config{
		Server:       cfg.Server,
		OracleApiKey: cfg.Oracle.ApiKey,
	})

	sweeper := oracle.NewExpirySweeper(services.DbService, cfg.Oracle.ExpirySweepInterval)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	if services.Ledger != nil || services.Disburser != nil {
		redeliverer := oracle.NewPayoutRedeliverer(services.Ingestor, cfg.Oracle.RedeliveryInterval)
		redeliverer.Start(ctx)
		defer redeliverer.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("Server stopped with error", zap.Error(err))
		return
	}
	zap.L().Info("Server stopped gracefully")
}
