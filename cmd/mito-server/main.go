// Package main is the entry point for the Escape the Mitochondrion server.
// It only handles dependency injection and server initialization.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/engine"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/events"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/infra/storage"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/network"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/config"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/logger"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/metrics"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		config.Exitf("mito-server: %v", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Initializing 'Escape the Mitochondrion' server (profile " + string(cfg.Profile) + ")...")
	collector := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ledger *storage.Ledger
	var persister events.EventPersister
	if cfg.LedgerEnabled {
		appLogger.Info("Opening run ledger...")
		ledger, err = storage.Open(ctx, cfg.LedgerDSN)
		if err != nil {
			config.Exitf("mito-server: open ledger: %v", err)
		}
		defer ledger.Close()
		ledger.SetMaxOpenConns(cfg.DBMaxOpenConns)
		persister = ledger
	} else {
		appLogger.Warn("Run ledger disabled; history endpoints will report 503")
	}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(persister)

	appLogger.Info("Bootstrapping Engine...")
	gameEngine := engine.NewEngine(engine.NewRandPicker(cfg.Seed), eventLog, collector, appLogger)
	session := network.NewSession(gameEngine)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(session, appLogger, collector, network.HubOptions{
		BroadcastBuffer:  cfg.BroadcastBuffer,
		ClientSendBuffer: cfg.ClientSendBuffer,
	})
	go hub.Run(ctx)

	router := network.NewRouter(
		network.NewAPI(session, appLogger),
		hub,
		network.NewHistoryHandler(eventLog, ledger, appLogger),
		collector,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLogger.Info("HTTP API & WS Server listening on " + cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server failed: " + err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed: " + err.Error())
	}
}
