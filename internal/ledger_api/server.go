// Package ledger_api is the HTTP boundary of the ledger: a gin server exposing
// record, list and balance over the ledger service.
package ledger_api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tiny-ledger/internal/config"
	"github.com/tiny-ledger/internal/ledger_api/handler"
	"github.com/tiny-ledger/internal/ledger_api/service"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures a new HTTP server over the ledger service.
// clock is the time source handed to the record handler.
func NewServer(log *slog.Logger, cfg *config.Config, ledgerService service.LedgerService, clock func() time.Time) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	transactionHandler := handler.NewTransactionHandler(log, ledgerService, clock)
	balanceHandler := handler.NewBalanceHandler(log, ledgerService)
	info := APIInfo{
		Name:        cfg.Application.Name,
		Version:     cfg.Application.Version,
		Description: cfg.Application.Description,
	}
	healthCheck := func() gin.H {
		return gin.H{
			"transactions":   ledgerService.Count(),
			"events_enabled": cfg.Events.Enabled,
		}
	}

	setupRouter(log, httpRouter, info, transactionHandler, balanceHandler, healthCheck)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most timeout for
// in-flight requests
func (s *Server) Stop(ctx context.Context, timeout time.Duration) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
