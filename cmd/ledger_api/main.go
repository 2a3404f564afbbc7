package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tiny-ledger/internal/config"
	"github.com/tiny-ledger/internal/data/memory"
	"github.com/tiny-ledger/internal/domain/outbox"
	"github.com/tiny-ledger/internal/ledger_api"
	"github.com/tiny-ledger/internal/ledger_api/outbox_poller"
	"github.com/tiny-ledger/internal/ledger_api/service"
	"github.com/tiny-ledger/internal/logger"
	"github.com/tiny-ledger/internal/platform/messaging/producers"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to an env config file (default ./configs/ledger_api.env)")
	pflag.Parse()

	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"events_enabled", cfg.Events.Enabled,
	)

	store := memory.NewTransactionStore(log)

	// The outbox only exists while events are enabled
	var outboxRepo outbox.Repository
	var poller *outbox_poller.Poller
	var eventProducer *producers.TransactionEventProducer
	var dlqProducer *producers.DLQProducer

	if cfg.Events.Enabled {
		memoryOutbox := memory.NewOutboxRepository(log)
		outboxRepo = memoryOutbox

		eventProducer, err = producers.NewTransactionEventProducer(log, &cfg.Kafka)
		if err != nil {
			log.Error("Failed to initialize transaction event producer", "error", err)
			os.Exit(1)
		}

		dlqProducer, err = producers.NewDLQProducer(log, &cfg.Kafka, "ledger_api.outbox_poller")
		if err != nil {
			log.Error("Failed to initialize DLQ Kafka producer", "error", err)
			os.Exit(1)
		}

		var deadLetters producers.DeadLetterPublisher
		if dlqProducer != nil {
			deadLetters = dlqProducer
		}

		eventPublisher := outbox_poller.NewEventPublisher(memoryOutbox, eventProducer, log)
		poller = outbox_poller.NewPoller(&cfg.Outbox, memoryOutbox, eventPublisher, deadLetters, log)
	}

	ledgerService := service.NewLedgerService(log, store, outboxRepo)

	server := ledger_api.NewServer(log, cfg, ledgerService, time.Now)
	log.Info("REST server initialized")

	errChan := make(chan error, 1)
	var wg sync.WaitGroup

	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if poller != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Start(appCtx)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests first so no event is enqueued after the final flush
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	var shutdownErr error
	if err := server.Stop(shutdownCtx, cfg.Server.ShutdownTimeout); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

	cancelAppCtx()
	wg.Wait()

	if poller != nil {
		if err := poller.ProcessPending(shutdownCtx); err != nil {
			log.Error("Failed to flush outbox", "error", err)
			shutdownErr = err
		}
	}

	if eventProducer != nil {
		if err := eventProducer.Close(); err != nil {
			log.Error("Error closing transaction event producer", "error", err)
			shutdownErr = err
		}
	}
	if dlqProducer != nil {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
			shutdownErr = err
		}
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if shutdownErr != nil {
		log.Error("Ledger API shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Ledger API shutdown completed successfully", "transactions", ledgerService.Count())
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfigFile(path)
	}
	return config.LoadConfig("ledger_api")
}
