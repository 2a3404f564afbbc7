package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/tiny-ledger/internal/audit_projector/consumer"
	"github.com/tiny-ledger/internal/audit_projector/service"
	"github.com/tiny-ledger/internal/config"
	"github.com/tiny-ledger/internal/data/mongo"
	"github.com/tiny-ledger/internal/data/postgres"
	"github.com/tiny-ledger/internal/domain/audit"
	"github.com/tiny-ledger/internal/logger"
	"github.com/tiny-ledger/internal/platform/messaging/consumers"
	"github.com/tiny-ledger/internal/platform/messaging/producers"
	"github.com/tiny-ledger/internal/platform/persistence"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to an env config file (default ./configs/audit_projector.env)")
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

	if cfg.Audit.Sink == "" {
		log.Error("AUDIT_SINK is not set, nothing to project into")
		os.Exit(1)
	}

	log.Info("Starting Audit Projector",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"sink", cfg.Audit.Sink,
	)

	repo, closeSink, err := openSink(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize audit sink", "sink", cfg.Audit.Sink, "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(log, &cfg.Kafka, "audit_projector")
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	projectionService, err := service.NewWorkerPoolProjectionService(
		service.NewProjectionService(log, repo, time.Now),
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	eventHandler := consumer.NewEventHandler(log, projectionService, deadLetters)

	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)
	if err := kafkaConsumer.Subscribe(appCtx, eventHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe to transaction events", "error", err)
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case <-kafkaConsumer.Done():
		log.Error("Kafka consumer stopped unexpectedly")
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	select {
	case <-kafkaConsumer.Done():
		log.Info("Kafka consumer stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	projectionService.Shutdown()

	var shutdownErr error
	if dlqProducer != nil {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
			shutdownErr = errors.Join(shutdownErr, err)
		}
	}
	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		shutdownErr = errors.Join(shutdownErr, err)
	}
	if err := closeSink(shutdownCtx); err != nil {
		log.Error("Error closing audit sink", "error", err)
		shutdownErr = errors.Join(shutdownErr, err)
	}

	if shutdownErr != nil {
		log.Error("Audit Projector shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Audit Projector shutdown completed successfully")
}

// openSink connects the configured audit sink and returns its repository
// together with a close function
func openSink(ctx context.Context, log *slog.Logger, cfg *config.Config) (audit.Repository, func(context.Context) error, error) {
	switch cfg.Audit.Sink {
	case config.AuditSinkPostgres:
		db, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewAuditRepository(log, db), func(context.Context) error {
			db.Close()
			return nil
		}, nil

	case config.AuditSinkMongo:
		db, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		repo := mongo.NewAuditRepository(log, db.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = db.Close(ctx)
			return nil, nil, err
		}
		return repo, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown audit sink %q", cfg.Audit.Sink)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfigFile(path)
	}
	return config.LoadConfig("audit_projector")
}
