// Package config provides configuration structures and validation for the
// ledger API and the audit projector. Sections that belong to an optional
// feature (event publishing, an audit sink) are only validated when that
// feature is switched on.
package config

import (
	"errors"
	"strings"
	"time"
)

// Audit sink kinds
const (
	AuditSinkMongo    = "mongo"
	AuditSinkPostgres = "postgres"
)

// Config holds the complete application configuration
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Events      EventsConfig
	Kafka       KafkaConfig
	Outbox      OutboxConfig
	Audit       AuditConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	WorkerPool  WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env         string
	Name        string
	Version     string
	Description string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or text
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// EventsConfig switches publishing of recorded-transaction events
type EventsConfig struct {
	Enabled bool
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	TransactionTopic  string // Topic for recorded-transaction events
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
}

// OutboxConfig contains outbox polling configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // Attempts before a message is dead-lettered
}

// AuditConfig selects where the projector writes audit records.
// An empty sink disables the projector.
type AuditConfig struct {
	Sink string
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Minimum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// BrokerList splits the comma separated KAFKA_BROKERS value
func (k *KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// UsesKafka reports whether any enabled feature talks to the broker
func (c *Config) UsesKafka() bool {
	return c.Events.Enabled || c.Audit.Sink != ""
}

// validate collects every violation instead of stopping at the first one
func (c *Config) validate() error {
	var validationErrors []string

	// Server
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		validationErrors = append(validationErrors, "LOG_FORMAT must be one of json, text")
	}

	if c.UsesKafka() {
		validationErrors = append(validationErrors, c.Kafka.validate()...)
	}

	if c.Events.Enabled {
		if c.Outbox.PollingInterval <= 0 {
			validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
		}
		if c.Outbox.BatchSize <= 0 {
			validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
		}
		if c.Outbox.MaxRetryAttempts <= 0 {
			validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
		}
	}

	switch c.Audit.Sink {
	case "":
	case AuditSinkPostgres:
		validationErrors = append(validationErrors, c.Postgres.validate()...)
	case AuditSinkMongo:
		validationErrors = append(validationErrors, c.MongoDB.validate()...)
	default:
		validationErrors = append(validationErrors, "AUDIT_SINK must be one of mongo, postgres")
	}

	if c.Audit.Sink != "" && c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}

func (k KafkaConfig) validate() []string {
	var errs []string
	if k.Brokers == "" {
		errs = append(errs, "KAFKA_BROKERS is required")
	}
	if k.TransactionTopic == "" {
		errs = append(errs, "KAFKA_TRANSACTION_TOPIC is required")
	}
	if k.ConsumerGroup == "" {
		errs = append(errs, "KAFKA_CONSUMER_GROUP is required")
	}
	if k.MinBytes <= 0 {
		errs = append(errs, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if k.MaxBytes <= 0 {
		errs = append(errs, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if k.MaxWait <= 0 {
		errs = append(errs, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if k.DLQTopic == "" {
		errs = append(errs, "KAFKA_DLQ_TOPIC is required")
	}
	return errs
}

func (p PostgresConfig) validate() []string {
	var errs []string
	if p.URL == "" {
		errs = append(errs, "POSTGRES_URL is required")
	}
	if p.MaxConns <= 0 {
		errs = append(errs, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if p.MinConns <= 0 {
		errs = append(errs, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if p.ConnMaxLifetime <= 0 {
		errs = append(errs, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if p.ConnMaxIdleTime <= 0 {
		errs = append(errs, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}
	if p.MigrationsPath == "" {
		errs = append(errs, "POSTGRES_MIGRATIONS_PATH is required")
	}
	return errs
}

func (m MongoDBConfig) validate() []string {
	var errs []string
	if m.URI == "" {
		errs = append(errs, "MONGO_URI is required")
	}
	if m.Database == "" {
		errs = append(errs, "MONGO_DATABASE is required")
	}
	if m.Timeout <= 0 {
		errs = append(errs, "MONGO_TIMEOUT must be greater than 0")
	}
	if m.MaxPoolSize <= 0 {
		errs = append(errs, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if m.MinPoolSize <= 0 {
		errs = append(errs, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if m.MaxConnIdleTime <= 0 {
		errs = append(errs, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}
	return errs
}
