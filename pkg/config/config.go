// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (posting store backends, document collection, batch, Kafka, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

// Posting store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendBolt     = "bolt"
)

// Document collection backends.
const (
	CollectionFile  = "file"
	CollectionMinio = "minio"
)

// Config is the top-level application configuration.
type Config struct {
	Postings   PostingsConfig   `yaml:"postings"`
	Collection CollectionConfig `yaml:"collection"`
	Redis      RedisConfig      `yaml:"redis"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	Bolt       BoltConfig       `yaml:"bolt"`
	Minio      MinioConfig      `yaml:"minio"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Query      QueryConfig      `yaml:"query"`
	Batch      BatchConfig      `yaml:"batch"`
	Partition  PartitionConfig  `yaml:"partition"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// PostingsConfig selects the posting store and its transport policy.
type PostingsConfig struct {
	Backend string `yaml:"backend"`
	// Path is the postings TSV file loaded by the memory backend.
	Path            string        `yaml:"path"`
	Timeout         time.Duration `yaml:"timeout"`
	RetryAttempts   int           `yaml:"retryAttempts"`
	RetryDelay      time.Duration `yaml:"retryDelay"`
	BreakerFailures int           `yaml:"breakerFailures"`
	BreakerReset    time.Duration `yaml:"breakerReset"`
	Cache           bool          `yaml:"cache"`
}

// CollectionConfig locates the document collection used for snippets.
type CollectionConfig struct {
	Backend string        `yaml:"backend"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig holds Redis connection parameters for the redis posting store.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"poolSize"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	Table           string        `yaml:"table"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig points at an embedded SQLite postings database.
type SQLiteConfig struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// BoltConfig points at an embedded bbolt postings database.
type BoltConfig struct {
	Path    string        `yaml:"path"`
	Bucket  string        `yaml:"bucket"`
	Timeout time.Duration `yaml:"timeout"`
}

// MinioConfig holds the S3-compatible object store holding the collection.
type MinioConfig struct {
	Endpoint          string  `yaml:"endpoint"`
	AccessKey         string  `yaml:"accessKey"`
	SecretKey         string  `yaml:"secretKey"`
	Region            string  `yaml:"region"`
	Secure            bool    `yaml:"secure"`
	Bucket            string  `yaml:"bucket"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// KafkaConfig holds broker and topic settings for query events.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	QueryEvents string `yaml:"queryEvents"`
}

// QueryConfig controls evaluation of a single query.
type QueryConfig struct {
	SnippetLength int           `yaml:"snippetLength"`
	Timeout       time.Duration `yaml:"timeout"`
}

// BatchConfig holds the batch query list and its execution policy.
type BatchConfig struct {
	Queries     []string `yaml:"queries"`
	QueriesFile string   `yaml:"queriesFile"`
	Concurrency int      `yaml:"concurrency"`
}

// PartitionConfig configures the range partitioner used by index builders.
type PartitionConfig struct {
	NodeCount int `yaml:"nodeCount"`
	Buckets   int `yaml:"buckets"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values. Load does not validate; callers run Validate once the
// command line has been applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrConfiguration, "reading config file %s: %v", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.Newf(apperrors.ErrConfiguration, "parsing config file %s: %v", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with defaults suitable for local runs against a
// postings TSV file and a plain-text collection.
func Default() *Config {
	return &Config{
		Postings: PostingsConfig{
			Backend:         BackendMemory,
			Timeout:         5 * time.Second,
			RetryAttempts:   3,
			RetryDelay:      100 * time.Millisecond,
			BreakerFailures: 5,
			BreakerReset:    30 * time.Second,
		},
		Collection: CollectionConfig{
			Backend: CollectionFile,
			Timeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "postings:",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "retrieval",
			User:            "retrieval",
			Password:        "localdev",
			SSLMode:         "disable",
			Table:           "postings",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		SQLite: SQLiteConfig{
			Table: "postings",
		},
		Bolt: BoltConfig{
			Bucket:  "postings",
			Timeout: time.Second,
		},
		Minio: MinioConfig{
			Endpoint:          "localhost:9000",
			RequestsPerSecond: 50,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				QueryEvents: "query-events",
			},
		},
		Query: QueryConfig{
			SnippetLength: 100,
		},
		Batch: BatchConfig{
			Concurrency: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// Validate reports the first setting that would make a run impossible. Every
// failure classifies as errors.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.ValidatePostings(); err != nil {
		return err
	}

	if c.Collection.Path == "" {
		return apperrors.New(apperrors.ErrConfiguration, "collection.path is required")
	}
	switch c.Collection.Backend {
	case CollectionFile:
	case CollectionMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return apperrors.New(apperrors.ErrConfiguration, "minio.endpoint and minio.bucket are required for the minio collection")
		}
		if c.Minio.AccessKey == "" || c.Minio.SecretKey == "" {
			return apperrors.New(apperrors.ErrConfiguration, "minio credentials are missing")
		}
	default:
		return apperrors.Newf(apperrors.ErrConfiguration, "unknown collection.backend %q", c.Collection.Backend)
	}

	if c.Query.SnippetLength <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "query.snippetLength must be positive, got %d", c.Query.SnippetLength)
	}
	if c.Batch.Concurrency <= 0 {
		return apperrors.Newf(apperrors.ErrConfiguration, "batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topics.QueryEvents == "") {
		return apperrors.New(apperrors.ErrConfiguration, "kafka.brokers and kafka.topics.queryEvents are required when kafka is enabled")
	}
	return nil
}

// ValidatePostings checks only the posting store settings, for commands
// that never touch the collection.
func (c *Config) ValidatePostings() error {
	switch c.Postings.Backend {
	case BackendMemory:
		if c.Postings.Path == "" {
			return apperrors.New(apperrors.ErrConfiguration, "postings.path is required for the memory backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return apperrors.New(apperrors.ErrConfiguration, "redis.addr is required for the redis backend")
		}
	case BackendPostgres:
		if c.Postgres.Host == "" || c.Postgres.Database == "" {
			return apperrors.New(apperrors.ErrConfiguration, "postgres.host and postgres.database are required")
		}
		if !validIdentifier(c.Postgres.Table) {
			return apperrors.Newf(apperrors.ErrConfiguration, "postgres.table %q is not a valid identifier", c.Postgres.Table)
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return apperrors.New(apperrors.ErrConfiguration, "sqlite.path is required for the sqlite backend")
		}
		if !validIdentifier(c.SQLite.Table) {
			return apperrors.Newf(apperrors.ErrConfiguration, "sqlite.table %q is not a valid identifier", c.SQLite.Table)
		}
	case BackendBolt:
		if c.Bolt.Path == "" || c.Bolt.Bucket == "" {
			return apperrors.New(apperrors.ErrConfiguration, "bolt.path and bolt.bucket are required for the bolt backend")
		}
	default:
		return apperrors.Newf(apperrors.ErrConfiguration, "unknown postings.backend %q", c.Postings.Backend)
	}
	return nil
}

// validIdentifier accepts plain SQL identifiers so table names can be
// interpolated into statements.
func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// applyEnvOverrides reads BR_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BR_POSTINGS_BACKEND"); v != "" {
		cfg.Postings.Backend = v
	}
	if v := os.Getenv("BR_POSTINGS_PATH"); v != "" {
		cfg.Postings.Path = v
	}
	if v := os.Getenv("BR_COLLECTION_BACKEND"); v != "" {
		cfg.Collection.Backend = v
	}
	if v := os.Getenv("BR_COLLECTION_PATH"); v != "" {
		cfg.Collection.Path = v
	}
	if v := os.Getenv("BR_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BR_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BR_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("BR_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("BR_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("BR_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("BR_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("BR_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("BR_BOLT_PATH"); v != "" {
		cfg.Bolt.Path = v
	}
	if v := os.Getenv("BR_MINIO_ENDPOINT"); v != "" {
		cfg.Minio.Endpoint = v
	}
	if v := os.Getenv("BR_MINIO_ACCESS_KEY"); v != "" {
		cfg.Minio.AccessKey = v
	}
	if v := os.Getenv("BR_MINIO_SECRET_KEY"); v != "" {
		cfg.Minio.SecretKey = v
	}
	if v := os.Getenv("BR_MINIO_BUCKET"); v != "" {
		cfg.Minio.Bucket = v
	}
	if v := os.Getenv("BR_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BR_BATCH_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Batch.Concurrency = n
		}
	}
	if v := os.Getenv("BR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BR_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
