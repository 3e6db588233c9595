package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Postings.Backend)
	assert.Equal(t, CollectionFile, cfg.Collection.Backend)
	assert.Equal(t, 100, cfg.Query.SnippetLength)
	assert.Equal(t, 1, cfg.Batch.Concurrency)
	assert.Equal(t, "postings:", cfg.Redis.KeyPrefix)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
postings:
  backend: redis
  timeout: 2s
redis:
  addr: cache:6379
collection:
  path: /data/bible+shakes.nopunc
batch:
  concurrency: 4
  queries:
    - outrageous fortune AND
    - white rose AND
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Postings.Backend)
	assert.Equal(t, 2*time.Second, cfg.Postings.Timeout)
	assert.Equal(t, 3, cfg.Postings.RetryAttempts, "defaults survive partial yaml")
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 4, cfg.Batch.Concurrency)
	assert.Equal(t, []string{"outrageous fortune AND", "white rose AND"}, cfg.Batch.Queries)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BR_POSTINGS_BACKEND", "bolt")
	t.Setenv("BR_BOLT_PATH", "/var/lib/postings.db")
	t.Setenv("BR_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("BR_BATCH_CONCURRENCY", "8")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendBolt, cfg.Postings.Backend)
	assert.Equal(t, "/var/lib/postings.db", cfg.Bolt.Path)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, apperrors.IsConfiguration(err))

	_, err = Load(writeConfig(t, "postings: [not, a, map"))
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Postings.Path = "postings.tsv"
		cfg.Collection.Path = "collection.txt"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid memory", func(c *Config) {}, false},
		{"memory without path", func(c *Config) { c.Postings.Path = "" }, true},
		{"unknown backend", func(c *Config) { c.Postings.Backend = "hbase" }, true},
		{"missing collection", func(c *Config) { c.Collection.Path = "" }, true},
		{"unknown collection backend", func(c *Config) { c.Collection.Backend = "hdfs" }, true},
		{"minio without credentials", func(c *Config) {
			c.Collection.Backend = CollectionMinio
			c.Minio.Bucket = "corpus"
		}, true},
		{"minio complete", func(c *Config) {
			c.Collection.Backend = CollectionMinio
			c.Minio.Bucket = "corpus"
			c.Minio.AccessKey = "ak"
			c.Minio.SecretKey = "sk"
		}, false},
		{"sqlite bad table", func(c *Config) {
			c.Postings.Backend = BackendSQLite
			c.SQLite.Path = "p.db"
			c.SQLite.Table = "postings; drop"
		}, true},
		{"bolt without path", func(c *Config) { c.Postings.Backend = BackendBolt }, true},
		{"zero snippet length", func(c *Config) { c.Query.SnippetLength = 0 }, true},
		{"zero concurrency", func(c *Config) { c.Batch.Concurrency = 0 }, true},
		{"kafka without topic", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Topics.QueryEvents = ""
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.True(t, apperrors.IsConfiguration(err), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := Default().Postgres
	assert.Equal(t, "host=localhost port=5432 user=retrieval password=localdev dbname=retrieval sslmode=disable", p.DSN())
}
