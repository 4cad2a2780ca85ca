package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: library-ai-workers
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: library
    user: library
    password: ${TEST_DB_PASSWORD}
  redis:
    address: localhost:6379
llm:
  api_key: ${TEST_LLM_KEY}
query_cache:
  enabled: true
workers:
  ai-book-query:
    enabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_ExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "s3cret")
	t.Setenv("TEST_LLM_KEY", "sk-test")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, BookStoreBackendPostgres, cfg.BookStore.Backend)
	assert.Equal(t, "books", cfg.BookStore.Index)
	assert.Equal(t, 0, cfg.LLM.MaxRetries)
	assert.Equal(t, "aiquery", cfg.QueryCache.KeyPrefix)
	assert.Equal(t, 5*time.Minute, GetDuration(cfg.QueryCache.TTL))

	worker := GetWorkerConfig(cfg, "ai-book-query")
	assert.True(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 3, worker.MaxRetries)
}

func TestLoadFromFile_OpenAIKeyFallback(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "x")
	t.Setenv("TEST_LLM_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.LLM.APIKey)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			Camunda: CamundaConfig{BrokerAddress: "localhost:26500"},
			LLM:     LLMConfig{APIKey: "sk"},
			Database: DatabaseConfig{
				Postgres: PostgresConfig{Host: "h", Database: "d", User: "u"},
			},
		}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing broker", func(c *Config) { c.Camunda.BrokerAddress = "" }, "camunda.broker_address"},
		{"missing llm key", func(c *Config) { c.LLM.APIKey = "" }, "llm.api_key"},
		{"unknown backend", func(c *Config) { c.BookStore.Backend = "mongo" }, "book_store.backend"},
		{"elasticsearch without url", func(c *Config) { c.BookStore.Backend = BookStoreBackendElasticsearch }, "elasticsearch"},
		{"cache without redis", func(c *Config) { c.QueryCache.Enabled = true }, "database.redis.address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsWorkerEnabled_DefaultsToTrue(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"invalidate-query-cache": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "invalidate-query-cache"))
	assert.True(t, IsWorkerEnabled(cfg, "ai-book-query"))
}
