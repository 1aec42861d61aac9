package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Defaults
// ==========================

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  environment: test\n")

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "loan-advisor", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, BackendMemory, cfg.Storage.Conversations)
	assert.Equal(t, BackendMemory, cfg.Storage.Catalog)
	assert.Equal(t, "configs/catalog.yaml", cfg.Storage.CatalogSeedPath)
	assert.Equal(t, "loans", cfg.Database.Elasticsearch.LoanIndex)
	assert.Equal(t, ProviderGroq, cfg.APIs.GenAI.Provider)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.APIs.GenAI.BaseURL)
	assert.Equal(t, 0.5, cfg.APIs.GenAI.Temperature)
	assert.Equal(t, 1024, cfg.APIs.GenAI.MaxTokens)
	assert.Equal(t, "en", cfg.Advisor.DefaultLanguage)
	assert.False(t, cfg.UsesPostgres())
	assert.False(t, cfg.UsesRedis())
}

func TestLoadFromFile_ProviderDefaults(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		baseURL  string
	}{
		{name: "openai", provider: ProviderOpenAI, model: "gpt-4o-mini", baseURL: "https://api.openai.com/v1"},
		{name: "gemini", provider: ProviderGemini, model: "gemini-2.0-flash", baseURL: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "apis:\n  genai:\n    provider: "+tt.provider+"\n")

			cfg, err := LoadFromFile(path)

			require.NoError(t, err)
			assert.Equal(t, tt.model, cfg.APIs.GenAI.Model)
			assert.Equal(t, tt.baseURL, cfg.APIs.GenAI.BaseURL)
		})
	}
}

func TestLoadFromFile_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "cache:6379")
	path := writeConfig(t, `
storage:
  conversations: redis
database:
  redis:
    address: "${TEST_REDIS_ADDR}"
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.Database.Redis.Address)
	assert.True(t, cfg.UsesRedis())
}

// ==========================
// Validation
// ==========================

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown conversation backend",
			body:    "storage:\n  conversations: mongo\n",
			wantErr: "storage.conversations",
		},
		{
			name:    "unknown catalog backend",
			body:    "storage:\n  catalog: redis\n",
			wantErr: "storage.catalog",
		},
		{
			name:    "postgres without host",
			body:    "storage:\n  catalog: postgres\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "cache without redis",
			body:    "storage:\n  catalog_cache_ttl: 60000\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "elasticsearch without addresses",
			body:    "storage:\n  catalog: elasticsearch\n",
			wantErr: "database.elasticsearch.addresses",
		},
		{
			name:    "camunda without broker",
			body:    "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "unknown provider",
			body:    "apis:\n  genai:\n    provider: claude\n",
			wantErr: "apis.genai.provider",
		},
		{
			name:    "sns without topic",
			body:    "notifications:\n  sns:\n    enabled: true\n",
			wantErr: "notifications.sns.topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// ==========================
// Worker Config
// ==========================

func TestWorkerConfig(t *testing.T) {
	path := writeConfig(t, `
workers:
  check-eligibility:
    enabled: false
    timeout: 5000
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	wc := GetWorkerConfig(cfg, "check-eligibility")
	assert.False(t, wc.Enabled)
	assert.Equal(t, 5000, wc.Timeout)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.False(t, IsWorkerEnabled(cfg, "check-eligibility"))

	assert.True(t, IsWorkerEnabled(cfg, "advisory-turn"))
	assert.Equal(t, 30000, GetWorkerConfig(cfg, "advisory-turn").Timeout)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
