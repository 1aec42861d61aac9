// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and lets environment variables override any key (server.address -> SERVER_ADDRESS).
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	bindEnv(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	candidates := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal {
			v.Set(key, expanded)
		}
	}
}

// overrideEmptyConfig fills secrets from the conventional variable names
// used by the hosted providers when the YAML leaves them blank.
func overrideEmptyConfig(cfg *Config) {
	if cfg.APIs.GenAI.APIKey == "" {
		for _, name := range []string{"GENAI_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"} {
			if val := os.Getenv(name); val != "" {
				cfg.APIs.GenAI.APIKey = val
				break
			}
		}
	}
	if val := os.Getenv("GROQ_MODEL"); val != "" && cfg.APIs.GenAI.Provider == ProviderGroq {
		cfg.APIs.GenAI.Model = val
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "loan-advisor"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 45000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.LoanIndex == "" {
		cfg.Database.Elasticsearch.LoanIndex = "loans"
	}

	if cfg.Storage.Conversations == "" {
		cfg.Storage.Conversations = BackendMemory
	}
	if cfg.Storage.Catalog == "" {
		cfg.Storage.Catalog = BackendMemory
	}
	if cfg.Storage.CatalogSeedPath == "" {
		cfg.Storage.CatalogSeedPath = "configs/catalog.yaml"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	genai := &cfg.APIs.GenAI
	if genai.Provider == "" {
		genai.Provider = ProviderGroq
	}
	if genai.BaseURL == "" {
		switch genai.Provider {
		case ProviderGroq:
			genai.BaseURL = "https://api.groq.com/openai/v1"
		case ProviderOpenAI:
			genai.BaseURL = "https://api.openai.com/v1"
		}
	}
	if genai.Model == "" {
		switch genai.Provider {
		case ProviderGemini:
			genai.Model = "gemini-2.0-flash"
		case ProviderOpenAI:
			genai.Model = "gpt-4o-mini"
		default:
			genai.Model = "llama-3.3-70b-versatile"
		}
	}
	if genai.Timeout == 0 {
		genai.Timeout = 20000
	}
	if genai.MaxTokens == 0 {
		genai.MaxTokens = 1024
	}
	if genai.Temperature == 0 {
		genai.Temperature = 0.5
	}
	if genai.TopP == 0 {
		genai.TopP = 1
	}

	if cfg.Advisor.DefaultLanguage == "" {
		cfg.Advisor.DefaultLanguage = "en"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig checks only what the selected backends actually need.
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	switch cfg.Storage.Conversations {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("storage.conversations: unsupported backend %q", cfg.Storage.Conversations)
	}
	switch cfg.Storage.Catalog {
	case BackendMemory, BackendPostgres, BackendElasticsearch:
	default:
		return fmt.Errorf("storage.catalog: unsupported backend %q", cfg.Storage.Catalog)
	}

	if cfg.UsesPostgres() {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}
	if cfg.UsesRedis() && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}
	if cfg.Storage.Catalog == BackendElasticsearch && len(cfg.Database.Elasticsearch.Addresses) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses is required")
	}

	switch cfg.APIs.GenAI.Provider {
	case ProviderGroq, ProviderOpenAI:
		if cfg.APIs.GenAI.BaseURL == "" {
			return fmt.Errorf("apis.genai.base_url is required for provider %s", cfg.APIs.GenAI.Provider)
		}
	case ProviderGemini:
	default:
		return fmt.Errorf("apis.genai.provider: unsupported provider %q", cfg.APIs.GenAI.Provider)
	}

	if cfg.Notifications.SNS.Enabled && cfg.Notifications.SNS.TopicARN == "" {
		return fmt.Errorf("notifications.sns.topic_arn is required when sns is enabled")
	}
	return nil
}

// UsesPostgres reports whether any storage backend needs a postgres connection.
func (c *Config) UsesPostgres() bool {
	return c.Storage.Conversations == BackendPostgres || c.Storage.Catalog == BackendPostgres
}

// UsesRedis reports whether redis is needed for conversations or the catalog cache.
func (c *Config) UsesRedis() bool {
	return c.Storage.Conversations == BackendRedis || c.Storage.CatalogCacheTTL > 0
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
