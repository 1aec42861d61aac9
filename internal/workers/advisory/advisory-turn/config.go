// internal/workers/advisory/advisory-turn/config.go
package advisoryturn

import (
	"fmt"
	"time"

	"loan-advisor/internal/common/config"
)

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
	}
}

// LoadConfig reads the workers.advisory-turn section.
func LoadConfig(appConfig *config.Config) *Config {
	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}
	wc := config.GetWorkerConfig(appConfig, TaskType)
	cfg.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		cfg.MaxJobsActive = wc.MaxJobsActive
	}
	if wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}
