// internal/workers/analysis/score-effort/config.go
package scoreeffort

import (
	"fmt"
	"time"

	"reading-effort/internal/common/config"
	"reading-effort/pkg/registry"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		Timeout:       5 * time.Second,
	}
}

// LoadConfig takes the worker settings, falling back to the registry timeout
// when none is configured.
func LoadConfig(wcfg config.WorkerConfig, activity *registry.Activity) *Config {
	cfg := DefaultConfig()
	cfg.Enabled = wcfg.Enabled
	if wcfg.MaxJobsActive > 0 {
		cfg.MaxJobsActive = wcfg.MaxJobsActive
	}
	cfg.Timeout = activity.TimeoutDuration(cfg.Timeout)
	if wcfg.Timeout > 0 {
		cfg.Timeout = time.Duration(wcfg.Timeout) * time.Millisecond
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
