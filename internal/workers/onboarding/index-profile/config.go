package indexprofile

import (
	"fmt"
	"time"

	"onboarding-orchestrator/internal/common/config"
)

// WorkerName is the key under config.Workers.
const WorkerName = "onboarding-index-profile"

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	Index         string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		Index:         "onboarding-profiles",
	}
}

// ConfigFromApp overlays the worker and Elasticsearch sections of cfg on the
// defaults.
func ConfigFromApp(cfg *config.Config) *Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	wc := config.GetWorkerConfig(cfg, WorkerName)
	c.Enabled = wc.Enabled
	if wc.MaxJobsActive > 0 {
		c.MaxJobsActive = wc.MaxJobsActive
	}
	if wc.Timeout > 0 {
		c.Timeout = config.GetDuration(wc.Timeout)
	}
	if cfg.Database.Elasticsearch.ProfileIndex != "" {
		c.Index = cfg.Database.Elasticsearch.ProfileIndex
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.Index == "" {
		return fmt.Errorf("index is required")
	}
	return nil
}
