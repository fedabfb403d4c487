package sendwelcome

import (
	"fmt"
	"time"

	"onboarding-orchestrator/internal/common/config"
)

const WorkerName = "onboarding-send-welcome"

type Config struct {
	Enabled       bool
	MaxJobsActive int
	Timeout       time.Duration
	EmailEnabled  bool
	SMSEnabled    bool
	// SMSVerifiedOnly restricts SMS to phones confirmed in the flow.
	SMSVerifiedOnly bool
	LoginURL        string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		MaxJobsActive:   5,
		Timeout:         30 * time.Second,
		EmailEnabled:    true,
		SMSEnabled:      true,
		SMSVerifiedOnly: true,
	}
}

// ConfigFromApp reads the worker entry and the SES/SNS switches from cfg.
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
	c.EmailEnabled = cfg.Integrations.AWS.SES.Enabled
	c.SMSEnabled = cfg.Integrations.AWS.SNS.Enabled
	c.LoginURL = cfg.Finalization.RedirectURL
	return c
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
