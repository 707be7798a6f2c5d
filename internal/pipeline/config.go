package pipeline

import (
	"time"

	"github.com/sells-group/lead-cli/internal/model"
)

// Config is the pipeline section of the application config.
type Config struct {
	MaxConcurrentEntities int  `yaml:"max_concurrent_entities" mapstructure:"max_concurrent_entities"`
	AdapterTimeoutSecs    int  `yaml:"adapter_timeout_secs" mapstructure:"adapter_timeout_secs"`
	AllowEmpty            bool `yaml:"allow_empty" mapstructure:"allow_empty"`
}

// DefaultConfig returns the stock pipeline settings.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentEntities: 5,
		AdapterTimeoutSecs:    30,
	}
}

// AdapterTimeout returns the per-call adapter timeout, zero when disabled.
func (c Config) AdapterTimeout() time.Duration {
	if c.AdapterTimeoutSecs <= 0 {
		return 0
	}
	return time.Duration(c.AdapterTimeoutSecs) * time.Second
}

// Validate rejects settings the orchestrator cannot run with.
func (c Config) Validate() error {
	if c.MaxConcurrentEntities <= 0 {
		return &model.ConfigurationError{Field: "pipeline.max_concurrent_entities", Reason: "must be greater than zero"}
	}
	if c.AdapterTimeoutSecs < 0 {
		return &model.ConfigurationError{Field: "pipeline.adapter_timeout_secs", Reason: "must not be negative"}
	}
	return nil
}
