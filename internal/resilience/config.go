package resilience

import "time"

// Config is the resilience section of the application config.
type Config struct {
	RetryAttempts       int     `mapstructure:"retry_attempts"`
	RetryBaseMS         int     `mapstructure:"retry_base_ms"`
	RetryMaxMS          int     `mapstructure:"retry_max_ms"`
	RetryFactor         float64 `mapstructure:"retry_factor"`
	RetryJitter         float64 `mapstructure:"retry_jitter"`
	CircuitThreshold    int     `mapstructure:"circuit_threshold"`
	CircuitCooldownSecs int     `mapstructure:"circuit_cooldown_secs"`
}

// RetryPolicy converts the config to a RetryPolicy. Zero fields keep the
// defaults.
func (c Config) RetryPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	if c.RetryAttempts > 0 {
		p.Attempts = c.RetryAttempts
	}
	if c.RetryBaseMS > 0 {
		p.BaseDelay = time.Duration(c.RetryBaseMS) * time.Millisecond
	}
	if c.RetryMaxMS > 0 {
		p.MaxDelay = time.Duration(c.RetryMaxMS) * time.Millisecond
	}
	if c.RetryFactor >= 1 {
		p.Factor = c.RetryFactor
	}
	if c.RetryJitter >= 0 {
		p.Jitter = c.RetryJitter
	}
	return p
}

// BreakerConfig converts the config to a BreakerConfig.
func (c Config) BreakerConfig() BreakerConfig {
	b := DefaultBreakerConfig()
	if c.CircuitThreshold > 0 {
		b.Threshold = c.CircuitThreshold
	}
	if c.CircuitCooldownSecs > 0 {
		b.Cooldown = time.Duration(c.CircuitCooldownSecs) * time.Second
	}
	return b
}
