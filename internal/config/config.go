package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/monitoring"
	"github.com/sells-group/lead-cli/internal/pipeline"
	"github.com/sells-group/lead-cli/internal/ratelimit"
	"github.com/sells-group/lead-cli/internal/report"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/scoring"
	"github.com/sells-group/lead-cli/internal/source/sim"
)

// Config holds the full application configuration.
type Config struct {
	Campaign   CampaignConfig    `yaml:"campaign" mapstructure:"campaign"`
	RateLimits ratelimit.Table   `yaml:"rate_limits" mapstructure:"rate_limits"`
	Sources    SourcesConfig     `yaml:"sources" mapstructure:"sources"`
	Scoring    scoring.Config    `yaml:"scoring" mapstructure:"scoring"`
	Pipeline   pipeline.Config   `yaml:"pipeline" mapstructure:"pipeline"`
	Resilience resilience.Config `yaml:"resilience" mapstructure:"resilience"`
	Export     report.Config     `yaml:"export" mapstructure:"export"`
	Server     ServerConfig      `yaml:"server" mapstructure:"server"`
	Monitoring monitoring.Config `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig         `yaml:"log" mapstructure:"log"`
}

// CampaignConfig holds campaign defaults used when a request omits them.
type CampaignConfig struct {
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit"`
}

// SourcesConfig selects the adapters per stage and tunes the simulation.
type SourcesConfig struct {
	pipeline.SourceLists `yaml:",inline" mapstructure:",squash"`
	Sim                  sim.Config `yaml:"sim" mapstructure:"sim"`
}

// ServerConfig configures the campaign API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("campaign.default_limit", 10)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.source_failure_threshold", 10)
	v.SetDefault("export.dir", "exports")
	v.SetDefault("export.formats", []string{"json", "csv", "txt"})

	v.SetDefault("rate_limits.default.capacity", ratelimit.DefaultCapacity)
	v.SetDefault("rate_limits.default.refill_per_sec", ratelimit.DefaultRefillPerSec)
	for name, bc := range ratelimit.DefaultTable().Sources {
		v.SetDefault("rate_limits.sources."+name+".capacity", bc.Capacity)
		v.SetDefault("rate_limits.sources."+name+".refill_per_sec", bc.RefillPerSec)
	}

	v.SetDefault("sources.discovery", []string{"google_maps", "yelp", "yellow_pages"})
	v.SetDefault("sources.enrichment", []string{"business_details", "social_media", "news_api", "directories"})
	v.SetDefault("sources.contacts", []string{"website", "linkedin", "better_business_bureau", "news_article"})
	v.SetDefault("sources.sim.seed", 42)
	v.SetDefault("sources.sim.latency_ms", 50)
	v.SetDefault("sources.sim.failure_rate", 0.0)

	pd := pipeline.DefaultConfig()
	v.SetDefault("pipeline.max_concurrent_entities", pd.MaxConcurrentEntities)
	v.SetDefault("pipeline.adapter_timeout_secs", pd.AdapterTimeoutSecs)
	v.SetDefault("pipeline.allow_empty", pd.AllowEmpty)

	v.SetDefault("resilience.retry_attempts", 3)
	v.SetDefault("resilience.retry_base_ms", 200)
	v.SetDefault("resilience.retry_max_ms", 5000)
	v.SetDefault("resilience.retry_factor", 2.0)
	v.SetDefault("resilience.retry_jitter", 0.2)
	v.SetDefault("resilience.circuit_threshold", 5)
	v.SetDefault("resilience.circuit_cooldown_secs", 30)

	setScoringDefaults(v, scoring.DefaultConfig())

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setScoringDefaults(v *viper.Viper, d scoring.Config) {
	q := d.Quality
	v.SetDefault("scoring.quality.description", q.Description)
	v.SetDefault("scoring.quality.founded_year", q.FoundedYear)
	v.SetDefault("scoring.quality.employee_count", q.EmployeeCount)
	v.SetDefault("scoring.quality.social_present", q.SocialPresent)
	v.SetDefault("scoring.quality.social_many", q.SocialMany)
	v.SetDefault("scoring.quality.news_present", q.NewsPresent)
	v.SetDefault("scoring.quality.news_many", q.NewsMany)
	v.SetDefault("scoring.quality.directory_present", q.DirectoryPresent)
	v.SetDefault("scoring.quality.directory_many", q.DirectoryMany)

	dw := d.Decision
	v.SetDefault("scoring.decision.title_match", dw.TitleMatch)
	v.SetDefault("scoring.decision.management", dw.Management)
	v.SetDefault("scoring.decision.seniority", dw.Seniority)
	v.SetDefault("scoring.decision.email", dw.Email)
	v.SetDefault("scoring.decision.phone", dw.Phone)
	v.SetDefault("scoring.decision.linkedin", dw.LinkedIn)
	v.SetDefault("scoring.decision.threshold", dw.Threshold)
	v.SetDefault("scoring.decision.titles", dw.Titles)
	v.SetDefault("scoring.decision.management_keywords", dw.ManagementKeywords)
	v.SetDefault("scoring.decision.seniority_keywords", dw.SeniorityKeywords)
	for src, w := range dw.Sources {
		v.SetDefault("scoring.decision.sources."+src, w)
	}

	e := d.Extraction
	v.SetDefault("scoring.extraction.any_contacts", e.AnyContacts)
	v.SetDefault("scoring.extraction.any_decision_makers", e.AnyDecisionMakers)
	v.SetDefault("scoring.extraction.many_decision_makers", e.ManyDecisionMakers)
	v.SetDefault("scoring.extraction.complete_contact", e.CompleteContact)
	v.SetDefault("scoring.extraction.many_sources", e.ManySources)
}

// Validate checks the settings the given command mode depends on. Modes are
// "run", "serve" and "sources".
func (c *Config) Validate(mode string) error {
	switch mode {
	case "run", "serve":
		if err := c.validateCampaign(); err != nil {
			return err
		}
		if mode != "serve" {
			return nil
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return &model.ConfigurationError{Field: "server.port", Reason: "must be between 1 and 65535"}
		}
		if t := c.Monitoring.FailureRateThreshold; t < 0 || t > 1 {
			return &model.ConfigurationError{Field: "monitoring.failure_rate_threshold", Reason: "must be between 0 and 1"}
		}
		return nil
	case "sources":
		return c.RateLimits.Validate()
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}
}

func (c *Config) validateCampaign() error {
	if c.Campaign.DefaultLimit <= 0 {
		return &model.ConfigurationError{Field: "campaign.default_limit", Reason: "must be greater than zero"}
	}
	if len(c.Sources.Discovery) == 0 {
		return &model.ConfigurationError{Field: "sources.discovery", Reason: "must name at least one adapter"}
	}
	if fr := c.Sources.Sim.FailureRate; fr < 0 || fr > 1 {
		return &model.ConfigurationError{Field: "sources.sim.failure_rate", Reason: "must be between 0 and 1"}
	}
	if c.Sources.Sim.LatencyMS < 0 {
		return &model.ConfigurationError{Field: "sources.sim.latency_ms", Reason: "must not be negative"}
	}
	if err := c.RateLimits.Validate(); err != nil {
		return err
	}
	if err := c.Scoring.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if _, err := report.New(c.Export); err != nil {
		return err
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
