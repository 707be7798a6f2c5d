package ratelimit

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-cli/internal/model"
)

// Built-in default bucket for sources missing from the table.
const (
	DefaultCapacity     = 60
	DefaultRefillPerSec = 1.0
)

// BucketConfig sizes one token bucket.
type BucketConfig struct {
	Capacity     int     `yaml:"capacity" mapstructure:"capacity"`
	RefillPerSec float64 `yaml:"refill_per_sec" mapstructure:"refill_per_sec"`
}

// Table is the per-source rate-limit configuration.
type Table struct {
	Default BucketConfig            `yaml:"default" mapstructure:"default"`
	Sources map[string]BucketConfig `yaml:"sources" mapstructure:"sources"`
}

// DefaultTable returns the built-in table. Discovery sources that throttle
// aggressively get slower refill rates.
func DefaultTable() Table {
	return Table{
		Default: BucketConfig{Capacity: DefaultCapacity, RefillPerSec: DefaultRefillPerSec},
		Sources: map[string]BucketConfig{
			"google_maps": {Capacity: 5, RefillPerSec: 0.5},
			"yelp":        {Capacity: 5, RefillPerSec: 1},
		},
	}
}

// LoadTable reads a rate-limit table from a YAML file with a top-level
// "rate_limits" key.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, eris.Wrapf(err, "ratelimit: read table %s", path)
	}

	var wrapper struct {
		RateLimits Table `yaml:"rate_limits"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Table{}, eris.Wrap(err, "ratelimit: parse table")
	}

	t := wrapper.RateLimits.withDefaults()
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate rejects non-positive capacities or refill rates.
func (t Table) Validate() error {
	if err := validateBucket("rate_limits.default", t.Default); err != nil {
		return err
	}
	for name, bc := range t.Sources {
		if err := validateBucket("rate_limits.sources."+name, bc); err != nil {
			return err
		}
	}
	return nil
}

// withDefaults fills a zero default bucket with the built-in one.
func (t Table) withDefaults() Table {
	if t.Default.Capacity == 0 && t.Default.RefillPerSec == 0 {
		t.Default = BucketConfig{Capacity: DefaultCapacity, RefillPerSec: DefaultRefillPerSec}
	}
	if t.Sources == nil {
		t.Sources = map[string]BucketConfig{}
	}
	return t
}

func validateBucket(field string, bc BucketConfig) error {
	if bc.Capacity <= 0 {
		return &model.ConfigurationError{Field: field + ".capacity", Reason: "must be greater than zero"}
	}
	if bc.RefillPerSec <= 0 {
		return &model.ConfigurationError{Field: field + ".refill_per_sec", Reason: "must be greater than zero"}
	}
	return nil
}
