package ratelimit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/model"
)

func writeTable(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rate_limits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTable(t *testing.T) {
	path := writeTable(t, `
rate_limits:
  default:
    capacity: 30
    refill_per_sec: 2
  sources:
    google_maps:
      capacity: 2
      refill_per_sec: 0.5
`)

	tbl, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, BucketConfig{Capacity: 30, RefillPerSec: 2}, tbl.Default)
	assert.Equal(t, BucketConfig{Capacity: 2, RefillPerSec: 0.5}, tbl.Sources["google_maps"])
}

func TestLoadTable_MissingDefaultUsesBuiltIn(t *testing.T) {
	path := writeTable(t, `
rate_limits:
  sources:
    yelp:
      capacity: 3
      refill_per_sec: 1
`)

	tbl, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, tbl.Default.Capacity)
	assert.InDelta(t, DefaultRefillPerSec, tbl.Default.RefillPerSec, 0.0001)
}

func TestLoadTable_InvalidRate(t *testing.T) {
	path := writeTable(t, `
rate_limits:
  sources:
    yelp:
      capacity: 3
      refill_per_sec: -1
`)

	_, err := LoadTable(path)
	require.Error(t, err)
	assert.True(t, model.IsConfigurationError(err))
}

func TestLoadTable_MissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ratelimit: read table")
}

func TestLoadTable_BadYAML(t *testing.T) {
	path := writeTable(t, "rate_limits: [")
	_, err := LoadTable(path)
	require.Error(t, err)
}
