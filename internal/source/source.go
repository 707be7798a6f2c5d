// Package source defines the adapter seam between the pipeline and the data
// sources it queries.
package source

import (
	"context"

	"github.com/sells-group/lead-cli/internal/model"
)

// Adapter fetches records for one stage from one source. Returning zero
// records with a nil error is a legitimate empty answer.
type Adapter interface {
	// Name is the source name used for rate limiting and provenance.
	Name() string
	// Stage is the pipeline stage the adapter serves.
	Stage() model.Stage
	// MaxRecords is the most records a single Fetch returns.
	MaxRecords() int
	// Fetch queries the source. Implementations cap their own output at
	// min(MaxRecords, req.Limit).
	Fetch(ctx context.Context, req Request) ([]model.Record, error)
}

// Request is what an adapter is asked for. Entity is nil during discovery
// and set to the entity being processed in later stages.
type Request struct {
	Query  model.Query
	Limit  int
	Entity *model.Entity
}

// Cap returns the number of records an adapter may return for req.
func Cap(a Adapter, req Request) int {
	n := a.MaxRecords()
	if req.Limit > 0 && req.Limit < n {
		n = req.Limit
	}
	return max(n, 0)
}
