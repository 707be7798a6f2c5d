package pipeline

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/report"
	"github.com/sells-group/lead-cli/internal/source/sim"
)

// steppingClock advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}

func TestRun_SimulatedSourcesConcurrentCampaigns(t *testing.T) {
	adapters := simAdapters(t, sim.Config{Seed: 3})
	q := model.Query{Industry: "coffee roasters", Location: "Portland", Limit: 50}

	const campaigns = 4
	results := make([]*model.CampaignResult, campaigns)
	var wg sync.WaitGroup
	for i := range campaigns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o := New(DefaultConfig(), adapters, WithCoordinator(testCoordinator()))
			r, err := o.Run(context.Background(), q)
			assert.NoError(t, err)
			results[i] = r
		}()
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		require.Len(t, r.Entities, 9)
		assert.Equal(t, "Sample Coffee Roasters Business 1", r.Entities[0].Name)
		assert.Equal(t, "Yelp Coffee Roasters Spot 1", r.Entities[5].Name)
		assert.Equal(t, "YP Coffee Roasters Co. 1", r.Entities[8].Name)
		assert.Equal(t, map[string]int{"google_maps": 5, "yelp": 3, "yellow_pages": 1}, r.Stats.BySource)
		assert.False(t, r.CompletedAt.IsZero())

		for i := range r.Entities {
			assert.Equal(t, results[0].Entities[i].ID, r.Entities[i].ID)
			assert.Equal(t, results[0].Entities[i].QualityScore, r.Entities[i].QualityScore)
		}
	}
}

func TestRun_ReportRecordsCompletionTime(t *testing.T) {
	w, err := report.New(report.Config{Dir: t.TempDir(), Formats: []string{"txt", "sqlite"}})
	require.NoError(t, err)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	o := New(DefaultConfig(), simAdapters(t, sim.Config{Seed: 5}),
		WithCoordinator(testCoordinator()),
		WithReportWriter(w),
		WithNow(steppingClock(start, 2*time.Second)),
	)

	result, err := o.Run(context.Background(), dentalQuery)
	require.NoError(t, err)
	assert.Equal(t, start, result.StartedAt)
	assert.Equal(t, start.Add(2*time.Second), result.CompletedAt)
	require.NotEmpty(t, result.ExportPath)

	text, err := os.ReadFile(filepath.Join(result.ExportPath, "summary.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "Duration:  2s")

	db, err := sql.Open("sqlite", filepath.Join(result.ExportPath, "campaign.db"))
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	var completed sql.NullString
	require.NoError(t, db.QueryRowContext(context.Background(),
		`SELECT completed_at FROM campaigns WHERE run_id = ?`, result.RunID).Scan(&completed))
	assert.True(t, completed.Valid)
	assert.Equal(t, "2026-03-02T09:00:02Z", completed.String)
}
