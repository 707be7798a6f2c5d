package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sells-group/lead-cli/internal/fanout"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/source"
	"github.com/sells-group/lead-cli/internal/source/sim"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var dentalQuery = model.Query{Industry: "dental", Location: "Austin, TX", Limit: 2}

func testCoordinator() *fanout.Coordinator {
	return fanout.New(fanout.WithRetry(resilience.RetryPolicy{
		Attempts:  2,
		BaseDelay: time.Millisecond,
		MaxDelay:  2 * time.Millisecond,
		Factor:    2,
	}))
}

func simAdapters(t *testing.T, cfg sim.Config) Adapters {
	t.Helper()
	cat := source.NewCatalog()
	sim.Register(cat, cfg)
	a, err := BuildAdapters(cat, SourceLists{
		Discovery:  []string{"google_maps", "yelp", "yellow_pages"},
		Enrichment: []string{"business_details", "social_media", "news_api", "directories"},
		Contacts:   []string{"website", "linkedin", "better_business_bureau", "news_article"},
	}, nil)
	require.NoError(t, err)
	return a
}

func TestRun_EndToEndWithLimit(t *testing.T) {
	w := &mockWriter{}
	w.On("Write", mock.Anything, mock.AnythingOfType("*model.CampaignResult")).Return("/tmp/exports/dental", nil).Once()

	o := New(DefaultConfig(), simAdapters(t, sim.Config{Seed: 7}),
		WithCoordinator(testCoordinator()),
		WithReportWriter(w),
	)

	result, err := o.Run(context.Background(), dentalQuery)
	require.NoError(t, err)
	w.AssertExpectations(t)

	assert.Equal(t, model.CampaignStatusDone, result.Status)
	assert.Equal(t, model.CampaignStatusDone, o.Status())
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "/tmp/exports/dental", result.ExportPath)
	require.Len(t, result.Entities, 2)

	// First-seen order: google_maps is the first adapter.
	assert.Equal(t, "Sample Dental Business 1", result.Entities[0].Name)
	assert.Equal(t, "Sample Dental Business 2", result.Entities[1].Name)

	for _, e := range result.Entities {
		assert.GreaterOrEqual(t, e.QualityScore, 0.0)
		assert.LessOrEqual(t, e.QualityScore, 1.0)
		assert.GreaterOrEqual(t, e.Contacts.ExtractionScore, 0.0)
		assert.LessOrEqual(t, e.Contacts.ExtractionScore, 1.0)
		assert.NotEmpty(t, e.Enrichment.Records, "every entity gets business details")
		for _, r := range append(append([]model.Record{}, e.Discovery.Records...), e.Enrichment.Records...) {
			assert.NotEmpty(t, r.Source)
			assert.Equal(t, e.ID, r.EntityID)
		}
		assert.NotEmpty(t, e.Contacts.All, "every simulated business has a website")
		for i := 1; i < len(e.Contacts.DecisionMakers); i++ {
			assert.GreaterOrEqual(t, e.Contacts.DecisionMakers[i-1].DecisionMakerScore, e.Contacts.DecisionMakers[i].DecisionMakerScore)
		}
		assert.Empty(t, e.Errors)
	}

	require.Len(t, result.Stages, 3)
	assert.Equal(t, model.StageDiscovery, result.Stages[0].Stage)
	// Each discovery adapter is capped at the query limit.
	assert.Equal(t, 6, result.Stages[0].Records)
	assert.Equal(t, 2, result.Stages[0].Survivors)
	assert.Equal(t, 2, result.Stats.Entities)
	assert.Equal(t, map[string]int{"google_maps": 2}, result.Stats.BySource)
	assert.False(t, result.CompletedAt.Before(result.StartedAt))
}

func TestRun_Deterministic(t *testing.T) {
	run := func() *model.CampaignResult {
		o := New(DefaultConfig(), simAdapters(t, sim.Config{Seed: 99}), WithCoordinator(testCoordinator()))
		r, err := o.Run(context.Background(), model.Query{Industry: "plumbing", Location: "Denver", Limit: 4})
		require.NoError(t, err)
		return r
	}
	a, b := run(), run()
	require.Len(t, b.Entities, len(a.Entities))
	for i := range a.Entities {
		assert.Equal(t, a.Entities[i].ID, b.Entities[i].ID)
		assert.Equal(t, a.Entities[i].QualityScore, b.Entities[i].QualityScore)
		assert.Equal(t, a.Entities[i].Contacts, b.Entities[i].Contacts)
	}
}

func TestRun_DiscoveryDedupAcrossSources(t *testing.T) {
	o := New(DefaultConfig(), simAdapters(t, sim.Config{Seed: 1}), WithCoordinator(testCoordinator()))
	result, err := o.Run(context.Background(), model.Query{Industry: "dental", Location: "Austin", Limit: 50})
	require.NoError(t, err)

	// 5 + 3 + 2 raw, one Yellow Pages listing repeats a Google Maps name.
	assert.Equal(t, 10, result.Stages[0].Records)
	assert.Equal(t, 9, result.Stages[0].Survivors)
	assert.Len(t, result.Entities, 9)
	assert.Equal(t, map[string]int{"google_maps": 5, "yelp": 3, "yellow_pages": 1}, result.Stats.BySource)
}

func TestRun_AllDiscoveryAdaptersFail(t *testing.T) {
	w := &mockWriter{}
	o := New(DefaultConfig(), Adapters{Discovery: []source.Adapter{
		failing("google_maps", model.StageDiscovery, errors.New("quota")),
		failing("yelp", model.StageDiscovery, errors.New("down")),
	}}, WithCoordinator(testCoordinator()), WithReportWriter(w))

	result, err := o.Run(context.Background(), dentalQuery)

	var se *model.StageEmptyError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Failed)
	require.NotNil(t, result)
	assert.Equal(t, model.CampaignStatusFailed, result.Status)
	assert.Equal(t, "no results", result.Reason)
	assert.Equal(t, model.CampaignStatusFailed, o.Status())
	assert.Equal(t, 2, result.Stats.AdapterFailures)
	w.AssertNotCalled(t, "Write", mock.Anything, mock.Anything)
}

func TestRun_EmptyDiscovery(t *testing.T) {
	empty := staticDiscovery("google_maps")

	o := New(DefaultConfig(), Adapters{Discovery: []source.Adapter{empty}}, WithCoordinator(testCoordinator()))
	_, err := o.Run(context.Background(), dentalQuery)
	assert.True(t, model.IsStageEmpty(err))

	cfg := DefaultConfig()
	cfg.AllowEmpty = true
	o = New(cfg, Adapters{Discovery: []source.Adapter{empty}}, WithCoordinator(testCoordinator()))
	result, err := o.Run(context.Background(), dentalQuery)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusDone, result.Status)
	assert.Empty(t, result.Entities)
}

func TestRun_PartialDiscoveryFailureStillCompletes(t *testing.T) {
	o := New(DefaultConfig(), Adapters{Discovery: []source.Adapter{
		staticDiscovery("google_maps", "Acme Dental"),
		failing("yelp", model.StageDiscovery, errors.New("down")),
		staticDiscovery("yellow_pages", "Bright Smiles"),
	}}, WithCoordinator(testCoordinator()))

	result, err := o.Run(context.Background(), dentalQuery)
	require.NoError(t, err)
	require.Len(t, result.Entities, 2)
	assert.Equal(t, "google_maps:1", result.Entities[0].ID)
	assert.Equal(t, "yellow_pages:2", result.Entities[1].ID)
	require.Len(t, result.Stages[0].Failures, 1)
	assert.Equal(t, "yelp", result.Stages[0].Failures[0].Source)
}

func TestRun_InvalidQuery(t *testing.T) {
	o := New(DefaultConfig(), Adapters{Discovery: []source.Adapter{staticDiscovery("a", "x")}})
	result, err := o.Run(context.Background(), model.Query{Industry: "dental", Location: "Austin", Limit: 0})
	assert.Nil(t, result)
	assert.True(t, model.IsConfigurationError(err))
	assert.Equal(t, model.CampaignStatusIdle, o.Status())
}

func TestRun_NoDiscoveryAdapters(t *testing.T) {
	o := New(DefaultConfig(), Adapters{})
	_, err := o.Run(context.Background(), dentalQuery)
	var ce *model.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "sources.discovery", ce.Field)
}

func TestRun_ExportFailure(t *testing.T) {
	w := &mockWriter{}
	w.On("Write", mock.Anything, mock.Anything).Return("", errors.New("disk full"))

	o := New(DefaultConfig(), Adapters{Discovery: []source.Adapter{staticDiscovery("google_maps", "Acme")}},
		WithCoordinator(testCoordinator()), WithReportWriter(w))

	result, err := o.Run(context.Background(), dentalQuery)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline: export")
	assert.Equal(t, "export failed", result.Reason)
	assert.Equal(t, model.CampaignStatusFailed, o.Status())
}

func TestRun_OwnRecordsStampedForeignDropped(t *testing.T) {
	enrich := &funcAdapter{name: "business_details", stage: model.StageEnrichment, max: 3,
		fetch: func(_ context.Context, req source.Request) ([]model.Record, error) {
			return []model.Record{
				{Kind: model.KindDetails, Fields: map[string]any{model.FieldDescription: "ours"}},
				{EntityID: "someone:else", Kind: model.KindDetails, Fields: map[string]any{model.FieldFoundedYear: 1990}},
				{EntityID: req.Entity.ID, Kind: model.KindDetails, Fields: map[string]any{model.FieldEmployeeCount: "11-50"}},
			}, nil
		}}

	o := New(DefaultConfig(), Adapters{
		Discovery:  []source.Adapter{staticDiscovery("google_maps", "Acme")},
		Enrichment: []source.Adapter{enrich},
	}, WithCoordinator(testCoordinator()))

	result, err := o.Run(context.Background(), dentalQuery)
	require.NoError(t, err)
	e := result.Entities[0]
	require.Len(t, e.Enrichment.Records, 2)
	for _, r := range e.Enrichment.Records {
		assert.Equal(t, e.ID, r.EntityID)
	}
	assert.Equal(t, "ours", e.Field(model.FieldDescription))
	assert.Nil(t, e.Field(model.FieldFoundedYear))
	// description .10 + employee count .05
	assert.InDelta(t, 0.15, e.QualityScore, 1e-9)
}

func TestRun_ContactsDedupedAndClassified(t *testing.T) {
	contacts := &funcAdapter{name: "website", stage: model.StageContacts, max: 5,
		fetch: func(context.Context, source.Request) ([]model.Record, error) {
			return []model.Record{
				{Kind: model.KindContact, Fields: map[string]any{model.FieldName: "Ann", model.FieldTitle: "Receptionist", model.FieldEmail: "info@acme.com"}},
				{Kind: model.KindContact, Fields: map[string]any{model.FieldName: "Bob", model.FieldTitle: "CEO", model.FieldEmail: "INFO@acme.com"}},
				{Kind: model.KindContact, Fields: map[string]any{model.FieldName: "Cat", model.FieldTitle: "Owner", model.FieldEmail: "cat@acme.com"}},
				{Kind: model.KindNewsArticle, Fields: map[string]any{model.FieldTitle: "not a person"}},
			}, nil
		}}

	o := New(DefaultConfig(), Adapters{
		Discovery: []source.Adapter{staticDiscovery("google_maps", "Acme")},
		Contacts:  []source.Adapter{contacts},
	}, WithCoordinator(testCoordinator()))

	result, err := o.Run(context.Background(), dentalQuery)
	require.NoError(t, err)
	set := result.Entities[0].Contacts
	require.Len(t, set.All, 2)
	assert.Equal(t, "Ann", set.All[0].Name)
	require.Len(t, set.DecisionMakers, 1)
	assert.Equal(t, "Cat", set.DecisionMakers[0].Name)
	assert.Equal(t, []string{"website"}, set.SourcesUsed)
	assert.Equal(t, 2, result.Stats.Contacts)
	assert.Equal(t, 1, result.Stats.DecisionMakers)
}

func TestRun_BoundsEntityConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	slow := &funcAdapter{name: "business_details", stage: model.StageEnrichment, max: 1,
		fetch: func(context.Context, source.Request) ([]model.Record, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(15 * time.Millisecond)
			inFlight.Add(-1)
			return nil, nil
		}}

	cfg := DefaultConfig()
	cfg.MaxConcurrentEntities = 2
	o := New(cfg, Adapters{
		Discovery:  []source.Adapter{staticDiscovery("google_maps", "A", "B", "C", "D", "E", "F")},
		Enrichment: []source.Adapter{slow},
	}, WithCoordinator(testCoordinator()))

	result, err := o.Run(context.Background(), model.Query{Industry: "x", Location: "y", Limit: 6})
	require.NoError(t, err)
	assert.Len(t, result.Entities, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(2), peak.Load())
}

func TestRun_CancelledDuringEnrichment(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelling := &funcAdapter{name: "social_media", stage: model.StageEnrichment, max: 1,
		fetch: func(ctx context.Context, _ source.Request) ([]model.Record, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}}

	o := New(DefaultConfig(), Adapters{
		Discovery:  []source.Adapter{staticDiscovery("google_maps", "Acme")},
		Enrichment: []source.Adapter{cancelling},
	}, WithCoordinator(testCoordinator()))

	result, err := o.Run(ctx, dentalQuery)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "cancelled", result.Reason)
	require.Len(t, result.Entities, 1)
	require.Len(t, result.Entities[0].Errors, 1)
	assert.Contains(t, result.Entities[0].Errors[0], "entity google_maps:1 (enrichment)")
}

func TestRun_RejectsConcurrentCampaign(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	blocking := &funcAdapter{name: "business_details", stage: model.StageEnrichment, max: 1,
		fetch: func(context.Context, source.Request) ([]model.Record, error) {
			once.Do(func() { close(started) })
			<-release
			return nil, nil
		}}

	o := New(DefaultConfig(), Adapters{
		Discovery:  []source.Adapter{staticDiscovery("google_maps", "Acme")},
		Enrichment: []source.Adapter{blocking},
	}, WithCoordinator(testCoordinator()))

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), dentalQuery)
		done <- err
	}()

	<-started
	assert.Equal(t, model.CampaignStatusEnriching, o.Status())
	_, err := o.Run(context.Background(), dentalQuery)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "campaign already enriching")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, model.CampaignStatusDone, o.Status())
}
