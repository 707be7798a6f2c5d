package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/source"
)

// --- Report writer mock ---

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Write(ctx context.Context, r *model.CampaignResult) (string, error) {
	args := m.Called(ctx, r)
	return args.String(0), args.Error(1)
}

// --- Adapter stub ---

type funcAdapter struct {
	name  string
	stage model.Stage
	max   int
	fetch func(ctx context.Context, req source.Request) ([]model.Record, error)
}

func (f *funcAdapter) Name() string       { return f.name }
func (f *funcAdapter) Stage() model.Stage { return f.stage }
func (f *funcAdapter) MaxRecords() int    { return f.max }

func (f *funcAdapter) Fetch(ctx context.Context, req source.Request) ([]model.Record, error) {
	return f.fetch(ctx, req)
}

func staticDiscovery(name string, businesses ...string) *funcAdapter {
	return &funcAdapter{name: name, stage: model.StageDiscovery, max: 10, fetch: func(_ context.Context, req source.Request) ([]model.Record, error) {
		var out []model.Record
		for _, b := range businesses {
			out = append(out, model.Record{
				Kind:       model.KindBusiness,
				Confidence: 0.7,
				Fields:     map[string]any{model.FieldName: b, model.FieldWebsite: "https://example.com"},
			})
		}
		if req.Limit > 0 && len(out) > req.Limit {
			out = out[:req.Limit]
		}
		return out, nil
	}}
}

func failing(name string, stage model.Stage, err error) *funcAdapter {
	return &funcAdapter{name: name, stage: stage, max: 10, fetch: func(context.Context, source.Request) ([]model.Record, error) {
		return nil, err
	}}
}
