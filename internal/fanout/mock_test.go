package fanout

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/source"
)

type fakeAdapter struct {
	name    string
	delay   time.Duration
	records []model.Record
	// errs are returned by successive calls; once exhausted, records are
	// returned.
	errs  []error
	panic any
	block bool
	// shared returns records itself instead of a copy.
	shared bool

	calls atomic.Int32
}

func (f *fakeAdapter) Name() string       { return f.name }
func (f *fakeAdapter) Stage() model.Stage { return model.StageDiscovery }
func (f *fakeAdapter) MaxRecords() int    { return 10 }

func (f *fakeAdapter) Fetch(ctx context.Context, _ source.Request) ([]model.Record, error) {
	n := int(f.calls.Add(1))
	if f.panic != nil {
		panic(f.panic)
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if n <= len(f.errs) {
		return nil, f.errs[n-1]
	}
	if f.shared {
		return f.records, nil
	}
	out := make([]model.Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func rec(name string, conf float64) model.Record {
	return model.Record{Kind: model.KindBusiness, Confidence: conf, Fields: map[string]any{model.FieldName: name}}
}

func names(recs []model.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.String(model.FieldName)
	}
	return out
}
