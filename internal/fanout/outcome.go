package fanout

import (
	"github.com/sells-group/lead-cli/internal/model"
)

// Outcome is the merged result of one fan-out.
type Outcome struct {
	Stage     model.Stage
	Records   []model.Record
	Failures  []*model.AdapterError
	Attempted int
}

// AllFailed reports whether every attempted adapter failed.
func (o *Outcome) AllFailed() bool {
	return o.Attempted > 0 && len(o.Failures) == o.Attempted
}

// Empty reports whether no records were collected.
func (o *Outcome) Empty() bool {
	return len(o.Records) == 0
}

// Err returns a StageEmptyError when nothing was collected, nil otherwise.
func (o *Outcome) Err() error {
	if !o.Empty() {
		return nil
	}
	return &model.StageEmptyError{Stage: o.Stage, Attempted: o.Attempted, Failed: len(o.Failures)}
}

// FailureReports converts failures to their diagnostic form.
func (o *Outcome) FailureReports() []model.AdapterFailure {
	if len(o.Failures) == 0 {
		return nil
	}
	out := make([]model.AdapterFailure, len(o.Failures))
	for i, f := range o.Failures {
		out[i] = model.AdapterFailure{Source: f.Source, Error: f.Err.Error()}
	}
	return out
}

// Sources returns the distinct sources that contributed records, in first
// appearance order.
func (o *Outcome) Sources() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range o.Records {
		if _, ok := seen[r.Source]; ok {
			continue
		}
		seen[r.Source] = struct{}{}
		out = append(out, r.Source)
	}
	return out
}
