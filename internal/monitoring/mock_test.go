package monitoring

import "github.com/sells-group/lead-cli/internal/model"

type stubResults struct {
	results []*model.CampaignResult
}

func (s *stubResults) List() []*model.CampaignResult { return s.results }

type stubCircuits struct {
	open []string
}

func (s *stubCircuits) Open() []string { return s.open }
