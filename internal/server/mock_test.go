package server

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-cli/internal/model"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, q model.Query) (*model.CampaignResult, error) {
	args := m.Called(ctx, q)
	r, _ := args.Get(0).(*model.CampaignResult)
	return r, args.Error(1)
}
