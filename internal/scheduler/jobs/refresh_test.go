package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/ecorank/backend/internal/pipeline"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

type refresherFunc func(ctx context.Context) (pipeline.View, error)

func (f refresherFunc) Refresh(ctx context.Context) (pipeline.View, error) { return f(ctx) }

func TestRefreshJob(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"success", nil, false},
		{"superseded", pipeline.ErrSuperseded, false},
		{"fetch failure", errors.New("upstream unreachable"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewRefreshJob(refresherFunc(func(context.Context) (pipeline.View, error) {
				return pipeline.View{Status: pipeline.StatusReady}, tt.err
			}), "0 */15 * * * *", logger.Nop())

			err := job.Run(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, "dashboard_refresh", job.Name())
			assert.Equal(t, "0 */15 * * * *", job.Schedule())
		})
	}
}
