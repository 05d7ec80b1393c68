// Package jobs holds the dashboard's scheduled jobs.
package jobs

import (
	"context"
	"errors"

	"github.com/wonny/ecorank/backend/internal/pipeline"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

// Refresher re-runs the dashboard pipeline with its last filter
type Refresher interface {
	Refresh(ctx context.Context) (pipeline.View, error)
}

// RefreshJob periodically refetches recommendations so the dashboard
// follows upstream changes without a user action
type RefreshJob struct {
	pipeline Refresher
	schedule string
	logger   *logger.Logger
}

// NewRefreshJob creates a refresh job on the given cron schedule
func NewRefreshJob(p Refresher, schedule string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		pipeline: p,
		schedule: schedule,
		logger:   log.WithComponent("refresh_job"),
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "dashboard_refresh"
}

// Schedule returns the cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run refreshes once. A superseded refresh is not a failure: a user
// request simply won the race.
func (j *RefreshJob) Run(ctx context.Context) error {
	view, err := j.pipeline.Refresh(ctx)
	if errors.Is(err, pipeline.ErrSuperseded) {
		j.logger.Debug("Refresh superseded by a newer request")
		return nil
	}
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"seq":     view.Seq,
		"matched": len(view.Suppliers),
		"charts":  view.Charts,
	}).Debug("Dashboard refreshed")
	return nil
}
