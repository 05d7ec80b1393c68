package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/ecorank/backend/internal/scheduler"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

type countingJob struct {
	ran chan struct{}
}

func (j *countingJob) Name() string     { return "dashboard_refresh" }
func (j *countingJob) Schedule() string { return "@hourly" }
func (j *countingJob) Run(context.Context) error {
	j.ran <- struct{}{}
	return nil
}

func TestJobsHandler(t *testing.T) {
	s := scheduler.New(logger.Nop(), time.Second)
	job := &countingJob{ran: make(chan struct{}, 1)}
	require.NoError(t, s.AddJob(job))

	h := NewJobsHandler(s, logger.Nop())
	r := mux.NewRouter()
	r.HandleFunc("/api/jobs", h.List).Methods(http.MethodGet)
	r.HandleFunc("/api/jobs/{name}/run", h.Run).Methods(http.MethodPost)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/jobs/dashboard_refresh/run", nil))
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case <-job.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not triggered")
	}

	// History is written after Run returns
	require.Eventually(t, func() bool {
		history, err := s.History("dashboard_refresh")
		return err == nil && len(history) == 1
	}, 2*time.Second, 10*time.Millisecond)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats []scheduler.JobStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, "dashboard_refresh", stats[0].JobName)
	assert.Equal(t, 1, stats[0].TotalRuns)
	assert.Equal(t, 1, stats[0].SuccessCount)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/jobs/unknown/run", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
