package pipeline

import (
	"time"

	"github.com/wonny/ecorank/backend/internal/charts"
	"github.com/wonny/ecorank/backend/internal/filter"
	"github.com/wonny/ecorank/backend/internal/render"
	"github.com/wonny/ecorank/backend/internal/supplier"
)

// Status is the pipeline state
type Status string

const (
	StatusIdle       Status = "idle"
	StatusLoading    Status = "loading"
	StatusReady      Status = "ready"
	StatusFetchError Status = "fetch_error"
)

// ChartsState is the chart sub-state of StatusReady, independent of the card outcome
type ChartsState string

const (
	ChartsOK    ChartsState = "charts_ok"
	ChartsError ChartsState = "charts_error"
)

// ChartFailureMessage replaces a chart that could not be derived
const ChartFailureMessage = "Unable to load the chart"

// SurfaceView is one chart surface. Chart is nil when derivation failed.
type SurfaceView struct {
	Surface charts.SurfaceID
	Title   string
	Chart   *charts.Chart
	Error   string
}

// View is a consistent snapshot of the dashboard
type View struct {
	Seq       uint64
	Status    Status
	Charts    ChartsState // set only when Status is ready
	Spec      filter.Spec
	Total     int // records fetched before filtering
	Suppliers []supplier.Normalized
	Grid      render.Grid
	Surfaces  []SurfaceView
	Error     string // page-level message in fetch_error
	Detail    string
	UpdatedAt time.Time
}

// Event is published on every state change
type Event struct {
	Seq      uint64         `json:"seq"`
	Status   Status         `json:"status"`
	Charts   ChartsState    `json:"charts,omitempty"`
	Matched  int            `json:"matched"`
	Outcome  render.Outcome `json:"outcome"`
	Error    string         `json:"error,omitempty"`
	Occurred time.Time      `json:"occurred_at"`
}

func (v View) event() Event {
	return Event{
		Seq:      v.Seq,
		Status:   v.Status,
		Charts:   v.Charts,
		Matched:  len(v.Suppliers),
		Outcome:  v.Grid.Outcome,
		Error:    v.Error,
		Occurred: time.Now(),
	}
}
