// Package pipeline runs fetch → normalize → filter → render for the dashboard
// and owns its state machine.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wonny/ecorank/backend/internal/charts"
	"github.com/wonny/ecorank/backend/internal/filter"
	"github.com/wonny/ecorank/backend/internal/render"
	"github.com/wonny/ecorank/backend/internal/source"
	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

// ErrSuperseded is returned when a newer request was issued while this one
// was in flight. Its response is discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

// FetchFailureMessage is the page-level message of the fetch_error state
const FetchFailureMessage = "Unable to load recommendations. Please try again later."

// Recommender fetches the supplier list
type Recommender interface {
	FetchRecommendations(ctx context.Context, count int) (source.RecommendationsResponse, error)
}

// Orchestrator sequences dashboard requests. Every Apply gets a sequence
// number; only the response of the latest one is installed.
// ⭐ SSOT: chart surfaces are only replaced from here
type Orchestrator struct {
	mu         sync.Mutex
	source     Recommender
	normalizer *supplier.Normalizer
	renderer   *render.CardRenderer
	registry   *charts.Registry
	logger     *logger.Logger
	count      int
	now        func() time.Time

	seq         uint64
	spec        filter.Spec
	view        View
	subscribers map[int]func(Event)
	nextSub     int
}

// New creates an idle orchestrator fetching count records per request
func New(src Recommender, normalizer *supplier.Normalizer, renderer *render.CardRenderer,
	registry *charts.Registry, count int, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		source:      src,
		normalizer:  normalizer,
		renderer:    renderer,
		registry:    registry,
		logger:      log.WithComponent("pipeline"),
		count:       count,
		now:         time.Now,
		view:        View{Status: StatusIdle},
		subscribers: make(map[int]func(Event)),
	}
}

// Apply fetches a fresh list and renders it through spec.
// It returns the view installed by this call, or ErrSuperseded with the
// current view when a newer call won the race. A fetch failure returns the
// fetch_error view together with the *source.FetchError.
func (o *Orchestrator) Apply(ctx context.Context, spec filter.Spec) (View, error) {
	seq := o.begin(spec)

	resp, err := o.source.FetchRecommendations(ctx, o.count)
	if err != nil {
		return o.fail(seq, spec, err)
	}

	normalized := o.normalizer.NormalizeAll(resp.Recommendations)
	filtered := filter.Apply(normalized, spec)
	grid := o.renderer.Render(filtered)
	derived := o.derive(filtered)

	return o.install(seq, spec, len(normalized), filtered, grid, derived)
}

// Refresh re-runs the last applied filter
func (o *Orchestrator) Refresh(ctx context.Context) (View, error) {
	o.mu.Lock()
	spec := o.spec
	o.mu.Unlock()

	return o.Apply(ctx, spec)
}

// View returns the current view
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.view
}

// Subscribe registers fn for state events. fn runs on the goroutine that
// changed the state, after the lock is released, and must not block.
func (o *Orchestrator) Subscribe(fn func(Event)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSub
	o.nextSub++
	o.subscribers[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subscribers, id)
	}
}

func (o *Orchestrator) begin(spec filter.Spec) uint64 {
	o.mu.Lock()
	o.seq++
	seq := o.seq
	o.spec = spec

	// Previous content stays visible underneath the loading indicator
	o.view.Seq = seq
	o.view.Status = StatusLoading
	o.view.Charts = ""
	o.view.Spec = spec
	event := o.view.event()
	subs := o.subscribersLocked()
	o.mu.Unlock()

	o.logger.WithFields(map[string]interface{}{
		"seq":  seq,
		"spec": spec.Query().Encode(),
	}).Debug("Pipeline request started")

	notify(subs, event)
	return seq
}

func (o *Orchestrator) fail(seq uint64, spec filter.Spec, err error) (View, error) {
	o.mu.Lock()
	if seq != o.seq {
		view := o.view
		o.mu.Unlock()
		o.logSuperseded(seq)
		return view, ErrSuperseded
	}

	o.view = View{
		Seq:       seq,
		Status:    StatusFetchError,
		Spec:      spec,
		Error:     FetchFailureMessage,
		Detail:    err.Error(),
		UpdatedAt: o.now(),
	}
	view := o.view
	subs := o.subscribersLocked()
	o.mu.Unlock()

	o.logger.WithError(err).WithField("seq", seq).Error("Failed to load recommendations")
	notify(subs, view.event())
	return view, err
}

type derivation struct {
	surface charts.SurfaceID
	config  charts.Config
	err     error
}

// derive computes every surface independently; one failing surface does
// not prevent the others
func (o *Orchestrator) derive(records []supplier.Normalized) []derivation {
	out := make([]derivation, 0, len(charts.Surfaces()))
	for _, surface := range charts.Surfaces() {
		cfg, err := charts.Derive(surface, records)
		out = append(out, derivation{surface: surface, config: cfg, err: err})
	}
	return out
}

func (o *Orchestrator) install(seq uint64, spec filter.Spec, total int, records []supplier.Normalized,
	grid render.Grid, derived []derivation) (View, error) {
	o.mu.Lock()
	if seq != o.seq {
		view := o.view
		o.mu.Unlock()
		o.logSuperseded(seq)
		return view, ErrSuperseded
	}

	chartsState := ChartsOK
	surfaces := make([]SurfaceView, 0, len(derived))
	for _, d := range derived {
		sv := SurfaceView{Surface: d.surface, Title: d.surface.Title()}
		if d.err != nil {
			chartsState = ChartsError
			o.registry.Clear(d.surface)
			sv.Error = ChartFailureMessage
			o.logger.WithError(d.err).WithField("surface", d.surface).Warn("Chart unavailable")
		} else {
			sv.Chart = o.registry.Replace(d.surface, d.config)
		}
		surfaces = append(surfaces, sv)
	}

	o.view = View{
		Seq:       seq,
		Status:    StatusReady,
		Charts:    chartsState,
		Spec:      spec,
		Total:     total,
		Suppliers: records,
		Grid:      grid,
		Surfaces:  surfaces,
		UpdatedAt: o.now(),
	}
	view := o.view
	subs := o.subscribersLocked()
	o.mu.Unlock()

	o.logger.WithFields(map[string]interface{}{
		"seq":      seq,
		"total":    total,
		"matched":  len(records),
		"rendered": grid.Outcome.Rendered,
		"errors":   grid.Outcome.Errors,
		"charts":   chartsState,
	}).Info("Pipeline completed")

	notify(subs, view.event())
	return view, nil
}

func (o *Orchestrator) logSuperseded(seq uint64) {
	o.logger.WithField("seq", seq).Warn("Discarding stale recommendations response")
}

func (o *Orchestrator) subscribersLocked() []func(Event) {
	subs := make([]func(Event), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Event), event Event) {
	for _, fn := range subs {
		fn(event)
	}
}
