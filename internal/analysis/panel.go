// Package analysis drives the on-demand narrative panel: open, fetch once,
// show the narrative with the podium, or a single error message.
package analysis

import (
	"context"
	"html/template"
	"sync"

	"github.com/wonny/ecorank/backend/internal/render"
	"github.com/wonny/ecorank/backend/internal/source"
	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

// MaxTopSuppliers is the podium size
const MaxTopSuppliers = 3

// FailureMessage is shown when the analysis cannot be loaded
const FailureMessage = "Unable to load the AI analysis. Please try again later."

// State of the panel
type State string

const (
	StateClosed  State = "closed"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// Fetcher loads the analysis payload
type Fetcher interface {
	FetchAnalysis(ctx context.Context) (source.AnalysisResponse, error)
}

// TopCard is one podium entry
type TopCard struct {
	Rank     int
	Medal    string
	Supplier supplier.Normalized
	HTML     template.HTML
}

// View is what the panel displays
type View struct {
	State     State
	Narrative template.HTML
	Top       []TopCard
	Error     string
}

// Panel holds the analysis modal state. Each Open fetches once; there is no
// automatic retry.
type Panel struct {
	mu         sync.Mutex
	fetcher    Fetcher
	normalizer *supplier.Normalizer
	logger     *logger.Logger

	view View
	seq  uint64
}

// NewPanel creates a closed panel
func NewPanel(fetcher Fetcher, normalizer *supplier.Normalizer, log *logger.Logger) *Panel {
	return &Panel{
		fetcher:    fetcher,
		normalizer: normalizer,
		logger:     log.WithComponent("analysis"),
		view:       View{State: StateClosed},
	}
}

// Open shows the loading state, fetches the analysis and returns the
// resulting view. A failure leaves the panel open with one error message;
// opening again retries.
func (p *Panel) Open(ctx context.Context) View {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.view = View{State: StateLoading}
	p.mu.Unlock()

	resp, err := p.fetcher.FetchAnalysis(ctx)

	var next View
	if err != nil {
		p.logger.WithError(err).Error("Failed to load analysis")
		next = View{State: StateFailed, Error: FailureMessage}
	} else {
		next = p.build(resp)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.seq {
		// Closed or reopened while the fetch was in flight
		p.logger.WithField("seq", seq).Debug("Discarding superseded analysis response")
		return p.view
	}
	p.view = next
	return next
}

// Close hides the panel and drops any in-flight result
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	p.view = View{State: StateClosed}
}

// View returns the current view
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.view
}

func (p *Panel) build(resp source.AnalysisResponse) View {
	narrative, err := RenderMarkdown(resp.Analysis)
	if err != nil {
		p.logger.WithError(err).Error("Failed to render analysis narrative")
		return View{State: StateFailed, Error: FailureMessage}
	}

	records := resp.TopSuppliers
	if len(records) > MaxTopSuppliers {
		records = records[:MaxTopSuppliers]
	}

	top := make([]TopCard, 0, len(records))
	for i, rec := range records {
		norm := p.normalizer.Normalize(rec, i)
		rank := i + 1
		html, err := render.TopCard(norm, rank)
		if err != nil {
			p.logger.WithError(err).WithField("rank", rank).Warn("Failed to render podium card")
			continue
		}
		top = append(top, TopCard{
			Rank:     rank,
			Medal:    render.Medal(rank),
			Supplier: norm,
			HTML:     html,
		})
	}

	return View{State: StateLoaded, Narrative: narrative, Top: top}
}
