package handlers

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/ecorank/backend/internal/analysis"
	"github.com/wonny/ecorank/backend/internal/filter"
	"github.com/wonny/ecorank/backend/internal/pipeline"
	"github.com/wonny/ecorank/backend/internal/render"
	"github.com/wonny/ecorank/backend/internal/source"
	"github.com/wonny/ecorank/backend/internal/supplier"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// SupplierFetcher loads a single supplier for the details page
type SupplierFetcher interface {
	FetchSupplier(ctx context.Context, id string) (supplier.Record, error)
}

// DashboardHandler serves the recommendation page and its JSON API
type DashboardHandler struct {
	pipeline   *pipeline.Orchestrator
	panel      *analysis.Panel
	suppliers  SupplierFetcher
	normalizer *supplier.Normalizer
	presets    filter.Presets
	logger     *logger.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(p *pipeline.Orchestrator, panel *analysis.Panel, suppliers SupplierFetcher,
	normalizer *supplier.Normalizer, presets filter.Presets, log *logger.Logger) *DashboardHandler {
	if presets == nil {
		presets = filter.Presets{}
	}
	return &DashboardHandler{
		pipeline:   p,
		panel:      panel,
		suppliers:  suppliers,
		normalizer: normalizer,
		presets:    presets,
		logger:     log.WithComponent("dashboard"),
	}
}

type option struct {
	Key      string
	Label    string
	Selected bool
}

type presetOption struct {
	Name     string
	Selected bool
}

type chartView struct {
	ID     string
	Title  string
	Config string
	Error  string
}

type dashboardPage struct {
	Title        string
	View         pipeline.View
	FetchError   bool
	MinScore     string
	MinRenewable string
	Transports   []option
	Presets      []presetOption
	Charts       []chartView
}

type detailsPage struct {
	Title string
	Card  template.HTML
	Error string
}

// viewResponse is the JSON form of pipeline.View
type viewResponse struct {
	Seq        uint64         `json:"seq"`
	Status     string         `json:"status"`
	Charts     string         `json:"charts,omitempty"`
	Filter     filter.Spec    `json:"filter"`
	Total      int            `json:"total"`
	Matched    int            `json:"matched"`
	Outcome    render.Outcome `json:"outcome"`
	GridState  string         `json:"grid_state,omitempty"`
	Surfaces   []surfaceJSON  `json:"surfaces"`
	Error      string         `json:"error,omitempty"`
	Detail     string         `json:"detail,omitempty"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"`
	Superseded bool           `json:"superseded,omitempty"`
}

type surfaceJSON struct {
	Surface string          `json:"surface"`
	Title   string          `json:"title"`
	Config  json.RawMessage `json:"config,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// applyRequest is the body of POST /api/dashboard/apply
type applyRequest struct {
	filter.Spec
	Preset string `json:"preset,omitempty"`
}

// Page renders the dashboard
// GET /recommendations?minScore=&minRenewable=&transport=&preset=
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := h.resolve(q.Get("preset"), filter.ParseQuery(q), q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.pipeline.Apply(r.Context(), spec)
	if err != nil && !errors.Is(err, pipeline.ErrSuperseded) {
		h.logger.WithError(err).Warn("Dashboard rendered in fetch_error state")
	}

	respondHTML(w, h.logger, http.StatusOK, pages, "dashboard", h.page(view, q.Get("preset")))
}

// GetView returns the current dashboard state
// GET /api/dashboard/view
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.toViewResponse(h.pipeline.View()))
}

// Apply fetches and filters with the posted criteria
// POST /api/dashboard/apply
func (h *DashboardHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	spec, err := h.resolve(req.Preset, req.Spec, nil)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.pipeline.Apply(r.Context(), spec)
	h.respondView(w, view, err)
}

// Refresh re-runs the last applied filter
// POST /api/dashboard/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	view, err := h.pipeline.Refresh(r.Context())
	h.respondView(w, view, err)
}

// OpenAnalysis loads the analysis panel content
// GET /fragments/analysis
func (h *DashboardHandler) OpenAnalysis(w http.ResponseWriter, r *http.Request) {
	view := h.panel.Open(r.Context())
	respondHTML(w, h.logger, http.StatusOK, pages, "analysis", view)
}

// CloseAnalysis closes the panel, dropping any in-flight result
// DELETE /fragments/analysis
func (h *DashboardHandler) CloseAnalysis(w http.ResponseWriter, r *http.Request) {
	h.panel.Close()
	w.WriteHeader(http.StatusNoContent)
}

// Details renders one supplier card
// GET /details/{id}
func (h *DashboardHandler) Details(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := h.suppliers.FetchSupplier(r.Context(), id)
	if err != nil {
		status := http.StatusBadGateway
		message := "Unable to load supplier details. Please try again later."
		if source.IsNotFound(err) {
			status = http.StatusNotFound
			message = "Supplier not found"
		}
		h.logger.WithError(err).WithField("supplier_id", id).Warn("Failed to load supplier")
		respondHTML(w, h.logger, status, pages, "details", detailsPage{Title: "Supplier", Error: message})
		return
	}

	norm := h.normalizer.Normalize(rec, 0)
	card, err := render.Card(norm)
	if err != nil {
		h.logger.WithError(err).WithField("supplier_id", id).Error("Failed to render supplier card")
		respondHTML(w, h.logger, http.StatusInternalServerError, pages, "details",
			detailsPage{Title: norm.Name, Error: "Unable to display this supplier"})
		return
	}

	respondHTML(w, h.logger, http.StatusOK, pages, "details", detailsPage{Title: norm.Name, Card: card})
}

// resolve layers explicit criteria over a named preset. When q is set only
// the parameters present in it override the preset.
func (h *DashboardHandler) resolve(preset string, explicit filter.Spec, q map[string][]string) (filter.Spec, error) {
	if preset == "" {
		return explicit, nil
	}

	spec, err := h.presets.Lookup(preset)
	if err != nil {
		return filter.Spec{}, err
	}

	has := func(key string) bool {
		if q == nil {
			return true
		}
		_, ok := q[key]
		return ok
	}
	if explicit.MinScore != 0 && has("minScore") {
		spec.MinScore = explicit.MinScore
	}
	if explicit.MinRenewable != 0 && has("minRenewable") {
		spec.MinRenewable = explicit.MinRenewable
	}
	if explicit.Transport != "" && has("transport") {
		spec.Transport = explicit.Transport
	}
	return spec, nil
}

func (h *DashboardHandler) respondView(w http.ResponseWriter, view pipeline.View, err error) {
	resp := h.toViewResponse(view)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, resp)
	case errors.Is(err, pipeline.ErrSuperseded):
		resp.Superseded = true
		respondJSON(w, http.StatusOK, resp)
	default:
		respondJSON(w, http.StatusBadGateway, resp)
	}
}

func (h *DashboardHandler) page(view pipeline.View, preset string) dashboardPage {
	page := dashboardPage{
		Title:        "Recommendations",
		View:         view,
		FetchError:   view.Status == pipeline.StatusFetchError,
		MinScore:     strconv.FormatFloat(view.Spec.MinScore, 'f', -1, 64),
		MinRenewable: strconv.FormatFloat(view.Spec.MinRenewable, 'f', -1, 64),
	}

	selected, _ := supplier.ParseTransportCategory(view.Spec.Transport)
	page.Transports = append(page.Transports, option{
		Key: string(supplier.TransportAll), Label: "All", Selected: selected == "" || selected == supplier.TransportAll,
	})
	for _, c := range supplier.TransportCategories() {
		label, _ := c.Label()
		page.Transports = append(page.Transports, option{Key: string(c), Label: label, Selected: c == selected})
	}

	for _, name := range h.presets.Names() {
		page.Presets = append(page.Presets, presetOption{Name: name, Selected: name == preset})
	}

	for _, s := range view.Surfaces {
		cfg, msg := h.encodeChart(s)
		if msg != "" && s.Error == "" {
			page.View.Charts = pipeline.ChartsError
		}
		page.Charts = append(page.Charts, chartView{ID: string(s.Surface), Title: s.Title, Config: cfg, Error: msg})
	}
	return page
}

// encodeChart returns the surface's Chart.js JSON, or the failure message
// when the chart was not derived or cannot be encoded
func (h *DashboardHandler) encodeChart(s pipeline.SurfaceView) (string, string) {
	if s.Chart == nil {
		return "", s.Error
	}
	cfg, err := s.Chart.Config.JSON()
	if err != nil {
		h.logger.WithError(err).WithField("surface", s.Surface).Error("Failed to encode chart")
		return "", pipeline.ChartFailureMessage
	}
	return cfg, ""
}

func (h *DashboardHandler) toViewResponse(v pipeline.View) viewResponse {
	resp := viewResponse{
		Seq:       v.Seq,
		Status:    string(v.Status),
		Charts:    string(v.Charts),
		Filter:    v.Spec,
		Total:     v.Total,
		Matched:   len(v.Suppliers),
		Outcome:   v.Grid.Outcome,
		GridState: string(v.Grid.State),
		Surfaces:  make([]surfaceJSON, 0, len(v.Surfaces)),
		Error:     v.Error,
		Detail:    v.Detail,
	}
	if !v.UpdatedAt.IsZero() {
		updated := v.UpdatedAt
		resp.UpdatedAt = &updated
	}

	for _, s := range v.Surfaces {
		cfg, msg := h.encodeChart(s)
		if msg != "" && s.Error == "" {
			resp.Charts = string(pipeline.ChartsError)
		}
		sj := surfaceJSON{Surface: string(s.Surface), Title: s.Title, Error: msg}
		if cfg != "" {
			sj.Config = json.RawMessage(cfg)
		}
		resp.Surfaces = append(resp.Surfaces, sj)
	}
	return resp
}
