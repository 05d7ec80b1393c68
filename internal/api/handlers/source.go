package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/ecorank/backend/internal/insight"
	"github.com/wonny/ecorank/backend/internal/store"
	"github.com/wonny/ecorank/backend/pkg/logger"
	"github.com/wonny/ecorank/backend/pkg/redis"
)

const (
	defaultRecommendationCount = 5
	maxRecommendationCount     = 100

	// analysisPool is the number of leading suppliers the narrative is written from
	analysisPool = 10
)

// SupplierStore reads precomputed supplier scores
type SupplierStore interface {
	TopSuppliers(ctx context.Context, limit int) ([]store.Supplier, error)
	Supplier(ctx context.Context, id string) (store.Supplier, error)
}

// Limiter decides whether a caller may request another analysis
type Limiter interface {
	Allow(ctx context.Context, cfg redis.RateLimitConfig, identity string) (bool, int, error)
}

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SourceHandler serves the upstream recommendation API
type SourceHandler struct {
	store   SupplierStore
	limiter Limiter
	limit   redis.RateLimitConfig
	checks  map[string]Pinger
	logger  *logger.Logger
}

// NewSourceHandler creates a new SourceHandler. A nil limiter disables the analysis limit.
func NewSourceHandler(s SupplierStore, limiter Limiter, limit redis.RateLimitConfig, log *logger.Logger) *SourceHandler {
	return &SourceHandler{
		store:   s,
		limiter: limiter,
		limit:   limit,
		checks:  make(map[string]Pinger),
		logger:  log.WithComponent("source-api"),
	}
}

// WithHealthCheck adds a dependency to the health report
func (h *SourceHandler) WithHealthCheck(name string, p Pinger) *SourceHandler {
	h.checks[name] = p
	return h
}

// Health pings every registered dependency
// GET /health
func (h *SourceHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			h.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			results[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	respondJSON(w, code, map[string]interface{}{
		"status":  status,
		"service": "ecorank-source",
		"checks":  results,
	})
}

type visualizationData struct {
	RenewableEnergy      []*float64 `json:"renewable_energy"`
	CarbonFootprint      []*float64 `json:"carbon_footprint"`
	WaterConsumption     []*float64 `json:"water_consumption"`
	TransportDistance    []*float64 `json:"transport_distance"`
	SupplierNames        []string   `json:"supplier_names"`
	SustainabilityScores []*float64 `json:"sustainability_scores"`
}

// GetRecommendations returns the best scored suppliers
// GET /api/recommendations?count=5
func (h *SourceHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	count := defaultRecommendationCount
	if v, err := strconv.Atoi(r.URL.Query().Get("count")); err == nil && v > 0 {
		count = min(v, maxRecommendationCount)
	}

	suppliers, err := h.store.TopSuppliers(r.Context(), count)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load recommendations")
		respondError(w, http.StatusInternalServerError, "Unable to load recommendations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations":    suppliers,
		"visualization_data": visualize(suppliers),
	})
}

// GetAnalysis returns the markdown narrative and the podium
// GET /api/llm_analysis
func (h *SourceHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil {
		allowed, remaining, err := h.limiter.Allow(r.Context(), h.limit, clientIP(r))
		if err != nil {
			// Fail open: the limiter never takes the endpoint down
			h.logger.WithError(err).Warn("Analysis rate limit check failed")
		} else {
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(h.limit.Window.Seconds())))
				respondError(w, http.StatusTooManyRequests, "Too many analysis requests")
				return
			}
		}
	}

	suppliers, err := h.store.TopSuppliers(r.Context(), analysisPool)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load suppliers for analysis")
		respondError(w, http.StatusInternalServerError, "Unable to generate the analysis")
		return
	}

	top := insight.Top(suppliers)
	if top == nil {
		top = []store.Supplier{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"analysis":      insight.Narrative(suppliers),
		"top_suppliers": top,
	})
}

// GetSupplier returns one supplier
// GET /api/supplier_details/{id}
func (h *SourceHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s, err := h.store.Supplier(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Supplier "+id+" not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("supplier_id", id).Error("Failed to load supplier")
		respondError(w, http.StatusInternalServerError, "Unable to load supplier details")
		return
	}

	respondJSON(w, http.StatusOK, s)
}

func visualize(suppliers []store.Supplier) visualizationData {
	v := visualizationData{
		RenewableEnergy:      make([]*float64, 0, len(suppliers)),
		CarbonFootprint:      make([]*float64, 0, len(suppliers)),
		WaterConsumption:     make([]*float64, 0, len(suppliers)),
		TransportDistance:    make([]*float64, 0, len(suppliers)),
		SupplierNames:        make([]string, 0, len(suppliers)),
		SustainabilityScores: make([]*float64, 0, len(suppliers)),
	}
	for _, s := range suppliers {
		v.RenewableEnergy = append(v.RenewableEnergy, s.RenewablePct)
		v.CarbonFootprint = append(v.CarbonFootprint, s.CarbonFootprint)
		v.WaterConsumption = append(v.WaterConsumption, s.WaterConsumption)
		v.TransportDistance = append(v.TransportDistance, s.TransportDistance)
		v.SupplierNames = append(v.SupplierNames, s.Name)
		v.SustainabilityScores = append(v.SustainabilityScores, s.Score)
	}
	return v
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
