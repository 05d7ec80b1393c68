package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/wonny/ecorank/backend/internal/api/handlers"
	"github.com/wonny/ecorank/backend/internal/realtime"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

// DashboardRoutes groups the handlers of the dashboard server
type DashboardRoutes struct {
	Dashboard *handlers.DashboardHandler
	Jobs      *handlers.JobsHandler
	Events    *realtime.Hub // websocket endpoint
	Apply     *rate.Limiter // nil disables the apply limit
}

// NewDashboardRouter creates the dashboard router
// ⭐ SSOT: dashboard routes are declared here only
func NewDashboardRouter(routes DashboardRoutes, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", dashboardHealth(routes.Events)).Methods(http.MethodGet)
	r.Handle("/", http.RedirectHandler("/recommendations", http.StatusFound)).Methods(http.MethodGet)

	d := routes.Dashboard
	r.HandleFunc("/recommendations", d.Page).Methods(http.MethodGet)
	r.HandleFunc("/details/{id}", d.Details).Methods(http.MethodGet)
	r.HandleFunc("/fragments/analysis", d.OpenAnalysis).Methods(http.MethodGet)
	r.HandleFunc("/fragments/analysis", d.CloseAnalysis).Methods(http.MethodDelete)
	if routes.Events != nil {
		r.Handle("/ws", routes.Events).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard/view", d.GetView).Methods(http.MethodGet)

	// Filter applications fetch upstream, so they are throttled
	apply := api.PathPrefix("/dashboard").Subrouter()
	apply.Use(rateLimitMiddleware(routes.Apply, log))
	apply.HandleFunc("/apply", d.Apply).Methods(http.MethodPost)
	apply.HandleFunc("/refresh", d.Refresh).Methods(http.MethodPost)

	if routes.Jobs != nil {
		api.HandleFunc("/jobs", routes.Jobs.List).Methods(http.MethodGet)
		api.HandleFunc("/jobs/{name}/run", routes.Jobs.Run).Methods(http.MethodPost)
	}

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// NewSourceRouter creates the upstream recommendation API router
// ⭐ SSOT: source API routes are declared here only
func NewSourceRouter(h *handlers.SourceHandler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/recommendations", h.GetRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/llm_analysis", h.GetAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/supplier_details/{id}", h.GetSupplier).Methods(http.MethodGet)

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// dashboardHealth returns server health status with the open websocket count
func dashboardHealth(hub *realtime.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "ecorank-dashboard",
		}
		if hub != nil {
			body["ws_clients"] = hub.Clients()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}
