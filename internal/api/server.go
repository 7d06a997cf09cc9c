package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/sync/semaphore"

	"github.com/tabtrail/tabtrail/internal/ai"
	"github.com/tabtrail/tabtrail/internal/command"
	"github.com/tabtrail/tabtrail/internal/ratelimit"
	"github.com/tabtrail/tabtrail/internal/reconcile"
	"github.com/tabtrail/tabtrail/internal/snapshot"
	"github.com/tabtrail/tabtrail/internal/store"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store    *store.Store
	snaps    *snapshot.Store
	engine   *reconcile.Engine
	settings *store.SettingsStore
	reports  *store.ReportStore
	ai       *ai.Client
	hub      *command.Hub

	// analyzing keeps classification calls single-flight: the store is
	// not held while the model call runs, so a second concurrent call
	// would just burn tokens on the same tabs.
	analyzing *semaphore.Weighted
}

// NewHandler creates a new HTTP handler
func NewHandler(recordStore *store.Store, snaps *snapshot.Store, engine *reconcile.Engine,
	settings *store.SettingsStore, reports *store.ReportStore, aiClient *ai.Client, hub *command.Hub) *Handler {
	return &Handler{
		store:     recordStore,
		snaps:     snaps,
		engine:    engine,
		settings:  settings,
		reports:   reports,
		ai:        aiClient,
		hub:       hub,
		analyzing: semaphore.NewWeighted(1),
	}
}

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes(rateLimiter *ratelimit.Limiter) *mux.Router {
	r := mux.NewRouter()

	// Extension-facing endpoints
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/capture", h.HandleCapture).Methods("POST")
	r.HandleFunc("/event", h.HandleEvent).Methods("POST")
	r.HandleFunc("/sync", h.HandleSync).Methods("POST")
	r.HandleFunc("/screenshot/{filename}", h.ServeScreenshot).Methods("GET")
	r.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")

	// API v1 routes
	api := r.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/tabs", h.ListOpenTabs).Methods("GET")
	api.HandleFunc("/tabs/today", h.ListTodayTabs).Methods("GET")
	api.HandleFunc("/tabs/closed", h.ListTodayClosedTabs).Methods("GET")
	api.HandleFunc("/tabs/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/tabs/{id}/close", h.CloseTab).Methods("POST")
	api.HandleFunc("/tabs/{id}/keep", h.MarkKeep).Methods("POST")

	api.HandleFunc("/settings", h.GetSettings).Methods("GET")
	api.HandleFunc("/settings", h.SaveSettings).Methods("PUT")

	api.HandleFunc("/suggestions", h.ClearSuggestions).Methods("DELETE")
	api.HandleFunc("/data", h.ClearData).Methods("DELETE")
	api.HandleFunc("/cleanup", h.Cleanup).Methods("POST")
	api.HandleFunc("/refresh", h.TriggerRefresh).Methods("POST")
	api.HandleFunc("/report", h.GetReport).Methods("GET")

	// AI endpoints cost real money per call, so they are rate limited
	aiAPI := api.PathPrefix("").Subrouter()
	aiAPI.Use(RateLimitMiddleware(rateLimiter, 100))
	aiAPI.HandleFunc("/analyze", h.Analyze).Methods("POST")
	aiAPI.HandleFunc("/analyze/batch", h.AnalyzeBatch).Methods("POST")
	aiAPI.HandleFunc("/report", h.GenerateReport).Methods("POST")

	// Routes register concrete methods only, so preflight OPTIONS requests
	// would 405 before any middleware ran. This catch-all matches them and
	// lets corsMiddleware answer.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	// CORS middleware
	r.Use(corsMiddleware)

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
