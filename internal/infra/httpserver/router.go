package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appdiscovery "github.com/bryanwahyu/bounty-hunter/internal/application/discovery"
	appfindings "github.com/bryanwahyu/bounty-hunter/internal/application/findings"
	domain "github.com/bryanwahyu/bounty-hunter/internal/domain/findings"
	"github.com/bryanwahyu/bounty-hunter/internal/middleware"
)

type Router struct {
	findings  *appfindings.Service
	discovery *appdiscovery.Service
}

// NewRouter wires the serve-mode API. discoverySvc may be nil when no
// search provider is configured; the discovery endpoint then responds
// with an error instead of being absent.
func NewRouter(findingsSvc *appfindings.Service, discoverySvc *appdiscovery.Service, db *sql.DB, apiKey string) http.Handler {
	r := &Router{findings: findingsSvc, discovery: discoverySvc}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(60, 1))
	if apiKey != "" {
		mux.Use(middleware.APIKeyAuth(apiKey))
	}

	checkers := map[string]middleware.HealthChecker{}
	if db != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}
	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Get("/findings", r.wrap(r.handleList))
		rt.Post("/findings", r.wrap(r.handleIngest))
		rt.Get("/findings/pending", r.wrap(r.handlePending))
		rt.Get("/findings/{id}", r.wrap(r.handleGet))
		rt.Post("/findings/{id}/status", r.wrap(r.handleUpdateStatus))
		rt.Get("/stats", r.wrap(r.handleStats))
		rt.Post("/discovery/run", r.wrap(r.handleDiscoveryRun))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, domain.ErrDuplicateID):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, domain.ErrInvalidSeverity),
				errors.Is(err, domain.ErrInvalidStatus),
				errors.Is(err, domain.ErrInvalidFinding):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// GET /v1/findings?severity=&status=&repo=&limit=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	filter := domain.Filter{
		Severity: domain.Severity(q.Get("severity")),
		Status:   domain.Status(q.Get("status")),
		RepoName: q.Get("repo"),
	}
	list, err := r.findings.List(req.Context(), filter, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/findings
func (r *Router) handleIngest(w http.ResponseWriter, req *http.Request) error {
	var f domain.Finding
	if err := json.NewDecoder(req.Body).Decode(&f); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidFinding, err)
	}
	result, err := r.findings.Ingest(req.Context(), &f)
	if err != nil {
		return err
	}
	middleware.IncrementFindingsIngested()
	return writeJSON(w, http.StatusCreated, result)
}

// GET /v1/findings/pending?min_severity=High
func (r *Router) handlePending(w http.ResponseWriter, req *http.Request) error {
	min := req.URL.Query().Get("min_severity")
	if min == "" {
		min = "High"
	}
	list, err := r.findings.PendingAbove(req.Context(), min)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/findings/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	f, err := r.findings.Get(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, f)
}

// POST /v1/findings/{id}/status
func (r *Router) handleUpdateStatus(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")

	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidStatus, err)
	}
	if err := r.findings.UpdateStatus(req.Context(), id, body.Status, body.Notes); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{
		"finding_id": id,
		"status":     body.Status,
	})
}

// GET /v1/stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	stats, err := r.findings.Statistics(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, stats)
}

// POST /v1/discovery/run
func (r *Router) handleDiscoveryRun(w http.ResponseWriter, req *http.Request) error {
	if r.discovery == nil {
		http.Error(w, "discovery provider not configured", http.StatusServiceUnavailable)
		return nil
	}

	var body struct {
		MaxRepos        int `json:"max_repos"`
		MinStars        int `json:"min_stars"`
		DaysSinceUpdate int `json:"days_since_update"`
	}
	if req.ContentLength > 0 {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return fmt.Errorf("invalid discovery options: %w", err)
		}
	}

	candidates, err := r.discovery.Discover(req.Context(), appdiscovery.Options{
		MaxRepos:        body.MaxRepos,
		MinStars:        body.MinStars,
		DaysSinceUpdate: body.DaysSinceUpdate,
	})
	if err != nil {
		return err
	}
	middleware.IncrementDiscoveryRuns()
	return writeJSON(w, http.StatusOK, candidates)
}
