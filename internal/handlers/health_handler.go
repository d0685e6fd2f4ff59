package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const healthCheckTimeout = 2 * time.Second

// CheckFunc reports whether a dependency is reachable
type CheckFunc func(ctx context.Context) error

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	BaseHandler
	checks map[string]CheckFunc
}

// NewHealthHandler creates a new health handler running "checks" on every readiness probe
func NewHealthHandler(checks map[string]CheckFunc, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		checks:      checks,
	}
}

// HealthResponse is the body of the readiness probe
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// RegisterRoutes registers all health handler routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
}

// Root handles GET /
// @Summary Liveness probe
// @Tags health
// @Produce plain
// @Success 200 {string} string "Server is healthy..."
// @Router / [get]
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Server is healthy..."))
}

// Health handles GET /health
// @Summary Readiness probe
// @Description Pings the database and, when configured, Redis
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse "Every dependency is reachable"
// @Failure 503 {object} HealthResponse "Some dependency is unreachable"
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	response := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.Logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			response.Checks[name] = "unavailable"
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Checks[name] = "ok"
	}

	h.RespondJSON(w, status, response)
}
