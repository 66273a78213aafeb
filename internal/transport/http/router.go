// Package httptransport is the operational HTTP surface: health, readiness,
// metrics and read-only queue statistics. Business operations are not
// exposed over HTTP by this process.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swiftpolicy/pkg/domain"
	dErrors "swiftpolicy/pkg/domain-errors"
	"swiftpolicy/pkg/platform/middleware/admin"
	"swiftpolicy/pkg/platform/middleware/correlation"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// QueueStats reports MID submission counts per status.
type QueueStats interface {
	Stats(ctx context.Context) (map[domain.MIDStatus]int, error)
}

type Handler struct {
	checks     map[string]Check
	stats      QueueStats
	logger     *slog.Logger
	adminToken string
}

type Option func(*Handler)

// WithCheck adds a readiness probe.
func WithCheck(name string, c Check) Option {
	return func(h *Handler) { h.checks[name] = c }
}

func WithAdminToken(token string) Option {
	return func(h *Handler) { h.adminToken = token }
}

func NewHandler(stats QueueStats, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{checks: make(map[string]Check), stats: stats, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NewRouter wires the ops endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(correlation.Middleware)

	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/ops", func(r chi.Router) {
		r.Use(admin.RequireAdminToken(h.adminToken, h.logger))
		r.Get("/mid/stats", h.handleQueueStats)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			h.logger.WarnContext(ctx, "readiness check failed", "check", name, "error", err)
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, status, results)
}

func (h *Handler) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.stats.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[status.String()] = n
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation to HTTP responses.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeValidation:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": string(code)})
}
