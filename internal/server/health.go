package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"slices"
)

// Pinger is a dependency that can report its availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Pinger interface.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// HealthChecker reports the state of every named dependency as JSON.
type HealthChecker struct {
	log    *slog.Logger
	checks map[string]Pinger
}

// NewHealthChecker creates a checker over the given dependencies, keyed by the name used in the response.
func NewHealthChecker(log *slog.Logger, checks map[string]Pinger) *HealthChecker {
	return &HealthChecker{
		log:    log,
		checks: checks,
	}
}

func (h *HealthChecker) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.log.DebugContext(req.Context(), "Performing health checks...")

	var err error
	status := make(map[string]string, len(h.checks))
	overallStatus := http.StatusOK

	for _, name := range slices.Sorted(maps.Keys(h.checks)) {
		if err = h.checks[name].Ping(req.Context()); err != nil {
			status[name] = "unavailable"
			overallStatus = http.StatusServiceUnavailable
			h.log.WarnContext(req.Context(), "Health check failed", "dependency", name, "error", err)
			continue
		}
		status[name] = "ok"
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(overallStatus)
	if err = json.NewEncoder(writer).Encode(status); err != nil {
		h.log.ErrorContext(req.Context(), "Failed to write health check response", "error", err)
	}

	h.log.DebugContext(req.Context(), "Health checks completed", "status", overallStatus)
}
