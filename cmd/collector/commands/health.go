package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/active-strike/internal/poller"
	"github.com/rickgao/active-strike/internal/version"
	"github.com/rickgao/active-strike/internal/writer"
)

// StatusSource reports the poller state.
type StatusSource interface {
	Status() poller.Status
}

// WriterStats reports table write counters.
type WriterStats interface {
	Stats() writer.WriterMetrics
}

// Pinger checks the database connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(p StatusSource, ws WriterStats, db Pinger, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		st := p.Status()
		health := struct {
			Status     string         `json:"status"`
			Version    version.Info   `json:"version"`
			Poller     poller.Status  `json:"poller"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Version:    version.Get(),
			Poller:     st,
			Components: make(map[string]any),
		}

		if st.State != poller.StatePolling {
			health.Status = "degraded"
		}
		switch st.LastOutcome {
		case poller.OutcomeSessionExpired, poller.OutcomeNotAuthenticated,
			poller.OutcomeUnexpected, poller.OutcomeError:
			health.Status = "degraded"
		case poller.OutcomeCaptureExhausted:
			health.Status = "unhealthy"
		}

		if ws != nil {
			health.Components["writer"] = ws.Stats()
		}

		// Check database
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["timescaledb"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["timescaledb"] = "connected"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(health); err != nil {
			logger.Warn("encode health response", "error", err)
		}
	})

	return mux
}
