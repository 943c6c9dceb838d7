package health

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/jordanhubbard/strata/internal/learner"
)

// Check probes one dependency. Returning an error marks the daemon degraded.
type Check func() error

// Handler serves the daemon's liveness/readiness endpoint. Status reflects
// the registered dependency checks plus the orchestrator's aggregate state.
type Handler struct {
	orchestrator *learner.Orchestrator
	checks       map[string]Check
	started      time.Time
}

func NewHandler(orch *learner.Orchestrator) *Handler {
	return &Handler{
		orchestrator: orch,
		checks:       make(map[string]Check),
		started:      time.Now(),
	}
}

// AddCheck registers a named dependency check, e.g. the database ping.
func (h *Handler) AddCheck(name string, check Check) {
	h.checks[name] = check
}

type status struct {
	Status        string            `json:"status"` // "ok" or "degraded"
	UptimeSeconds int64             `json:"uptime_seconds"`
	Orchestrator  learner.Snapshot  `json:"orchestrator"`
	Dependencies  map[string]string `json:"dependencies,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := status{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Orchestrator:  h.orchestrator.Metrics(),
	}
	if len(h.checks) > 0 {
		st.Dependencies = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(); err != nil {
				st.Status = "degraded"
				st.Dependencies[name] = err.Error()
				log.Printf("[HEALTH] %s check failed: %v", name, err)
				continue
			}
			st.Dependencies[name] = "ok"
		}
	}

	code := http.StatusOK
	if st.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(st)
}
