package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/teemow/gmail-mcp/internal/logging"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// AccountStatus reports the account a credential is stored for, if any.
// It must not touch the network.
type AccountStatus func() (account string, ok bool)

// HealthChecker serves /healthz, /readyz and /healthz/detailed for the
// streamable-http transport.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	account   AccountStatus
	startTime time.Time
}

// NewHealthChecker returns a checker that starts out ready. sc and account
// may be nil.
func NewHealthChecker(sc *ServerContext, account AccountStatus) *HealthChecker {
	h := &HealthChecker{sc: sc, account: account, startTime: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady flips readiness; Shutdown of the HTTP server clears it first so
// probes stop routing before connections drain.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness flag.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	Authenticated bool   `json:"authenticated"`
	// Domain is the mail domain of the authenticated account; the full
	// address is never exposed.
	Domain string `json:"domain,omitempty"`
}

// status evaluates the readiness checks. The first failing check decides
// the overall status.
func (h *HealthChecker) status() (string, map[string]string) {
	overall := healthStatusOK
	checks := map[string]string{"ready": healthStatusOK, "shutdown": healthStatusOK}

	if h.sc != nil && h.sc.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		overall = healthStatusShuttingDown
	}
	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		overall = healthStatusNotReady
	}
	return overall, checks
}

func httpStatus(status string) int {
	if status == healthStatusOK {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// LivenessHandler always answers ok while the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers 503 while not ready or shutting down.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, checks := h.status()
		if status != healthStatusOK {
			status = healthStatusNotReady
		}
		writeJSON(w, httpStatus(status), HealthResponse{Status: status, Checks: checks})
	})
}

// DetailedHealthHandler adds uptime and the authentication state. An
// unauthenticated server is still healthy: it serves the authenticate tool.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, _ := h.status()
		response := DetailedHealthResponse{
			Status: status,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if h.account != nil {
			if account, ok := h.account(); ok {
				response.Authenticated = true
				response.Domain = logging.ExtractDomain(account)
			}
		}
		writeJSON(w, httpStatus(status), response)
	})
}

// RegisterHealthEndpoints mounts the three endpoints on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
