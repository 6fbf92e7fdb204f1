package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"streamhive/internal/logging"
	"streamhive/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

var serverStart = time.Now()

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. The catalog
// database is pinged so a wedged database surfaces as degraded.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Version:      startup.Version,
		Uptime:       time.Since(serverStart).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	status := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		logging.Warn("Health check database ping failed: %v", err)
		response.Status = statusDegraded
		status = http.StatusServiceUnavailable
	} else {
		response.Status = statusHealthy
		response.Ready = true
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Error("Failed to encode health response: %v", err)
	}
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "alive"}); err != nil {
			logging.Error("Failed to encode liveness response: %v", err)
		}
	}
}

// ReadinessCheck returns 200 only when the service can reach its
// database.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.db.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "not_ready"}); err != nil {
			logging.Error("Failed to encode readiness response: %v", err)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ready"}); err != nil {
		logging.Error("Failed to encode readiness response: %v", err)
	}
}
