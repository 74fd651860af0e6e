package handlers

import (
	"net/http"
	"runtime"
	"time"

	"camwatch/internal/startup"
	"camwatch/internal/stream"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	Uptime          string `json:"uptime"`
	ConnectionPhase string `json:"connectionPhase"`
	LastError       string `json:"lastError,omitempty"`
	Cameras         int    `json:"cameras"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports liveness. A disconnected stream degrades the
// status but never fails it: the viewer keeps serving its last known
// state while the reconnect loop works.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	connState := h.client.State()

	response := HealthResponse{
		Status:          statusHealthy,
		Version:         startup.Version,
		Uptime:          time.Since(h.startedAt).Round(time.Second).String(),
		ConnectionPhase: connState.Phase,
		LastError:       connState.LastError,
		Cameras:         h.registry.Len(),
		GoVersion:       runtime.Version(),
		NumGoroutine:    runtime.NumGoroutine(),
	}

	if connState.Phase != stream.PhaseConnected {
		response.Status = statusDegraded
	}

	writeJSON(w, http.StatusOK, response)
}
