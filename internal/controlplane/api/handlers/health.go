package handlers

import (
	"net/http"
	"time"

	"github.com/devkit-go/devkit/pkg/binding"
	"github.com/devkit-go/devkit/pkg/dispatch"
	"github.com/devkit-go/devkit/pkg/registry"
)

// Response represents a standard health response wrapper.
type Response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// healthyResponse creates a successful health check response.
func healthyResponse(data interface{}) Response {
	return Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// unhealthyResponse creates a failed health check response with an error message.
func unhealthyResponse(errMsg string) Response {
	return Response{
		Status:    "unhealthy",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}

// HealthHandler handles health check endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the daemon process running?
//   - Readiness probe: Is the dispatcher ready to route calls?
type HealthHandler struct {
	registry   *registry.Registry
	bindings   *binding.Table
	dispatcher *dispatch.Dispatcher
}

// NewHealthHandler creates a new health handler.
//
// Any parameter may be nil, in which case the readiness check reports
// the daemon as not ready.
func NewHealthHandler(reg *registry.Registry, bindings *binding.Table, disp *dispatch.Dispatcher) *HealthHandler {
	return &HealthHandler{registry: reg, bindings: bindings, dispatcher: disp}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the daemon process is running. This endpoint is designed
// for Kubernetes liveness probes and should always succeed as long as the
// HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "devkit",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK when the registry, binding table, and dispatcher are all
// wired. Returns 503 Service Unavailable otherwise. The data payload
// reports driver and binding counts for quick inspection.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil || h.bindings == nil || h.dispatcher == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("dispatcher not initialized"))
		return
	}

	WriteJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"drivers":  h.registry.Count(),
		"bindings": h.bindings.Count(),
		"handles":  len(h.dispatcher.OpenHandles()),
	}))
}
