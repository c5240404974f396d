package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devkit-go/devkit/pkg/dispatch"
	"github.com/devkit-go/devkit/pkg/registry"
)

// DriverHandler exposes the driver registry over the API.
type DriverHandler struct {
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(reg *registry.Registry, disp *dispatch.Dispatcher) *DriverHandler {
	return &DriverHandler{registry: reg, dispatcher: disp}
}

// DriverResponse is the API representation of a registered driver.
type DriverResponse struct {
	Major        uint32    `json:"major"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
	OpenHandles  int64     `json:"open_handles"`
	Commands     []string  `json:"commands,omitempty"`
}

func (h *DriverHandler) driverResponse(reg *registry.Registration) DriverResponse {
	resp := DriverResponse{
		Major:        reg.Major,
		Name:         reg.Name,
		RegisteredAt: reg.RegisteredAt,
		OpenHandles:  h.dispatcher.OpenHandleCount(reg.Name),
	}

	if table := reg.Driver.Commands(); table != nil {
		for _, req := range table.Requests() {
			resp.Commands = append(resp.Commands, req.String())
		}
	}

	return resp
}

// List handles GET /api/v1/drivers.
// Returns every registered driver ordered by major number.
func (h *DriverHandler) List(w http.ResponseWriter, r *http.Request) {
	regs := h.registry.List()

	out := make([]DriverResponse, 0, len(regs))
	for _, reg := range regs {
		out = append(out, h.driverResponse(reg))
	}

	WriteJSONOK(w, out)
}

// Get handles GET /api/v1/drivers/{major}.
func (h *DriverHandler) Get(w http.ResponseWriter, r *http.Request) {
	major, err := strconv.ParseUint(chi.URLParam(r, "major"), 10, 32)
	if err != nil {
		BadRequest(w, "Invalid major number")
		return
	}

	reg, err := h.registry.Lookup(uint32(major))
	if err != nil {
		NotFound(w, "No driver registered for that major")
		return
	}

	WriteJSONOK(w, h.driverResponse(reg))
}
