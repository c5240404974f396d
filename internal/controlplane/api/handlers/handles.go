package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/devkit-go/devkit/pkg/dispatch"
)

// HandleHandler exposes the dispatcher's live handle listing.
type HandleHandler struct {
	dispatcher *dispatch.Dispatcher
}

// NewHandleHandler creates a new HandleHandler.
func NewHandleHandler(disp *dispatch.Dispatcher) *HandleHandler {
	return &HandleHandler{dispatcher: disp}
}

// HandleResponse is the API representation of an open handle.
type HandleResponse struct {
	ID       string    `json:"id"`
	Node     string    `json:"node"`
	Driver   string    `json:"driver"`
	Flags    uint32    `json:"flags"`
	OpenedAt time.Time `json:"opened_at"`
}

// List handles GET /api/v1/handles.
// Returns every live handle ordered by open time.
func (h *HandleHandler) List(w http.ResponseWriter, r *http.Request) {
	handles := h.dispatcher.OpenHandles()

	out := make([]HandleResponse, 0, len(handles))
	for _, hd := range handles {
		out = append(out, HandleResponse{
			ID:       hd.ID(),
			Node:     hd.Node().String(),
			Driver:   hd.Driver(),
			Flags:    uint32(hd.Flags()),
			OpenedAt: hd.OpenedAt(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })

	WriteJSONOK(w, out)
}
