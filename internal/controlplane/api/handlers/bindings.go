package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devkit-go/devkit/internal/logger"
	"github.com/devkit-go/devkit/pkg/binding"
	"github.com/devkit-go/devkit/pkg/device"
	"github.com/devkit-go/devkit/pkg/device/errors"
	"github.com/devkit-go/devkit/pkg/registry"
)

// BindingHandler exposes the node binding table over the API.
//
// Creating a binding is the API analogue of mknod: it places a device
// node into the namespace and routes it to a driver major.
type BindingHandler struct {
	bindings *binding.Table
	registry *registry.Registry
}

// NewBindingHandler creates a new BindingHandler.
func NewBindingHandler(bindings *binding.Table, reg *registry.Registry) *BindingHandler {
	return &BindingHandler{bindings: bindings, registry: reg}
}

// BindingResponse is the API representation of a node binding.
type BindingResponse struct {
	Kind    string    `json:"kind"`
	Major   uint32    `json:"major"`
	Minor   uint32    `json:"minor"`
	Target  uint32    `json:"target_major"`
	Driver  string    `json:"driver,omitempty"`
	Node    string    `json:"node"`
	BoundAt time.Time `json:"bound_at"`
}

// CreateBindingRequest is the request body for POST /api/v1/bindings.
//
// TargetMajor selects the driver; when omitted the node's own major is
// used, which is the common case.
type CreateBindingRequest struct {
	Kind        string  `json:"kind"`
	Major       uint32  `json:"major"`
	Minor       uint32  `json:"minor"`
	TargetMajor *uint32 `json:"target_major,omitempty"`
}

func (h *BindingHandler) bindingResponse(b binding.Binding) BindingResponse {
	resp := BindingResponse{
		Kind:    b.Node.Kind.String(),
		Major:   b.Node.Major,
		Minor:   b.Node.Minor,
		Target:  b.Major,
		Node:    b.Node.String(),
		BoundAt: b.BoundAt,
	}

	if reg, err := h.registry.Lookup(b.Major); err == nil {
		resp.Driver = reg.Name
	}

	return resp
}

// List handles GET /api/v1/bindings.
func (h *BindingHandler) List(w http.ResponseWriter, r *http.Request) {
	all := h.bindings.List()

	out := make([]BindingResponse, 0, len(all))
	for _, b := range all {
		out = append(out, h.bindingResponse(b))
	}

	WriteJSONOK(w, out)
}

// Create handles POST /api/v1/bindings.
//
// The target major does not need a registered driver: like mknod, a
// binding may point at a major that loads later. Opens fail with
// UnknownMajor until then.
func (h *BindingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBindingRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	kind, err := device.ParseNodeKind(req.Kind)
	if err != nil {
		BadRequest(w, "Node kind must be \"c\" or \"b\"")
		return
	}

	node := device.Node{Kind: kind, Major: req.Major, Minor: req.Minor}
	target := node.Major
	if req.TargetMajor != nil {
		target = *req.TargetMajor
	}

	if err := h.bindings.Bind(r.Context(), node, target); err != nil {
		if errors.IsInvalidArgumentError(err) {
			BadRequest(w, err.Error())
			return
		}
		logger.Error("failed to create binding", "node", node.String(), "error", err)
		InternalServerError(w, "Failed to persist binding")
		return
	}

	logger.Info("binding created", "node", node.String(), "target_major", target)

	b, ok := h.lookupBinding(node)
	if !ok {
		InternalServerError(w, "Binding vanished after creation")
		return
	}
	WriteJSONCreated(w, h.bindingResponse(b))
}

// Get handles GET /api/v1/bindings/{kind}/{major}/{minor}.
func (h *BindingHandler) Get(w http.ResponseWriter, r *http.Request) {
	node, ok := h.parseNodeParams(w, r)
	if !ok {
		return
	}

	b, found := h.lookupBinding(node)
	if !found {
		NotFound(w, "Node is not bound")
		return
	}

	WriteJSONOK(w, h.bindingResponse(b))
}

// Delete handles DELETE /api/v1/bindings/{kind}/{major}/{minor}.
//
// Removing a binding does not disturb handles already opened through it.
func (h *BindingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	node, ok := h.parseNodeParams(w, r)
	if !ok {
		return
	}

	if err := h.bindings.Unbind(r.Context(), node); err != nil {
		if errors.IsNotBoundError(err) {
			NotFound(w, "Node is not bound")
			return
		}
		logger.Error("failed to remove binding", "node", node.String(), "error", err)
		InternalServerError(w, "Failed to remove binding")
		return
	}

	logger.Info("binding removed", "node", node.String())
	WriteNoContent(w)
}

func (h *BindingHandler) parseNodeParams(w http.ResponseWriter, r *http.Request) (device.Node, bool) {
	kind, err := device.ParseNodeKind(chi.URLParam(r, "kind"))
	if err != nil {
		BadRequest(w, "Node kind must be \"c\" or \"b\"")
		return device.Node{}, false
	}

	major, err := strconv.ParseUint(chi.URLParam(r, "major"), 10, 32)
	if err != nil {
		BadRequest(w, "Invalid major number")
		return device.Node{}, false
	}

	minor, err := strconv.ParseUint(chi.URLParam(r, "minor"), 10, 32)
	if err != nil {
		BadRequest(w, "Invalid minor number")
		return device.Node{}, false
	}

	return device.Node{Kind: kind, Major: uint32(major), Minor: uint32(minor)}, true
}

func (h *BindingHandler) lookupBinding(node device.Node) (binding.Binding, bool) {
	for _, b := range h.bindings.List() {
		if b.Node == node {
			return b, true
		}
	}
	return binding.Binding{}, false
}
