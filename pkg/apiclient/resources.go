package apiclient

import (
	"fmt"
	"time"
)

// Driver represents a registered driver.
type Driver struct {
	Major        uint32    `json:"major"`
	Name         string    `json:"name"`
	RegisteredAt time.Time `json:"registered_at"`
	OpenHandles  int64     `json:"open_handles"`
	Commands     []string  `json:"commands,omitempty"`
}

// Binding represents a device node bound to a driver.
type Binding struct {
	Kind    string    `json:"kind"`
	Major   uint32    `json:"major"`
	Minor   uint32    `json:"minor"`
	Target  uint32    `json:"target_major"`
	Driver  string    `json:"driver,omitempty"`
	Node    string    `json:"node"`
	BoundAt time.Time `json:"bound_at"`
}

// CreateBindingRequest is the payload for creating a binding.
type CreateBindingRequest struct {
	Kind        string  `json:"kind"`
	Major       uint32  `json:"major"`
	Minor       uint32  `json:"minor"`
	TargetMajor *uint32 `json:"target_major,omitempty"`
}

// Handle represents an open device handle.
type Handle struct {
	ID       string    `json:"id"`
	Node     string    `json:"node"`
	Driver   string    `json:"driver"`
	Flags    uint32    `json:"flags"`
	OpenedAt time.Time `json:"opened_at"`
}

// Health represents a health check response.
type Health struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// ListDrivers returns all registered drivers ordered by major number.
func (c *Client) ListDrivers() ([]Driver, error) {
	var drivers []Driver
	if err := c.get("/api/v1/drivers", &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// GetDriver returns the driver registered under the given major number.
func (c *Client) GetDriver(major uint32) (*Driver, error) {
	var driver Driver
	if err := c.get(fmt.Sprintf("/api/v1/drivers/%d", major), &driver); err != nil {
		return nil, err
	}
	return &driver, nil
}

// ListBindings returns all device node bindings.
func (c *Client) ListBindings() ([]Binding, error) {
	var bindings []Binding
	if err := c.get("/api/v1/bindings", &bindings); err != nil {
		return nil, err
	}
	return bindings, nil
}

// CreateBinding binds a device node to a driver major.
func (c *Client) CreateBinding(req CreateBindingRequest) (*Binding, error) {
	var binding Binding
	if err := c.post("/api/v1/bindings", req, &binding); err != nil {
		return nil, err
	}
	return &binding, nil
}

// DeleteBinding removes a device node binding.
func (c *Client) DeleteBinding(kind string, major, minor uint32) error {
	return c.delete(fmt.Sprintf("/api/v1/bindings/%s/%d/%d", kind, major, minor))
}

// ListHandles returns all open device handles.
func (c *Client) ListHandles() ([]Handle, error) {
	var handles []Handle
	if err := c.get("/api/v1/handles", &handles); err != nil {
		return nil, err
	}
	return handles, nil
}

// GetHealth checks the daemon liveness endpoint.
func (c *Client) GetHealth() (*Health, error) {
	var health Health
	if err := c.get("/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetReadiness checks the daemon readiness endpoint.
func (c *Client) GetReadiness() (*Health, error) {
	var health Health
	if err := c.get("/health/ready", &health); err != nil {
		return nil, err
	}
	return &health, nil
}
