// Package registry implements the process-wide driver table mapping major
// numbers to driver handler sets.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/devkit-go/devkit/pkg/device"
	deverrors "github.com/devkit-go/devkit/pkg/device/errors"
)

// MajorAuto requests automatic major allocation from the registry's
// monotonic counter. Major 0 is reserved and never assigned.
const MajorAuto uint32 = 0

// Registration is one driver's entry in the registry. The dispatcher holds
// a shared reference to the Registration for the lifetime of every handle
// opened against it, so a Registration must not be unregistered while live
// handles exist; doing so is documented fatal misuse, not defended
// against.
type Registration struct {
	// Major is the assigned major number.
	Major uint32

	// Name is the driver's registered name.
	Name string

	// Driver is the handler set.
	Driver device.Driver

	// RegisteredAt is the registration wall-clock time, exposed by the
	// control-plane API.
	RegisteredAt time.Time
}

// Registry manages driver registrations keyed by major number.
// It provides thread-safe registration and lookup under a reader/writer
// lock: lookups vastly outnumber mutations, so readers never serialize
// against each other.
//
// The Registry has an explicit lifecycle - construct with New, no implicit
// process-global instance exists. Tests build a fresh Registry per case.
//
// Example usage:
//
//	reg := registry.New()
//	major, _ := reg.Register("mem", memDriver, registry.MajorAuto)
//	r, _ := reg.Lookup(major)
//	r.Driver.Open(ctx, node, device.ReadOnly)
type Registry struct {
	mu        sync.RWMutex
	drivers   map[uint32]*Registration
	nextMajor uint32
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		drivers:   make(map[uint32]*Registration),
		nextMajor: 1,
	}
}

// Register adds a driver under the requested major and returns the
// assigned value.
//
// When major is MajorAuto, the next unused value is allocated from a
// monotonically increasing counter. Auto-allocated majors are never
// reused after unregistration, which keeps stale handles from silently
// resolving to an unrelated later driver; an explicit claim of a freed
// value remains possible for callers that manage their own number space.
//
// A specific major claims exactly that value, failing with MajorInUse
// when taken.
func (r *Registry) Register(name string, drv device.Driver, major uint32) (uint32, error) {
	if drv == nil {
		return 0, fmt.Errorf("cannot register nil driver")
	}
	if name == "" {
		return 0, fmt.Errorf("cannot register driver with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if major == MajorAuto {
		for {
			major = r.nextMajor
			r.nextMajor++
			if _, taken := r.drivers[major]; !taken {
				break
			}
		}
	} else {
		if _, taken := r.drivers[major]; taken {
			return 0, deverrors.NewMajorInUseError(major)
		}
		// Keep the auto counter ahead of explicit claims so a later auto
		// allocation cannot collide with a just-freed explicit major.
		if major >= r.nextMajor {
			r.nextMajor = major + 1
		}
	}

	r.drivers[major] = &Registration{
		Major:        major,
		Name:         name,
		Driver:       drv,
		RegisteredAt: time.Now(),
	}
	return major, nil
}

// Unregister removes the registration for major.
//
// Returns UnknownMajor when no driver is registered under it. Ensuring no
// live handles still reference the registration is the caller's
// responsibility; the registry does not invalidate handles.
func (r *Registry) Unregister(major uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.drivers[major]; !exists {
		return deverrors.NewUnknownMajorError(major)
	}
	delete(r.drivers, major)
	return nil
}

// Lookup retrieves the registration for major as a shared read-only
// reference. Returns UnknownMajor when absent.
func (r *Registry) Lookup(major uint32) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, exists := r.drivers[major]
	if !exists {
		return nil, deverrors.NewUnknownMajorError(major)
	}
	return reg, nil
}

// LookupByName retrieves the first registration whose driver name matches.
// Names are not required to be unique; majors are the real key.
func (r *Registry) LookupByName(name string) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reg := range r.drivers {
		if reg.Name == name {
			return reg, nil
		}
	}
	return nil, fmt.Errorf("no driver registered with name %q", name)
}

// List returns all registrations ordered by major number. The returned
// slice is a copy and safe to modify.
func (r *Registry) List() []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := make([]*Registration, 0, len(r.drivers))
	for _, reg := range r.drivers {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].Major < regs[j].Major })
	return regs
}

// Count returns the number of registered drivers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drivers)
}

// Exists checks whether a driver is registered under major.
func (r *Registry) Exists(major uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.drivers[major]
	return exists
}
