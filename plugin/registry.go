// SPDX-License-Identifier: EPL-2.0

package plugin

import (
	"fmt"
	"sync"
)

// Registry holds the plugin descriptors known to a process. It is filled
// once at startup and then sealed; lookups after Seal need no writes.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]Descriptor
	order  []string
	sealed bool
}

func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]Descriptor),
	}
}

// Register adds d. It fails once the registry is sealed and for ids that
// are already taken.
func (r *Registry) Register(d Descriptor) error {
	if d.Info.ID == "" || d.New == nil {
		return ErrInvalidDescriptor
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: %s", ErrSealed, d.Info.ID)
	}
	if _, exists := r.byID[d.Info.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, d.Info.ID)
	}

	r.byID[d.Info.ID] = d
	r.order = append(r.order, d.Info.ID)

	return nil
}

// Seal stops further registration. Sealing twice is harmless.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.byID[id]
	return d, ok
}

// List returns plugin info in registration order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Info, len(r.order))
	for i, id := range r.order {
		result[i] = r.byID[id].Info
	}

	return result
}

// Instantiate creates a new instance of plugin id bound to host.
func (r *Registry) Instantiate(id string, host Host) (Plugin, error) {
	d, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	p, err := d.New(host)
	if err != nil {
		return nil, fmt.Errorf("plugin: instantiating %s: %w", id, err)
	}

	return p, nil
}
