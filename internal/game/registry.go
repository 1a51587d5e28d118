package game

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages mode registration and lookup by command.
type Registry struct {
	modes map[string]Mode
	mu    sync.RWMutex
}

// NewRegistry creates a registry holding the given modes.
func NewRegistry(modes ...Mode) (*Registry, error) {
	r := &Registry{
		modes: make(map[string]Mode),
	}
	for _, m := range modes {
		if err := r.Register(m); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a mode to the registry.
// If a mode with the same command already exists, it will be replaced.
func (r *Registry) Register(m Mode) error {
	if m == nil {
		return fmt.Errorf("cannot register nil mode")
	}
	if m.Command() == "" {
		return fmt.Errorf("mode command cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[m.Command()] = m
	return nil
}

// Get retrieves a mode by its command.
func (r *Registry) Get(command string) (Mode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.modes[command]
	return m, ok
}

// List returns all registered modes ordered by command.
func (r *Registry) List() []Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()

	modes := make([]Mode, 0, len(r.modes))
	for _, m := range r.modes {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool {
		return modes[i].Command() < modes[j].Command()
	})
	return modes
}

// Count returns the number of registered modes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.modes)
}
