// Package fixer registers the available rewrites and applies them to files.
package fixer

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"tsfix/internal/domain"
)

// Registry holds all available fixers by name.
type Registry struct {
	mu     sync.RWMutex
	fixers map[string]domain.Fixer
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		fixers: make(map[string]domain.Fixer),
		logger: logger,
	}
}

func (r *Registry) Register(f domain.Fixer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixers[f.Name()] = f
	r.logger.Debug("registered fixer", "name", f.Name())
}

func (r *Registry) Get(name string) domain.Fixer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fixers[name]
}

// Lookup is Get with an error naming the registered fixers.
func (r *Registry) Lookup(name string) (domain.Fixer, error) {
	f := r.Get(name)
	if f == nil {
		return nil, fmt.Errorf("unknown fixer: %s (available: %v)", name, r.Names())
	}
	return f, nil
}

// Names returns the registered fixer names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.fixers))
	for n := range r.fixers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Descriptions maps each fixer name to its description.
func (r *Registry) Descriptions() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.fixers))
	for n, f := range r.fixers {
		out[n] = f.Description()
	}
	return out
}
