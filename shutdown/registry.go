package shutdown

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ruserwation/core"
)

// Cleanup priorities used by main. Lower runs first.
const (
	PriorityHTTPServer = 10
	PriorityWorkers    = 20
	PrioritySessions   = 30
	PriorityDatabase   = 40
	PriorityLogger     = 90
)

type entry struct {
	name     string
	priority int
	seq      int
	fn       core.ShutdownFunc
}

// Registry runs named cleanup functions in priority order. Entries with the
// same priority run in registration order.
type Registry struct {
	mu      sync.Mutex
	entries []entry
	closed  bool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds fn. Registrations after Shutdown are ignored.
func (r *Registry) Register(name string, priority int, fn core.ShutdownFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || fn == nil {
		return
	}
	r.entries = append(r.entries, entry{name: name, priority: priority, seq: len(r.entries), fn: fn})
}

func (r *Registry) sorted() []entry {
	out := make([]entry, len(r.entries))
	copy(out, r.entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority < out[j].priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// Shutdown calls every function once, even after failures, and returns the
// failures labelled with their names. Later calls return nil.
func (r *Registry) Shutdown(ctx context.Context) []error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := r.sorted()
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := e.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
		}
	}
	return errs
}

// Names lists the registered functions in execution order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.sorted()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
