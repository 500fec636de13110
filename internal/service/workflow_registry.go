package service

import (
	"sync"
	"time"

	"pet-adoption-portal/internal/event"
)

type registryEntry struct {
	workflow *AdminWorkflow
	lastUsed time.Time
}

// WorkflowRegistry keeps one AdminWorkflow per browser session.
type WorkflowRegistry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	events  event.Bus
	now     func() time.Time
}

type RegistryOption func(*WorkflowRegistry)

// WithEvents makes every workflow publish its successful changes to bus.
func WithEvents(bus event.Bus) RegistryOption {
	return func(r *WorkflowRegistry) {
		r.events = bus
	}
}

func NewWorkflowRegistry(opts ...RegistryOption) *WorkflowRegistry {
	r := &WorkflowRegistry{
		entries: map[string]*registryEntry{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the session's workflow, creating it on first use. api replaces
// the client held by an existing workflow.
func (r *WorkflowRegistry) Get(sessionID string, api AnimalAPI) *AdminWorkflow {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sessionID]
	if !ok {
		entry = &registryEntry{workflow: NewAdminWorkflow(api)}
		entry.workflow.events = r.events
		r.entries[sessionID] = entry
	} else {
		entry.workflow.setAPI(api)
	}
	entry.lastUsed = r.now()
	return entry.workflow
}

func (r *WorkflowRegistry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

// Prune drops workflows unused for longer than idle. Busy ones are kept.
func (r *WorkflowRegistry) Prune(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for id, entry := range r.entries {
		if entry.lastUsed.Before(cutoff) && !entry.workflow.Busy() {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

func (r *WorkflowRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
