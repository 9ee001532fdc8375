// Package orchestrator implements the Deliberation Orchestrator: the
// three-stage pipeline driver that owns run identity, timing,
// cancellation scope, and record assembly. It is the only component that
// mutates a run's state directly; every other package (agent, council,
// repository) is invoked by it as a pure collaborator.
package orchestrator

import (
	"sync"
	"time"

	"github.com/concilium/core/agent"
)

// Registry is an Orchestrator's {runId -> controller} map so an external
// cancel(runId) request can find the right RunController without the
// caller threading it through from wherever run() was originally invoked.
//
// The registry is scoped per Orchestrator instance so multiple
// orchestrators can coexist in one process, hence this being a field of
// Orchestrator rather than a package-level global.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	controller *agent.RunController
	startedAt  time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Put registers runID's controller, called once at run start.
func (r *Registry) Put(runID string, controller *agent.RunController) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[runID] = &registryEntry{controller: controller, startedAt: time.Now()}
}

// Get looks up runID's controller.
func (r *Registry) Get(runID string) (*agent.RunController, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[runID]
	if !ok {
		return nil, false
	}
	return e.controller, true
}

// Remove evicts runID unconditionally. Run removes the controller entry
// on every exit path.
func (r *Registry) Remove(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, runID)
}

// All returns a snapshot of every currently registered controller, keyed
// by runID, for cancelAll.
func (r *Registry) All() map[string]*agent.RunController {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*agent.RunController, len(r.entries))
	for id, e := range r.entries {
		out[id] = e.controller
	}
	return out
}

// sweepAbandoned cancels and evicts any run that has been registered
// longer than maxAge without reaching one of run()'s exit paths — a
// defensive backstop against a leaked entry (the owning goroutine wedged
// without ever unwinding to its Remove defer) rather than the normal
// removal path, which always fires first. Returns the number evicted.
func (r *Registry) sweepAbandoned(now time.Time, maxAge time.Duration) int {
	r.mu.Lock()
	var stale []*registryEntry
	for id, e := range r.entries {
		if now.Sub(e.startedAt) > maxAge {
			stale = append(stale, e)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, e := range stale {
		e.controller.Cancel()
	}
	return len(stale)
}
