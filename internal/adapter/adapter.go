// Package adapter defines the contract ecosystem adapters must satisfy
// (B) and the registry that holds them. Adapters translate; they never
// arbitrate — the contract is enforced at the call signature: ApplyIntent
// takes exactly one intent and returns only an error, so an adapter has
// no mechanism to filter, batch, or prioritize.
//
// Grounded on the teacher's executor.Registry (registration with
// graceful-degradation-on-missing-dependency, Type()-keyed lookup),
// generalized from probe executors to ecosystem adapters.
package adapter

import (
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/trestlehq/coordinator/pkg/types"
)

// Health is an adapter's pure health query result.
type Health string

const (
	HealthOK       Health = "ok"
	HealthDegraded Health = "degraded"
	HealthOffline  Health = "offline"
)

// FactSink is the duck-typed contract for a fact subscriber, modeled as
// a single-method interface per the design notes rather than a
// registry of ad hoc callbacks.
type FactSink interface {
	ReceiveFact(types.Fact)
}

// FactSinkFunc adapts a function to a FactSink.
type FactSinkFunc func(types.Fact)

// ReceiveFact implements FactSink.
func (f FactSinkFunc) ReceiveFact(fact types.Fact) { f(fact) }

// Unsubscribe cancels a fact subscription.
type Unsubscribe func()

// Adapter is the contract an ecosystem adapter implementation must
// satisfy. No ecosystem-specific identifier may cross this boundary in
// either direction; adapters own any mapping table to ecosystem-native
// ids.
type Adapter interface {
	// AdapterID is stable for the process lifetime.
	AdapterID() string

	// GetHealth is a pure query; the core may consult it to down-weight
	// confidence or suppress aggressive outputs, but it is never a gate.
	GetHealth() Health

	// SubscribeFacts registers a push sink with an optional fact-type
	// filter (nil/empty means all types). Multiple subscribers are
	// supported.
	SubscribeFacts(sink FactSink, factTypes []types.FactType) Unsubscribe

	// ApplyIntent is fire-and-forget; the adapter may internally queue.
	// Failures are contained within the adapter and must not propagate
	// into the core's decision path.
	ApplyIntent(intent types.Intent) error
}

// Registry holds the set of adapters registered for this process.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	limiters map[string]*rate.Limiter
}

// NewRegistry constructs an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Register adds an adapter, rate-limited to factsPerSecond inbound
// facts (burst factsPerSecond) to protect the aggregator from a noisy
// or misbehaving adapter.
func (r *Registry) Register(a Adapter, factsPerSecond float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.AdapterID()
	if id == "" {
		return fmt.Errorf("adapter registration: adapter_id must not be empty")
	}
	if _, exists := r.adapters[id]; exists {
		return fmt.Errorf("adapter already registered: %s", id)
	}
	if factsPerSecond <= 0 {
		factsPerSecond = 50
	}
	r.adapters[id] = a
	r.limiters[id] = rate.NewLimiter(rate.Limit(factsPerSecond), int(factsPerSecond))
	return nil
}

// Get returns an adapter by id.
func (r *Registry) Get(id string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	return a, ok
}

// List returns all registered adapter ids.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}

// Allow reports whether adapterID may emit another fact right now,
// throttling inbound bursts without ever rejecting an individual Fact
// value outright (the caller decides what to do with a disallowed
// fact — typically drop-and-log, never block the adapter's own task).
func (r *Registry) Allow(adapterID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lim, ok := r.limiters[adapterID]
	if !ok {
		return true
	}
	return lim.Allow()
}

// Health returns every registered adapter's current health, keyed by
// adapter id.
func (r *Registry) Health() map[string]Health {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Health, len(r.adapters))
	for id, a := range r.adapters {
		out[id] = a.GetHealth()
	}
	return out
}
