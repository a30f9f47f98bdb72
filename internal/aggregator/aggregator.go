// Package aggregator provides a minimal, single-task world-model
// aggregator (P): it folds incoming Facts into per-domain DomainState
// snapshots and publishes a new snapshot to the decision pipeline on
// every change. Every fold writes the house scope; per-room scopes are
// not tracked. The spec treats this as an
// external collaborator outside the core; this package gives it a
// small concrete shape so the decision pipeline has something to
// evaluate against.
//
// Single-writer discipline grounded on agent/agent.go's
// one-owner-goroutine-per-concern wiring: only the aggregator's own
// task ever mutates its internal map, and it never mutates a snapshot
// after publishing it.
package aggregator

import (
	"sync"

	"github.com/trestlehq/coordinator/internal/adapter"
	"github.com/trestlehq/coordinator/pkg/types"
)

// FoldFunc projects one Fact onto the existing DomainState for its
// scope, returning the updated state and whether anything changed. A
// no-change fold must not trigger a decision pipeline invocation.
type FoldFunc func(fact types.Fact, current types.DomainState) (next types.DomainState, changed bool)

// Trigger is published whenever a fold changes a DomainState.
type Trigger struct {
	Updated types.DomainState
	World   map[string]types.DomainState // read-only; never mutated after publish
}

// Aggregator owns the single in-memory world model.
type Aggregator struct {
	mu      sync.Mutex
	folds   map[string]FoldFunc // domain name -> fold function
	world   map[string]types.DomainState
	health  map[string]adapter.Health
	facts   chan types.Fact
	trigger chan Trigger
}

// New constructs an Aggregator. RegisterFold must be called once per
// declared domain before Run starts.
func New(bufferSize int) *Aggregator {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Aggregator{
		folds:   make(map[string]FoldFunc),
		world:   make(map[string]types.DomainState),
		health:  make(map[string]adapter.Health),
		facts:   make(chan types.Fact, bufferSize),
		trigger: make(chan Trigger, bufferSize),
	}
}

// RegisterFold wires one domain's fold function.
func (a *Aggregator) RegisterFold(domain string, fn FoldFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.folds[domain] = fn
}

// Sink returns an adapter.FactSink that feeds this aggregator.
// ReceiveFact never blocks the caller's adapter task beyond the
// buffered channel; a full buffer drops the fact (the aggregator is
// falling behind and backpressure belongs one layer up, at the
// adapter's own rate limiter).
func (a *Aggregator) Sink() adapter.FactSink {
	return adapter.FactSinkFunc(func(f types.Fact) {
		select {
		case a.facts <- f:
		default:
		}
	})
}

// Triggers returns the single-consumer channel of world-model changes
// driving the decision pipeline.
func (a *Aggregator) Triggers() <-chan Trigger {
	return a.trigger
}

// Snapshot returns the current world model by value-copy, safe to hand
// to a caller that is not the aggregator's own task.
func (a *Aggregator) Snapshot() map[string]types.DomainState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.copyWorld()
}

// NoteAdapterHealth records an adapter's latest health value. Folds do
// not read it: no confidence discount is applied and no fact is
// suppressed because of it.
func (a *Aggregator) NoteAdapterHealth(adapterID string, h adapter.Health) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.health[adapterID] = h
}

// Run is the aggregator's single task: it owns a.world exclusively and
// is the only goroutine that ever mutates it. Folding is synchronous,
// in-process, and O(1) per fact; it never suspends.
func (a *Aggregator) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case fact := <-a.facts:
			a.fold(fact)
		}
	}
}

func (a *Aggregator) fold(fact types.Fact) {
	a.mu.Lock()
	domain := domainForFact(fact.FactType)
	fn, ok := a.folds[domain]
	if !ok {
		a.mu.Unlock()
		return
	}
	scopeID := types.HouseScopeID
	key := domain + "@" + scopeID
	current := a.world[key]
	if current.Domain == "" {
		current = types.DomainState{Domain: domain, ScopeID: scopeID}
	}
	next, changed := fn(fact, current)
	if !changed {
		a.mu.Unlock()
		return
	}
	a.world[key] = next
	worldCopy := a.copyWorld()
	a.mu.Unlock()

	select {
	case a.trigger <- Trigger{Updated: next, World: worldCopy}:
	default:
	}
}

// copyWorld must be called with a.mu held.
func (a *Aggregator) copyWorld() map[string]types.DomainState {
	cp := make(map[string]types.DomainState, len(a.world))
	for k, v := range a.world {
		cp[k] = v
	}
	return cp
}

// domainForFact is the reference mapping from fact_type to the domain
// it projects onto; a real deployment's profile may declare additional
// domains with their own registered fold functions under other names.
func domainForFact(ft types.FactType) string {
	switch ft {
	case types.FactPresence:
		return "occupancy"
	case types.FactMotion:
		return "motion"
	case types.FactContact:
		return "security"
	case types.FactMediaState:
		return "media_activity"
	case types.FactEnvironment:
		return "weather"
	default:
		return string(ft)
	}
}
