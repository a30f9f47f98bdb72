package adapter

import (
	"testing"

	"github.com/trestlehq/coordinator/pkg/types"
)

type fakeAdapter struct {
	id     string
	health Health
}

func (f fakeAdapter) AdapterID() string { return f.id }
func (f fakeAdapter) GetHealth() Health { return f.health }
func (f fakeAdapter) SubscribeFacts(FactSink, []types.FactType) Unsubscribe {
	return func() {}
}
func (f fakeAdapter) ApplyIntent(types.Intent) error { return nil }

func TestRegistry_RegisterThenGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(fakeAdapter{id: "motion-1", health: HealthOK}, 10); err != nil {
		t.Fatalf("Register: %v", err)
	}
	a, ok := r.Get("motion-1")
	if !ok || a.AdapterID() != "motion-1" {
		t.Fatalf("got (%v, %v), want motion-1 registered", a, ok)
	}
}

func TestRegistry_RejectsEmptyAdapterID(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(fakeAdapter{id: ""}, 10); err == nil {
		t.Fatalf("expected an error for an empty adapter id")
	}
}

func TestRegistry_RejectsDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeAdapter{id: "motion-1"}, 10)
	if err := r.Register(fakeAdapter{id: "motion-1"}, 10); err == nil {
		t.Fatalf("expected an error registering the same adapter id twice")
	}
}

func TestRegistry_HealthReflectsEachAdapter(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeAdapter{id: "a", health: HealthOK}, 10)
	r.Register(fakeAdapter{id: "b", health: HealthOffline}, 10)

	health := r.Health()
	if health["a"] != HealthOK || health["b"] != HealthOffline {
		t.Fatalf("got %+v, want a=ok b=offline", health)
	}
}

func TestRegistry_AllowThrottlesBurstsAboveLimit(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeAdapter{id: "a"}, 1) // 1/sec, burst 1

	if !r.Allow("a") {
		t.Fatalf("first call within burst should be allowed")
	}
	if r.Allow("a") {
		t.Fatalf("second immediate call should be throttled")
	}
}

func TestRegistry_AllowUnknownAdapterIsAlwaysTrue(t *testing.T) {
	r := NewRegistry()
	if !r.Allow("never-registered") {
		t.Fatalf("an adapter with no limiter should never be throttled")
	}
}

func TestRegistry_ListReturnsAllRegisteredIDs(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeAdapter{id: "a"}, 10)
	r.Register(fakeAdapter{id: "b"}, 10)

	ids := r.List()
	if len(ids) != 2 {
		t.Fatalf("got %v, want 2 ids", ids)
	}
}
