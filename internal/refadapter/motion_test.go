package refadapter

import (
	"testing"

	"github.com/trestlehq/coordinator/internal/adapter"
	"github.com/trestlehq/coordinator/pkg/types"
)

func TestMotionAdapter_ReportMotionPublishesToMatchingSubscribers(t *testing.T) {
	m := NewMotionAdapter("motion-1")

	var received types.Fact
	unsub := m.SubscribeFacts(adapter.FactSinkFunc(func(f types.Fact) { received = f }), []types.FactType{types.FactMotion})
	defer unsub()

	if err := m.ReportMotion("sensor-1", true, 0.95); err != nil {
		t.Fatalf("ReportMotion: %v", err)
	}
	if received.FactType != types.FactMotion || received.SourceID != "sensor-1" {
		t.Fatalf("got %+v, want a FactMotion from sensor-1", received)
	}
	if received.Data["detected"] != true {
		t.Fatalf("got detected=%v, want true", received.Data["detected"])
	}
}

func TestMotionAdapter_SubscriberFilteredOutByFactType(t *testing.T) {
	m := NewMotionAdapter("motion-1")

	called := false
	unsub := m.SubscribeFacts(adapter.FactSinkFunc(func(f types.Fact) { called = true }), []types.FactType{types.FactPresence})
	defer unsub()

	if err := m.ReportMotion("sensor-1", true, 0.9); err != nil {
		t.Fatalf("ReportMotion: %v", err)
	}
	if called {
		t.Fatalf("a subscriber filtered to FactPresence must not receive FactMotion")
	}
}

func TestMotionAdapter_UnsubscribeStopsDelivery(t *testing.T) {
	m := NewMotionAdapter("motion-1")

	calls := 0
	unsub := m.SubscribeFacts(adapter.FactSinkFunc(func(f types.Fact) { calls++ }), nil)
	m.ReportMotion("sensor-1", true, 0.9)
	unsub()
	m.ReportMotion("sensor-1", true, 0.9)

	if calls != 1 {
		t.Fatalf("got %d deliveries, want 1 (after unsubscribe)", calls)
	}
}

func TestMotionAdapter_SetHealthIsObservedByGetHealth(t *testing.T) {
	m := NewMotionAdapter("motion-1")
	if m.GetHealth() != adapter.HealthOK {
		t.Fatalf("got %v, want HealthOK initially", m.GetHealth())
	}
	m.SetHealth(adapter.HealthDegraded)
	if m.GetHealth() != adapter.HealthDegraded {
		t.Fatalf("got %v, want HealthDegraded after SetHealth", m.GetHealth())
	}
}

func TestMotionAdapter_ApplyIntentIsANoOp(t *testing.T) {
	m := NewMotionAdapter("motion-1")
	if err := m.ApplyIntent(types.Intent{}); err != nil {
		t.Fatalf("ApplyIntent: %v", err)
	}
}
