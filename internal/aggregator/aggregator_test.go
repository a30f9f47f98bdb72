package aggregator

import (
	"testing"
	"time"

	"github.com/trestlehq/coordinator/pkg/types"
)

func TestAggregator_FoldPublishesTriggerOnChange(t *testing.T) {
	agg := New(16)
	agg.RegisterFold("occupancy", OccupancyFold)

	done := make(chan struct{})
	defer close(done)
	go agg.Run(done)

	agg.Sink().ReceiveFact(types.Fact{FactType: types.FactPresence, Data: map[string]any{"occupied": true}})

	select {
	case trig := <-agg.Triggers():
		if trig.Updated.Domain != "occupancy" || trig.Updated.State != "occupied" {
			t.Fatalf("got %+v, want occupancy/occupied", trig.Updated)
		}
		if trig.World["occupancy@"+types.HouseScopeID].State != "occupied" {
			t.Fatalf("world snapshot missing the update")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for trigger")
	}
}

func TestAggregator_NoChangeFoldNeverTriggers(t *testing.T) {
	agg := New(16)
	agg.RegisterFold("occupancy", OccupancyFold)

	done := make(chan struct{})
	defer close(done)
	go agg.Run(done)

	agg.Sink().ReceiveFact(types.Fact{FactType: types.FactPresence, Data: map[string]any{"occupied": false}})
	select {
	case trig := <-agg.Triggers():
		t.Fatalf("unexpected trigger for a no-op fold: %+v", trig.Updated)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAggregator_UnregisteredDomainIsSilentlyDropped(t *testing.T) {
	agg := New(16)

	done := make(chan struct{})
	defer close(done)
	go agg.Run(done)

	agg.Sink().ReceiveFact(types.Fact{FactType: types.FactPresence, Data: map[string]any{"occupied": true}})
	select {
	case trig := <-agg.Triggers():
		t.Fatalf("unexpected trigger for unregistered domain: %+v", trig.Updated)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestAggregator_SnapshotIsACopyNotSharedState(t *testing.T) {
	agg := New(16)
	agg.RegisterFold("occupancy", OccupancyFold)

	done := make(chan struct{})
	defer close(done)
	go agg.Run(done)

	agg.Sink().ReceiveFact(types.Fact{FactType: types.FactPresence, Data: map[string]any{"occupied": true}})
	<-agg.Triggers()

	snap := agg.Snapshot()
	snap["occupancy@"+types.HouseScopeID] = types.DomainState{Domain: "occupancy", State: "tampered"}

	if agg.Snapshot()["occupancy@"+types.HouseScopeID].State == "tampered" {
		t.Fatalf("mutating a returned snapshot leaked into the aggregator's own world model")
	}
}
