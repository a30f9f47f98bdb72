package aggregator

import (
	"testing"

	"github.com/trestlehq/coordinator/pkg/types"
)

func TestOccupancyFold_TransitionsAndSuppressesNoOpUpdates(t *testing.T) {
	current := types.DomainState{State: "vacant"}
	next, changed := OccupancyFold(types.Fact{Data: map[string]any{"occupied": true}}, current)
	if !changed || next.State != "occupied" {
		t.Fatalf("got state=%q changed=%v, want occupied/true", next.State, changed)
	}
	_, changedAgain := OccupancyFold(types.Fact{Data: map[string]any{"occupied": true}}, next)
	if changedAgain {
		t.Fatalf("repeated identical fact should not report a change")
	}
}

func TestMotionFold_AlwaysSurfacesEventOnDetection(t *testing.T) {
	current := types.DomainState{State: "detected", Event: ""}
	next, changed := MotionFold(types.Fact{Data: map[string]any{"detected": true}}, current)
	if !changed {
		t.Fatalf("detection with unchanged state should still report changed=true via the event")
	}
	if next.Event != "motion_detected" {
		t.Fatalf("got event %q, want motion_detected", next.Event)
	}
}

func TestMotionFold_ClearHasNoEvent(t *testing.T) {
	next, changed := MotionFold(types.Fact{Data: map[string]any{"detected": false}}, types.DomainState{State: "detected"})
	if !changed || next.Event != "" {
		t.Fatalf("got event=%q changed=%v, want empty event / changed", next.Event, changed)
	}
}

func TestSecurityFold_OpenClosedTransition(t *testing.T) {
	next, changed := SecurityFold(types.Fact{Data: map[string]any{"open": true}}, types.DomainState{State: "closed"})
	if !changed || next.State != "open" {
		t.Fatalf("got state=%q changed=%v, want open/true", next.State, changed)
	}
}

func TestMediaActivityFold_PassesStateThrough(t *testing.T) {
	next, changed := MediaActivityFold(types.Fact{Data: map[string]any{"state": "playing"}}, types.DomainState{State: "idle"})
	if !changed || next.State != "playing" {
		t.Fatalf("got state=%q changed=%v, want playing/true", next.State, changed)
	}
}

func TestWeatherFold_StoresMeasurementInMetadataAndDetectsNoChange(t *testing.T) {
	current := types.DomainState{}
	next, changed := WeatherFold(types.Fact{Data: map[string]any{"measurement": "temp", "value": 72.0}}, current)
	if !changed || next.Metadata["temp"] != 72.0 {
		t.Fatalf("got metadata=%v changed=%v, want temp=72.0/true", next.Metadata, changed)
	}
	_, changedAgain := WeatherFold(types.Fact{Data: map[string]any{"measurement": "temp", "value": 72.0}}, next)
	if changedAgain {
		t.Fatalf("repeated identical measurement should not report a change")
	}
}
