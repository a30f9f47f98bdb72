package device

import (
	"testing"
	"time"

	"github.com/trestlehq/coordinator/pkg/types"
)

func device_(id, room string, online bool) types.DeviceContext {
	return types.DeviceContext{DeviceID: id, Room: room, Online: online, Signals: map[string]any{}}
}

func TestSelect_NoEligibleDevicesReturnsEmptyResult(t *testing.T) {
	devices := []types.DeviceContext{device_("a", "kitchen", false)}
	caps := map[string]Capabilities{"a": {}}
	result := Select(SelectionTarget{}, devices, caps, time.Now())
	if result.DeviceID != "" {
		t.Fatalf("got %q, want empty", result.DeviceID)
	}
	if result.CandidatesEvaluated != 0 {
		t.Fatalf("got %d candidates evaluated, want 0", result.CandidatesEvaluated)
	}
}

func TestSelect_ExcludesOfflineAndSuppressedAndMissingCapabilities(t *testing.T) {
	devices := []types.DeviceContext{
		device_("offline", "kitchen", false),
		device_("suppressed", "kitchen", true),
		device_("unknown", "kitchen", true),
		device_("eligible", "kitchen", true),
	}
	caps := map[string]Capabilities{
		"suppressed": {Suppressed: true},
		"eligible":   {Declared: []string{"audio"}},
	}
	result := Select(SelectionTarget{RequiredCapabilities: []string{"audio"}}, devices, caps, time.Now())
	if result.DeviceID != "eligible" {
		t.Fatalf("got %q, want eligible", result.DeviceID)
	}
	if result.CandidatesEvaluated != 1 {
		t.Fatalf("got %d candidates evaluated, want 1", result.CandidatesEvaluated)
	}
}

func TestSelect_RoomMatchOutscoresRoomMismatch(t *testing.T) {
	devices := []types.DeviceContext{
		device_("wrong-room", "bedroom", true),
		device_("right-room", "kitchen", true),
	}
	caps := map[string]Capabilities{"wrong-room": {}, "right-room": {}}
	result := Select(SelectionTarget{RoomID: "kitchen"}, devices, caps, time.Now())
	if result.DeviceID != "right-room" {
		t.Fatalf("got %q, want right-room", result.DeviceID)
	}
}

func TestSelect_TieBreaksByMostRecentInteractionThenDeviceID(t *testing.T) {
	now := time.Now()
	older := now.Add(-time.Hour)
	newer := now.Add(-10 * time.Minute) // both outside the 300s recent-interaction window: equal scores

	devices := []types.DeviceContext{
		{DeviceID: "b", Online: true, LastInteractionTS: &older, Signals: map[string]any{}},
		{DeviceID: "a", Online: true, LastInteractionTS: &newer, Signals: map[string]any{}},
	}
	caps := map[string]Capabilities{"a": {}, "b": {}}
	result := Select(SelectionTarget{}, devices, caps, now)
	if result.DeviceID != "a" {
		t.Fatalf("got %q, want a (more recently active)", result.DeviceID)
	}
}

func TestSelect_TieBreaksByDeviceIDWhenFullyTied(t *testing.T) {
	devices := []types.DeviceContext{
		device_("zulu", "", true),
		device_("alpha", "", true),
	}
	caps := map[string]Capabilities{"zulu": {}, "alpha": {}}
	result := Select(SelectionTarget{}, devices, caps, time.Now())
	if result.DeviceID != "alpha" {
		t.Fatalf("got %q, want alpha (lexicographically first)", result.DeviceID)
	}
}

func TestSelect_ExcludedDeviceIsNeverChosen(t *testing.T) {
	devices := []types.DeviceContext{
		device_("excluded", "", true),
	}
	caps := map[string]Capabilities{"excluded": {}}
	result := Select(SelectionTarget{ExcludedDevices: []string{"excluded"}}, devices, caps, time.Now())
	if result.DeviceID != "" {
		t.Fatalf("got %q, want empty", result.DeviceID)
	}
}
