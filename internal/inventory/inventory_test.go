package inventory

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeInventoryFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "devices.yaml")
	content := `devices:
  - device_id: panel-1
    room: kitchen
    host: 10.0.0.5
    port: 8443
    capabilities: [audio, display]
  - device_id: panel-2
    room: hallway
    host: 10.0.0.6
    port: 8443
    suppressed: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoad_PopulatesEndpointsContextsAndCapabilities(t *testing.T) {
	inv, err := Load(writeInventoryFixture(t, t.TempDir()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	endpoints := inv.Endpoints()
	if endpoints["panel-1"].Host != "10.0.0.5" || endpoints["panel-1"].Port != 8443 {
		t.Fatalf("got %+v, want panel-1 at 10.0.0.5:8443", endpoints["panel-1"])
	}

	caps := inv.Capabilities()
	if caps["panel-2"].Suppressed != true {
		t.Fatalf("panel-2 should be marked suppressed")
	}
	if len(caps["panel-1"].Declared) != 2 {
		t.Fatalf("got %v, want [audio display]", caps["panel-1"].Declared)
	}

	devices := inv.Devices()
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}
}

func TestLoad_RejectsEmptyDeviceID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devices.yaml")
	os.WriteFile(path, []byte("devices:\n  - device_id: \"\"\n    room: kitchen\n"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an empty device_id")
	}
}

func TestSetOnline_UpdatesExistingDeviceAndIgnoresUnknown(t *testing.T) {
	inv, err := Load(writeInventoryFixture(t, t.TempDir()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	inv.SetOnline("panel-1", false)
	for _, d := range inv.Devices() {
		if d.DeviceID == "panel-1" && d.Online {
			t.Fatalf("panel-1 should be offline after SetOnline(false)")
		}
	}

	inv.SetOnline("unknown-device", true) // must not panic
}

func TestNoteInteraction_RecordsLastInteractionTimestamp(t *testing.T) {
	inv, err := Load(writeInventoryFixture(t, t.TempDir()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	now := time.Now()
	inv.NoteInteraction("panel-1", now)

	for _, d := range inv.Devices() {
		if d.DeviceID == "panel-1" {
			if d.LastInteractionTS == nil || !d.LastInteractionTS.Equal(now) {
				t.Fatalf("got %v, want %v", d.LastInteractionTS, now)
			}
		}
	}
}

func TestEndpointsSnapshotIsACopy(t *testing.T) {
	inv, err := Load(writeInventoryFixture(t, t.TempDir()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	endpoints := inv.Endpoints()
	endpoints["panel-1"] = PanelEndpoint{Host: "tampered"}

	if inv.Endpoints()["panel-1"].Host == "tampered" {
		t.Fatalf("mutating a returned Endpoints map leaked into the inventory's own state")
	}
}
