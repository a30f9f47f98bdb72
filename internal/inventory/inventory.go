// Package inventory provides the reference cmd/coordinator binary's
// stand-in for the host-provided device inventory: the spec treats
// device/room/capability bookkeeping as an external collaborator, so
// this is deliberately minimal — a YAML file of paired panels, reloaded
// only at startup.
//
// Grounded on internal/profile/loader.go's YAML-struct-then-convert
// shape, applied to a much smaller document.
package inventory

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trestlehq/coordinator/internal/device"
	"github.com/trestlehq/coordinator/pkg/types"
)

type deviceYAML struct {
	DeviceID     string   `yaml:"device_id"`
	Room         string   `yaml:"room"`
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	Capabilities []string `yaml:"capabilities"`
	Suppressed   bool     `yaml:"suppressed"`
}

type inventoryYAML struct {
	Devices []deviceYAML `yaml:"devices"`
}

// PanelEndpoint is where the coordinator dials for this device's
// WebSocket session and HTTP pairing surface.
type PanelEndpoint struct {
	Host string
	Port int
}

// Inventory holds the reference device list in memory, with mutable
// per-device online/interaction state the decision pipeline reads.
type Inventory struct {
	mu        sync.RWMutex
	endpoints map[string]PanelEndpoint
	contexts  map[string]types.DeviceContext
	caps      map[string]device.Capabilities
}

// Load reads a devices.yaml file per the shape documented above.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device inventory: %w", err)
	}
	var doc inventoryYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing device inventory: %w", err)
	}

	inv := &Inventory{
		endpoints: make(map[string]PanelEndpoint),
		contexts:  make(map[string]types.DeviceContext),
		caps:      make(map[string]device.Capabilities),
	}
	for _, d := range doc.Devices {
		if d.DeviceID == "" {
			return nil, fmt.Errorf("device inventory: device_id must not be empty")
		}
		inv.endpoints[d.DeviceID] = PanelEndpoint{Host: d.Host, Port: d.Port}
		inv.contexts[d.DeviceID] = types.DeviceContext{
			DeviceID: d.DeviceID,
			Room:     d.Room,
			Online:   true,
			Signals:  make(map[string]any),
		}
		inv.caps[d.DeviceID] = device.Capabilities{Declared: d.Capabilities, Suppressed: d.Suppressed}
	}
	return inv, nil
}

// Endpoints returns every known panel's dial target, keyed by device id.
func (inv *Inventory) Endpoints() map[string]PanelEndpoint {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make(map[string]PanelEndpoint, len(inv.endpoints))
	for k, v := range inv.endpoints {
		out[k] = v
	}
	return out
}

// Devices implements pipeline.DeviceProvider.
func (inv *Inventory) Devices() []types.DeviceContext {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make([]types.DeviceContext, 0, len(inv.contexts))
	for _, d := range inv.contexts {
		out = append(out, d)
	}
	return out
}

// Capabilities implements pipeline.DeviceProvider.
func (inv *Inventory) Capabilities() map[string]device.Capabilities {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	out := make(map[string]device.Capabilities, len(inv.caps))
	for k, v := range inv.caps {
		out[k] = v
	}
	return out
}

// SetOnline updates a device's reachability, called from session
// state-change hooks.
func (inv *Inventory) SetOnline(deviceID string, online bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	ctx, ok := inv.contexts[deviceID]
	if !ok {
		return
	}
	ctx.Online = online
	inv.contexts[deviceID] = ctx
}

// NoteInteraction records the last time a device's panel sent an
// input_event, consulted by the attention model's recently-active rule.
func (inv *Inventory) NoteInteraction(deviceID string, at time.Time) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	ctx, ok := inv.contexts[deviceID]
	if !ok {
		return
	}
	ctx.LastInteractionTS = &at
	inv.contexts[deviceID] = ctx
}
