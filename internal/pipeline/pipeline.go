// Package pipeline drives the synchronous D -> E -> F -> G decision
// computation from one world-model trigger (P) through to a delivered
// RealizationFrame (J's SendAlert), wiring the otherwise-independent
// policy, attention, realize, device, and trace packages into one
// call per trigger. Every step here is a pure function except the final
// delivery, a single send of the frame to the selected panel's session.
//
// Grounded on control-plane/internal/worker/alert_worker.go's
// evaluate-then-dispatch shape, generalized from anomaly alerting to
// the five-stage attention pipeline.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/trestlehq/coordinator/internal/attention"
	"github.com/trestlehq/coordinator/internal/device"
	"github.com/trestlehq/coordinator/internal/policy"
	"github.com/trestlehq/coordinator/internal/realize"
	"github.com/trestlehq/coordinator/internal/trace"
	"github.com/trestlehq/coordinator/pkg/types"
)

// DeviceProvider supplies the current set of paired devices and their
// capability declarations; owned by the host integration, not this
// package.
type DeviceProvider interface {
	Devices() []types.DeviceContext
	Capabilities() map[string]device.Capabilities
}

// Delivery is the sink for a winning decision's realized frame.
type Delivery interface {
	DeliverAlert(deviceID string, frame types.RealizationFrame) error
}

// Driver ties the pure decision stages to a profile, a device
// provider, a delivery sink, and optional tracing.
type Driver struct {
	profile  types.LoadedProfile
	devices  DeviceProvider
	delivery Delivery
	emitter  trace.Emitter
	traceCfg types.TraceConfig
	logger   *slog.Logger
	alertSeq int64
}

// New constructs a Driver. emitter may be trace.NullEmitter{} to
// disable tracing entirely at zero marginal cost per decision.
func New(profile types.LoadedProfile, devices DeviceProvider, delivery Delivery, emitter trace.Emitter, traceCfg types.TraceConfig, logger *slog.Logger) *Driver {
	if emitter == nil {
		emitter = trace.NullEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		profile:  profile,
		devices:  devices,
		delivery: delivery,
		emitter:  emitter,
		traceCfg: traceCfg,
		logger:   logger,
	}
}

// cooldownTracker is the minimal per-domain cooldown state this
// reference driver keeps; a fuller deployment would key this by rule
// id and room, not just domain.
type cooldownTracker struct {
	lastFired map[string]time.Time
}

func newCooldownTracker() *cooldownTracker {
	return &cooldownTracker{lastFired: make(map[string]time.Time)}
}

func (c *cooldownTracker) active(domain string, now time.Time, window time.Duration) bool {
	last, ok := c.lastFired[domain]
	return ok && now.Sub(last) < window
}

func (c *cooldownTracker) record(domain string, now time.Time) {
	c.lastFired[domain] = now
}

var cooldown = newCooldownTracker()

// cooldownWindow is a reference default; a real deployment would make
// this profile-configurable per rule.
const cooldownWindow = 60 * time.Second

// Handle runs D->E->F->G for one trigger and, if a winning candidate
// exists, selects a device and delivers the realized frame. It never
// returns an error: every failure mode here is contained and logged,
// matching the decision path's total-function contract.
func (d *Driver) Handle(trigger types.DomainState, world map[string]types.DomainState, now time.Time) {
	start := now
	candidates := policy.Evaluate(d.profile, trigger, world, now)

	var winner *types.IntentCandidate
	for i := range candidates {
		if !candidates[i].Suppressed {
			winner = &candidates[i]
			break
		}
	}

	shouldTrace := trace.ShouldTrace(d.traceCfg, sampleRateFor(winner))
	var builder *trace.Builder
	if shouldTrace {
		builder = trace.NewBuilder(generateDecisionID(trigger, now), trigger, quietActive(d.profile, now))
		for _, c := range candidates {
			builder.AddRuleEvaluation(types.RuleEvaluation{RuleID: c.RuleID, Matched: true})
		}
	}

	if winner == nil {
		if builder != nil {
			builder.SetDuration(time.Since(start).Microseconds())
			d.emitter.Emit(builder.Build())
		}
		return
	}

	quietNow := quietActive(d.profile, now)
	cooldownActive := cooldown.active(winner.Domain, now, cooldownWindow)

	devices := d.devices.Devices()
	caps := d.devices.Capabilities()

	result := device.Select(device.SelectionTarget{}, devices, caps, now)
	for _, dev := range devices {
		if dev.DeviceID != result.DeviceID {
			continue
		}
		level := attention.Compute(types.AttentionContext{
			AlertPriority:               winner.Importance.ToAlertPriority(),
			QuietHours:                  quietNow && !winner.BypassQuietHours,
			CooldownActive:              cooldownActive,
			EscalationLevel:             0,
			DeviceProximityNear:         dev.Room != "" && dev.Room == world[trigger.Key()].Metadata["room"],
			DeviceSupportsInterruptions: dev.SupportsInterruptions(),
			DeviceRecentlyActive:        recentlyActive(dev, now),
		})

		intents := realize.RealizeAttention(level, dev)
		if len(intents) == 0 {
			continue
		}
		d.alertSeq++
		frame := realize.ProduceRealizationFrame(generateAlertID(d.alertSeq, now), level, intents)

		if err := d.delivery.DeliverAlert(result.DeviceID, frame); err != nil {
			d.logger.Debug("alert delivery failed", "device_id", result.DeviceID, "error", err)
		}

		if builder != nil {
			builder.SetOutcome(winner, result.DeviceID, level)
		}
	}

	cooldown.record(winner.Domain, now)

	if builder != nil {
		builder.SetDuration(time.Since(start).Microseconds())
		d.emitter.Emit(builder.Build())
	}
}

func sampleRateFor(winner *types.IntentCandidate) float64 {
	if winner == nil {
		return 0.1
	}
	if winner.Importance >= types.ImportanceHigh {
		return 1.0
	}
	return 0.1
}

func quietActive(profile types.LoadedProfile, now time.Time) bool {
	if profile.Policy.QuietHours == nil {
		return false
	}
	tod := time.Duration(now.Hour())*time.Hour + time.Duration(now.Minute())*time.Minute + time.Duration(now.Second())*time.Second
	return profile.Policy.QuietHours.Active(tod)
}

func recentlyActive(dev types.DeviceContext, now time.Time) bool {
	if dev.LastInteractionTS == nil {
		return false
	}
	return now.Sub(*dev.LastInteractionTS) < 5*time.Minute
}

func generateDecisionID(trigger types.DomainState, now time.Time) string {
	return trigger.Domain + "-" + uuid.NewString()
}

func generateAlertID(seq int64, now time.Time) string {
	return uuid.NewString()
}
