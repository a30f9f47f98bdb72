// Package attention implements the attention model (E): a pure
// function mapping an AttentionContext to an AttentionLevel.
package attention

import (
	"github.com/trestlehq/coordinator/internal/constants"
	"github.com/trestlehq/coordinator/pkg/types"
)

// Compute evaluates the attention rules in fixed order. Never returns a
// level above critical; during quiet hours only rule 1 (life-safety)
// can yield interrupt/critical.
func Compute(ctx types.AttentionContext) types.AttentionLevel {
	// Rule 1: life-safety terminates immediately.
	if ctx.AlertPriority >= constants.LifeSafetyThreshold {
		return types.AttentionCritical
	}

	// Rule 2: cooldown with no escalation terminates at passive.
	if ctx.CooldownActive && ctx.EscalationLevel == 0 {
		return types.AttentionPassive
	}

	// Rule 3: base level by threshold.
	level := baseLevel(ctx.AlertPriority)

	// Rule 4: step up by escalation level, clamped at critical.
	level = level.StepUp(ctx.EscalationLevel)

	// Rule 5: proximity + recently active steps up once.
	if ctx.DeviceProximityNear && ctx.DeviceRecentlyActive {
		level = level.StepUp(1)
	}

	// Rule 6: no interruption support caps at glance.
	if !ctx.DeviceSupportsInterruptions {
		level = level.Cap(types.AttentionGlance)
	}

	// Rule 7: quiet hours caps at notify.
	if ctx.QuietHours && level > types.AttentionNotify {
		level = types.AttentionNotify
	}

	return level
}

func baseLevel(priority int) types.AttentionLevel {
	switch {
	case priority < constants.PriorityGlance:
		return types.AttentionPassive
	case priority < constants.PriorityNotify:
		return types.AttentionGlance
	case priority < constants.PriorityInterrupt:
		return types.AttentionNotify
	default:
		return types.AttentionInterrupt
	}
}
