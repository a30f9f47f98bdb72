// Package trace implements decision tracing (H): opt-in, sampled,
// bounded structured records of one decision's rule evaluation and
// outcome. When disabled there is zero semantic difference and no
// allocation on the decision path.
package trace

import (
	"math/rand"

	"github.com/trestlehq/coordinator/pkg/types"
)

// ShouldTrace consults cfg.Enabled and an unbiased sampling draw.
// sampleRate lets callers pass a higher rate for more important
// decisions (see constants.DefaultSampleRateHigh/Low).
func ShouldTrace(cfg types.TraceConfig, sampleRate float64) bool {
	if !cfg.Enabled {
		return false
	}
	if sampleRate >= 1.0 {
		return true
	}
	if sampleRate <= 0.0 {
		return false
	}
	return rand.Float64() < sampleRate
}

// Builder accumulates one decision's trace. Allocated per decision only
// when ShouldTrace returns true.
type Builder struct {
	trace types.DecisionTrace
}

// NewBuilder starts a trace for the given trigger.
func NewBuilder(decisionID string, trigger types.DomainState, quietHoursActive bool) *Builder {
	return &Builder{
		trace: types.DecisionTrace{
			DecisionID:       decisionID,
			Trigger:          trigger,
			QuietHoursActive: quietHoursActive,
		},
	}
}

// WithParent records the escalation/retry lineage parent decision id.
func (b *Builder) WithParent(parentID string) *Builder {
	b.trace.ParentDecisionID = parentID
	return b
}

// AddRuleEvaluation records one rule's contribution.
func (b *Builder) AddRuleEvaluation(ev types.RuleEvaluation) *Builder {
	b.trace.Rules = append(b.trace.Rules, ev)
	return b
}

// SetOutcome records the winning candidate, selected device, and level.
func (b *Builder) SetOutcome(winning *types.IntentCandidate, deviceID string, level types.AttentionLevel) *Builder {
	b.trace.WinningIntent = winning
	b.trace.SelectedDeviceID = deviceID
	b.trace.Level = level
	return b
}

// SetDuration records microsecond timing when IncludeMetrics is set.
func (b *Builder) SetDuration(micros int64) *Builder {
	b.trace.DurationMicros = micros
	return b
}

// Build finalizes the trace record.
func (b *Builder) Build() types.DecisionTrace {
	return b.trace
}
