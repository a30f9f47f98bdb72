package types

import "time"

// TraceConfig controls whether and how decisions are traced.
type TraceConfig struct {
	Enabled        bool
	SampleRate     float64 // [0,1]
	IncludeMetrics bool
	IncludeFusion  bool
}

// RuleEvaluation records one rule's contribution to a decision, with
// explicit failed conditions so "why didn't this fire?" is answerable
// from the trace alone.
type RuleEvaluation struct {
	RuleID           string
	Matched          bool
	FailedConditions []string
	Candidate        *IntentCandidate // nil if the rule contributed effects only
}

// DecisionTrace is a structured record covering trigger, domain
// snapshot, per-rule evaluation, quiet-hours state, outcome, and
// optional timing metrics.
type DecisionTrace struct {
	DecisionID       string
	ParentDecisionID string // empty means no escalation/retry lineage
	Trigger          DomainState
	QuietHoursActive bool
	Rules            []RuleEvaluation
	WinningIntent    *IntentCandidate
	SelectedDeviceID string
	Level            AttentionLevel
	StartedAt        time.Time
	DurationMicros   int64 // 0 when metrics are not included
}
