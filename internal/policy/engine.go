// Package policy implements the decision pipeline's rule evaluation
// step: a pure, total, deterministic function from a loaded profile and
// a world-model trigger to an ordered list of intent candidates.
//
// Evaluation never suspends; the teacher's evaluator_worker.go threshold/consecutive-
// state pattern is generalized here from anomaly classification into
// declarative rule matching.
package policy

import (
	"fmt"
	"sort"
	"time"

	"github.com/trestlehq/coordinator/pkg/types"
)

const quietHoursReason = "quiet_hours"

// Evaluate runs every rule in profile.Policy.Rules against trigger and
// the current world snapshot, in declaration order, and returns the
// full ordered candidate list (including suppressed candidates).
//
// Two invocations with structurally equal inputs always yield
// structurally equal outputs; Evaluate never throws.
func Evaluate(profile types.LoadedProfile, trigger types.DomainState, world map[string]types.DomainState, currentTime time.Time) []types.IntentCandidate {
	activeEffects := collectActiveEffects(profile.Policy.Rules, world)
	quietActive := false
	if profile.Policy.QuietHours != nil {
		quietActive = profile.Policy.QuietHours.Active(timeOfDay(currentTime))
	}

	candidates := make([]types.IntentCandidate, 0, len(profile.Policy.Rules))
	for _, rule := range profile.Policy.Rules {
		cand, emit := evaluateRule(rule, trigger, world, quietActive, activeEffects, currentTime)
		if emit {
			candidates = append(candidates, cand)
		}
	}
	return candidates
}

// activeEffect is one rule's declared suppression effect, live because
// its `when` pattern currently matches some domain state in the world.
type activeEffect struct {
	suppressBelowImportance types.Importance
}

// collectActiveEffects scans every rule whose `when` currently matches
// some state in world and collects effects, used for
// suppress_below_importance gating before rule iteration proper.
func collectActiveEffects(rules []types.PolicyRule, world map[string]types.DomainState) []activeEffect {
	var effects []activeEffect
	for _, rule := range rules {
		if rule.Effects == nil || !rule.Effects.HasSuppressBelow {
			continue
		}
		for _, state := range world {
			if rule.When.Matches(state) {
				effects = append(effects, activeEffect{suppressBelowImportance: rule.Effects.SuppressBelowImportance})
				break
			}
		}
	}
	return effects
}

func evaluateRule(rule types.PolicyRule, trigger types.DomainState, world map[string]types.DomainState, quietActive bool, activeEffects []activeEffect, currentTime time.Time) (types.IntentCandidate, bool) {
	// Step 1: when must match the trigger.
	if !rule.When.Matches(trigger) {
		return types.IntentCandidate{}, false
	}

	// Step 2: all conditions must equal the corresponding other-domain states.
	for domain, want := range rule.Conditions {
		state, ok := world[domainKey(domain, trigger.ScopeID)]
		if !ok {
			state, ok = lookupDomain(world, domain)
		}
		if !ok || state.State != want {
			return types.IntentCandidate{}, false
		}
	}

	// Step 3: rules without classify contribute effects only.
	if rule.Classify == nil {
		return types.IntentCandidate{}, false
	}

	base := types.IntentCandidate{
		Domain:           trigger.Domain,
		RuleID:           rule.RuleID,
		Importance:       rule.Classify.Importance,
		Interrupt:        rule.Classify.Interrupt,
		BypassQuietHours: rule.Classify.BypassQuietHours,
		ScopeID:          trigger.ScopeID,
		Timestamp:        currentTime,
	}

	// Step 4: suppress_if, checked in sorted domain order.
	suppressDomains := make([]string, 0, len(rule.SuppressIf))
	for domain := range rule.SuppressIf {
		suppressDomains = append(suppressDomains, domain)
	}
	sort.Strings(suppressDomains)
	for _, domain := range suppressDomains {
		val := rule.SuppressIf[domain]
		state, ok := lookupDomain(world, domain)
		if ok && state.State == val {
			base.Suppressed = true
			base.SuppressionReason = fmt.Sprintf("%s=%s", domain, val)
			return base, true
		}
	}

	// Step 5: quiet hours.
	if quietActive && !rule.Classify.BypassQuietHours {
		base.Suppressed = true
		base.SuppressionReason = quietHoursReason
		base.Interrupt = false
		return base, true
	}

	// Step 6: active effects suppress_below_importance.
	for _, eff := range activeEffects {
		if rule.Classify.Importance < eff.suppressBelowImportance {
			base.Suppressed = true
			base.SuppressionReason = fmt.Sprintf("importance below %s", eff.suppressBelowImportance)
			return base, true
		}
	}

	// Step 7: matched.
	return base, true
}

// lookupDomain finds a DomainState for the named domain regardless of
// scope, preferring house scope and otherwise the lowest world key.
// Other-domain condition matches are scope-agnostic: a condition
// references a domain name, not a scope id.
func lookupDomain(world map[string]types.DomainState, domain string) (types.DomainState, bool) {
	if s, ok := world[domainKey(domain, types.HouseScopeID)]; ok {
		return s, true
	}
	var found types.DomainState
	foundKey, ok := "", false
	for k, s := range world {
		if s.Domain == domain && (!ok || k < foundKey) {
			found, foundKey, ok = s, k, true
		}
	}
	return found, ok
}

func domainKey(domain, scopeID string) string {
	return domain + "@" + scopeID
}

func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}
