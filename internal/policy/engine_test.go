package policy

import (
	"testing"
	"time"

	"github.com/trestlehq/coordinator/pkg/types"
)

func profileWithRules(rules ...types.PolicyRule) types.LoadedProfile {
	return types.LoadedProfile{Policy: types.PolicyDocument{Rules: rules}}
}

func TestEvaluate_UnmatchedWhenEmitsNoCandidate(t *testing.T) {
	profile := profileWithRules(types.PolicyRule{
		RuleID:   "r1",
		When:     types.WhenPattern{Domain: "security", State: "open"},
		Classify: &types.Classify{Importance: types.ImportanceHigh},
	})
	trigger := types.DomainState{Domain: "security", State: "closed", ScopeID: types.HouseScopeID}
	got := Evaluate(profile, trigger, nil, time.Now())
	if len(got) != 0 {
		t.Fatalf("got %d candidates, want 0", len(got))
	}
}

func TestEvaluate_ConditionsMustAllMatchWorldState(t *testing.T) {
	profile := profileWithRules(types.PolicyRule{
		RuleID:     "r1",
		When:       types.WhenPattern{Domain: "motion", Event: "motion_detected"},
		Conditions: map[string]string{"occupancy": "vacant"},
		Classify:   &types.Classify{Importance: types.ImportanceHigh},
	})
	trigger := types.DomainState{Domain: "motion", Event: "motion_detected", ScopeID: types.HouseScopeID}

	world := map[string]types.DomainState{
		"occupancy@" + types.HouseScopeID: {Domain: "occupancy", State: "occupied"},
	}
	if got := Evaluate(profile, trigger, world, time.Now()); len(got) != 0 {
		t.Fatalf("got %d candidates, want 0 (condition mismatch)", len(got))
	}

	world["occupancy@"+types.HouseScopeID] = types.DomainState{Domain: "occupancy", State: "vacant"}
	got := Evaluate(profile, trigger, world, time.Now())
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1 (condition satisfied)", len(got))
	}
}

func TestEvaluate_RuleWithoutClassifyContributesNoCandidate(t *testing.T) {
	profile := profileWithRules(types.PolicyRule{
		RuleID: "r1",
		When:   types.WhenPattern{Domain: "security", State: "open"},
	})
	trigger := types.DomainState{Domain: "security", State: "open", ScopeID: types.HouseScopeID}
	if got := Evaluate(profile, trigger, nil, time.Now()); len(got) != 0 {
		t.Fatalf("got %d candidates, want 0", len(got))
	}
}

func TestEvaluate_SuppressIfMatchSuppressesCandidate(t *testing.T) {
	profile := profileWithRules(types.PolicyRule{
		RuleID:     "r1",
		When:       types.WhenPattern{Domain: "security", State: "open"},
		SuppressIf: map[string]string{"alarm_mode": "disarmed"},
		Classify:   &types.Classify{Importance: types.ImportanceHigh},
	})
	trigger := types.DomainState{Domain: "security", State: "open", ScopeID: types.HouseScopeID}
	world := map[string]types.DomainState{
		"alarm_mode@" + types.HouseScopeID: {Domain: "alarm_mode", State: "disarmed"},
	}
	got := Evaluate(profile, trigger, world, time.Now())
	if len(got) != 1 || !got[0].Suppressed {
		t.Fatalf("got %+v, want one suppressed candidate", got)
	}
}

func TestEvaluate_QuietHoursSuppressesUnlessBypassed(t *testing.T) {
	rule := types.PolicyRule{
		RuleID:   "r1",
		When:     types.WhenPattern{Domain: "media_activity", State: "playing"},
		Classify: &types.Classify{Importance: types.ImportanceMedium},
	}
	profile := types.LoadedProfile{Policy: types.PolicyDocument{
		Rules:      []types.PolicyRule{rule},
		QuietHours: &types.QuietHours{Start: 0, End: 24 * time.Hour},
	}}
	trigger := types.DomainState{Domain: "media_activity", State: "playing", ScopeID: types.HouseScopeID}
	now := time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)

	got := Evaluate(profile, trigger, nil, now)
	if len(got) != 1 || !got[0].Suppressed || got[0].SuppressionReason != quietHoursReason {
		t.Fatalf("got %+v, want quiet-hours suppression", got)
	}

	rule.Classify.BypassQuietHours = true
	profile.Policy.Rules[0] = rule
	got = Evaluate(profile, trigger, nil, now)
	if len(got) != 1 || got[0].Suppressed {
		t.Fatalf("got %+v, want bypass to avoid suppression", got)
	}
}

func TestEvaluate_ActiveSuppressBelowImportanceSuppressesLowerRules(t *testing.T) {
	gate := types.PolicyRule{
		RuleID: "gate",
		When:   types.WhenPattern{Domain: "mode", State: "movie"},
		Effects: &types.Effects{
			HasSuppressBelow:        true,
			SuppressBelowImportance: types.ImportanceHigh,
		},
	}
	low := types.PolicyRule{
		RuleID:   "low",
		When:     types.WhenPattern{Domain: "motion", Event: "motion_detected"},
		Classify: &types.Classify{Importance: types.ImportanceLow},
	}
	profile := profileWithRules(gate, low)
	trigger := types.DomainState{Domain: "motion", Event: "motion_detected", ScopeID: types.HouseScopeID}
	world := map[string]types.DomainState{
		"mode@" + types.HouseScopeID: {Domain: "mode", State: "movie"},
	}
	got := Evaluate(profile, trigger, world, time.Now())
	if len(got) != 1 || !got[0].Suppressed {
		t.Fatalf("got %+v, want the low-importance rule suppressed", got)
	}
}

func TestEvaluate_OutputIsDeterministicForEqualInputs(t *testing.T) {
	profile := profileWithRules(types.PolicyRule{
		RuleID:   "r1",
		When:     types.WhenPattern{Domain: "security", State: "open"},
		Classify: &types.Classify{Importance: types.ImportanceHigh},
	})
	trigger := types.DomainState{Domain: "security", State: "open", ScopeID: types.HouseScopeID}
	now := time.Now()

	first := Evaluate(profile, trigger, nil, now)
	second := Evaluate(profile, trigger, nil, now)
	if len(first) != len(second) || first[0].RuleID != second[0].RuleID || first[0].Suppressed != second[0].Suppressed {
		t.Fatalf("got non-deterministic outputs: %+v vs %+v", first, second)
	}
}
