package aggregator

import "github.com/trestlehq/coordinator/pkg/types"

// OccupancyFold projects a presence Fact's occupied field onto a
// two-state domain ("occupied" | "vacant").
func OccupancyFold(fact types.Fact, current types.DomainState) (types.DomainState, bool) {
	occupied, _ := fact.Data["occupied"].(bool)
	state := "vacant"
	if occupied {
		state = "occupied"
	}
	if current.State == state {
		return current, false
	}
	current.State = state
	current.Event = ""
	return current, true
}

// MotionFold projects a motion Fact's detected field onto a
// two-state domain, and always surfaces the detection as an event so
// rules keyed on events (not just the resting state) still fire.
func MotionFold(fact types.Fact, current types.DomainState) (types.DomainState, bool) {
	detected, _ := fact.Data["detected"].(bool)
	state := "clear"
	event := ""
	if detected {
		state = "detected"
		event = "motion_detected"
	}
	changed := current.State != state
	current.State = state
	current.Event = event
	return current, changed || event != ""
}

// SecurityFold projects a contact Fact's open field onto a two-state
// domain ("open" | "closed").
func SecurityFold(fact types.Fact, current types.DomainState) (types.DomainState, bool) {
	open, _ := fact.Data["open"].(bool)
	state := "closed"
	if open {
		state = "open"
	}
	if current.State == state {
		return current, false
	}
	current.State = state
	current.Event = ""
	return current, true
}

// MediaActivityFold projects a media_state Fact's state field
// directly; any adapter-native string is passed through unmodified
// since the profile's domain schema, not this fold, defines what is
// a legal state.
func MediaActivityFold(fact types.Fact, current types.DomainState) (types.DomainState, bool) {
	state, _ := fact.Data["state"].(string)
	if current.State == state {
		return current, false
	}
	current.State = state
	current.Event = ""
	return current, true
}

// WeatherFold stores the raw environment measurement/value pair in
// metadata, keyed by measurement. It does not call the weather
// package's Transform, so no canonicalization is applied.
func WeatherFold(fact types.Fact, current types.DomainState) (types.DomainState, bool) {
	measurement, _ := fact.Data["measurement"].(string)
	value := fact.Data["value"]
	if current.Metadata == nil {
		current.Metadata = make(map[string]any)
	}
	if existing, ok := current.Metadata[measurement]; ok && existing == value {
		return current, false
	}
	current.Metadata[measurement] = value
	return current, true
}
