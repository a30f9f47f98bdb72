package types

// Scope names how a domain's state is partitioned.
type Scope string

const (
	ScopeHouse   Scope = "house"
	ScopePerRoom Scope = "per_room"
)

// DomainSchema is immutable metadata for one registered domain, loaded
// once per profile and referenced by the policy engine. Unknown state
// or event values are treated as non-matching rather than rejected.
type DomainSchema struct {
	Name    string
	Scope   Scope
	States  []string
	Events  []string
	Outputs map[string]any
}

// HasState reports whether s is a legal state for this domain.
func (d DomainSchema) HasState(s string) bool {
	for _, v := range d.States {
		if v == s {
			return true
		}
	}
	return false
}

// HasEvent reports whether e is a legal event for this domain.
func (d DomainSchema) HasEvent(e string) bool {
	for _, v := range d.Events {
		if v == e {
			return true
		}
	}
	return false
}

// DomainState is the current value for one domain at one scope. State
// and Event are optional (empty string means absent).
type DomainState struct {
	Domain   string
	State    string
	Event    string
	ScopeID  string
	Metadata map[string]any
}

// HouseScopeID is the canonical scope id for house-scoped domains.
const HouseScopeID = "house"

// Key uniquely identifies a DomainState within a world-model map.
func (d DomainState) Key() string {
	return d.Domain + "@" + d.ScopeID
}
