package types

import (
	"fmt"
	"time"
)

// IntentType discriminates the shape of an Intent's Data map.
type IntentType string

const (
	IntentShow             IntentType = "show"
	IntentHide             IntentType = "hide"
	IntentUpdate           IntentType = "update"
	IntentNotify           IntentType = "notify"
	IntentInterrupt        IntentType = "interrupt"
	IntentEscalate         IntentType = "escalate"
	IntentAcknowledge      IntentType = "acknowledge"
	IntentSilence          IntentType = "silence"
	IntentDismiss          IntentType = "dismiss"
	IntentActivateOutput   IntentType = "activate_output"
	IntentDeactivateOutput IntentType = "deactivate_output"
)

// INTENT_SCHEMAS enumerates the required fields per intent_type.
var INTENT_SCHEMAS = map[IntentType][]fieldSchema{
	IntentShow:             {{"binding_id", true}},
	IntentHide:             {{"binding_id", true}},
	IntentUpdate:           {{"binding_id", true}, {"value", true}},
	IntentNotify:           {{"message", true}},
	IntentInterrupt:        {{"message", true}},
	IntentEscalate:         {{"reason", true}},
	IntentAcknowledge:      {},
	IntentSilence:          {},
	IntentDismiss:          {},
	IntentActivateOutput:   {{"output_id", true}},
	IntentDeactivateOutput: {{"output_id", true}},
}

// DefaultIntentPriority is used when no priority is supplied to NewIntent.
const DefaultIntentPriority = 50

// Intent is an immutable command crossing out of the core to an
// adapter. Same immutability and identifier invariants as Fact.
type Intent struct {
	IntentType     IntentType
	TargetID       string
	Timestamp      time.Time
	Data           map[string]any
	Priority       int
	IdempotencyKey string // empty means unset
}

// IntentOption customizes NewIntent beyond its required fields.
type IntentOption func(*Intent)

// WithPriority overrides the default intent priority of 50.
func WithPriority(p int) IntentOption {
	return func(i *Intent) { i.Priority = p }
}

// WithIdempotencyKey attaches an idempotency key to the intent.
func WithIdempotencyKey(key string) IntentOption {
	return func(i *Intent) { i.IdempotencyKey = key }
}

// NewIntent validates and constructs an Intent.
func NewIntent(intentType IntentType, targetID string, timestamp time.Time, data map[string]any, opts ...IntentOption) (Intent, error) {
	if targetID == "" {
		return Intent{}, fmt.Errorf("%w: target_id must not be empty", ErrInvalidIntent)
	}
	schema, known := INTENT_SCHEMAS[intentType]
	if !known {
		return Intent{}, fmt.Errorf("%w: unknown intent_type %q", ErrInvalidIntent, intentType)
	}
	for _, f := range schema {
		if !f.required {
			continue
		}
		if _, ok := data[f.name]; !ok {
			return Intent{}, fmt.Errorf("%w: intent_type %q missing required field %q", ErrInvalidIntent, intentType, f.name)
		}
	}
	cp := make(map[string]any, len(data))
	for k, v := range data {
		cp[k] = v
	}
	in := Intent{
		IntentType: intentType,
		TargetID:   targetID,
		Timestamp:  timestamp.UTC(),
		Data:       cp,
		Priority:   DefaultIntentPriority,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}
