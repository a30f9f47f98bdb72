// Package types defines the canonical value types that cross the
// adapter boundary: Fact, Intent, and the domain/policy/session model
// built on top of them. Everything here is a value type — equality is
// structural and instances are safe to share freely once constructed.
package types

import (
	"fmt"
	"time"
)

// FactType discriminates the shape of a Fact's Data map.
type FactType string

const (
	FactPresence      FactType = "presence"
	FactMotion        FactType = "motion"
	FactContact       FactType = "contact"
	FactMediaState    FactType = "media_state"
	FactEnvironment   FactType = "environment"
	FactDeviceContext FactType = "device_context"
	FactAdapterHealth FactType = "adapter_health"
)

// fieldSchema names the fields a fact_type requires in Data and
// whether they are required.
type fieldSchema struct {
	name     string
	required bool
}

// FACT_SCHEMAS enumerates the required fields per fact_type, mirroring
// the profile loader's domain schema shape one level down.
var FACT_SCHEMAS = map[FactType][]fieldSchema{
	FactPresence:      {{"occupied", true}},
	FactMotion:        {{"detected", true}},
	FactContact:       {{"open", true}},
	FactMediaState:    {{"state", true}},
	FactEnvironment:   {{"measurement", true}, {"value", true}},
	FactDeviceContext: {{"signals", true}},
	FactAdapterHealth: {{"status", true}},
}

// Fact is an immutable observation crossing into the core from an
// adapter. Never mutated after construction; destroyed by the
// aggregator once folded into domain state.
type Fact struct {
	FactType   FactType
	SourceID   string
	Timestamp  time.Time
	Data       map[string]any
	Confidence float64
}

// NewFact validates and constructs a Fact. Construction fails if
// confidence is out of [0,1], source_id is empty, or data is missing a
// field required for fact_type.
func NewFact(factType FactType, sourceID string, timestamp time.Time, data map[string]any, confidence float64) (Fact, error) {
	if sourceID == "" {
		return Fact{}, fmt.Errorf("%w: source_id must not be empty", ErrInvalidFact)
	}
	if confidence < 0.0 || confidence > 1.0 {
		return Fact{}, fmt.Errorf("%w: confidence %v out of [0,1]", ErrInvalidFact, confidence)
	}
	schema, known := FACT_SCHEMAS[factType]
	if !known {
		return Fact{}, fmt.Errorf("%w: unknown fact_type %q", ErrInvalidFact, factType)
	}
	for _, f := range schema {
		if !f.required {
			continue
		}
		if _, ok := data[f.name]; !ok {
			return Fact{}, fmt.Errorf("%w: fact_type %q missing required field %q", ErrInvalidFact, factType, f.name)
		}
	}
	cp := make(map[string]any, len(data))
	for k, v := range data {
		cp[k] = v
	}
	return Fact{
		FactType:   factType,
		SourceID:   sourceID,
		Timestamp:  timestamp.UTC(),
		Data:       cp,
		Confidence: confidence,
	}, nil
}
