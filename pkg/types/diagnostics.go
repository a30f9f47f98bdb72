package types

import "time"

// AdapterHealthSample describes one reading of an adapter's GetHealth.
// Nothing in this repository constructs or reads it: the registry
// returns health as a plain map and the aggregator applies no
// confidence discount.
type AdapterHealthSample struct {
	AdapterID string
	Health    string
	SampledAt time.Time
}

// SessionCheckpoint is component N's persisted row: read once at
// session construction to seed SessionState.NextSeq and logged for
// restart diagnostics. It never changes protocol behavior — a fresh
// snapshot is always sent first per the session state machine.
type SessionCheckpoint struct {
	DeviceID        string
	LayoutID        string
	LayoutApplied   bool
	LastSeq         int64
	LastInteraction time.Time
	UpdatedAt       time.Time
}

// CoordinatorHealthSample is component O's periodic self-health sample,
// held by the sampler for Latest; never fed into the policy engine.
// The sampler does not fill FactsPerSec.
type CoordinatorHealthSample struct {
	Timestamp      time.Time
	UptimeSeconds  int64
	CPUPercent     float64
	MemoryMB       float64
	MemoryPercent  float64
	Goroutines     int
	ActiveSessions int
	FactsPerSec    float64
	Status         string
	AdapterHealth  map[string]string
}

// PairedDevice is the host-provided pairing inventory row. The core
// only ever consumes it through the secret store interface; this type
// exists for the reference cmd/coordinator binary's local inventory.
type PairedDevice struct {
	DeviceID   string
	SecretHash string
	PairedAt   time.Time
	LastSeen   time.Time
}
