// Package constants centralizes hardcoded thresholds and timeouts
// scattered across the decision pipeline and session protocol, making
// them easier to find, change, and test.
package constants

import "time"

// Attention model priority thresholds (E).
const (
	PriorityGlance    = 20
	PriorityNotify    = 50
	PriorityInterrupt = 100
	LifeSafetyThreshold = 150
)

// Device selection score contributions (G).
const (
	ScoreRoomMatch           = 100
	ScoreRoomMismatchBothSet = 25
	ScoreRecentInteraction   = 50
	ScoreSignalRecentlyActive = 40
	ScoreSignalProximity     = 30
	ScoreSignalScreenFacing  = 20
	ScoreSignalLowLux        = 20
	ScoreSignalHighLuxPenalty = -10

	RecentInteractionWindow = 300 * time.Second
	LowLuxThreshold         = 50.0
	HighLuxThreshold        = 500.0
)

// Session protocol timing defaults (J).
const (
	DefaultPingInterval   = 30 * time.Second
	DefaultPingTimeout    = 10 * time.Second
	MaxMissedPingWindows  = 3
	DefaultRetryBase      = 1 * time.Second
	DefaultRetryMax       = 60 * time.Second
	DefaultBatchInterval  = 250 * time.Millisecond
	CloseTaskWait         = 2 * time.Second
)

// Decision trace defaults (H). Sampling is richer for decisions whose
// winning candidate has high or critical importance than for the long
// tail of low/medium ones.
const (
	DefaultSampleRateHigh = 1.0
	DefaultSampleRateLow  = 0.1
	DefaultTraceBufferSize = 256
)

// Coordinator self-health sampling interval (O).
const HealthSampleInterval = 30 * time.Second

// Checkpoint save throttling (N): at most one save per this interval,
// checked after each delta flush, to avoid a database write on every
// delta.
const CheckpointSaveInterval = 10 * time.Second
