package types

// Channel is the delivery channel of a RealizationIntent.
type Channel string

const (
	ChannelVisual Channel = "visual"
	ChannelAudio  Channel = "audio"
	ChannelHaptic Channel = "haptic"
	ChannelAmbient Channel = "ambient"
)

// Intensity is the delivery strength of a RealizationIntent.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// RealizationIntent is an abstract output instruction: channel,
// intensity, and persistence/interruption flags.
type RealizationIntent struct {
	Channel      Channel
	Intensity    Intensity
	Persistent   bool
	Interruptive bool
}

// RealizationFrame is the serializable record produced for a winning
// decision: a fixed envelope around the attention level and its
// realized intents.
type RealizationFrame struct {
	AlertID string
	Level   AttentionLevel
	Intents []RealizationIntent
}
