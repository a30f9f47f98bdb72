// Package realize implements the realization mapper (F): lookup table
// from AttentionLevel to RealizationIntents, filtered by device
// capability.
package realize

import "github.com/trestlehq/coordinator/pkg/types"

// realizationProfiles is the fixed AttentionLevel -> RealizationIntent
// lookup table. Filtering never changes a listed intent's fields; the
// level is never downgraded by capability filtering.
var realizationProfiles = map[types.AttentionLevel][]types.RealizationIntent{
	types.AttentionPassive: {
		{Channel: types.ChannelAmbient, Intensity: types.IntensityLow},
	},
	types.AttentionGlance: {
		{Channel: types.ChannelVisual, Intensity: types.IntensityLow, Interruptive: false},
	},
	types.AttentionNotify: {
		{Channel: types.ChannelVisual, Intensity: types.IntensityMedium, Persistent: true},
		{Channel: types.ChannelAudio, Intensity: types.IntensityLow},
	},
	types.AttentionInterrupt: {
		{Channel: types.ChannelVisual, Intensity: types.IntensityHigh, Interruptive: true},
		{Channel: types.ChannelAudio, Intensity: types.IntensityMedium, Interruptive: true},
		{Channel: types.ChannelHaptic, Intensity: types.IntensityMedium, Interruptive: true},
	},
	types.AttentionCritical: {
		{Channel: types.ChannelVisual, Intensity: types.IntensityHigh, Persistent: true, Interruptive: true},
		{Channel: types.ChannelAudio, Intensity: types.IntensityHigh, Persistent: true, Interruptive: true},
		{Channel: types.ChannelHaptic, Intensity: types.IntensityHigh, Persistent: true, Interruptive: true},
	},
}

// RealizeAttention applies the lookup table for level, then drops
// channels the device does not support. Visual is always admitted.
// Empty output is legal.
func RealizeAttention(level types.AttentionLevel, device types.DeviceContext) []types.RealizationIntent {
	profile := realizationProfiles[level]
	out := make([]types.RealizationIntent, 0, len(profile))
	for _, intent := range profile {
		switch intent.Channel {
		case types.ChannelAudio:
			if !device.SupportsAudio() {
				continue
			}
		case types.ChannelHaptic:
			if !device.SupportsHaptic() {
				continue
			}
		case types.ChannelAmbient:
			if !device.SupportsAmbient() {
				continue
			}
		}
		out = append(out, intent)
	}
	return out
}

// ProduceRealizationFrame yields the serializable record for a winning
// decision.
func ProduceRealizationFrame(alertID string, level types.AttentionLevel, intents []types.RealizationIntent) types.RealizationFrame {
	return types.RealizationFrame{
		AlertID: alertID,
		Level:   level,
		Intents: intents,
	}
}
