package realize

import (
	"testing"

	"github.com/trestlehq/coordinator/pkg/types"
)

func TestRealizeAttention_DropsUnsupportedAudioAndHaptic(t *testing.T) {
	device := types.DeviceContext{Signals: map[string]any{
		"supports_audio":  false,
		"supports_haptic": false,
	}}
	intents := RealizeAttention(types.AttentionCritical, device)
	for _, in := range intents {
		if in.Channel == types.ChannelAudio || in.Channel == types.ChannelHaptic {
			t.Fatalf("unsupported channel %v leaked through", in.Channel)
		}
	}
	if len(intents) == 0 {
		t.Fatalf("expected visual channel to survive filtering")
	}
}

func TestRealizeAttention_AmbientDefaultsToUnsupported(t *testing.T) {
	device := types.DeviceContext{Signals: map[string]any{}}
	intents := RealizeAttention(types.AttentionPassive, device)
	if len(intents) != 0 {
		t.Fatalf("got %d intents, want 0 (ambient unsupported by default)", len(intents))
	}
}

func TestRealizeAttention_AudioDefaultsToSupported(t *testing.T) {
	device := types.DeviceContext{Signals: map[string]any{}}
	intents := RealizeAttention(types.AttentionNotify, device)
	found := false
	for _, in := range intents {
		if in.Channel == types.ChannelAudio {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected audio channel to survive default-supported filtering")
	}
}

func TestRealizeAttention_FilteringNeverAltersSurvivingIntentFields(t *testing.T) {
	device := types.DeviceContext{Signals: map[string]any{"supports_haptic": true}}
	intents := RealizeAttention(types.AttentionCritical, device)
	for _, in := range intents {
		if in.Channel == types.ChannelVisual && !in.Persistent {
			t.Fatalf("visual intent lost its Persistent flag during filtering")
		}
	}
}

func TestProduceRealizationFrame_CarriesFieldsThrough(t *testing.T) {
	intents := []types.RealizationIntent{{Channel: types.ChannelVisual, Intensity: types.IntensityHigh}}
	frame := ProduceRealizationFrame("alert-1", types.AttentionInterrupt, intents)
	if frame.AlertID != "alert-1" || frame.Level != types.AttentionInterrupt || len(frame.Intents) != 1 {
		t.Fatalf("got %+v, unexpected frame contents", frame)
	}
}
