package types

import "time"

// DeviceContext describes one panel's device-owned state as known to
// the core at decision time. Signals are device-owned declarations;
// unknown keys are ignored and wrong-typed values for known keys are
// ignored rather than coerced or crashed on.
type DeviceContext struct {
	DeviceID          string
	Room              string // empty means unset
	Online            bool
	LastInteractionTS *time.Time
	Signals           map[string]any
}

// BoolSignal performs typed extraction of a boolean signal. ok is false
// if the key is absent or holds a non-bool value; callers must treat
// that identically to "missing", never coerce.
func (d DeviceContext) BoolSignal(key string) (value bool, ok bool) {
	raw, present := d.Signals[key]
	if !present {
		return false, false
	}
	b, isBool := raw.(bool)
	if !isBool {
		return false, false
	}
	return b, true
}

// FloatSignal performs typed extraction of a numeric signal.
func (d DeviceContext) FloatSignal(key string) (value float64, ok bool) {
	raw, present := d.Signals[key]
	if !present {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// SupportsAudio returns the device's audio-support signal, defaulting
// to true when unspecified (asymmetric with haptic/ambient per the
// source's documented default behavior).
func (d DeviceContext) SupportsAudio() bool {
	v, ok := d.BoolSignal("supports_audio")
	if !ok {
		return true
	}
	return v
}

// SupportsHaptic returns the device's haptic-support signal, defaulting
// to false when unspecified.
func (d DeviceContext) SupportsHaptic() bool {
	v, _ := d.BoolSignal("supports_haptic")
	return v
}

// SupportsAmbient returns the device's ambient-support signal,
// defaulting to false when unspecified.
func (d DeviceContext) SupportsAmbient() bool {
	v, _ := d.BoolSignal("supports_ambient")
	return v
}

// SupportsInterruptions returns the device's interruption-support
// signal, defaulting to true when unspecified.
func (d DeviceContext) SupportsInterruptions() bool {
	v, ok := d.BoolSignal("supports_interruptions")
	if !ok {
		return true
	}
	return v
}
