// Package device implements device selection (G): scoring and
// deterministic tie-break over the set of paired panels eligible to
// receive one alert.
package device

import (
	"math"
	"sort"
	"time"

	"github.com/trestlehq/coordinator/internal/constants"
	"github.com/trestlehq/coordinator/pkg/types"
)

// SelectionTarget names the alert's targeting constraints.
type SelectionTarget struct {
	RoomID               string // empty means unset
	ExcludedDevices      []string
	RequiredCapabilities []string
}

// Capabilities is one device's declared capability set and whether it
// is administratively suppressed (e.g. temporarily muted).
type Capabilities struct {
	Declared   []string
	Suppressed bool
}

// Result is select_device's output. DeviceID is empty when no device
// is eligible.
type Result struct {
	DeviceID            string
	Score               int
	ScoreBreakdown      map[string]int
	CandidatesEvaluated int
}

// Select filters, scores, and chooses one device. Input order does not
// affect the outcome.
func Select(target SelectionTarget, devices []types.DeviceContext, capabilities map[string]Capabilities, currentTime time.Time) Result {
	type scored struct {
		device         types.DeviceContext
		score          int
		breakdown      map[string]int
		elapsedSeconds float64
	}

	excluded := make(map[string]bool, len(target.ExcludedDevices))
	for _, id := range target.ExcludedDevices {
		excluded[id] = true
	}

	var eligible []scored
	for _, d := range devices {
		if !d.Online || excluded[d.DeviceID] {
			continue
		}
		caps, ok := capabilities[d.DeviceID]
		if !ok || caps.Suppressed {
			continue
		}
		if !hasAll(caps.Declared, target.RequiredCapabilities) {
			continue
		}
		score, breakdown := scoreDevice(target, d, currentTime)
		eligible = append(eligible, scored{
			device:         d,
			score:          score,
			breakdown:      breakdown,
			elapsedSeconds: elapsedSince(d.LastInteractionTS, currentTime),
		})
	}

	result := Result{CandidatesEvaluated: len(eligible)}
	if len(eligible) == 0 {
		return result
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.score != b.score {
			return a.score > b.score // higher score first (-score ascending)
		}
		if a.elapsedSeconds != b.elapsedSeconds {
			return a.elapsedSeconds < b.elapsedSeconds
		}
		return a.device.DeviceID < b.device.DeviceID
	})

	best := eligible[0]
	result.DeviceID = best.device.DeviceID
	result.Score = best.score
	result.ScoreBreakdown = best.breakdown
	return result
}

func hasAll(declared, required []string) bool {
	have := make(map[string]bool, len(declared))
	for _, c := range declared {
		have[c] = true
	}
	for _, r := range required {
		if !have[r] {
			return false
		}
	}
	return true
}

func scoreDevice(target SelectionTarget, d types.DeviceContext, currentTime time.Time) (int, map[string]int) {
	breakdown := make(map[string]int)
	total := 0

	add := func(label string, v int) {
		if v == 0 {
			return
		}
		breakdown[label] = v
		total += v
	}

	if target.RoomID != "" && d.Room != "" {
		if d.Room == target.RoomID {
			add("room_match", constants.ScoreRoomMatch)
		} else {
			add("room_mismatch_both_set", constants.ScoreRoomMismatchBothSet)
		}
	}

	if d.LastInteractionTS != nil && currentTime.Sub(*d.LastInteractionTS) <= constants.RecentInteractionWindow {
		add("recent_interaction", constants.ScoreRecentInteraction)
	}

	if v, ok := d.BoolSignal("recently_active"); ok && v {
		add("signal_recently_active", constants.ScoreSignalRecentlyActive)
	}
	if v, ok := d.BoolSignal("proximity_active"); ok && v {
		add("signal_proximity_active", constants.ScoreSignalProximity)
	}
	if v, ok := d.BoolSignal("screen_facing"); ok && v {
		add("signal_screen_facing", constants.ScoreSignalScreenFacing)
	}
	if lux, ok := d.FloatSignal("ambient_lux"); ok {
		if lux < constants.LowLuxThreshold {
			add("signal_low_lux", constants.ScoreSignalLowLux)
		} else if lux > constants.HighLuxThreshold {
			add("signal_high_lux_penalty", constants.ScoreSignalHighLuxPenalty)
		}
	}

	return total, breakdown
}

func elapsedSince(last *time.Time, now time.Time) float64 {
	if last == nil {
		return math.Inf(1)
	}
	return now.Sub(*last).Seconds()
}
