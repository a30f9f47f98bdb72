// Package weather implements the weather domain transform (M): the
// representative pattern for mapping an ecosystem-native observation
// into canonical domain outputs. Grounded on the teacher's
// config-driven per-probe Execute transform shape (icmp.go), repurposed
// from ICMP probe results into a native-state-string + attribute-map
// ingestion transform.
package weather

import "github.com/trestlehq/coordinator/pkg/types"

// Condition is the canonical weather condition enum.
type Condition string

const (
	ConditionClear        Condition = "clear"
	ConditionPartlyCloudy Condition = "partly_cloudy"
	ConditionCloudy       Condition = "cloudy"
	ConditionRain         Condition = "rain"
	ConditionSnow         Condition = "snow"
	ConditionStorm        Condition = "storm"
	ConditionMixed        Condition = "mixed"
)

// nativeStateToCondition maps ecosystem-native state strings to the
// canonical condition enum. Unknown native strings map to Mixed.
var nativeStateToCondition = map[string]Condition{
	"clear":         ConditionClear,
	"sunny":         ConditionClear,
	"partlycloudy":  ConditionPartlyCloudy,
	"partly-cloudy": ConditionPartlyCloudy,
	"cloudy":        ConditionCloudy,
	"overcast":      ConditionCloudy,
	"rainy":         ConditionRain,
	"rain":          ConditionRain,
	"pouring":       ConditionRain,
	"snowy":         ConditionSnow,
	"snow":          ConditionSnow,
	"lightning":     ConditionStorm,
	"stormy":        ConditionStorm,
}

// MaxForecastEntries bounds the forecast list; entries beyond this are
// dropped.
const MaxForecastEntries = 5

// ForecastEntry is one canonical forecast day.
type ForecastEntry struct {
	Condition Condition
	High      float64
	Low       float64
}

// Outputs is the canonical weather domain projection.
type Outputs struct {
	Condition Condition
	Temp      float64
	Humidity  float64 // normalized to [0,1]
	Wind      float64
	Forecast  []ForecastEntry
}

// Transform maps a native weather Fact's data into canonical Outputs.
// fact.FactType is expected to be types.FactEnvironment carrying a
// weather measurement; Transform does not itself validate fact_type,
// that is the caller's concern (the adapter boundary already enforced
// schema presence at Fact construction).
func Transform(fact types.Fact) Outputs {
	data := fact.Data

	condition := ConditionMixed
	if state, ok := data["state"].(string); ok {
		if c, known := nativeStateToCondition[state]; known {
			condition = c
		}
	}

	temp, _ := data["temp"].(float64)
	wind, _ := data["wind"].(float64)

	humidity, _ := data["humidity"].(float64)
	if humidity > 1.0 {
		humidity = humidity / 100.0
	}

	var forecast []ForecastEntry
	if raw, ok := data["forecast"].([]any); ok {
		for i, entry := range raw {
			if i >= MaxForecastEntries {
				break
			}
			m, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			fc := ForecastEntry{Condition: ConditionMixed}
			if state, ok := m["state"].(string); ok {
				if c, known := nativeStateToCondition[state]; known {
					fc.Condition = c
				}
			}
			fc.High, _ = m["high"].(float64)
			fc.Low, _ = m["low"].(float64)
			forecast = append(forecast, fc)
		}
	}

	return Outputs{
		Condition: condition,
		Temp:      temp,
		Humidity:  humidity,
		Wind:      wind,
		Forecast:  forecast,
	}
}
