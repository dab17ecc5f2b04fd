package failure

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/plantpulse/plantpulse/internal/model"
)

// featureChannels are the sensor channels folded into the feature vector,
// in order. Channels absent from the window contribute zeros.
var featureChannels = []model.Channel{
	model.ChannelTemperature,
	model.ChannelVibration,
	model.ChannelPressure,
	model.ChannelCurrent,
}

// FeatureCount is the fixed length of every feature vector: three static
// equipment attributes plus mean/std/min/max for each feature channel.
const FeatureCount = 3 + 4*4

// BuildFeatures assembles the model input for one equipment from its
// static attributes and the recent telemetry window. The layout is fixed:
//
//	[0] age_months
//	[1] operating_hours
//	[2] maintenance_interval_days
//	[3..] per-channel rolling mean, std, min, max
//	      (temperature, vibration, pressure, current)
func BuildFeatures(eq model.Equipment, readings []model.TelemetryReading) []float64 {
	features := make([]float64, 0, FeatureCount)
	features = append(features,
		eq.AgeMonths,
		eq.OperatingHours,
		eq.MaintenanceInterval.Hours()/24,
	)

	for _, ch := range featureChannels {
		values := channelValues(readings, ch)
		if len(values) == 0 {
			features = append(features, 0, 0, 0, 0)
			continue
		}
		mean := stat.Mean(values, nil)
		std := 0.0
		if len(values) > 1 {
			std = stat.StdDev(values, nil)
		}
		min, max := values[0], values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		features = append(features, mean, std, min, max)
	}
	return features
}

// channelValues extracts the valid points of one channel from the window.
func channelValues(readings []model.TelemetryReading, ch model.Channel) []float64 {
	var out []float64
	for _, r := range readings {
		if v, ok := r.Value(ch); ok && !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// latestValue returns the most recent reading of one channel, or false
// when the window never reported it.
func latestValue(readings []model.TelemetryReading, ch model.Channel) (float64, bool) {
	for i := len(readings) - 1; i >= 0; i-- {
		if v, ok := readings[i].Value(ch); ok && !math.IsNaN(v) {
			return v, true
		}
	}
	return 0, false
}
