package alerts

import (
	"strconv"
	"strings"

	"github.com/plantpulse/plantpulse/internal/model"
)

// evalCondition evaluates a rule condition string against an assessment.
//
// Supported expressions (field operator value):
//
//	failure_probability > 0.8
//	anomaly_score > 0.7
//	criticality_score >= 0.6
//	time_to_failure_hours < 72
//	tier == critical
//	channel:temperature > 90
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is
// unknown.
func evalCondition(cond string, a model.HealthAssessment) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "tier" {
		if op == "==" {
			return string(a.Tier) == rhs, 0
		}
		return false, 0
	}

	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}

	if ch, ok := strings.CutPrefix(field, "channel:"); ok {
		v, present := a.Latest[model.Channel(ch)]
		if !present {
			return false, 0
		}
		return compareFloat(v, op, threshold), v
	}

	v, known := numericField(field, a)
	if !known {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the assessment.
func numericField(field string, a model.HealthAssessment) (float64, bool) {
	switch field {
	case "failure_probability":
		return a.FailureProbability, true
	case "anomaly_score":
		return a.AnomalyScore, true
	case "criticality_score":
		return a.CriticalityScore, true
	case "time_to_failure_hours":
		return a.TimeToFailure.Hours(), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
