package forecast

import (
	"slices"
	"time"
)

// Confidence estimates forecast reliability (0-100) from the horizon and how
// much mid+high cloud shifts across the hours around sunset.
func Confidence(sunset, now time.Time, cloudHours []float64, dayIndex int) int {
	base := horizonConfidence(sunset, now, dayIndex)
	return int(roundHalfUp(float64(base) * StabilityMultiplier(cloudHours)))
}

func horizonConfidence(sunset, now time.Time, dayIndex int) int {
	switch {
	case dayIndex == 0:
		if sunset.IsZero() {
			return 60
		}
		h := sunset.Sub(now).Hours()
		switch {
		case h <= 0:
			return 95
		case h <= 2:
			return 90
		case h <= 6:
			return 75
		default:
			return 60
		}
	case dayIndex == 1:
		return 50
	case dayIndex == 2:
		return 40
	default:
		return max(20, 35-(dayIndex-3)*5)
	}
}

// StabilityMultiplier penalises volatile cloud cover near sunset.
func StabilityMultiplier(cloudHours []float64) float64 {
	if len(cloudHours) < 2 {
		return 1.0
	}
	spread := slices.Max(cloudHours) - slices.Min(cloudHours)
	switch {
	case spread > 50:
		return 0.55
	case spread > 30:
		return 0.70
	case spread > 15:
		return 0.85
	default:
		return 1.0
	}
}

// ConfidenceLevel buckets a confidence value for display.
func ConfidenceLevel(c int) string {
	switch {
	case c >= 70:
		return "high"
	case c >= 45:
		return "medium"
	default:
		return "low"
	}
}
