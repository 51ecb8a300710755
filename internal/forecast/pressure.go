package forecast

import "github.com/lox/sunsetcast/internal/models"

// ClassifyPressureTrend classifies a 12-hour window of hourly MSL pressure,
// oldest first. Short windows or windows with gaps at the sampled points are
// reported as stable.
func ClassifyPressureTrend(window []*float64) models.PressureTrend {
	if len(window) < 13 {
		return models.TrendStable
	}
	older, middle, current := window[0], window[6], window[len(window)-1]
	if older == nil || middle == nil || current == nil {
		return models.TrendStable
	}

	total := *current - *older
	recent := *current - *middle

	switch {
	case total < -2 && recent > 1:
		return models.TrendRisingAfterDrop
	case total > 3:
		return models.TrendRising
	case total < -3:
		return models.TrendFalling
	default:
		return models.TrendStable
	}
}
