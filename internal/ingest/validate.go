package ingest

import (
	"github.com/lox/sunsetcast/internal/metrics"
	"github.com/lox/sunsetcast/internal/models"
)

const (
	FlagCloudOutOfRange    = "cloud_out_of_range"
	FlagHumidityInvalid    = "humidity_invalid"
	FlagVisibilityNegative = "visibility_negative"
	FlagWindSpeedUnlikely  = "wind_speed_unlikely"
	FlagPressureOutOfRange = "pressure_out_of_range"
	FlagPM10Negative       = "pm10_negative"
)

// ValidateDay returns quality flags for implausible values. Values are left
// as-is; scoring clamps through its own bands.
func ValidateDay(d models.DayRecord) []string {
	var flags []string

	for _, c := range []float64{d.CloudTotal, d.CloudLow, d.CloudMid, d.CloudHigh} {
		if c < 0 || c > 100 {
			flags = append(flags, FlagCloudOutOfRange)
			break
		}
	}

	if d.Humidity < 0 || d.Humidity > 100 {
		flags = append(flags, FlagHumidityInvalid)
	}

	if d.Visibility < 0 {
		flags = append(flags, FlagVisibilityNegative)
	}

	if d.WindSpeed < 0 || d.WindSpeed > 200 {
		flags = append(flags, FlagWindSpeedUnlikely)
	}

	if d.Pressure < 850 || d.Pressure > 1100 {
		flags = append(flags, FlagPressureOutOfRange)
	}

	if d.PM10 < 0 {
		flags = append(flags, FlagPM10Negative)
	}

	return flags
}

// ApplyQualityFlags sets QualityFlags on each day and counts them.
func ApplyQualityFlags(days []models.DayRecord) {
	for i := range days {
		flags := ValidateDay(days[i])
		days[i].QualityFlags = flags
		for _, f := range flags {
			metrics.QualityFlagsTotal.WithLabelValues(f).Inc()
		}
	}
}
