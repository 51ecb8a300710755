package forecast

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lox/sunsetcast/internal/models"
	"github.com/lox/sunsetcast/internal/solar"
)

// Fallbacks for missing provider samples.
const (
	DefaultHumidity   = 50.0
	DefaultVisibility = 10000.0
	DefaultWindSpeed  = 10.0
	DefaultPressure   = 1013.0
	DefaultPM10       = 15.0
)

// ForecastDays is the number of days assembled, today included.
const ForecastDays = 7

const dateLayout = "2006-01-02"

// BuildForecast assembles one DayRecord per calendar day starting at now's
// date in now's location. Days whose sunset hour cannot be located in the
// weather series are omitted. Day 0 also carries the pressure trend and
// deltas around now.
func BuildForecast(w *models.WeatherSeries, a *models.AirSeries, coord models.Coordinate, now time.Time) []models.DayRecord {
	if w == nil {
		return nil
	}
	loc := now.Location()
	h := w.Hourly

	var airTimes []string
	var airPM10 []*float64
	if a != nil && a.Hourly != nil {
		airTimes = a.Hourly.Time
		airPM10 = a.Hourly.PM10
	}

	var days []models.DayRecord
	for d := 0; d < ForecastDays; d++ {
		date := time.Date(now.Year(), now.Month(), now.Day()+d, 12, 0, 0, 0, loc)
		sun := solar.Times(date, coord.Lat, coord.Lng)
		if sun.Sunset.IsZero() {
			continue
		}

		sunsetHour := sun.Sunset.In(loc).Hour()
		day := date.Format(dateLayout)
		key := hourKey(day, sunsetHour)

		idx := locateHour(h.Time, day, sunsetHour)
		if idx < 0 {
			continue
		}

		pm10 := DefaultPM10
		if ai := indexOf(airTimes, key); ai >= 0 {
			if v := sample(airPM10, ai); v != nil {
				pm10 = *v
			}
		}

		rec := models.DayRecord{
			Date:       date,
			Sunset:     sun.Sunset.In(loc),
			GoldenHour: timeIn(sun.GoldenHour, loc),
			Azimuth:    math.Round(solar.Azimuth(sun.Sunset, coord.Lat, coord.Lng)),
			CloudTotal: valueOr(h.CloudCover, idx, 0),
			CloudLow:   valueOr(h.CloudCoverLow, idx, 0),
			CloudMid:   valueOr(h.CloudCoverMid, idx, 0),
			CloudHigh:  valueOr(h.CloudCoverHigh, idx, 0),
			Humidity:   valueOr(h.RelativeHumidity, idx, DefaultHumidity),
			Visibility: valueOr(h.Visibility, idx, DefaultVisibility),
			WindSpeed:  valueOr(h.WindSpeed, idx, DefaultWindSpeed),
			Pressure:   valueOr(h.SurfacePressure, idx, DefaultPressure),
			PM10:       pm10,
			CloudHours: cloudHours(h, idx),
		}

		if d == 0 {
			applyPressure(&rec, h, now)
		}

		days = append(days, rec)
	}
	return days
}

// BuildCurrentSnapshot reads the provider's "current" objects, filling
// documented defaults for anything missing.
func BuildCurrentSnapshot(w *models.WeatherSeries, a *models.AirSeries) models.CurrentSnapshot {
	snap := models.CurrentSnapshot{
		Humidity:   DefaultHumidity,
		Visibility: DefaultVisibility,
		WindSpeed:  DefaultWindSpeed,
		Pressure:   DefaultPressure,
		PM10:       DefaultPM10,
	}
	if w != nil && w.Current != nil {
		c := w.Current
		snap.CloudTotal = deref(c.CloudCover, 0)
		snap.CloudLow = deref(c.CloudCoverLow, 0)
		snap.CloudMid = deref(c.CloudCoverMid, 0)
		snap.CloudHigh = deref(c.CloudCoverHigh, 0)
		snap.Humidity = deref(c.RelativeHumidity, DefaultHumidity)
		snap.Visibility = deref(c.Visibility, DefaultVisibility)
		snap.WindSpeed = deref(c.WindSpeed, DefaultWindSpeed)
		snap.Pressure = deref(c.SurfacePressure, DefaultPressure)
	}
	if a != nil && a.Current != nil {
		snap.PM10 = deref(a.Current.PM10, DefaultPM10)
	}
	return snap
}

// Assemble builds the week and patches today's record with the current
// snapshot. The patch only applies when day 0 is today's date.
func Assemble(w *models.WeatherSeries, a *models.AirSeries, coord models.Coordinate, now time.Time) []models.DayRecord {
	week := BuildForecast(w, a, coord, now)
	if len(week) == 0 {
		return week
	}
	if week[0].Date.Format(dateLayout) == now.Format(dateLayout) {
		week[0] = BuildCurrentSnapshot(w, a).Apply(week[0])
	}
	return week
}

func applyPressure(rec *models.DayRecord, h models.WeatherHourly, now time.Time) {
	rec.PressureTrend = models.TrendStable
	if len(h.PressureMSL) == 0 {
		return
	}

	nowIdx := locateHour(h.Time, now.Format(dateLayout), now.Hour())
	if nowIdx < 0 {
		return
	}

	if nowIdx >= 12 && nowIdx < len(h.PressureMSL) {
		rec.PressureTrend = ClassifyPressureTrend(h.PressureMSL[nowIdx-12 : nowIdx+1])
	}

	sp := h.SurfacePressure
	current := sample(sp, nowIdx)
	if current == nil {
		return
	}
	if nowIdx >= 12 {
		if past := sample(sp, nowIdx-12); past != nil {
			rec.PressureDelta12h = ptr(roundTenth(*current - *past))
		}
	}
	if nowIdx >= 24 {
		if past := sample(sp, nowIdx-24); past != nil {
			rec.PressureDelta24h = ptr(roundTenth(*current - *past))
		}
	}
	if ahead := sample(sp, nowIdx+6); ahead != nil {
		rec.PressureForecast6h = ptr(roundTenth(*ahead - *current))
	}
}

// cloudHours collects mid+high cover at the hour before, at and after idx.
func cloudHours(h models.WeatherHourly, idx int) []float64 {
	hours := make([]float64, 0, 3)
	for _, off := range []int{-1, 0, 1} {
		i := idx + off
		if i < 0 || i >= len(h.Time) {
			continue
		}
		hours = append(hours, valueOr(h.CloudCoverHigh, i, 0)+valueOr(h.CloudCoverMid, i, 0))
	}
	return hours
}

// locateHour finds the sample for day at hour. When the exact key is absent
// it offsets from the first sample of that day, clamped to the series end.
func locateHour(times []string, day string, hour int) int {
	if i := indexOf(times, hourKey(day, hour)); i >= 0 {
		return i
	}
	for i, t := range times {
		if strings.HasPrefix(t, day) {
			return min(i+hour, len(times)-1)
		}
	}
	return -1
}

func hourKey(day string, hour int) string {
	return fmt.Sprintf("%sT%02d:00", day, hour)
}

func indexOf(times []string, key string) int {
	for i, t := range times {
		if t == key {
			return i
		}
	}
	return -1
}

func sample(series []*float64, i int) *float64 {
	if i < 0 || i >= len(series) {
		return nil
	}
	return series[i]
}

func valueOr(series []*float64, i int, def float64) float64 {
	return deref(sample(series, i), def)
}

func deref(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func timeIn(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(loc)
}

// roundHalfUp rounds ties toward +Inf.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func roundTenth(x float64) float64 {
	return roundHalfUp(x*10) / 10
}

func ptr(v float64) *float64 {
	return &v
}
