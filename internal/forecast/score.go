package forecast

import (
	"github.com/lox/sunsetcast/internal/models"
)

// Factor is one sub-score and the observed value it was derived from.
type Factor struct {
	Score int     `json:"score"`
	Value float64 `json:"value"`
}

// CloudFactor keeps the unclamped running total alongside the clamped score
// so the low-cloud penalty stays visible.
type CloudFactor struct {
	Score    int     `json:"score"`
	Subtotal int     `json:"subtotal"`
	Low      float64 `json:"low"`
	Mid      float64 `json:"mid"`
	High     float64 `json:"high"`
}

// Total returns combined cover across the three layers.
func (c CloudFactor) Total() float64 {
	return c.Low + c.Mid + c.High
}

type Factors struct {
	Clouds     CloudFactor `json:"clouds"`
	Humidity   Factor      `json:"humidity"`
	Visibility Factor      `json:"visibility"` // km
	Wind       Factor      `json:"wind"`
	Pressure   Factor      `json:"pressure"`
	Dust       Factor      `json:"dust"`
}

type ScoreResult struct {
	Total   int     `json:"total"`
	Factors Factors `json:"factors"`
}

// Weights are the composite weights applied to each sub-score.
type Weights struct {
	Clouds     float64 `json:"clouds"`
	Humidity   float64 `json:"humidity"`
	Visibility float64 `json:"visibility"`
	Wind       float64 `json:"wind"`
	Pressure   float64 `json:"pressure"`
	Dust       float64 `json:"dust"`
}

var BaseWeights = Weights{
	Clouds:     0.35,
	Humidity:   0.20,
	Visibility: 0.15,
	Wind:       0.10,
	Pressure:   0.10,
	Dust:       0.10,
}

// CloudyCeiling reports whether mid and high cloud together exceed 50%.
func CloudyCeiling(d models.DayRecord) bool {
	return d.CloudHigh+d.CloudMid > 50
}

// WeightsFor returns the composite weights for d. Under a cloudy ceiling
// visibility drops to 0.05, wind drops to 0.05 when high cloud also exceeds
// 50%, and whatever was removed moves onto clouds.
func WeightsFor(d models.DayRecord) Weights {
	w := BaseWeights
	if !CloudyCeiling(d) {
		return w
	}
	w.Visibility = 0.05
	if d.CloudHigh > 50 {
		w.Wind = 0.05
	}
	// Sum the removed shares first; adding them to clouds one at a time
	// lands a hair under 0.5 and breaks .5 rounding.
	w.Clouds = BaseWeights.Clouds + ((BaseWeights.Visibility - w.Visibility) + (BaseWeights.Wind - w.Wind))
	return w
}

// CloudScore returns the clamped cloud sub-score and the raw subtotal.
func CloudScore(low, mid, high float64) (score, subtotal int) {
	switch {
	case high >= 20 && high <= 70:
		subtotal += 50
	case high > 0 && high < 20:
		subtotal += 25
	case high > 70 && low < 30:
		subtotal += 45
	case high > 70:
		subtotal += 25
	}

	switch {
	case mid >= 20 && mid <= 60:
		subtotal += 35
	case mid > 60 && low < 30:
		subtotal += 28
	case mid > 60:
		subtotal += 12
	}

	switch {
	case low < 30:
		subtotal += 15
	case low < 60:
		subtotal += 5
	default:
		subtotal -= 10
	}

	return clamp(subtotal, 0, 100), subtotal
}

func HumidityScore(h float64) int {
	switch {
	case h >= 55 && h <= 75:
		return 100
	case h >= 45 && h < 55:
		return 75
	case h > 75 && h <= 85:
		return 60
	case h < 40:
		return 30
	default:
		return 20
	}
}

// VisibilityScore takes visibility in km.
func VisibilityScore(km float64) int {
	switch {
	case km >= 8 && km <= 15:
		return 100
	case km > 15 && km <= 25:
		return 70
	case km > 25:
		return 40
	case km >= 5:
		return 50
	default:
		return 20
	}
}

func WindScore(kmh float64) int {
	switch {
	case kmh <= 10:
		return 100
	case kmh <= 15:
		return 70
	case kmh <= 25:
		return 40
	default:
		return 15
	}
}

func PressureScore(hpa float64) int {
	switch {
	case hpa >= 1010 && hpa <= 1020:
		return 80
	case hpa < 1010:
		return 65
	default:
		return 50
	}
}

func DustScore(pm10 float64) int {
	switch {
	case pm10 >= 20 && pm10 <= 60:
		return 90
	case pm10 > 60 && pm10 <= 100:
		return 70
	case pm10 > 100:
		return 50
	case pm10 < 10:
		return 25
	default:
		return 30
	}
}

// Score reduces a day record to a 0-100 sunset quality score.
func Score(d models.DayRecord) ScoreResult {
	cs, subtotal := CloudScore(d.CloudLow, d.CloudMid, d.CloudHigh)
	visKm := d.Visibility / 1000

	f := Factors{
		Clouds:     CloudFactor{Score: cs, Subtotal: subtotal, Low: d.CloudLow, Mid: d.CloudMid, High: d.CloudHigh},
		Humidity:   Factor{Score: HumidityScore(d.Humidity), Value: d.Humidity},
		Visibility: Factor{Score: VisibilityScore(visKm), Value: visKm},
		Wind:       Factor{Score: WindScore(d.WindSpeed), Value: d.WindSpeed},
		Pressure:   Factor{Score: PressureScore(d.Pressure), Value: d.Pressure},
		Dust:       Factor{Score: DustScore(d.PM10), Value: d.PM10},
	}

	w := WeightsFor(d)
	sum := float64(f.Clouds.Score)*w.Clouds +
		float64(f.Humidity.Score)*w.Humidity +
		float64(f.Visibility.Score)*w.Visibility +
		float64(f.Wind.Score)*w.Wind +
		float64(f.Pressure.Score)*w.Pressure +
		float64(f.Dust.Score)*w.Dust

	return ScoreResult{
		Total:   clamp(int(roundHalfUp(sum)), 0, 100),
		Factors: f,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
