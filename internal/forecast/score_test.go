package forecast

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/sunsetcast/internal/models"
)

func TestCloudScore(t *testing.T) {
	tests := []struct {
		name           string
		low, mid, high float64
		wantScore      int
		wantSubtotal   int
	}{
		{"sweet spot", 10, 30, 45, 100, 100},
		{"clear sky", 0, 0, 0, 15, 15},
		{"thin high", 0, 0, 10, 40, 40},
		{"overcast high clear horizon", 10, 0, 80, 60, 60},
		{"overcast high blocked horizon", 40, 0, 80, 30, 30},
		{"thick mid clear horizon", 10, 70, 0, 43, 43},
		{"thick mid blocked horizon", 40, 70, 0, 17, 17},
		{"low deck only", 100, 0, 0, 0, -10},
		{"low deck under high", 80, 0, 50, 40, 40},
		{"everything", 100, 100, 100, 27, 27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, subtotal := CloudScore(tt.low, tt.mid, tt.high)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantSubtotal, subtotal)
		})
	}
}

func TestSubScores(t *testing.T) {
	humidity := map[float64]int{55: 100, 75: 100, 45: 75, 54.9: 75, 80: 60, 85: 60, 39: 30, 42: 20, 90: 20}
	for v, want := range humidity {
		assert.Equal(t, want, HumidityScore(v), "humidity %v", v)
	}

	visibility := map[float64]int{8: 100, 15: 100, 20: 70, 25: 70, 30: 40, 5: 50, 7.9: 50, 4: 20}
	for v, want := range visibility {
		assert.Equal(t, want, VisibilityScore(v), "visibility %v", v)
	}

	wind := map[float64]int{0: 100, 10: 100, 12: 70, 15: 70, 20: 40, 25: 40, 30: 15}
	for v, want := range wind {
		assert.Equal(t, want, WindScore(v), "wind %v", v)
	}

	pressure := map[float64]int{1010: 80, 1020: 80, 1009: 65, 1021: 50}
	for v, want := range pressure {
		assert.Equal(t, want, PressureScore(v), "pressure %v", v)
	}

	dust := map[float64]int{20: 90, 60: 90, 61: 70, 100: 70, 150: 50, 5: 25, 15: 30, 19.5: 30}
	for v, want := range dust {
		assert.Equal(t, want, DustScore(v), "pm10 %v", v)
	}
}

func TestWeightsFor(t *testing.T) {
	tests := []struct {
		name      string
		mid, high float64
		want      Weights
	}{
		{"no ceiling", 20, 30, BaseWeights},
		{"mid ceiling", 40, 20, Weights{Clouds: 0.45, Humidity: 0.20, Visibility: 0.05, Wind: 0.10, Pressure: 0.10, Dust: 0.10}},
		{"high ceiling", 0, 60, Weights{Clouds: 0.50, Humidity: 0.20, Visibility: 0.05, Wind: 0.05, Pressure: 0.10, Dust: 0.10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WeightsFor(models.DayRecord{CloudMid: tt.mid, CloudHigh: tt.high})
			assert.InDelta(t, tt.want.Clouds, w.Clouds, 1e-9)
			assert.InDelta(t, tt.want.Visibility, w.Visibility, 1e-9)
			assert.InDelta(t, tt.want.Wind, w.Wind, 1e-9)
			assert.Equal(t, tt.want.Humidity, w.Humidity)
			assert.Equal(t, tt.want.Pressure, w.Pressure)
			assert.Equal(t, tt.want.Dust, w.Dust)

			sum := w.Clouds + w.Humidity + w.Visibility + w.Wind + w.Pressure + w.Dust
			assert.InDelta(t, 1.0, sum, 1e-9)
		})
	}
}

func TestCloudyCeilingBoundary(t *testing.T) {
	assert.False(t, CloudyCeiling(models.DayRecord{CloudMid: 25, CloudHigh: 25}))
	assert.True(t, CloudyCeiling(models.DayRecord{CloudMid: 25, CloudHigh: 25.1}))
}

func sunsetSample() models.DayRecord {
	return models.DayRecord{
		CloudHigh:  45,
		CloudMid:   30,
		CloudLow:   10,
		Humidity:   65,
		Visibility: 12000,
		WindSpeed:  8,
		Pressure:   1015,
		PM10:       30,
	}
}

func TestScore_CeilingBranch(t *testing.T) {
	d := sunsetSample()
	assert.True(t, CloudyCeiling(d))

	s := Score(d)
	assert.Equal(t, 100, s.Factors.Clouds.Score)
	assert.Equal(t, 100, s.Factors.Humidity.Score)
	assert.Equal(t, 100, s.Factors.Visibility.Score)
	assert.Equal(t, 12.0, s.Factors.Visibility.Value)
	assert.Equal(t, 100, s.Factors.Wind.Score)
	assert.Equal(t, 80, s.Factors.Pressure.Score)
	assert.Equal(t, 90, s.Factors.Dust.Score)

	// 100*.45 + 100*.20 + 100*.05 + 100*.10 + 80*.10 + 90*.10
	assert.Equal(t, 97, s.Total)
}

func TestScore_BaseBranch(t *testing.T) {
	d := models.DayRecord{
		CloudHigh:  10,
		CloudMid:   0,
		CloudLow:   0,
		Humidity:   50,
		Visibility: 20000,
		WindSpeed:  12,
		Pressure:   1015,
		PM10:       5,
	}
	s := Score(d)
	// clouds 40*.35 + humidity 75*.2 + vis 70*.15 + wind 70*.1 + pressure 80*.1 + dust 25*.1
	// = 14 + 15 + 10.5 + 7 + 8 + 2.5
	assert.Equal(t, 57, s.Total)
}

func TestScore_HalfPointUnderHighCeiling(t *testing.T) {
	d := models.DayRecord{
		CloudHigh:  65,
		CloudMid:   0,
		CloudLow:   10,
		Humidity:   35,
		Visibility: 30000,
		WindSpeed:  20,
		Pressure:   1025,
		PM10:       15,
	}
	assert.Equal(t, 0.5, WeightsFor(d).Clouds)

	// 65*.5 + 30*.2 + 40*.05 + 40*.05 + 50*.1 + 30*.1 = 50.5
	s := Score(d)
	assert.Equal(t, 51, s.Total)

	p := Present(Classify(d), s.Total)
	assert.Equal(t, KindPinkFire, p.Matched)
	assert.Equal(t, KindPinkFire, p.Kind)
}

func TestScore_NegativeSubtotalIsVisible(t *testing.T) {
	s := Score(models.DayRecord{CloudLow: 100, Humidity: 60, Visibility: 10000, WindSpeed: 5, Pressure: 1015, PM10: 30})
	assert.Equal(t, 0, s.Factors.Clouds.Score)
	assert.Equal(t, -10, s.Factors.Clouds.Subtotal)
}

func TestScore_AlwaysInRange(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	span := func(lo, hi float64) float64 { return lo + r.Float64()*(hi-lo) }

	extremes := []float64{math.Inf(1), math.Inf(-1), math.NaN(), -1e9, 1e9}

	for i := 0; i < 20000; i++ {
		d := models.DayRecord{
			CloudLow:   span(-50, 150),
			CloudMid:   span(-50, 150),
			CloudHigh:  span(-50, 150),
			Humidity:   span(-20, 130),
			Visibility: span(-1000, 100000),
			WindSpeed:  span(-10, 200),
			Pressure:   span(900, 1100),
			PM10:       span(-10, 1000),
		}
		if i%10 == 0 {
			d.CloudLow = extremes[r.IntN(len(extremes))]
			d.PM10 = extremes[r.IntN(len(extremes))]
		}
		s := Score(d)
		if s.Total < 0 || s.Total > 100 {
			t.Fatalf("score %d out of range for %+v", s.Total, d)
		}
		for name, v := range map[string]int{
			"clouds": s.Factors.Clouds.Score, "humidity": s.Factors.Humidity.Score,
			"visibility": s.Factors.Visibility.Score, "wind": s.Factors.Wind.Score,
			"pressure": s.Factors.Pressure.Score, "dust": s.Factors.Dust.Score,
		} {
			if v < 0 || v > 100 {
				t.Fatalf("%s sub-score %d out of range for %+v", name, v, d)
			}
		}
	}
}
