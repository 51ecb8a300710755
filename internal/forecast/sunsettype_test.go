package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/sunsetcast/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		day      models.DayRecord
		wantKind SunsetKind
		wantConf float64
	}{
		{
			name:     "low deck blocks horizon",
			day:      models.DayRecord{CloudLow: 80, Visibility: 10000, PM10: 15},
			wantKind: KindNone,
			wantConf: 0.75,
		},
		{
			name:     "low deck beats calima",
			day:      models.DayRecord{CloudLow: 70, PM10: 80, Visibility: 5000},
			wantKind: KindNone,
			wantConf: 0.625,
		},
		{
			name:     "calima",
			day:      models.DayRecord{PM10: 70, Visibility: 10000},
			wantKind: KindBloodSun,
			wantConf: 0.5,
		},
		{
			name:     "weak calima is floored",
			day:      models.DayRecord{PM10: 40, Visibility: 15000},
			wantKind: KindBloodSun,
			wantConf: 0.4,
		},
		{
			name:     "front clearing",
			day:      models.DayRecord{PressureTrend: models.TrendRisingAfterDrop, CloudMid: 40, CloudHigh: 20, CloudLow: 10, Visibility: 20000, PM10: 10},
			wantKind: KindBreakthrough,
			wantConf: 0.675,
		},
		{
			name:     "front clearing is capped",
			day:      models.DayRecord{PressureTrend: models.TrendRisingAfterDrop, CloudMid: 60, CloudHigh: 80, Visibility: 20000, PM10: 10},
			wantKind: KindBreakthrough,
			wantConf: 0.85,
		},
		{
			name:     "cirrus over clear horizon",
			day:      models.DayRecord{CloudHigh: 75, CloudLow: 5, Visibility: 20000, PM10: 10},
			wantKind: KindPinkFire,
			wantConf: 0.5,
		},
		{
			name:     "full cirrus and no low cloud",
			day:      models.DayRecord{CloudHigh: 90, CloudLow: 0, Visibility: 20000, PM10: 10},
			wantKind: KindPinkFire,
			wantConf: 1.0,
		},
		{
			name:     "mid cloud sweet spot",
			day:      models.DayRecord{CloudMid: 40, CloudLow: 5, CloudHigh: 20, Visibility: 20000, PM10: 10},
			wantKind: KindDramaticSheep,
			wantConf: 0.9,
		},
		{
			name:     "mid cloud off centre",
			day:      models.DayRecord{CloudMid: 35, CloudLow: 5, Visibility: 20000, PM10: 10},
			wantKind: KindDramaticSheep,
			wantConf: 1 - 5.0/15,
		},
		{
			name:     "mid cloud at the edge is floored",
			day:      models.DayRecord{CloudMid: 25, CloudLow: 5, Visibility: 20000, PM10: 10},
			wantKind: KindDramaticSheep,
			wantConf: 0.45,
		},
		{
			name:     "clear moist sky",
			day:      models.DayRecord{Humidity: 60, Visibility: 20000, PM10: 10},
			wantKind: KindCleanGradient,
			wantConf: 1.0,
		},
		{
			name:     "clear drier sky",
			day:      models.DayRecord{CloudHigh: 5, Humidity: 50, Visibility: 10000, PM10: 10},
			wantKind: KindCleanGradient,
			wantConf: 0.5,
		},
		{
			name:     "nothing special",
			day:      models.DayRecord{CloudLow: 40, CloudMid: 10, Humidity: 80, Visibility: 20000, PM10: 10},
			wantKind: KindNormal,
			wantConf: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.day)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			assert.NotEmpty(t, got.Name)
			assert.NotEmpty(t, got.Emoji)
		})
	}
}

// Each record satisfies the raw conditions of several rules; only the
// earliest rule may fire.
func TestClassify_FirstRuleWins(t *testing.T) {
	tests := []struct {
		name string
		day  models.DayRecord
		want SunsetKind
	}{
		{
			name: "blood sun over breakthrough and pink fire",
			day:  models.DayRecord{PM10: 90, Visibility: 8000, PressureTrend: models.TrendRisingAfterDrop, CloudHigh: 70, CloudMid: 10, CloudLow: 5},
			want: KindBloodSun,
		},
		{
			name: "breakthrough over pink fire and sheep",
			day:  models.DayRecord{PressureTrend: models.TrendRisingAfterDrop, CloudHigh: 65, CloudMid: 40, CloudLow: 5, Visibility: 20000, PM10: 10},
			want: KindBreakthrough,
		},
		{
			name: "pink fire over sheep",
			day:  models.DayRecord{CloudHigh: 60, CloudMid: 40, CloudLow: 5, Visibility: 20000, PM10: 10},
			want: KindPinkFire,
		},
		{
			name: "none over everything",
			day:  models.DayRecord{CloudLow: 61, PM10: 90, Visibility: 5000, PressureTrend: models.TrendRisingAfterDrop, CloudHigh: 80, CloudMid: 40, Humidity: 60},
			want: KindNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.day).Kind)
		})
	}
}

func TestClassify_ExactlyOneRuleFires(t *testing.T) {
	values := []float64{0, 5, 10, 15, 25, 30, 40, 55, 60, 61, 70, 90}
	for _, low := range values {
		for _, mid := range values {
			for _, high := range values {
				for _, pm := range []float64{10, 39, 40, 80} {
					d := models.DayRecord{
						CloudLow: low, CloudMid: mid, CloudHigh: high,
						PM10: pm, Visibility: 12000, Humidity: 60,
						PressureTrend: models.TrendRisingAfterDrop,
					}

					var first SunsetKind
					for _, r := range cascade {
						if r.match(d) {
							first = r.kind
							break
						}
					}
					if first == "" {
						first = KindNormal
					}

					got := Classify(d)
					require.Equal(t, first, got.Kind)
					require.GreaterOrEqual(t, got.Confidence, 0.0)
					require.LessOrEqual(t, got.Confidence, 1.0)
				}
			}
		}
	}
}

func TestPresent(t *testing.T) {
	pink := Classify(models.DayRecord{CloudHigh: 90, CloudLow: 0, Visibility: 20000, PM10: 10})
	require.Equal(t, KindPinkFire, pink.Kind)

	t.Run("low score presents normal", func(t *testing.T) {
		p := Present(pink, 45)
		assert.Equal(t, KindNormal, p.Kind)
		assert.Equal(t, "Normal sunset", p.Name)
		assert.Equal(t, KindPinkFire, p.Matched)
		assert.Equal(t, pink.Confidence, p.Confidence)
		assert.True(t, p.Overridden)
	})

	t.Run("boundary score presents normal", func(t *testing.T) {
		assert.Equal(t, KindNormal, Present(pink, 50).Kind)
	})

	t.Run("good score keeps match", func(t *testing.T) {
		p := Present(pink, 51)
		assert.Equal(t, KindPinkFire, p.Kind)
		assert.False(t, p.Overridden)
	})

	t.Run("no sunset on a bad day", func(t *testing.T) {
		none := Classify(models.DayRecord{CloudLow: 70, PM10: 80})
		p := Present(none, 20)
		assert.Equal(t, KindNormal, p.Kind)
		assert.Equal(t, KindNone, p.Matched)
	})

	t.Run("normal is never overridden", func(t *testing.T) {
		p := Present(newSunsetType(KindNormal, 0.5), 10)
		assert.False(t, p.Overridden)
	})
}

func TestKindsCoverCascade(t *testing.T) {
	for _, r := range cascade {
		assert.Contains(t, Kinds, r.kind)
	}
	for _, k := range Kinds {
		_, ok := kindInfos[k]
		assert.True(t, ok, "missing info for %s", k)
		assert.NotEqual(t, DefaultPalette, GetPalette(k))
		assert.Contains(t, BuildPrompt(k), "Sky:")
	}
}
