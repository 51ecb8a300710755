package forecast

import (
	"math"

	"github.com/lox/sunsetcast/internal/models"
)

// SunsetKind categorises the expected look of a sunset.
type SunsetKind string

const (
	KindNone          SunsetKind = "none"
	KindBloodSun      SunsetKind = "blood_sun"
	KindBreakthrough  SunsetKind = "breakthrough"
	KindPinkFire      SunsetKind = "pink_fire"
	KindDramaticSheep SunsetKind = "dramatic_sheep"
	KindCleanGradient SunsetKind = "clean_gradient"
	KindNormal        SunsetKind = "normal"
)

// Kinds lists every kind in cascade order.
var Kinds = []SunsetKind{
	KindNone, KindBloodSun, KindBreakthrough, KindPinkFire,
	KindDramaticSheep, KindCleanGradient, KindNormal,
}

type kindInfo struct {
	name        string
	emoji       string
	description string
}

var kindInfos = map[SunsetKind]kindInfo{
	KindNone:          {"No sunset", "☁️", "Low clouds block the horizon"},
	KindBloodSun:      {"Blood sun", "🌑", "A red solar disc in a dusty sky. The calima effect."},
	KindBreakthrough:  {"Breakthrough", "⚡", "The sun breaks through the clouds. The most unpredictable and powerful type."},
	KindPinkFire:      {"Pink fire", "🔥", "The sky glows pink and purple after sunset for about 20 minutes."},
	KindDramaticSheep: {"Dramatic sheep", "🐑", "A sculpted 3D sky: golden cloud edges, dark bases, gaps of blue."},
	KindCleanGradient: {"Clean gradient", "🌈", "A smooth colour fade with no clouds. Minimal and calm."},
	KindNormal:        {"Normal sunset", "🌅", ""},
}

// SunsetType is a classification result. Confidence measures how well the
// matching rule fits, in [0,1].
type SunsetType struct {
	Kind        SunsetKind `json:"kind"`
	Name        string     `json:"name"`
	Emoji       string     `json:"emoji"`
	Description string     `json:"description"`
	Confidence  float64    `json:"confidence"`
}

func newSunsetType(k SunsetKind, confidence float64) SunsetType {
	info := kindInfos[k]
	return SunsetType{
		Kind:        k,
		Name:        info.name,
		Emoji:       info.emoji,
		Description: info.description,
		Confidence:  confidence,
	}
}

type typeRule struct {
	kind       SunsetKind
	match      func(d models.DayRecord) bool
	confidence func(d models.DayRecord) float64
}

// cascade is evaluated in order; the first match wins.
var cascade = []typeRule{
	{
		kind:  KindNone,
		match: func(d models.DayRecord) bool { return d.CloudLow > 60 },
		confidence: func(d models.DayRecord) float64 {
			return 0.5 + math.Min(1, (d.CloudLow-60)/40)*0.5
		},
	},
	{
		kind:  KindBloodSun,
		match: func(d models.DayRecord) bool { return d.PM10 >= 40 && d.Visibility <= 15000 },
		confidence: func(d models.DayRecord) float64 {
			c := math.Min(1, (d.PM10-40)/60)*0.5 + math.Min(1, (15000-d.Visibility)/10000)*0.5
			return clampf(c, 0.4, 1)
		},
	},
	{
		kind: KindBreakthrough,
		match: func(d models.DayRecord) bool {
			return d.PressureTrend == models.TrendRisingAfterDrop && d.CloudMid+d.CloudHigh >= 40 && d.CloudLow < 30
		},
		confidence: func(d models.DayRecord) float64 {
			fit := math.Min(1, (d.CloudMid+d.CloudHigh-40)/40)
			return clampf(0.5+fit*0.35, 0.5, 0.85)
		},
	},
	{
		kind:  KindPinkFire,
		match: func(d models.DayRecord) bool { return d.CloudHigh >= 60 && d.CloudLow <= 10 },
		confidence: func(d models.DayRecord) float64 {
			c := math.Min(1, (d.CloudHigh-60)/30)*0.6 + (1-d.CloudLow/10)*0.4
			return clampf(c, 0.5, 1)
		},
	},
	{
		kind: KindDramaticSheep,
		match: func(d models.DayRecord) bool {
			return d.CloudMid >= 25 && d.CloudMid <= 55 && d.CloudLow <= 15 && d.CloudHigh < 60
		},
		confidence: func(d models.DayRecord) float64 {
			return clampf(1-math.Abs(d.CloudMid-40)/15, 0.45, 0.9)
		},
	},
	{
		kind: KindCleanGradient,
		match: func(d models.DayRecord) bool {
			return d.CloudHigh+d.CloudMid+d.CloudLow <= 10 && d.Humidity >= 45 && d.Visibility >= 10000 && d.PM10 < 40
		},
		confidence: func(d models.DayRecord) float64 {
			total := d.CloudHigh + d.CloudMid + d.CloudLow
			moisture := 0.1
			if d.Humidity >= 55 {
				moisture = 0.2
			}
			c := (1-total/10)*0.5 + math.Min(1, d.Visibility/20000)*0.3 + moisture
			return clampf(c, 0.5, 1)
		},
	},
}

// Classify runs the rule cascade against d.
func Classify(d models.DayRecord) SunsetType {
	for _, r := range cascade {
		if r.match(d) {
			return newSunsetType(r.kind, r.confidence(d))
		}
	}
	return newSunsetType(KindNormal, 0.5)
}

// PresentedType is what gets shown to a user. Low-scoring days always present
// as a normal sunset; Matched keeps the rule that actually fired.
type PresentedType struct {
	SunsetType
	Matched    SunsetKind `json:"matched"`
	Overridden bool       `json:"overridden"`
}

// OverrideMaxScore is the highest composite score at which matched types are
// replaced with a normal sunset.
const OverrideMaxScore = 50

// Present applies the low-score override to a classification, keeping the
// matched rule's confidence.
func Present(t SunsetType, total int) PresentedType {
	p := PresentedType{SunsetType: t, Matched: t.Kind}
	if total <= OverrideMaxScore && t.Kind != KindNormal {
		p.SunsetType = newSunsetType(KindNormal, t.Confidence)
		p.Overridden = true
	}
	return p
}

func clampf(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
