package forecast

import "github.com/lox/sunsetcast/internal/models"

const (
	maxPros = 2
	maxCons = 1
)

type Verdict struct {
	Emoji  string   `json:"emoji"`
	Action string   `json:"action"`
	Color  string   `json:"color"`
	Pros   []string `json:"pros"`
	Cons   []string `json:"cons"`
}

type tier struct {
	min    int
	emoji  string
	action string
	color  string
}

// tiers are ordered from best to worst.
var tiers = []tier{
	{min: 81, emoji: "🔥", action: "Go now", color: "#FF6B35"},
	{min: 66, emoji: "✨", action: "Worth going", color: "#F7C948"},
	{min: 41, emoji: "🌤", action: "Your call", color: "#88B7D5"},
	{min: 0, emoji: "😴", action: "Skippable", color: "#8B95A5"},
}

type reason struct {
	match func(s ScoreResult, d models.DayRecord) bool
	text  string
}

// pros and cons are in priority order.
var pros = []reason{
	{
		match: func(s ScoreResult, _ models.DayRecord) bool {
			c := s.Factors.Clouds
			return (c.Mid >= 20 && c.Mid <= 55) || c.High > 40
		},
		text: "clouds will add depth and texture",
	},
	{
		match: func(s ScoreResult, _ models.DayRecord) bool {
			h := s.Factors.Humidity.Value
			return h >= 55 && h <= 75
		},
		text: "humidity is ideal for rich colours",
	},
	{
		match: func(s ScoreResult, _ models.DayRecord) bool { return s.Factors.Clouds.Low < 10 },
		text:  "clear horizon",
	},
	{
		match: func(s ScoreResult, _ models.DayRecord) bool {
			return s.Factors.Wind.Value <= 10 && s.Factors.Clouds.Total() > 10
		},
		text: "calm air keeps the clouds in shape",
	},
	{
		match: func(_ ScoreResult, d models.DayRecord) bool { return d.PM10 >= 10 && d.PM10 <= 35 },
		text:  "light dust will add warm tones",
	},
}

var cons = []reason{
	{
		match: func(s ScoreResult, _ models.DayRecord) bool { return s.Factors.Clouds.Low > 20 },
		text:  "low clouds may block the horizon",
	},
	{
		match: func(s ScoreResult, _ models.DayRecord) bool {
			return s.Factors.Visibility.Value > 40 && s.Factors.Clouds.Total() < 20
		},
		text: "air is too clean for much scattering",
	},
	{
		match: func(s ScoreResult, _ models.DayRecord) bool { return s.Factors.Humidity.Value < 50 },
		text:  "humidity below ideal, colours will be paler",
	},
	{
		match: func(_ ScoreResult, d models.DayRecord) bool { return d.PM10 > 60 },
		text:  "heavy dust will make the sky hazy",
	},
}

// NewVerdict turns a score into a recommendation with the most salient
// reasons for and against going.
func NewVerdict(s ScoreResult, d models.DayRecord) Verdict {
	t := tierFor(s.Total)
	return Verdict{
		Emoji:  t.emoji,
		Action: t.action,
		Color:  t.color,
		Pros:   firstMatches(pros, s, d, maxPros),
		Cons:   firstMatches(cons, s, d, maxCons),
	}
}

// ScoreColor returns the verdict colour for a bare score.
func ScoreColor(total int) string {
	return tierFor(total).color
}

// ScoreEmoji returns the verdict emoji for a bare score.
func ScoreEmoji(total int) string {
	return tierFor(total).emoji
}

func tierFor(total int) tier {
	for _, t := range tiers {
		if total >= t.min {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

func firstMatches(rules []reason, s ScoreResult, d models.DayRecord, limit int) []string {
	out := []string{}
	for _, r := range rules {
		if len(out) == limit {
			break
		}
		if r.match(s, d) {
			out = append(out, r.text)
		}
	}
	return out
}
