package forecast

import (
	"time"

	"github.com/lox/sunsetcast/internal/models"
)

// Outlook bundles everything derived for one forecast day.
type Outlook struct {
	Index           int              `json:"index"`
	Label           string           `json:"label"`
	Day             models.DayRecord `json:"day"`
	Score           ScoreResult      `json:"score"`
	Weights         Weights          `json:"weights"`
	Confidence      int              `json:"confidence"`
	ConfidenceLevel string           `json:"confidence_level"`
	Verdict         Verdict          `json:"verdict"`
	Type            PresentedType    `json:"type"`
}

// Evaluate runs scoring, confidence, verdict and classification for one day.
func Evaluate(d models.DayRecord, index int, now time.Time) Outlook {
	score := Score(d)
	conf := Confidence(d.Sunset, now, d.CloudHours, index)
	return Outlook{
		Index:           index,
		Label:           DayLabel(d.Date, index),
		Day:             d,
		Score:           score,
		Weights:         WeightsFor(d),
		Confidence:      conf,
		ConfidenceLevel: ConfidenceLevel(conf),
		Verdict:         NewVerdict(score, d),
		Type:            Present(Classify(d), score.Total),
	}
}

func EvaluateWeek(days []models.DayRecord, now time.Time) []Outlook {
	out := make([]Outlook, len(days))
	for i, d := range days {
		out[i] = Evaluate(d, i, now)
	}
	return out
}

// Best returns the index of the highest-scoring outlook, or -1.
func Best(outlooks []Outlook) int {
	best := -1
	for i, o := range outlooks {
		if best < 0 || o.Score.Total > outlooks[best].Score.Total {
			best = i
		}
	}
	return best
}
