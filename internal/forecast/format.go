package forecast

import (
	"fmt"
	"time"
)

// NoTime is shown in place of a missing solar time.
const NoTime = "--:--"

// FormatTime formats t as HH:MM in loc, or NoTime for a zero time.
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return NoTime
	}
	return t.In(loc).Format("15:04")
}

// DayLabel names a forecast day relative to today.
func DayLabel(date time.Time, index int) string {
	switch index {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return date.Format("Mon")
	}
}

type Countdown struct {
	Remaining time.Duration
	Passed    bool
}

// UntilSunset returns the time left before sunset.
func UntilSunset(sunset, now time.Time) Countdown {
	diff := sunset.Sub(now)
	if sunset.IsZero() || diff <= 0 {
		return Countdown{Passed: true}
	}
	return Countdown{Remaining: diff}
}

func (c Countdown) String() string {
	if c.Passed {
		return "sunset has passed"
	}
	h := int(c.Remaining.Hours())
	m := int(c.Remaining.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// ViewingWindow brackets golden hour and sunset with a margin either side.
type ViewingWindow struct {
	Start      time.Time `json:"start"`
	GoldenHour time.Time `json:"golden_hour"`
	Sunset     time.Time `json:"sunset"`
	End        time.Time `json:"end"`
}

const viewingMargin = 15 * time.Minute

func NewViewingWindow(golden, sunset time.Time) ViewingWindow {
	return ViewingWindow{
		Start:      golden.Add(-viewingMargin),
		GoldenHour: golden,
		Sunset:     sunset,
		End:        sunset.Add(viewingMargin),
	}
}
