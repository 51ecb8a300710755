package api

import (
	"time"

	"github.com/lox/sunsetcast/internal/forecast"
	"github.com/lox/sunsetcast/internal/ingest"
	"github.com/lox/sunsetcast/internal/models"
)

// DayView is an outlook with display-ready fields.
type DayView struct {
	forecast.Outlook
	SunsetTime     string                 `json:"sunset_time"`
	GoldenHourTime string                 `json:"golden_hour_time"`
	ViewingWindow  forecast.ViewingWindow `json:"viewing_window"`
	Countdown      string                 `json:"countdown,omitempty"`
	ScoreColor     string                 `json:"score_color"`
	Palette        forecast.Palette       `json:"palette"`
}

type ForecastView struct {
	FetchedAt time.Time         `json:"fetched_at"`
	Location  models.Coordinate `json:"location"`
	BestIndex int               `json:"best_index"`
	Days      []DayView         `json:"days"`
}

type DayDetailView struct {
	Day   DayView               `json:"day"`
	Spots []forecast.RankedSpot `json:"spots"`
}

func newDayView(o forecast.Outlook, now time.Time, loc *time.Location) DayView {
	v := DayView{
		Outlook:        o,
		SunsetTime:     forecast.FormatTime(o.Day.Sunset, loc),
		GoldenHourTime: forecast.FormatTime(o.Day.GoldenHour, loc),
		ViewingWindow:  forecast.NewViewingWindow(o.Day.GoldenHour, o.Day.Sunset),
		ScoreColor:     forecast.ScoreColor(o.Score.Total),
		Palette:        forecast.GetPalette(o.Type.Kind),
	}
	if o.Index == 0 {
		v.Countdown = forecast.UntilSunset(o.Day.Sunset, now).String()
	}
	return v
}

func newForecastView(snap *ingest.Snapshot, outlooks []forecast.Outlook, now time.Time, loc *time.Location) ForecastView {
	days := make([]DayView, len(outlooks))
	for i, o := range outlooks {
		days[i] = newDayView(o, now, loc)
	}
	return ForecastView{
		FetchedAt: snap.FetchedAt,
		Location:  models.Valencia,
		BestIndex: forecast.Best(outlooks),
		Days:      days,
	}
}
