package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lox/sunsetcast/internal/logging"
	"github.com/lox/sunsetcast/internal/models"
	"github.com/lox/sunsetcast/internal/store"
)

func madrid(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	return loc
}

func f64(v float64) *float64 { return &v }

// weatherFixture returns an hourly series covering yesterday plus seven days,
// matching what the upstream returns for past_days=1.
func weatherFixture(start time.Time) *models.WeatherSeries {
	w := &models.WeatherSeries{
		Latitude:  models.Valencia.Lat,
		Longitude: models.Valencia.Lng,
		Timezone:  "Europe/Madrid",
		Current: &models.WeatherCurrent{
			Time:             start.Format("2006-01-02T15:04"),
			RelativeHumidity: f64(65),
			SurfacePressure:  f64(1015),
			WindSpeed:        f64(8),
			CloudCover:       f64(60),
			CloudCoverLow:    f64(10),
			CloudCoverMid:    f64(30),
			CloudCoverHigh:   f64(45),
			Visibility:       f64(12000),
		},
	}
	h := &w.Hourly
	for i := 0; i < 8*24; i++ {
		h.Time = append(h.Time, start.Add(time.Duration(i)*time.Hour).Format("2006-01-02T15:04"))
		h.CloudCover = append(h.CloudCover, f64(40))
		h.CloudCoverLow = append(h.CloudCoverLow, f64(5))
		h.CloudCoverMid = append(h.CloudCoverMid, f64(30))
		h.CloudCoverHigh = append(h.CloudCoverHigh, f64(40))
		h.RelativeHumidity = append(h.RelativeHumidity, f64(60))
		h.Visibility = append(h.Visibility, f64(12000))
		h.WindSpeed = append(h.WindSpeed, f64(9))
		h.SurfacePressure = append(h.SurfacePressure, f64(1014))
		h.PressureMSL = append(h.PressureMSL, f64(1016))
	}
	return w
}

func airFixture(start time.Time) *models.AirSeries {
	a := &models.AirSeries{
		Timezone: "Europe/Madrid",
		Current:  &models.AirCurrent{PM10: f64(30), PM25: f64(12)},
		Hourly:   &models.AirHourly{},
	}
	for i := 0; i < 7*24; i++ {
		a.Hourly.Time = append(a.Hourly.Time, start.Add(time.Duration(i)*time.Hour).Format("2006-01-02T15:04"))
		a.Hourly.PM10 = append(a.Hourly.PM10, f64(25))
	}
	return a
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func newTestClient(srv *httptest.Server) *OpenMeteo {
	o := NewOpenMeteo(models.Valencia, "Europe/Madrid")
	o.SetBaseURLs(srv.URL+"/v1/forecast", srv.URL+"/v1/air-quality")
	o.retryInitial = time.Millisecond
	o.retryMaxElapsed = time.Second
	return o
}

func TestOpenMeteo_FetchAll(t *testing.T) {
	loc := madrid(t)
	start := time.Date(2025, time.June, 20, 0, 0, 0, 0, loc)
	weather := mustJSON(t, weatherFixture(start))
	air := mustJSON(t, airFixture(start.AddDate(0, 0, 1)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "39.4699", q.Get("latitude"))
		assert.Equal(t, "-0.3763", q.Get("longitude"))
		assert.Equal(t, "Europe/Madrid", q.Get("timezone"))
		assert.Equal(t, "7", q.Get("forecast_days"))

		switch r.URL.Path {
		case "/v1/forecast":
			assert.Equal(t, "1", q.Get("past_days"))
			assert.Contains(t, q.Get("hourly"), "pressure_msl")
			assert.Contains(t, q.Get("current"), "cloud_cover_high")
			w.Write(weather)
		case "/v1/air-quality":
			assert.Equal(t, "pm10,pm2_5", q.Get("current"))
			assert.Equal(t, "pm10", q.Get("hourly"))
			w.Write(air)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f, err := newTestClient(srv).FetchAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, f.Weather)
	require.NotNil(t, f.Air)

	assert.Len(t, f.Weather.Hourly.Time, 8*24)
	assert.Equal(t, 65.0, *f.Weather.Current.RelativeHumidity)
	assert.Equal(t, 30.0, *f.Air.Current.PM10)
	assert.Equal(t, http.StatusOK, f.WeatherResult.HTTPStatus)
	assert.Equal(t, weather, f.WeatherResult.Body)
	assert.Equal(t, len(air), f.AirResult.ResponseSize)
}

func TestOpenMeteo_NullSamples(t *testing.T) {
	body := `{"hourly":{"time":["2025-06-21T21:00","2025-06-21T22:00"],"cloud_cover_low":[null,12],"visibility":[24140,null]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	w, _, err := newTestClient(srv).FetchWeather(context.Background())
	require.NoError(t, err)
	require.Len(t, w.Hourly.CloudCoverLow, 2)
	assert.Nil(t, w.Hourly.CloudCoverLow[0])
	assert.Equal(t, 12.0, *w.Hourly.CloudCoverLow[1])
	assert.Nil(t, w.Hourly.Visibility[1])
	assert.Nil(t, w.Current)
}

func TestOpenMeteo_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantMsg string
	}{
		{
			name: "upstream error reason",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if strings.HasSuffix(r.URL.Path, "forecast") {
					w.WriteHeader(http.StatusBadRequest)
					w.Write([]byte(`{"error":true,"reason":"Cannot initialize WeatherVariable from invalid String value"}`))
					return
				}
				w.Write([]byte(`{}`))
			},
			wantMsg: "Cannot initialize WeatherVariable",
		},
		{
			name: "malformed air body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				if strings.HasSuffix(r.URL.Path, "air-quality") {
					w.Write([]byte(`{"hourly":`))
					return
				}
				w.Write([]byte(`{}`))
			},
			wantMsg: "unmarshal air quality",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("boom"))
			},
			wantMsg: "status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestClient(srv).FetchAll(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFetchFailed)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestOpenMeteo_RetriesThrottling(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"timezone":"Europe/Madrid"}`))
	}))
	defer srv.Close()

	a, res, err := newTestClient(srv).FetchAir(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", a.Timezone)
	assert.Equal(t, http.StatusOK, res.HTTPStatus)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenMeteo_NoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv).FetchWeather(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestErrorReason(t *testing.T) {
	assert.Equal(t, "bad latitude", errorReason([]byte(`{"error":true,"reason":"bad latitude"}`)))
	assert.Equal(t, "plain text", errorReason([]byte("plain text")))
	assert.Len(t, errorReason([]byte(strings.Repeat("x", 500))), 200)
}

func TestValidateDay(t *testing.T) {
	good := models.DayRecord{CloudTotal: 40, CloudLow: 5, CloudMid: 30, CloudHigh: 40, Humidity: 60, Visibility: 12000, WindSpeed: 9, Pressure: 1014, PM10: 25}

	tests := []struct {
		name   string
		mutate func(d *models.DayRecord)
		want   []string
	}{
		{"valid", func(d *models.DayRecord) {}, nil},
		{"cloud above 100", func(d *models.DayRecord) { d.CloudHigh = 120 }, []string{FlagCloudOutOfRange}},
		{"two bad cloud layers flag once", func(d *models.DayRecord) { d.CloudLow = -1; d.CloudMid = 101 }, []string{FlagCloudOutOfRange}},
		{"humidity", func(d *models.DayRecord) { d.Humidity = 104 }, []string{FlagHumidityInvalid}},
		{"visibility", func(d *models.DayRecord) { d.Visibility = -5 }, []string{FlagVisibilityNegative}},
		{"wind", func(d *models.DayRecord) { d.WindSpeed = 250 }, []string{FlagWindSpeedUnlikely}},
		{"pressure", func(d *models.DayRecord) { d.Pressure = 700 }, []string{FlagPressureOutOfRange}},
		{"pm10", func(d *models.DayRecord) { d.PM10 = -3 }, []string{FlagPM10Negative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := good
			tt.mutate(&d)
			assert.Equal(t, tt.want, ValidateDay(d))
		})
	}
}

type stubFetcher struct {
	f   *Fetched
	err error
}

func (s *stubFetcher) FetchAll(context.Context) (*Fetched, error) {
	return s.f, s.err
}

func fixtureFetched(t *testing.T, loc *time.Location) *Fetched {
	start := time.Date(2025, time.June, 20, 0, 0, 0, 0, loc)
	w := weatherFixture(start)
	a := airFixture(start.AddDate(0, 0, 1))
	return &Fetched{
		Weather:       w,
		Air:           a,
		WeatherResult: &FetchResult{HTTPStatus: 200, Body: mustJSON(t, w), ResponseSize: 1},
		AirResult:     &FetchResult{HTTPStatus: 200, Body: mustJSON(t, a), ResponseSize: 1},
	}
}

func newTestScheduler(t *testing.T, fetcher Fetcher) (*Scheduler, *store.Store) {
	t.Helper()
	loc := madrid(t)
	st, err := store.Open(":memory:", loc)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	s := NewScheduler(st, fetcher, loc)
	s.SetClock(func() time.Time { return time.Date(2025, time.June, 21, 14, 0, 0, 0, loc) })
	return s, st
}

func TestScheduler_Refresh(t *testing.T) {
	fetcher := &stubFetcher{f: fixtureFetched(t, madrid(t))}
	s, st := newTestScheduler(t, fetcher)

	var notified *Snapshot
	s.OnRefresh(func(snap *Snapshot) { notified = snap })

	snap, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Days, 7)
	require.Len(t, snap.Outlooks, 7)
	assert.Same(t, snap, s.Latest())
	assert.Same(t, snap, notified)
	assert.NoError(t, s.LastError())

	today, ok := snap.Today()
	require.True(t, ok)
	assert.Equal(t, "2025-06-21", today.Day.Date.Format("2006-01-02"))
	// Day 0 carries the current snapshot.
	assert.Equal(t, 10.0, today.Day.CloudLow)
	assert.Equal(t, 30.0, today.Day.PM10)
	assert.Equal(t, models.TrendStable, today.Day.PressureTrend)
	assert.Empty(t, today.Day.QualityFlags)

	history, err := st.History(s.now(), 7)
	require.NoError(t, err)
	assert.Len(t, history, 7)

	last, err := st.LastRefreshRun()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Success)
	assert.Equal(t, 7, last.DaysAssembled)
	assert.Equal(t, 200, last.WeatherStatus)
	assert.Equal(t, 200, last.AirStatus)
	assert.Equal(t, 2, last.ResponseBytes)
}

func TestScheduler_RefreshFailureKeepsSnapshot(t *testing.T) {
	fetcher := &stubFetcher{f: fixtureFetched(t, madrid(t))}
	s, st := newTestScheduler(t, fetcher)

	first, err := s.Refresh(context.Background())
	require.NoError(t, err)

	fetcher.f = &Fetched{WeatherResult: &FetchResult{HTTPStatus: 500, Error: errors.New("status 500")}}
	fetcher.err = ErrFetchFailed

	_, err = s.Refresh(context.Background())
	require.ErrorIs(t, err, ErrFetchFailed)
	assert.True(t, IsFetchFailure(s.LastError()))
	assert.Same(t, first, s.Latest())

	failed, err := st.RecentFailedRuns(5)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 500, failed[0].WeatherStatus)
	assert.Contains(t, failed[0].Error, ErrFetchFailed.Error())
}

func TestScheduler_LogsKeyValues(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	t.Cleanup(logging.Replace(zap.New(core).Sugar()))

	fetcher := &stubFetcher{f: fixtureFetched(t, madrid(t))}
	s, _ := newTestScheduler(t, fetcher)

	s.refreshLogged(context.Background())
	assembled := logs.FilterMessage("scheduler: assembled forecast").All()
	require.Len(t, assembled, 1)
	assert.EqualValues(t, 7, assembled[0].ContextMap()["days"])
	assert.Contains(t, assembled[0].ContextMap(), "today_score")

	fetcher.f = &Fetched{WeatherResult: &FetchResult{HTTPStatus: 500, Error: errors.New("status 500")}}
	fetcher.err = ErrFetchFailed
	s.refreshLogged(context.Background())

	failed := logs.FilterMessage("scheduler: refresh failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zap.ErrorLevel, failed[0].Level)
	assert.Contains(t, failed[0].ContextMap()["error"], ErrFetchFailed.Error())
}

func TestScheduler_EmptyForecast(t *testing.T) {
	fetcher := &stubFetcher{f: &Fetched{Weather: &models.WeatherSeries{}, Air: &models.AirSeries{}}}
	s, _ := newTestScheduler(t, fetcher)

	_, err := s.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrEmptyForecast)
	assert.Nil(t, s.Latest())
}

func TestScheduler_WithoutStore(t *testing.T) {
	loc := madrid(t)
	s := NewScheduler(nil, &stubFetcher{f: fixtureFetched(t, loc)}, loc)
	s.SetClock(func() time.Time { return time.Date(2025, time.June, 21, 14, 0, 0, 0, loc) })

	snap, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Outlooks, 7)
}

func TestScheduler_Run(t *testing.T) {
	fetcher := &stubFetcher{f: fixtureFetched(t, madrid(t))}
	s, _ := newTestScheduler(t, fetcher)
	s.SetInterval(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Latest() != nil }, 5*time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestScheduler_RunRejectsBadSchedule(t *testing.T) {
	s, _ := newTestScheduler(t, &stubFetcher{})
	s.schedule = "not a schedule"
	assert.Error(t, s.Run(context.Background()))
}
