package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lox/sunsetcast/internal/forecast"
	"github.com/lox/sunsetcast/internal/imagegen"
	"github.com/lox/sunsetcast/internal/logging"
	"github.com/lox/sunsetcast/internal/metrics"
	"github.com/lox/sunsetcast/internal/models"
	"github.com/lox/sunsetcast/internal/store"
)

// Raw payloads older than this are pruned after each refresh.
const rawPayloadRetention = 30 * 24 * time.Hour

// Snapshot is the result of one successful refresh.
type Snapshot struct {
	FetchedAt time.Time
	Days      []models.DayRecord
	Outlooks  []forecast.Outlook
}

// Today returns the day-0 outlook, if any.
func (s *Snapshot) Today() (forecast.Outlook, bool) {
	if s == nil || len(s.Outlooks) == 0 {
		return forecast.Outlook{}, false
	}
	return s.Outlooks[0], true
}

type Scheduler struct {
	store    *store.Store
	fetcher  Fetcher
	coord    models.Coordinate
	loc      *time.Location
	schedule string
	now      func() time.Time

	latest atomic.Pointer[Snapshot]

	errMu   sync.Mutex
	lastErr error

	listenersMu sync.Mutex
	listeners   []func(*Snapshot)

	imageGen   *imagegen.Generator
	imageCache *imagegen.Cache
	imageGenMu *sync.Mutex
}

// NewScheduler builds a scheduler for the Valencia target. st may be nil, in
// which case nothing is audited or archived.
func NewScheduler(st *store.Store, fetcher Fetcher, loc *time.Location) *Scheduler {
	return &Scheduler{
		store:    st,
		fetcher:  fetcher,
		coord:    models.Valencia,
		loc:      loc,
		schedule: "@hourly",
		now:      time.Now,
	}
}

// SetInterval switches the refresh cadence to a fixed interval.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.schedule = fmt.Sprintf("@every %s", d)
}

// SetClock overrides the scheduler's notion of now.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// SetImageGenerator enables banner pre-generation after each refresh. The
// mutex is shared with the HTTP server so a banner is only generated once.
func (s *Scheduler) SetImageGenerator(gen *imagegen.Generator, cache *imagegen.Cache, mu *sync.Mutex) {
	s.imageGen = gen
	s.imageCache = cache
	s.imageGenMu = mu
}

// OnRefresh registers fn to be called with every new snapshot.
func (s *Scheduler) OnRefresh(fn func(*Snapshot)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Latest returns the most recent successful snapshot, or nil.
func (s *Scheduler) Latest() *Snapshot {
	return s.latest.Load()
}

// LastError returns the error from the most recent refresh, or nil if it
// succeeded.
func (s *Scheduler) LastError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

func (s *Scheduler) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.lastErr = err
}

// Run refreshes immediately and then on the configured cron schedule until
// ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	log := logging.Get()

	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.schedule, func() { s.refreshLogged(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", s.schedule, err)
	}

	s.refreshLogged(ctx)
	c.Start()
	log.Infow("scheduler: started", "schedule", s.schedule)

	<-ctx.Done()
	log.Info("scheduler: shutting down")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) refreshLogged(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil {
		logging.Get().Errorw("scheduler: refresh failed", "error", err)
	}
}

// Refresh fetches, assembles and evaluates the week, then publishes the
// snapshot. On failure the previous snapshot is kept.
func (s *Scheduler) Refresh(ctx context.Context) (*Snapshot, error) {
	log := logging.Get()

	run := s.startRun()

	f, err := s.fetcher.FetchAll(ctx)
	if f != nil {
		s.archive(run, EndpointForecast, f.WeatherResult)
		s.archive(run, EndpointAirQuality, f.AirResult)
	}
	if err != nil {
		s.finishRun(run, f, 0, err)
		return nil, s.fail(err)
	}

	now := s.now().In(s.loc)
	days := forecast.Assemble(f.Weather, f.Air, s.coord, now)
	if len(days) == 0 {
		s.finishRun(run, f, 0, ErrEmptyForecast)
		return nil, s.fail(ErrEmptyForecast)
	}
	ApplyQualityFlags(days)
	s.finishRun(run, f, len(days), nil)

	snap := &Snapshot{
		FetchedAt: now,
		Days:      days,
		Outlooks:  forecast.EvaluateWeek(days, now),
	}

	metrics.DaysAssembled.Set(float64(len(days)))
	for _, o := range snap.Outlooks {
		metrics.DayScore.WithLabelValues(strconv.Itoa(o.Index)).Set(float64(o.Score.Total))
	}

	s.recordHistory(snap)
	s.latest.Store(snap)
	s.setErr(nil)
	log.Infow("scheduler: assembled forecast", "days", len(days), "today_score", snap.Outlooks[0].Score.Total)

	s.listenersMu.Lock()
	listeners := append([]func(*Snapshot){}, s.listeners...)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}

	s.ensureBanner(snap.Outlooks[0].Type.Kind)
	s.pruneRawPayloads()
	return snap, nil
}

func (s *Scheduler) fail(err error) error {
	metrics.RefreshFailuresTotal.Inc()
	s.setErr(err)
	return err
}

func (s *Scheduler) startRun() *store.RefreshRun {
	if s.store == nil {
		return nil
	}
	run, err := s.store.StartRefreshRun(s.now())
	if err != nil {
		logging.Get().Warnw("scheduler: start refresh run", "error", err)
		return nil
	}
	return run
}

func (s *Scheduler) finishRun(run *store.RefreshRun, f *Fetched, days int, err error) {
	if run == nil {
		return
	}
	if f != nil {
		for _, res := range []*FetchResult{f.WeatherResult, f.AirResult} {
			if res != nil {
				run.ResponseBytes += res.ResponseSize
			}
		}
		if f.WeatherResult != nil {
			run.WeatherStatus = f.WeatherResult.HTTPStatus
		}
		if f.AirResult != nil {
			run.AirStatus = f.AirResult.HTTPStatus
		}
	}
	run.DaysAssembled = days
	run.Success = err == nil
	if err != nil {
		run.Error = err.Error()
	}
	if err := s.store.FinishRefreshRun(run, s.now()); err != nil {
		logging.Get().Warnw("scheduler: finish refresh run", "run_id", run.ID, "error", err)
	}
}

func (s *Scheduler) archive(run *store.RefreshRun, endpoint string, result *FetchResult) {
	if s.store == nil || result == nil || len(result.Body) == 0 {
		return
	}
	p := store.RawPayload{Endpoint: endpoint, FetchedAt: s.now(), Body: result.Body}
	if run != nil {
		p.RunID = run.ID
	}
	if _, err := s.store.ArchivePayload(p); err != nil {
		logging.Get().Warnw("scheduler: archive payload", "endpoint", p.Endpoint, "error", err)
	}
}

func (s *Scheduler) recordHistory(snap *Snapshot) {
	if s.store == nil {
		return
	}
	entries := make([]store.HistoryEntry, len(snap.Outlooks))
	for i, o := range snap.Outlooks {
		d := o.Day
		entries[i] = store.HistoryEntry{
			FetchedAt:   snap.FetchedAt,
			ValidDate:   d.Date.Format("2006-01-02"),
			DayOffset:   o.Index,
			Score:       o.Score.Total,
			Confidence:  o.Confidence,
			SunsetKind:  string(o.Type.Kind),
			MatchedKind: string(o.Type.Matched),
			SunsetAt:    d.Sunset,
			CloudLow:    d.CloudLow,
			CloudMid:    d.CloudMid,
			CloudHigh:   d.CloudHigh,
			Humidity:    d.Humidity,
			Visibility:  d.Visibility,
			WindSpeed:   d.WindSpeed,
			Pressure:    d.Pressure,
			PM10:        d.PM10,
		}
	}
	if _, err := s.store.InsertHistory(entries); err != nil {
		logging.Get().Warnw("scheduler: insert outlook history", "error", err)
	}
}

func (s *Scheduler) pruneRawPayloads() {
	if s.store == nil {
		return
	}
	n, err := s.store.PruneRawPayloads(s.now().Add(-rawPayloadRetention))
	if err != nil {
		logging.Get().Warnw("scheduler: prune raw payloads", "error", err)
		return
	}
	if n > 0 {
		logging.Get().Infow("scheduler: pruned raw payloads", "count", n)
	}
}

// ensureBanner generates today's banner in the background if it isn't cached.
func (s *Scheduler) ensureBanner(kind forecast.SunsetKind) {
	if s.imageGen == nil || s.imageCache == nil {
		return
	}
	if _, ok := s.imageCache.Get(kind); ok {
		return
	}

	go func() {
		if s.imageGenMu != nil {
			s.imageGenMu.Lock()
			defer s.imageGenMu.Unlock()
		}

		// Another caller may have generated it while we waited.
		if _, ok := s.imageCache.Get(kind); ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		log := logging.Get()
		data, err := s.imageGen.Generate(ctx, kind)
		if err != nil {
			log.Errorw("scheduler: banner generation failed", "kind", kind, "error", err)
			return
		}
		if err := s.imageCache.Set(kind, data); err != nil {
			log.Errorw("scheduler: cache banner", "kind", kind, "error", err)
			return
		}
		log.Infow("scheduler: cached banner", "kind", kind)
	}()
}

// IsFetchFailure reports whether err came from the upstream fetch.
func IsFetchFailure(err error) bool {
	return errors.Is(err, ErrFetchFailed) || errors.Is(err, ErrEmptyForecast)
}
