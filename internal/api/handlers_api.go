package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/lox/sunsetcast/internal/forecast"
	"github.com/lox/sunsetcast/internal/ingest"
	"github.com/lox/sunsetcast/internal/logging"
	"github.com/lox/sunsetcast/internal/models"
	"github.com/lox/sunsetcast/internal/store"
)

const (
	defaultHistoryDays = 7
	maxHistoryDays     = 90
)

// weatherUnavailable is the user-facing message for any upstream failure.
var weatherUnavailable = ingest.ErrFetchFailed.Error()

// snapshot returns the latest snapshot or writes a 503.
func (s *Server) snapshot(w http.ResponseWriter) (*ingest.Snapshot, bool) {
	snap := s.snapshots.Latest()
	if snap == nil || len(snap.Outlooks) == 0 {
		if err := s.snapshots.LastError(); err != nil {
			logging.Get().Warnw("api: no snapshot", "error", err)
		}
		writeError(w, http.StatusServiceUnavailable, weatherUnavailable)
		return nil, false
	}
	return snap, true
}

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	now := s.now()
	writeJSON(w, http.StatusOK, newForecastView(snap, reevaluate(snap.Outlooks, now), now, s.loc))
}

// reevaluate recomputes outlooks against now. Day-0 confidence depends on
// the time left until sunset and goes stale between refreshes.
func reevaluate(outlooks []forecast.Outlook, now time.Time) []forecast.Outlook {
	out := make([]forecast.Outlook, len(outlooks))
	for i, o := range outlooks {
		out[i] = forecast.Evaluate(o.Day, o.Index, now)
	}
	return out
}

func (s *Server) handleAPIDay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	index := 0
	if v := q.Get("index"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "index must be a non-negative integer")
			return
		}
		index = n
	}

	user, err := parseUserLocation(q.Get("lat"), q.Get("lng"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	if index >= len(snap.Outlooks) {
		writeError(w, http.StatusNotFound, "no forecast for that day")
		return
	}

	spots, err := s.store.ListSpots()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := s.now()
	o := forecast.Evaluate(snap.Outlooks[index].Day, index, now)
	writeJSON(w, http.StatusOK, DayDetailView{
		Day:   newDayView(o, now, s.loc),
		Spots: forecast.Rank(spots, o.Day, user, o.Type.Kind),
	})
}

// parseUserLocation returns nil when neither coordinate is given.
func parseUserLocation(lat, lng string) (*models.Coordinate, error) {
	if lat == "" && lng == "" {
		return nil, nil
	}
	la, err1 := strconv.ParseFloat(lat, 64)
	ln, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil || !validCoordinate(la, ln) {
		return nil, errors.New("lat and lng must both be valid coordinates")
	}
	return &models.Coordinate{Lat: la, Lng: ln}, nil
}

func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func (s *Server) handleListSpots(w http.ResponseWriter, r *http.Request) {
	spots, err := s.store.ListSpots()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, spots)
}

type addSpotRequest struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

func (s *Server) handleAddSpot(w http.ResponseWriter, r *http.Request) {
	var req addSpotRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	spot, err := s.store.AddSpot(req.Name, *req.Lat, *req.Lng)
	if errors.Is(err, store.ErrInvalidSpot) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, spot)
}

func (s *Server) handleDeleteSpot(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteSpot(r.PathValue("id"))
	if errors.Is(err, store.ErrSpotNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	days := defaultHistoryDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryDays {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 90")
			return
		}
		days = n
	}

	entries, err := s.store.History(s.now(), days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type HealthStatus struct {
	Status           string     `json:"status"`
	LastRefresh      *time.Time `json:"last_refresh,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
	MigrationVersion int        `json:"migration_version"`
	RecentFailures   int        `json:"recent_refresh_failures"`
	Banners          []string   `json:"banners"`

	LastRun *store.RefreshRun `json:"last_run,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": err.Error()})
		return
	}

	health := HealthStatus{Status: "ok", Banners: []string{}}

	if v, err := s.store.MigrationVersion(); err == nil {
		health.MigrationVersion = v
	}
	if failed, err := s.store.RecentFailedRuns(10); err == nil {
		health.RecentFailures = len(failed)
	}
	if run, err := s.store.LastRefreshRun(); err == nil {
		health.LastRun = run
	}

	if snap := s.snapshots.Latest(); snap != nil {
		t := snap.FetchedAt
		health.LastRefresh = &t
	} else {
		health.Status = "degraded"
	}
	if err := s.snapshots.LastError(); err != nil {
		health.Status = "degraded"
		health.LastError = err.Error()
	}

	if s.imageCache != nil {
		for _, k := range s.imageCache.List() {
			health.Banners = append(health.Banners, string(k))
		}
	}

	writeJSON(w, http.StatusOK, health)
}
