package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/sunsetcast/internal/imagegen"
	"github.com/lox/sunsetcast/internal/ingest"
	"github.com/lox/sunsetcast/internal/logging"
	"github.com/lox/sunsetcast/internal/store"
)

// SnapshotSource provides the latest refreshed forecast.
type SnapshotSource interface {
	Latest() *ingest.Snapshot
	LastError() error
}

type Server struct {
	store        *store.Store
	snapshots    SnapshotSource
	port         string
	loc          *time.Location
	now          func() time.Time
	imageCache   *imagegen.Cache
	imageGen     *imagegen.Generator
	genMu        sync.Mutex // serialises banner generation with the scheduler
	ogImageCache *imagegen.OGImageCache
}

func NewServer(st *store.Store, snapshots SnapshotSource, port string, loc *time.Location) *Server {
	return &Server{
		store:        st,
		snapshots:    snapshots,
		port:         port,
		loc:          loc,
		now:          time.Now,
		ogImageCache: imagegen.NewOGImageCache(5 * time.Minute),
	}
}

// SetImages configures banner serving. gen may be nil to disable generation.
func (s *Server) SetImages(gen *imagegen.Generator, cache *imagegen.Cache) {
	s.imageGen = gen
	s.imageCache = cache
}

// SetClock overrides the server's notion of now.
func (s *Server) SetClock(now func() time.Time) {
	s.now = now
}

// ImageGenMutex is shared with the scheduler so each banner is generated once.
func (s *Server) ImageGenMutex() *sync.Mutex {
	return &s.genMu
}

// OnRefresh drops derived caches when a new snapshot arrives.
func (s *Server) OnRefresh(*ingest.Snapshot) {
	s.ogImageCache.Invalidate()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/forecast", s.handleAPIForecast)
	mux.HandleFunc("GET /api/day", s.handleAPIDay)
	mux.HandleFunc("GET /api/spots", s.handleListSpots)
	mux.HandleFunc("POST /api/spots", s.handleAddSpot)
	mux.HandleFunc("DELETE /api/spots/{id}", s.handleDeleteSpot)
	mux.HandleFunc("GET /api/history", s.handleAPIHistory)
	mux.HandleFunc("GET /og-image.png", s.handleOGImage)
	mux.HandleFunc("GET /banner.png", s.handleBanner)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logging.Get().Infow("api: listening", "port", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// writeJSON encodes v before writing the status so an unencodable value
// turns into a 500 rather than a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Get().Errorw("api: encode response", "status", status, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal error"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
