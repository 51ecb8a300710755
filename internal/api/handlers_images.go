package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/lox/sunsetcast/internal/forecast"
	"github.com/lox/sunsetcast/internal/imagegen"
	"github.com/lox/sunsetcast/internal/logging"
)

// todayKind is the presented sunset kind for today, or normal without data.
func (s *Server) todayKind() forecast.SunsetKind {
	if snap := s.snapshots.Latest(); snap != nil {
		if o, ok := snap.Today(); ok {
			return o.Type.Kind
		}
	}
	return forecast.KindNormal
}

// handleBanner serves the generated banner for today's sunset kind. A stale
// or different banner is served while the right one generates in the
// background.
func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	if s.imageCache == nil {
		http.NotFound(w, r)
		return
	}
	kind := s.todayKind()

	if data, ok := s.imageCache.Get(kind); ok {
		servePNG(w, data, time.Hour)
		return
	}

	if data, ok := s.imageCache.GetAny(); ok {
		go s.generateAndCache(kind)
		servePNG(w, data, 5*time.Minute)
		return
	}

	if s.imageGen == nil {
		http.NotFound(w, r)
		return
	}

	s.genMu.Lock()
	defer s.genMu.Unlock()

	if data, ok := s.imageCache.Get(kind); ok {
		servePNG(w, data, time.Hour)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	log := logging.Get()
	data, err := s.imageGen.Generate(ctx, kind)
	if err != nil {
		log.Errorw("banner: generation failed", "kind", kind, "error", err)
		http.Error(w, "Banner generation failed", http.StatusServiceUnavailable)
		return
	}
	if err := s.imageCache.Set(kind, data); err != nil {
		log.Warnw("banner: cache write failed", "kind", kind, "error", err)
	}
	servePNG(w, data, time.Hour)
}

func (s *Server) generateAndCache(kind forecast.SunsetKind) {
	if s.imageGen == nil {
		return
	}

	s.genMu.Lock()
	defer s.genMu.Unlock()

	if _, ok := s.imageCache.Get(kind); ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log := logging.Get()
	data, err := s.imageGen.Generate(ctx, kind)
	if err != nil {
		log.Errorw("banner: background generation failed", "kind", kind, "error", err)
		return
	}
	if err := s.imageCache.Set(kind, data); err != nil {
		log.Warnw("banner: cache write failed", "kind", kind, "error", err)
	}
}

// handleOGImage renders the share card for today's outlook.
func (s *Server) handleOGImage(w http.ResponseWriter, r *http.Request) {
	if data, ok := s.ogImageCache.Get(); ok {
		servePNG(w, data, 5*time.Minute)
		return
	}

	snap, ok := s.snapshot(w)
	if !ok {
		return
	}
	today, _ := snap.Today()

	card := imagegen.OGImageData{
		Score:      today.Score.Total,
		Verdict:    today.Verdict.Action,
		TypeName:   today.Type.Name,
		SunsetTime: forecast.FormatTime(today.Day.Sunset, s.loc),
		Palette:    forecast.GetPalette(today.Type.Kind),
	}

	var banner []byte
	if s.imageCache != nil {
		if data, ok := s.imageCache.Get(today.Type.Kind); ok {
			banner = data
		} else if data, ok := s.imageCache.GetAny(); ok {
			banner = data
		}
	}

	var img []byte
	var err error
	if banner != nil {
		img, err = imagegen.GenerateOGImage(banner, card)
	}
	if banner == nil || err != nil {
		img, err = imagegen.GenerateFallbackOGImage(card)
	}
	if err != nil {
		logging.Get().Errorw("og-image: failed to generate", "error", err)
		http.Error(w, "Failed to generate OG image", http.StatusInternalServerError)
		return
	}

	s.ogImageCache.Set(img)
	servePNG(w, img, 5*time.Minute)
}

func servePNG(w http.ResponseWriter, data []byte, maxAge time.Duration) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(int(maxAge.Seconds())))
	w.Write(data)
}
