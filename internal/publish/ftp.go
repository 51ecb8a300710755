// Package publish uploads a static copy of the forecast to an FTP host.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/lox/sunsetcast/internal/forecast"
	"github.com/lox/sunsetcast/internal/ingest"
	"github.com/lox/sunsetcast/internal/logging"
	"github.com/lox/sunsetcast/internal/models"
)

// FeedFile is the name of the uploaded document.
const FeedFile = "forecast.json"

var ErrNotConfigured = errors.New("publish: ftp address not configured")

type Config struct {
	Addr     string
	User     string
	Password string
	Dir      string
	Timeout  time.Duration
}

type Feed struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Location    models.Coordinate `json:"location"`
	BestIndex   int               `json:"best_index"`
	Days        []FeedDay         `json:"days"`
}

type FeedDay struct {
	Date            string              `json:"date"`
	Label           string              `json:"label"`
	Sunset          string              `json:"sunset"`
	GoldenHour      string              `json:"golden_hour"`
	Score           int                 `json:"score"`
	Confidence      int                 `json:"confidence"`
	ConfidenceLevel string              `json:"confidence_level"`
	Kind            forecast.SunsetKind `json:"kind"`
	TypeName        string              `json:"type_name"`
	Emoji           string              `json:"emoji"`
	Verdict         string              `json:"verdict"`
	Color           string              `json:"color"`
}

// BuildFeed flattens a snapshot into the published document.
func BuildFeed(snap *ingest.Snapshot, loc *time.Location) Feed {
	feed := Feed{
		GeneratedAt: snap.FetchedAt,
		Location:    models.Valencia,
		BestIndex:   forecast.Best(snap.Outlooks),
		Days:        make([]FeedDay, 0, len(snap.Outlooks)),
	}
	for _, o := range snap.Outlooks {
		feed.Days = append(feed.Days, FeedDay{
			Date:            o.Day.Date.In(loc).Format("2006-01-02"),
			Label:           o.Label,
			Sunset:          forecast.FormatTime(o.Day.Sunset, loc),
			GoldenHour:      forecast.FormatTime(o.Day.GoldenHour, loc),
			Score:           o.Score.Total,
			Confidence:      o.Confidence,
			ConfidenceLevel: o.ConfidenceLevel,
			Kind:            o.Type.Kind,
			TypeName:        o.Type.Name,
			Emoji:           o.Type.Emoji,
			Verdict:         o.Verdict.Action,
			Color:           forecast.ScoreColor(o.Score.Total),
		})
	}
	return feed
}

// Render encodes the feed for upload.
func Render(snap *ingest.Snapshot, loc *time.Location) ([]byte, error) {
	if snap == nil || len(snap.Outlooks) == 0 {
		return nil, ingest.ErrEmptyForecast
	}
	return json.MarshalIndent(BuildFeed(snap, loc), "", "  ")
}

type Publisher struct {
	cfg Config
	loc *time.Location
}

func NewPublisher(cfg Config, loc *time.Location) *Publisher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.User == "" {
		cfg.User = "anonymous"
		cfg.Password = "anonymous"
	}
	return &Publisher{cfg: cfg, loc: loc}
}

// Publish renders snap and uploads it as FeedFile.
func (p *Publisher) Publish(ctx context.Context, snap *ingest.Snapshot) error {
	data, err := Render(snap, p.loc)
	if err != nil {
		return fmt.Errorf("render feed: %w", err)
	}
	return p.Upload(ctx, FeedFile, data)
}

// Upload stores data under a temporary name and renames it into place so
// readers never see a partial file.
func (p *Publisher) Upload(ctx context.Context, name string, data []byte) error {
	if p.cfg.Addr == "" {
		return ErrNotConfigured
	}

	conn, err := ftp.Dial(p.cfg.Addr, ftp.DialWithTimeout(p.cfg.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login(p.cfg.User, p.cfg.Password); err != nil {
		return fmt.Errorf("ftp login: %w", err)
	}
	if p.cfg.Dir != "" {
		if err := conn.ChangeDir(p.cfg.Dir); err != nil {
			return fmt.Errorf("ftp cwd %s: %w", p.cfg.Dir, err)
		}
	}

	tmp := "." + path.Base(name) + ".tmp"
	if err := conn.Stor(tmp, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("ftp stor: %w", err)
	}
	if err := conn.Rename(tmp, name); err != nil {
		conn.Delete(tmp)
		return fmt.Errorf("ftp rename: %w", err)
	}

	logging.Get().Infow("publish: uploaded", "file", path.Join(p.cfg.Dir, name), "bytes", len(data))
	return nil
}
