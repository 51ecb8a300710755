package imagegen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lox/sunsetcast/internal/forecast"
	"github.com/lox/sunsetcast/internal/logging"
)

const (
	bannerPrefix = "banner_"
	bannerExt    = ".png"
)

// Cache is a file-based store of generated banners, one per sunset kind.
type Cache struct {
	dir    string
	maxAge time.Duration
}

// NewCache creates a cache in dir. Banners older than a week are treated as
// missing so they get regenerated.
func NewCache(dir string) *Cache {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.Get().Warnw("imagegen: could not create cache directory", "dir", dir, "error", err)
	}
	return &Cache{
		dir:    dir,
		maxAge: 7 * 24 * time.Hour,
	}
}

func (c *Cache) path(kind forecast.SunsetKind) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s%s%s", bannerPrefix, kind, bannerExt))
}

// Get returns the banner for kind if present and fresh.
func (c *Cache) Get(kind forecast.SunsetKind) ([]byte, bool) {
	path := c.path(kind)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if time.Since(info.ModTime()) > c.maxAge {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set writes the banner through a temp file so concurrent readers never see
// a partial PNG.
func (c *Cache) Set(kind forecast.SunsetKind, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".banner-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.path(kind))
}

// GetAny returns the most recently written banner regardless of age.
func (c *Cache) GetAny() ([]byte, bool) {
	var (
		newest  string
		newestT time.Time
	)
	for _, kind := range c.List() {
		info, err := os.Stat(c.path(kind))
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest, newestT = c.path(kind), info.ModTime()
		}
	}
	if newest == "" {
		return nil, false
	}
	data, err := os.ReadFile(newest)
	if err != nil {
		return nil, false
	}
	return data, true
}

// List returns the kinds that have a banner on disk, sorted.
func (c *Cache) List() []forecast.SunsetKind {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil
	}

	var kinds []forecast.SunsetKind
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, bannerPrefix) || !strings.HasSuffix(name, bannerExt) {
			continue
		}
		kinds = append(kinds, forecast.SunsetKind(strings.TrimSuffix(strings.TrimPrefix(name, bannerPrefix), bannerExt)))
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
