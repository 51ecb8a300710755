package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/lox/sunsetcast/internal/forecast"
)

var (
	fontLarge   font.Face
	fontRegular font.Face
	fontSmall   font.Face
	fontOnce    sync.Once
	fontErr     error
)

func newFace(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func loadFonts() {
	fontOnce.Do(func() {
		var err error
		if fontLarge, err = newFace(gobold.TTF, 160); err != nil {
			fontErr = fmt.Errorf("create large face: %w", err)
			return
		}
		if fontRegular, err = newFace(goregular.TTF, 44); err != nil {
			fontErr = fmt.Errorf("create regular face: %w", err)
			return
		}
		if fontSmall, err = newFace(goregular.TTF, 28); err != nil {
			fontErr = fmt.Errorf("create small face: %w", err)
		}
	})
}

// OGImageData is the text drawn onto the share card.
type OGImageData struct {
	Score      int
	Verdict    string // e.g. "Go now"
	TypeName   string // e.g. "Dramatic sheep"
	SunsetTime string // HH:MM or "--:--"
	Palette    forecast.Palette
}

// OGImageCache holds the last rendered card for a short period.
type OGImageCache struct {
	mu        sync.RWMutex
	data      []byte
	expiresAt time.Time
	cacheTTL  time.Duration
}

func NewOGImageCache(ttl time.Duration) *OGImageCache {
	return &OGImageCache{cacheTTL: ttl}
}

func (c *OGImageCache) Get() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *OGImageCache) Set(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = data
	c.expiresAt = time.Now().Add(c.cacheTTL)
}

// Invalidate drops the cached card, e.g. after a refresh.
func (c *OGImageCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
}

// Open Graph card dimensions.
const (
	OGWidth  = 1200
	OGHeight = 630
)

// GenerateOGImage center-crops banner onto a card and overlays the day's text.
func GenerateOGImage(banner []byte, data OGImageData) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	src, _, err := image.Decode(bytes.NewReader(banner))
	if err != nil {
		return nil, fmt.Errorf("decode banner: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, OGWidth, OGHeight))

	srcBounds := src.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()
	scale := max(float64(OGWidth)/float64(srcW), float64(OGHeight)/float64(srcH))

	offsetX := (int(float64(srcW)*scale) - OGWidth) / 2
	offsetY := (int(float64(srcH)*scale) - OGHeight) / 2

	// Nearest-neighbour resize and crop.
	for y := 0; y < OGHeight; y++ {
		for x := 0; x < OGWidth; x++ {
			srcX := int(float64(x+offsetX) / scale)
			srcY := int(float64(y+offsetY) / scale)
			if srcX >= 0 && srcX < srcW && srcY >= 0 && srcY < srcH {
				dst.Set(x, y, src.At(srcBounds.Min.X+srcX, srcBounds.Min.Y+srcY))
			}
		}
	}

	drawGradientOverlay(dst)
	drawTextOverlay(dst, data)

	return encodePNG(dst)
}

// GenerateFallbackOGImage renders the card on a palette gradient when no
// banner is available.
func GenerateFallbackOGImage(data OGImageData) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	top := hexColor(data.Palette.Sky, color.RGBA{26, 26, 46, 255})
	bottom := hexColor(data.Palette.Horizon, color.RGBA{74, 48, 72, 255})

	img := image.NewRGBA(image.Rect(0, 0, OGWidth, OGHeight))
	for y := 0; y < OGHeight; y++ {
		c := lerp(top, bottom, float64(y)/float64(OGHeight-1))
		for x := 0; x < OGWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	drawTextOverlay(img, data)
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode OG image: %w", err)
	}
	return buf.Bytes(), nil
}

// drawGradientOverlay darkens the lower part of the image for legibility.
func drawGradientOverlay(img *image.RGBA) {
	bounds := img.Bounds()
	gradientHeight := 360

	for y := bounds.Max.Y - gradientHeight; y < bounds.Max.Y; y++ {
		progress := float64(y-(bounds.Max.Y-gradientHeight)) / float64(gradientHeight)
		alpha := progress * progress * 0.85

		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			orig := img.RGBAAt(x, y)
			orig.R = uint8(float64(orig.R) * (1 - alpha))
			orig.G = uint8(float64(orig.G) * (1 - alpha))
			orig.B = uint8(float64(orig.B) * (1 - alpha))
			img.SetRGBA(x, y, orig)
		}
	}
}

func drawTextOverlay(img *image.RGBA, data OGImageData) {
	text := hexColor(data.Palette.Text, color.RGBA{255, 255, 255, 255})
	muted := hexColor(data.Palette.TextMuted, color.RGBA{200, 200, 200, 255})
	accent := hexColor(data.Palette.Accent, color.RGBA{255, 107, 53, 255})

	drawText(img, strconv.Itoa(data.Score), 60, OGHeight-250, accent, fontLarge)

	headline := data.Verdict
	if data.TypeName != "" {
		headline += " · " + data.TypeName
	}
	drawText(img, headline, 60, OGHeight-150, text, fontRegular)
	drawText(img, "Sunset "+data.SunsetTime+" · Valencia", 60, OGHeight-95, muted, fontRegular)
	drawText(img, "sunsetcast", 60, OGHeight-40, muted, fontSmall)
}

func drawText(img *image.RGBA, s string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

// hexColor parses "#rrggbb", returning def on malformed input.
func hexColor(s string, def color.RGBA) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return def
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return def
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
