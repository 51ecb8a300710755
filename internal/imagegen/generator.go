package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/lox/sunsetcast/internal/forecast"
	"github.com/lox/sunsetcast/internal/logging"
	"github.com/lox/sunsetcast/internal/metrics"
)

// Generator produces sunset banner images using OpenAI's image API.
type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates a generator authenticated with apiKey.
func NewGenerator(apiKey string, opts ...option.RequestOption) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not set")
	}

	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)

	return &Generator{
		client: client,
		model:  "gpt-image-1",
	}, nil
}

// Generate creates a banner for the given sunset kind and returns PNG bytes.
func (g *Generator) Generate(ctx context.Context, kind forecast.SunsetKind) ([]byte, error) {
	start := time.Now()
	data, err := g.generate(ctx, kind)
	metrics.BannerGenerationLatency.Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.BannerGenerationsTotal.WithLabelValues(string(kind), status).Inc()
	return data, err
}

func (g *Generator) generate(ctx context.Context, kind forecast.SunsetKind) ([]byte, error) {
	log := logging.Get()
	log.Infow("imagegen: generating banner", "kind", kind, "model", g.model)

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:        g.model,
		Prompt:       forecast.BuildPrompt(kind),
		Size:         openai.ImageGenerateParamsSize1536x1024,
		Quality:      openai.ImageGenerateParamsQualityLow,
		OutputFormat: openai.ImageGenerateParamsOutputFormatPNG,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no image data returned")
	}

	imageData := resp.Data[0].B64JSON
	if imageData == "" {
		return nil, errors.New("empty image data returned")
	}

	imageBytes, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}

	log.Infow("imagegen: generated banner", "kind", kind, "bytes", len(imageBytes))
	return imageBytes, nil
}
