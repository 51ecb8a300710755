package ingest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lox/sunsetcast/internal/models"
)

// Fetched holds both upstream series from one cycle. Results are populated
// for whichever requests were attempted, even when the cycle failed.
type Fetched struct {
	Weather       *models.WeatherSeries
	Air           *models.AirSeries
	WeatherResult *FetchResult
	AirResult     *FetchResult
}

// Fetcher provides one cycle's upstream data.
type Fetcher interface {
	FetchAll(ctx context.Context) (*Fetched, error)
}

// FetchAll issues the weather and air requests concurrently. Failure of
// either fails the cycle with ErrFetchFailed.
func (o *OpenMeteo) FetchAll(ctx context.Context) (*Fetched, error) {
	f := &Fetched{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		w, res, err := o.FetchWeather(gctx)
		f.Weather, f.WeatherResult = w, res
		return err
	})
	g.Go(func() error {
		a, res, err := o.FetchAir(gctx)
		f.Air, f.AirResult = a, res
		return err
	})

	if err := g.Wait(); err != nil {
		return f, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return f, nil
}
