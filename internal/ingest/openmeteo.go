package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tidwall/gjson"

	"github.com/lox/sunsetcast/internal/httputil"
	"github.com/lox/sunsetcast/internal/metrics"
	"github.com/lox/sunsetcast/internal/models"
)

const (
	DefaultWeatherURL = "https://api.open-meteo.com/v1/forecast"
	DefaultAirURL     = "https://air-quality-api.open-meteo.com/v1/air-quality"

	EndpointForecast   = "forecast"
	EndpointAirQuality = "air-quality"
)

const (
	weatherCurrentVars = "temperature_2m,relative_humidity_2m,surface_pressure,wind_speed_10m,cloud_cover,cloud_cover_low,cloud_cover_mid,cloud_cover_high,visibility"
	weatherHourlyVars  = "cloud_cover,cloud_cover_low,cloud_cover_mid,cloud_cover_high,relative_humidity_2m,visibility,wind_speed_10m,surface_pressure,pressure_msl"
)

var (
	// ErrFetchFailed wraps any failure to obtain either upstream series.
	ErrFetchFailed = errors.New("could not load weather data")
	// ErrEmptyForecast means the upstream answered but no day could be assembled.
	ErrEmptyForecast = errors.New("forecast contained no usable days")
)

// FetchResult describes one upstream HTTP exchange for the ingest audit log.
type FetchResult struct {
	HTTPStatus   int
	ResponseSize int
	Body         []byte
	Error        error
}

// OpenMeteo fetches the weather and air-quality series for one coordinate.
type OpenMeteo struct {
	client     *http.Client
	weatherURL string
	airURL     string
	coord      models.Coordinate
	timezone   string

	retryInitial    time.Duration
	retryMaxElapsed time.Duration
}

func NewOpenMeteo(coord models.Coordinate, timezone string) *OpenMeteo {
	return &OpenMeteo{
		client:          httputil.NewClient(),
		weatherURL:      DefaultWeatherURL,
		airURL:          DefaultAirURL,
		coord:           coord,
		timezone:        timezone,
		retryInitial:    500 * time.Millisecond,
		retryMaxElapsed: 2 * time.Minute,
	}
}

// SetBaseURLs overrides the upstream endpoints.
func (o *OpenMeteo) SetBaseURLs(weatherURL, airURL string) {
	o.weatherURL = weatherURL
	o.airURL = airURL
}

func (o *OpenMeteo) weatherRequestURL() string {
	return fmt.Sprintf("%s?latitude=%s&longitude=%s&current=%s&hourly=%s&timezone=%s&forecast_days=7&past_days=1",
		o.weatherURL, coord(o.coord.Lat), coord(o.coord.Lng), weatherCurrentVars, weatherHourlyVars, o.timezone)
}

func (o *OpenMeteo) airRequestURL() string {
	return fmt.Sprintf("%s?latitude=%s&longitude=%s&current=pm10,pm2_5&hourly=pm10&timezone=%s&forecast_days=7",
		o.airURL, coord(o.coord.Lat), coord(o.coord.Lng), o.timezone)
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FetchWeather retrieves the hourly and current weather series.
func (o *OpenMeteo) FetchWeather(ctx context.Context) (*models.WeatherSeries, *FetchResult, error) {
	result, err := o.get(ctx, EndpointForecast, o.weatherRequestURL())
	if err != nil {
		return nil, result, err
	}

	var data models.WeatherSeries
	if err := json.Unmarshal(result.Body, &data); err != nil {
		result.Error = fmt.Errorf("unmarshal forecast: %w", err)
		return nil, result, result.Error
	}
	return &data, result, nil
}

// FetchAir retrieves the PM10 series.
func (o *OpenMeteo) FetchAir(ctx context.Context) (*models.AirSeries, *FetchResult, error) {
	result, err := o.get(ctx, EndpointAirQuality, o.airRequestURL())
	if err != nil {
		return nil, result, err
	}

	var data models.AirSeries
	if err := json.Unmarshal(result.Body, &data); err != nil {
		result.Error = fmt.Errorf("unmarshal air quality: %w", err)
		return nil, result, result.Error
	}
	return &data, result, nil
}

// get performs a GET, retrying only when the upstream throttles with 429.
func (o *OpenMeteo) get(ctx context.Context, endpoint, url string) (*FetchResult, error) {
	result := &FetchResult{}

	operation := func() error {
		start := time.Now()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		resp, err := o.client.Do(req)
		metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.APICallsTotal.WithLabelValues(endpoint, "error").Inc()
			return backoff.Permanent(fmt.Errorf("fetch %s: %w", endpoint, err))
		}
		defer resp.Body.Close()

		result.HTTPStatus = resp.StatusCode
		metrics.APICallsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		result.ResponseSize = len(body)
		result.Body = body

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("rate limited: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d: %s", endpoint, resp.StatusCode, errorReason(body)))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.retryInitial
	bo.MaxElapsedTime = o.retryMaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		result.Error = err
		return result, err
	}
	return result, nil
}

// errorReason extracts Open-Meteo's {"error":true,"reason":"..."} message,
// falling back to the raw body.
func errorReason(body []byte) string {
	if reason := gjson.GetBytes(body, "reason"); reason.Exists() {
		return reason.String()
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
