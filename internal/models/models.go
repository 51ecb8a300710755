package models

import (
	"time"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valencia is the fixed forecast target.
var Valencia = Coordinate{Lat: 39.4699, Lng: -0.3763}

type SpotType string

const (
	SpotBeach  SpotType = "beach"
	SpotLake   SpotType = "lake"
	SpotTower  SpotType = "tower"
	SpotPark   SpotType = "park"
	SpotCustom SpotType = "custom"
)

// Valid reports whether t is one of the known spot types.
func (t SpotType) Valid() bool {
	switch t {
	case SpotBeach, SpotLake, SpotTower, SpotPark, SpotCustom:
		return true
	}
	return false
}

type Spot struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Type        SpotType `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Lat         float64  `json:"lat" yaml:"lat"`
	Lng         float64  `json:"lng" yaml:"lng"`
	Icon        string   `json:"icon" yaml:"icon"`
}

// DefaultSpots are the viewing spots seeded into an empty store.
var DefaultSpots = []Spot{
	{ID: "1", Name: "Playa de la Malvarrosa", Type: SpotBeach, Description: "Open horizon, reflection in water", Lat: 39.4783, Lng: -0.3252, Icon: "🏖"},
	{ID: "2", Name: "La Albufera", Type: SpotLake, Description: "Mirror lake, double sunset", Lat: 39.3328, Lng: -0.3517, Icon: "🪷"},
	{ID: "3", Name: "Mirador del Miguelete", Type: SpotTower, Description: "360° panorama, shelter from wind", Lat: 39.4755, Lng: -0.3755, Icon: "🏛"},
	{ID: "4", Name: "Playa de la Patacona", Type: SpotBeach, Description: "Quiet beach, fewer people", Lat: 39.4894, Lng: -0.3215, Icon: "🌊"},
	{ID: "5", Name: "Jardín del Turia", Type: SpotPark, Description: "City park, easy access", Lat: 39.4802, Lng: -0.3667, Icon: "🌳"},
}

// Custom spot defaults.
const (
	CustomSpotIcon        = "📌"
	CustomSpotDescription = "User spot"
)

type PressureTrend string

const (
	TrendStable          PressureTrend = "stable"
	TrendRising          PressureTrend = "rising"
	TrendFalling         PressureTrend = "falling"
	TrendRisingAfterDrop PressureTrend = "rising_after_drop"
)

// DayRecord is the atmospheric and solar snapshot at one day's sunset hour.
// Index 0 of an assembled week is today.
type DayRecord struct {
	Date       time.Time `json:"date"`
	Sunset     time.Time `json:"sunset"`
	GoldenHour time.Time `json:"golden_hour"`
	Azimuth    float64   `json:"azimuth"`

	CloudTotal float64 `json:"cloud_total"`
	CloudLow   float64 `json:"cloud_low"`
	CloudMid   float64 `json:"cloud_mid"`
	CloudHigh  float64 `json:"cloud_high"`
	Humidity   float64 `json:"humidity"`
	Visibility float64 `json:"visibility"` // metres
	WindSpeed  float64 `json:"wind_speed"` // km/h
	Pressure   float64 `json:"pressure"`   // hPa
	PM10       float64 `json:"pm10"`

	// CloudHours holds mid+high cover for the hours around sunset.
	CloudHours []float64 `json:"cloud_hours"`

	// Day 0 only.
	PressureTrend      PressureTrend `json:"pressure_trend,omitempty"`
	PressureDelta12h   *float64      `json:"pressure_delta_12h,omitempty"`
	PressureDelta24h   *float64      `json:"pressure_delta_24h,omitempty"`
	PressureForecast6h *float64      `json:"pressure_forecast_6h,omitempty"`

	// QualityFlags lists implausible inputs noticed during validation.
	QualityFlags []string `json:"quality_flags,omitempty"`
}

// CurrentSnapshot holds the provider's "current" values used to patch day 0.
type CurrentSnapshot struct {
	CloudTotal float64
	CloudLow   float64
	CloudMid   float64
	CloudHigh  float64
	Humidity   float64
	Visibility float64
	WindSpeed  float64
	Pressure   float64
	PM10       float64
}

// Apply overwrites the atmospheric fields of d with the snapshot.
func (c CurrentSnapshot) Apply(d DayRecord) DayRecord {
	d.CloudTotal = c.CloudTotal
	d.CloudLow = c.CloudLow
	d.CloudMid = c.CloudMid
	d.CloudHigh = c.CloudHigh
	d.Humidity = c.Humidity
	d.Visibility = c.Visibility
	d.WindSpeed = c.WindSpeed
	d.Pressure = c.Pressure
	d.PM10 = c.PM10
	return d
}

// WeatherSeries is the Open-Meteo forecast response. Nullable samples decode
// to nil pointers.
type WeatherSeries struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Timezone  string          `json:"timezone"`
	Current   *WeatherCurrent `json:"current"`
	Hourly    WeatherHourly   `json:"hourly"`
}

type WeatherCurrent struct {
	Time             string   `json:"time"`
	Temperature      *float64 `json:"temperature_2m"`
	RelativeHumidity *float64 `json:"relative_humidity_2m"`
	SurfacePressure  *float64 `json:"surface_pressure"`
	WindSpeed        *float64 `json:"wind_speed_10m"`
	CloudCover       *float64 `json:"cloud_cover"`
	CloudCoverLow    *float64 `json:"cloud_cover_low"`
	CloudCoverMid    *float64 `json:"cloud_cover_mid"`
	CloudCoverHigh   *float64 `json:"cloud_cover_high"`
	Visibility       *float64 `json:"visibility"`
}

type WeatherHourly struct {
	Time             []string   `json:"time"`
	CloudCover       []*float64 `json:"cloud_cover"`
	CloudCoverLow    []*float64 `json:"cloud_cover_low"`
	CloudCoverMid    []*float64 `json:"cloud_cover_mid"`
	CloudCoverHigh   []*float64 `json:"cloud_cover_high"`
	RelativeHumidity []*float64 `json:"relative_humidity_2m"`
	Visibility       []*float64 `json:"visibility"`
	WindSpeed        []*float64 `json:"wind_speed_10m"`
	SurfacePressure  []*float64 `json:"surface_pressure"`
	PressureMSL      []*float64 `json:"pressure_msl"`
}

// AirSeries is the Open-Meteo air-quality response.
type AirSeries struct {
	Timezone string      `json:"timezone"`
	Current  *AirCurrent `json:"current"`
	Hourly   *AirHourly  `json:"hourly"`
}

type AirCurrent struct {
	Time string   `json:"time"`
	PM10 *float64 `json:"pm10"`
	PM25 *float64 `json:"pm2_5"`
}

type AirHourly struct {
	Time []string   `json:"time"`
	PM10 []*float64 `json:"pm10"`
}
