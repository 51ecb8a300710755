package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sunsetcast_api_calls_total",
			Help: "Total Open-Meteo API calls",
		},
		[]string{"endpoint", "status"},
	)

	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sunsetcast_api_latency_seconds",
			Help:    "Open-Meteo API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	DaysAssembled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sunsetcast_days_assembled",
			Help: "Forecast days assembled in the latest refresh",
		},
	)

	DayScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sunsetcast_day_score",
			Help: "Composite sunset score by forecast day offset",
		},
		[]string{"day"},
	)

	QualityFlagsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sunsetcast_quality_flags_total",
			Help: "Data quality flags raised during assembly",
		},
		[]string{"flag"},
	)

	RefreshFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sunsetcast_refresh_failures_total",
			Help: "Forecast refresh cycles that failed",
		},
	)

	BannerGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sunsetcast_banner_generations_total",
			Help: "OpenAI banner generations by sunset kind and outcome",
		},
		[]string{"kind", "status"},
	)

	BannerGenerationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sunsetcast_banner_generation_seconds",
			Help:    "OpenAI banner generation latency in seconds",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120},
		},
	)
)
