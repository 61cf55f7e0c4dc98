package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics
var (
	Cycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationhealth_cycles_total",
			Help: "Archive cycles by result (saved, skipped, failed)",
		},
		[]string{"result"},
	)
	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationhealth_fetch_failures_total",
			Help: "Failed WeatherLink API calls by endpoint",
		},
		[]string{"endpoint"},
	)
	DecodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stationhealth_decode_errors_total",
			Help: "Unexpected WeatherLink response shapes by endpoint",
		},
		[]string{"endpoint"},
	)
	PruneFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stationhealth_prune_failures_total",
			Help: "Failed retention prunes",
		},
	)
	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stationhealth_publish_failures_total",
			Help: "Records that could not be published",
		},
	)
	LastRecord = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stationhealth_last_record_timestamp_seconds",
			Help: "dateTime of the last saved record",
		},
	)
	FieldsPopulated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stationhealth_fields_populated",
			Help: "Health fields populated in the last saved record",
		},
	)
)
