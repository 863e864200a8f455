package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the listing service
type Metrics struct {
	geocodeLatency     prometheus.Histogram
	geocodeCache       *prometheus.CounterVec
	searchLatency      prometheus.Histogram
	imagesStored       prometheus.Counter
	imagesFailed       prometheus.Counter
	imagesRolledBack   prometheus.Counter
	resizeLatency      prometheus.Histogram
	viewIncrementFails prometheus.Counter
	relatedFailures    prometheus.Counter
	objectOpLatency    *prometheus.HistogramVec
	objectOpErrors     *prometheus.CounterVec
	objectBytesStored  prometheus.Counter
}

// NewMetrics creates the metrics and registers them with reg.
// A nil registerer creates unregistered metrics, which is what tests use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		geocodeLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "geocode_latency_ms",
				Help:    "Latency of geocoding provider calls in milliseconds",
				Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			},
		),
		geocodeCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geocode_cache_lookups_total",
				Help: "Geocode cache lookups by layer and result",
			},
			[]string{"layer", "result"},
		),
		searchLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "listing_search_latency_ms",
				Help:    "Latency of proximity searches in milliseconds",
				Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
			},
		),
		imagesStored: f.NewCounter(
			prometheus.CounterOpts{
				Name: "images_stored_total",
				Help: "Total number of images resized and stored",
			},
		),
		imagesFailed: f.NewCounter(
			prometheus.CounterOpts{
				Name: "images_failed_total",
				Help: "Total number of images that failed resize or store",
			},
		),
		imagesRolledBack: f.NewCounter(
			prometheus.CounterOpts{
				Name: "images_rolled_back_total",
				Help: "Total number of stored images deleted because a sibling upload failed",
			},
		),
		resizeLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "image_resize_latency_ms",
				Help:    "Latency of image resize operations in milliseconds",
				Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
			},
		),
		viewIncrementFails: f.NewCounter(
			prometheus.CounterOpts{
				Name: "listing_view_increment_failures_total",
				Help: "Total number of view counter increments that failed",
			},
		),
		relatedFailures: f.NewCounter(
			prometheus.CounterOpts{
				Name: "related_listings_failures_total",
				Help: "Total number of related listing lookups that failed and were degraded",
			},
		),
		objectOpLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "object_store_latency_ms",
				Help:    "Latency of object store operations in milliseconds",
				Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
			},
			[]string{"op"},
		),
		objectOpErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "object_store_errors_total",
				Help: "Object store operations that returned an error",
			},
			[]string{"op"},
		),
		objectBytesStored: f.NewCounter(
			prometheus.CounterOpts{
				Name: "object_store_bytes_written_total",
				Help: "Bytes written to the object store",
			},
		),
	}
}

// RecordGeocodeLatency records the latency of a provider geocode call
func (m *Metrics) RecordGeocodeLatency(milliseconds int64) {
	m.geocodeLatency.Observe(float64(milliseconds))
}

// RecordGeocodeCache counts a cache lookup on the named layer
func (m *Metrics) RecordGeocodeCache(layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.geocodeCache.WithLabelValues(layer, result).Inc()
}

// RecordSearchLatency records the latency of a proximity search
func (m *Metrics) RecordSearchLatency(milliseconds int64) {
	m.searchLatency.Observe(float64(milliseconds))
}

func (m *Metrics) IncImagesStored()     { m.imagesStored.Inc() }
func (m *Metrics) IncImagesFailed()     { m.imagesFailed.Inc() }
func (m *Metrics) IncImagesRolledBack() { m.imagesRolledBack.Inc() }

// RecordResizeLatency records the latency of a single image resize
func (m *Metrics) RecordResizeLatency(milliseconds int64) {
	m.resizeLatency.Observe(float64(milliseconds))
}

func (m *Metrics) IncViewIncrementFailures() { m.viewIncrementFails.Inc() }
func (m *Metrics) IncRelatedFailures()       { m.relatedFailures.Inc() }

// RecordObjectOp records one object store call. bytes is only counted for successful writes.
func (m *Metrics) RecordObjectOp(op string, milliseconds int64, bytes int, err error) {
	m.objectOpLatency.WithLabelValues(op).Observe(float64(milliseconds))
	if err != nil {
		m.objectOpErrors.WithLabelValues(op).Inc()
		return
	}
	if bytes > 0 {
		m.objectBytesStored.Add(float64(bytes))
	}
}
