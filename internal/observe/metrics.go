// Package observe provides application-wide observability primitives for
// HearDiary: OpenTelemetry metrics, light tracing, structured logging
// helpers, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. Tests should use [NewMetrics]
// with a custom [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all HearDiary metrics.
const meterName = "github.com/heardiary/heardiary"

// Metrics holds all OpenTelemetry metric instruments for the daemon.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// CaptureDuration tracks the length of finalized recordings, in seconds.
	CaptureDuration metric.Float64Histogram

	// PlaybackDuration tracks how long each soundprint run played before
	// finishing or being stopped.
	PlaybackDuration metric.Float64Histogram

	// EntriesPersisted counts entries appended to the store.
	EntriesPersisted metric.Int64Counter

	// EntriesDeleted counts entries removed from the store.
	EntriesDeleted metric.Int64Counter

	// ClassifierRequests counts classification attempts. Use with attributes:
	//   attribute.String("source", "remote"|"local"),
	//   attribute.String("status", "ok"|"fallback")
	ClassifierRequests metric.Int64Counter

	// StoreErrors counts failed persistence operations. Use with attribute:
	//   attribute.String("op", ...)
	StoreErrors metric.Int64Counter

	// CaptureActive is 1 while the microphone is held by a recording.
	CaptureActive metric.Int64UpDownCounter

	// HTTPRequestDuration tracks API request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// recordingBuckets defines histogram bucket boundaries (in seconds) sized for
// voice notes: a few seconds up to several minutes.
var recordingBuckets = []float64{
	1, 5, 15, 30, 60, 120, 300, 600, 1800,
}

// httpBuckets defines histogram bucket boundaries (in seconds) for local API
// requests.
var httpBuckets = []float64{
	0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.CaptureDuration, err = m.Float64Histogram("heardiary.capture.duration",
		metric.WithDescription("Length of finalized recordings."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(recordingBuckets...),
	); err != nil {
		return nil, err
	}

	if met.PlaybackDuration, err = m.Float64Histogram("heardiary.soundprint.duration",
		metric.WithDescription("Wall-clock length of soundprint playback runs."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(recordingBuckets...),
	); err != nil {
		return nil, err
	}

	if met.EntriesPersisted, err = m.Int64Counter("heardiary.entries.persisted",
		metric.WithDescription("Entries appended to the diary store."),
	); err != nil {
		return nil, err
	}

	if met.EntriesDeleted, err = m.Int64Counter("heardiary.entries.deleted",
		metric.WithDescription("Entries removed from the diary store."),
	); err != nil {
		return nil, err
	}

	if met.ClassifierRequests, err = m.Int64Counter("heardiary.classifier.requests",
		metric.WithDescription("Classification attempts by source and outcome."),
	); err != nil {
		return nil, err
	}

	if met.StoreErrors, err = m.Int64Counter("heardiary.store.errors",
		metric.WithDescription("Failed persistence operations."),
	); err != nil {
		return nil, err
	}

	if met.CaptureActive, err = m.Int64UpDownCounter("heardiary.capture.active",
		metric.WithDescription("Whether the microphone is currently held by a recording."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("heardiary.http.request.duration",
		metric.WithDescription("API request processing time."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}
