package metrics

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "farmpulse_"

	// IngestResultSuccess labels a successful ingest request.
	IngestResultSuccess = "success"
	// IngestResultError labels a failed ingest request.
	IngestResultError = "error"
)

var (
	registerOnce sync.Once

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec

	evaluationTicks   prometheus.Counter
	evaluationLatency prometheus.Histogram
	unitsEvaluated    prometheus.Counter
	unitsSkipped      *prometheus.CounterVec

	alertEventsTotal *prometheus.CounterVec
	openAlerts       *prometheus.GaugeVec
)

// Init registers observability metrics. Safe to call more than once.
func Init(logger *log.Logger) {
	registerOnce.Do(func() {
		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total reading ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total reading ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Reading ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		evaluationTicks = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "evaluation_ticks_total",
				Help: "Total evaluation passes",
			},
		)
		evaluationLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "evaluation_tick_latency_seconds",
				Help:    "Evaluation pass latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		unitsEvaluated = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "evaluation_units_total",
				Help: "Total equipment units classified",
			},
		)
		unitsSkipped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "evaluation_units_skipped_total",
				Help: "Equipment units skipped during evaluation by reason",
			},
			[]string{"reason"},
		)

		alertEventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_events_total",
				Help: "Alert lifecycle events by type",
			},
			[]string{"type"},
		)
		openAlerts = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "open_alerts",
				Help: "Unacknowledged alerts per farm",
			},
			[]string{"farm_id"},
		)

		collectors := []prometheus.Collector{
			ingestRequests,
			ingestErrors,
			ingestLatency,
			evaluationTicks,
			evaluationLatency,
			unitsEvaluated,
			unitsSkipped,
			alertEventsTotal,
			openAlerts,
		}
		for _, collector := range collectors {
			if err := prometheus.Register(collector); err != nil && logger != nil {
				logger.Printf("metrics register error: %v", err)
			}
		}
	})
}

// ObserveIngest records one ingest request.
func ObserveIngest(result string, elapsed time.Duration) {
	if ingestRequests == nil {
		return
	}
	ingestRequests.WithLabelValues(result).Inc()
	ingestLatency.WithLabelValues(result).Observe(elapsed.Seconds())
}

// IncIngestError counts an ingest failure reason.
func IncIngestError(reason string) {
	if ingestErrors == nil {
		return
	}
	ingestErrors.WithLabelValues(reason).Inc()
}

// ObserveEvaluationTick records one evaluation pass.
func ObserveEvaluationTick(elapsed time.Duration) {
	if evaluationTicks == nil {
		return
	}
	evaluationTicks.Inc()
	evaluationLatency.Observe(elapsed.Seconds())
}

// AddUnitsEvaluated counts classified equipment units.
func AddUnitsEvaluated(n int) {
	if unitsEvaluated == nil || n <= 0 {
		return
	}
	unitsEvaluated.Add(float64(n))
}

// IncUnitSkipped counts a skipped equipment unit by reason.
func IncUnitSkipped(reason string) {
	if unitsSkipped == nil {
		return
	}
	unitsSkipped.WithLabelValues(reason).Inc()
}

// IncAlertEvent counts an alert lifecycle event.
func IncAlertEvent(eventType string) {
	if alertEventsTotal == nil {
		return
	}
	alertEventsTotal.WithLabelValues(eventType).Inc()
}

// SetOpenAlerts sets the unacknowledged alert gauge for a farm.
func SetOpenAlerts(farmID string, count int) {
	if openAlerts == nil {
		return
	}
	openAlerts.WithLabelValues(farmID).Set(float64(count))
}
