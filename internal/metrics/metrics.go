// Package metrics exposes prediction and optimization counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "readalloc"

// Metrics holds the collectors. A nil *Metrics records nothing.
type Metrics struct {
	predictions      *prometheus.CounterVec
	predictionErrors *prometheus.CounterVec
	predictDuration  prometheus.Histogram
	optimizeRuns     *prometheus.CounterVec
	optimizeEvals    prometheus.Histogram
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Number of dispatched prediction batches.",
		}, []string{"kind"}),
		predictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Number of prediction batches that failed.",
		}, []string{"kind"}),
		predictDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predict_duration_seconds",
			Help:      "Time spent predicting one batch.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		optimizeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimize_runs_total",
			Help:      "Number of proportion optimizations by outcome.",
		}, []string{"success"}),
		optimizeEvals: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "optimize_evaluations",
			Help:      "Objective evaluations per optimization.",
			Buckets:   prometheus.LinearBuckets(5, 5, 10),
		}),
	}

	reg.MustRegister(
		m.predictions,
		m.predictionErrors,
		m.predictDuration,
		m.optimizeRuns,
		m.optimizeEvals,
	)
	return m
}

// ObservePrediction records one prediction batch.
func (m *Metrics) ObservePrediction(kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(kind).Inc()
	if err != nil {
		m.predictionErrors.WithLabelValues(kind).Inc()
	}
	m.predictDuration.Observe(elapsed.Seconds())
}

// ObserveOptimize records one finished optimization.
func (m *Metrics) ObserveOptimize(success bool, evaluations int) {
	if m == nil {
		return
	}
	m.optimizeRuns.WithLabelValues(strconv.FormatBool(success)).Inc()
	m.optimizeEvals.Observe(float64(evaluations))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
