// Package telemetry exports engine metrics to Prometheus.
package telemetry

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YuminosukeSato/loanml/gateway"
	"github.com/YuminosukeSato/loanml/lifecycle"
	"github.com/YuminosukeSato/loanml/pkg/errors"
)

const namespace = "loanml"

const (
	// OutcomeSuccess labels successful calls; failures are labeled with their error code.
	OutcomeSuccess = "success"
	// OperationUnregistered replaces names that match no registered operation.
	OperationUnregistered = "unregistered"
)

// Metrics holds the collectors. Observe methods are safe for concurrent use.
type Metrics struct {
	calls         *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	trainings     *prometheus.CounterVec
	trainDuration prometheus.Histogram
	modelTrained  prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_calls_total",
				Help:      "Total number of gateway operation calls",
			},
			[]string{"operation", "outcome"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_call_duration_seconds",
				Help:      "Duration of gateway operation calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		trainings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trainings_total",
				Help:      "Total number of training runs",
			},
			[]string{"outcome"},
		),
		trainDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "training_duration_seconds",
				Help:      "Duration of training runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		modelTrained: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_trained",
				Help:      "1 when a trained model is serving predictions, else 0",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.calls, m.callDuration, m.trainings, m.trainDuration, m.modelTrained} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register metric")
		}
	}
	return m, nil
}

func outcome(code string) string {
	if code == "" {
		return OutcomeSuccess
	}
	return strings.ToLower(code)
}

// ObserveCall records one gateway invocation. It satisfies gateway.Observer.
func (m *Metrics) ObserveCall(ev gateway.Event) {
	code := ev.Code
	if !ev.Success && code == "" {
		code = errors.CodeInternal
	}
	op := ev.Operation
	if !ev.Registered {
		op = OperationUnregistered
	}
	m.calls.WithLabelValues(op, outcome(code)).Inc()
	m.callDuration.WithLabelValues(op).Observe(ev.Duration.Seconds())
}

// ObserveTraining records one training run. It satisfies lifecycle.TrainObserver.
func (m *Metrics) ObserveTraining(ev lifecycle.TrainEvent) {
	m.trainings.WithLabelValues(outcome(errors.Code(ev.Err))).Inc()
	m.trainDuration.Observe(ev.Duration.Seconds())
	if ev.Err == nil {
		m.modelTrained.Set(1)
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
