package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PredictionsTotal   *prometheus.CounterVec
	PredictionDuration *prometheus.HistogramVec
	DiagnosesTotal     *prometheus.CounterVec
	TrainingsTotal     *prometheus.CounterVec
	LedgerSubmissions  *prometheus.CounterVec
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medidose_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medidose_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		PredictionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medidose_predictions_total",
				Help: "Dosage predictions by drug, predictor source and ledger status",
			},
			[]string{"drug", "source", "status"},
		),
		PredictionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "medidose_prediction_duration_seconds",
				Help:    "Time to assemble a dosage prediction, ledger round trip included",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"drug"},
		),
		DiagnosesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medidose_diagnoses_total",
				Help: "Diagnoses by source",
			},
			[]string{"source"},
		),
		TrainingsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medidose_model_trainings_total",
				Help: "Model training runs by kind and result",
			},
			[]string{"kind", "result"},
		),
		LedgerSubmissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "medidose_ledger_submissions_total",
				Help: "Ledger submissions by result",
			},
			[]string{"result"}, // "confirmed", "failed", "timeout"
		),
	}
}

func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

func (m *Metrics) RecordPrediction(drug, source, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(drug, source, status).Inc()
	m.PredictionDuration.WithLabelValues(drug).Observe(duration.Seconds())
}

func (m *Metrics) RecordDiagnosis(source string) {
	if m == nil {
		return
	}
	m.DiagnosesTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordTraining(kind, result string) {
	if m == nil {
		return
	}
	m.TrainingsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RecordLedgerSubmission(result string) {
	if m == nil {
		return
	}
	m.LedgerSubmissions.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
