package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	signalsGenerated     *prometheus.CounterVec
	disclosuresIngested  *prometheus.CounterVec
	backtestsRun         *prometheus.CounterVec
	alertsSent           *prometheus.CounterVec
	errorsTotal          *prometheus.CounterVec
	lastConfidence       *prometheus.GaugeVec
	latency              *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartflow_signals_generated_total",
				Help: "Total number of trading signals generated",
			},
			[]string{"direction", "strength"},
		),
		disclosuresIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartflow_disclosures_ingested_total",
				Help: "Total number of disclosure events ingested",
			},
			[]string{"source"},
		),
		backtestsRun: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartflow_backtests_total",
				Help: "Total number of backtests run",
			},
			[]string{"result"},
		),
		alertsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartflow_alerts_sent_total",
				Help: "Total number of alerts dispatched",
			},
			[]string{"channel"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smartflow_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastConfidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smartflow_last_signal_confidence",
				Help: "Confidence of the last signal generated for a ticker",
			},
			[]string{"ticker"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smartflow_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignalGenerated records a generated signal.
func (r *Recorder) RecordSignalGenerated(direction, strength string) {
	r.signalsGenerated.WithLabelValues(direction, strength).Inc()
}

// RecordDisclosureIngested records an ingested disclosure event.
func (r *Recorder) RecordDisclosureIngested(source string) {
	r.disclosuresIngested.WithLabelValues(source).Inc()
}

// RecordBacktestRun records a backtest outcome.
func (r *Recorder) RecordBacktestRun(result string) {
	r.backtestsRun.WithLabelValues(result).Inc()
}

// RecordAlertSent records an alert dispatched to a channel.
func (r *Recorder) RecordAlertSent(channel string) {
	r.alertsSent.WithLabelValues(channel).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastConfidence records the confidence of the latest signal for a ticker.
func (r *Recorder) RecordLastConfidence(ticker string, confidence float64) {
	r.lastConfidence.WithLabelValues(ticker).Set(confidence)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
