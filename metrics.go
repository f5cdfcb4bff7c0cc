package huginn

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for a Huginn instance.
type Metrics struct {
	reportsSubmitted  *prometheus.CounterVec
	verifications     *prometheus.CounterVec
	zoneChecks        *prometheus.CounterVec
	clusters          *prometheus.GaugeVec
	highConfidence    prometheus.Gauge
	clusterPassLength prometheus.Histogram
}

// Verification outcomes recorded by Metrics.
const (
	verifyCounted   = "counted"
	verifyDuplicate = "duplicate_verifier"
	verifyUnknown   = "unknown_report"
)

// newMetrics creates and registers all collectors on reg.
func newMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		reportsSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "huginn_reports_submitted_total",
				Help: "Total number of incident reports accepted",
			},
			[]string{"type"},
		),
		verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "huginn_verifications_total",
				Help: "Total number of verification attempts by outcome",
			},
			[]string{"result"},
		),
		zoneChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "huginn_zone_checks_total",
				Help: "Total number of high-confidence zone checks by outcome",
			},
			[]string{"result"},
		),
		clusters: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "huginn_clusters",
				Help: "Number of clusters produced by the latest pass",
			},
			[]string{"type"},
		),
		highConfidence: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "huginn_high_confidence_clusters",
				Help: "Number of high-confidence clusters in the latest pass",
			},
		),
		clusterPassLength: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "huginn_cluster_pass_seconds",
				Help:    "Duration of clustering passes in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
	}
}

// RecordSubmission increments the submission counter for an incident type.
func (m *Metrics) RecordSubmission(t IncidentType) {
	m.reportsSubmitted.WithLabelValues(string(t)).Inc()
}

// RecordVerification increments the verification counter for an outcome.
func (m *Metrics) RecordVerification(result string) {
	m.verifications.WithLabelValues(result).Inc()
}

// RecordZoneCheck increments the zone check counter.
func (m *Metrics) RecordZoneCheck(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.zoneChecks.WithLabelValues(result).Inc()
}

// RecordClusterPass updates the cluster gauges and pass latency.
func (m *Metrics) RecordClusterPass(clusters []ReportCluster, threshold float64, elapsed time.Duration) {
	m.clusters.Reset()
	for _, c := range clusters {
		m.clusters.WithLabelValues(string(c.Type)).Inc()
	}
	m.highConfidence.Set(float64(len(HighConfidenceClusters(clusters, threshold))))
	m.clusterPassLength.Observe(elapsed.Seconds())
}
