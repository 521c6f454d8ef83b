package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/forceweaver/orghealth/internal/core"
)

type Collector struct {
	checkDuration *prometheus.HistogramVec
	checksTotal   *prometheus.CounterVec

	reportsTotal *prometheus.CounterVec
	reportScore  prometheus.Histogram

	credentialExchanges *prometheus.CounterVec
	versionProbes       *prometheus.CounterVec

	authAttempts *prometheus.CounterVec
}

func NewCollector() *Collector {
	return &Collector{
		checkDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orghealth_check_duration_seconds",
			Help:    "Duration of individual health check units",
			Buckets: prometheus.DefBuckets,
		}, []string{"check"}),

		checksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orghealth_checks_total",
			Help: "Health check units executed, by check and status",
		}, []string{"check", "status"}),

		reportsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orghealth_reports_total",
			Help: "Health reports produced, by final state",
		}, []string{"state"}),

		reportScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "orghealth_report_score",
			Help:    "Aggregate score distribution of produced reports",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		credentialExchanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orghealth_credential_exchanges_total",
			Help: "Refresh token exchanges, by outcome",
		}, []string{"outcome"}),

		versionProbes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orghealth_version_probes_total",
			Help: "API version probes issued, by version and outcome",
		}, []string{"version", "outcome"}),

		authAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "orghealth_api_key_auth_total",
			Help: "API key authentication attempts, by outcome",
		}, []string{"outcome"}),
	}
}

func (c *Collector) RecordCheck(name string, status core.CheckStatus, seconds float64) {
	c.checkDuration.WithLabelValues(name).Observe(seconds)
	c.checksTotal.WithLabelValues(name, string(status)).Inc()
}

func (c *Collector) RecordReport(report *core.HealthReport) {
	c.reportsTotal.WithLabelValues(string(report.State)).Inc()
	if report.Score != nil {
		c.reportScore.Observe(*report.Score)
	}
}

func (c *Collector) RecordCredentialExchange(outcome string) {
	c.credentialExchanges.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordVersionProbe(version, outcome string) {
	c.versionProbes.WithLabelValues(version, outcome).Inc()
}

func (c *Collector) RecordAuthAttempt(outcome string) {
	c.authAttempts.WithLabelValues(outcome).Inc()
}
