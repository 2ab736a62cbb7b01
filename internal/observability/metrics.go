// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Pipeline metrics
	PipelineRunsTotal  *prometheus.CounterVec
	PipelineDuration   *prometheus.HistogramVec
	TransactionsScored prometheus.Counter
	WalletsAggregated  prometheus.Counter
	ReportsGenerated   prometheus.Counter

	// Scoring output gauges (latest run)
	AverageRiskScore prometheus.Gauge
	FlaggedWallets   prometheus.Gauge
	SanctionedShare  prometheus.Gauge

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Alert metrics
	AlertsPublished prometheus.Counter
	AlertErrors     prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	WSClients           prometheus.Gauge

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stablecoin_risk"
	}

	return &Metrics{
		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"stage", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"stage"}),
		TransactionsScored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transactions_scored_total",
			Help:      "Total number of transactions scored",
		}),
		WalletsAggregated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "wallets_aggregated_total",
			Help:      "Total number of wallet aggregates computed",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		AverageRiskScore: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "average_risk_score",
			Help:      "Average risk score of the latest run",
		}),
		FlaggedWallets: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "flagged_wallets",
			Help:      "Wallets with sanctioned volume in the latest run",
		}),
		SanctionedShare: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "sanctioned_volume_share_percent",
			Help:      "Sanctioned share of total volume in the latest run",
		}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Score memo lookups by result",
		}, []string{"result"}),

		AlertsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "published_total",
			Help:      "Total number of alerts published",
		}),
		AlertErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "publish_errors_total",
			Help:      "Total number of failed alert publishes",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "websocket_clients",
			Help:      "Connected websocket clients",
		}),

		// Health metrics
		LastSuccessfulPipeline: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPipelineStage records one pipeline stage outcome.
func RecordPipelineStage(stage, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(stage, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordScoringOutput records counts and summary gauges of a completed run.
func RecordScoringOutput(transactions, wallets, flagged int, avgRisk, sanctionedShare float64) {
	DefaultMetrics.TransactionsScored.Add(float64(transactions))
	DefaultMetrics.WalletsAggregated.Add(float64(wallets))
	DefaultMetrics.FlaggedWallets.Set(float64(flagged))
	DefaultMetrics.AverageRiskScore.Set(avgRisk)
	DefaultMetrics.SanctionedShare.Set(sanctionedShare)
}

// RecordCacheLookup records a memo hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(result).Inc()
}

// RecordAlerts records an alert publish attempt.
func RecordAlerts(count int, err error) {
	if err != nil {
		DefaultMetrics.AlertErrors.Inc()
		return
	}
	DefaultMetrics.AlertsPublished.Add(float64(count))
}

// RecordReportGenerated increments the reports counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordPipelineSuccess stamps the last successful run time.
func RecordPipelineSuccess(at time.Time) {
	DefaultMetrics.LastSuccessfulPipeline.Set(float64(at.Unix()))
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// SetWSClients sets the connected websocket client gauge.
func SetWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}
