package monitoring

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reportCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_hits_total",
			Help: "Report cache hits per report type",
		},
		[]string{"report"},
	)

	reportCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_misses_total",
			Help: "Report cache misses per report type",
		},
		[]string{"report"},
	)

	reportBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_build_duration_seconds",
			Help:    "Time spent building a full report dataset on a cache miss",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"report"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Payment webhook deliveries by outcome",
		},
		[]string{"result"},
	)

	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout attempts by outcome",
		},
		[]string{"status"},
	)

	ticketsValidated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_validated_total",
			Help: "QR attendance validations by outcome",
		},
		[]string{"result"},
	)
)

func ReportCacheHit(report string)  { reportCacheHits.WithLabelValues(report).Inc() }
func ReportCacheMiss(report string) { reportCacheMisses.WithLabelValues(report).Inc() }

func ObserveReportBuild(report string, d time.Duration) {
	reportBuildDuration.WithLabelValues(report).Observe(d.Seconds())
}

func WebhookResult(result string) { webhookEvents.WithLabelValues(result).Inc() }

func CheckoutResult(status string) { checkoutsTotal.WithLabelValues(status).Inc() }

func ValidationResult(result string) { ticketsValidated.WithLabelValues(result).Inc() }

// StartMetricsServer exposes /metrics on its own port, separate from the
// application listener.
func StartMetricsServer(port string, logger *slog.Logger) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		if err := http.ListenAndServe(":"+port, mux); err != nil {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
}
