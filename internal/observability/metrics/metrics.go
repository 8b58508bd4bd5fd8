package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	Interrupted              Outcome       = "interrupted"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var (
	once                     sync.Once
	metricsRouter            *chi.Mux
	ethClientLatency         *prometheus.HistogramVec
	queueSendErrorCounter    prometheus.Counter
	pollerDurationHistogram  *prometheus.HistogramVec
	eventProcessingDuration  *prometheus.HistogramVec
	anomaliesCounter         *prometheus.CounterVec
	usageFailuresCounter     prometheus.Counter
	priceSourceCounter       *prometheus.CounterVec
	lastProcessedBlockGauge  prometheus.Gauge
	chainHeadGauge           prometheus.Gauge
	totalPooledEtherGauge    prometheus.Gauge
	totalSharesGauge         prometheus.Gauge
	finalizedRewardsCounter  prometheus.Counter
	dbLatency                *prometheus.HistogramVec
	allCollectors            []prometheus.Collector
	defaultHistogramBuckets  = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}
	fastHistogramBucketsSecs = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
)

// collectors exist before Init so that recording from tests is a no-op
func init() {
	newMetrics()
}

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

func newMetrics() {
	ethClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eth_client_latency_seconds",
			Help:    "Histogram of execution layer client durations in seconds.",
			Buckets: defaultHistogramBuckets,
		},
		[]string{"method", "status"},
	)

	// add a counter for the number of errors from the fail to push message into queue
	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBuckets,
		},
		[]string{"type", "status"},
	)

	eventProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "event_processing_duration_seconds",
			Help:    "Protocol event processing duration in seconds.",
			Buckets: fastHistogramBucketsSecs,
		},
		[]string{"event_type", "status", "retry"},
	)

	anomaliesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accounting_anomalies_total",
			Help: "Recoverable accounting anomalies by kind",
		},
		[]string{"kind"},
	)

	usageFailuresCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "usage_aggregation_failures_total",
			Help: "Events whose usage statistics could not be aggregated",
		},
	)

	priceSourceCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_source_requests_total",
			Help: "Price lookups by source and outcome",
		},
		[]string{"source", "status"},
	)

	lastProcessedBlockGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "last_processed_block",
			Help: "Last execution layer block fully processed",
		},
	)

	chainHeadGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chain_head_block",
			Help: "Last value of chain head retrieved",
		},
	)

	totalPooledEtherGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "total_pooled_ether",
			Help: "Pooled ether in ether units, after the last processed event",
		},
	)

	totalSharesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "total_shares",
			Help: "Share supply in whole shares, after the last processed event",
		},
	)

	finalizedRewardsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "finalized_rewards_total",
			Help: "Number of rebase reward events finalized",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	allCollectors = []prometheus.Collector{
		ethClientLatency,
		queueSendErrorCounter,
		pollerDurationHistogram,
		eventProcessingDuration,
		anomaliesCounter,
		usageFailuresCounter,
		priceSourceCounter,
		lastProcessedBlockGauge,
		chainHeadGauge,
		totalPooledEtherGauge,
		totalSharesGauge,
		finalizedRewardsCounter,
		dbLatency,
	}
}

// registerMetrics registers the Prometheus metrics.
func registerMetrics() {
	prometheus.MustRegister(allCollectors...)
}

func RecordEthClientLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	ethClientLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordEventProcessingDuration(d time.Duration, eventType string, retry int, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	retryStr := strconv.Itoa(retry)

	eventProcessingDuration.WithLabelValues(eventType, status.String(), retryStr).Observe(d.Seconds())
}

func IncAnomaly(kind string) {
	anomaliesCounter.WithLabelValues(kind).Inc()
}

func IncUsageFailures() {
	usageFailuresCounter.Inc()
}

func RecordPriceSourceOutcome(source string, outcome Outcome) {
	priceSourceCounter.WithLabelValues(source, outcome.String()).Inc()
}

func RecordLastProcessedBlock(block uint64) {
	lastProcessedBlockGauge.Set(float64(block))
}

func RecordChainHead(block uint64) {
	chainHeadGauge.Set(float64(block))
}

// RecordTotals exposes totals in whole ether and whole shares.
func RecordTotals(pooledEther, shares float64) {
	totalPooledEtherGauge.Set(pooledEther)
	totalSharesGauge.Set(shares)
}

func IncFinalizedRewards() {
	finalizedRewardsCounter.Inc()
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
