package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	refreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_dash_refresh_total",
		Help: "Poll cycles by result",
	}, []string{"result"})
	refreshDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sentinel_dash_refresh_duration_seconds",
		Help:    "Wall time of one poll cycle",
		Buckets: prometheus.DefBuckets,
	})
	mutationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_dash_mutations_total",
		Help: "Admin operations by operation and result",
	}, []string{"op", "result"})
	sessionExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_dash_session_expired_total",
		Help: "Sessions ended by an unauthorized response",
	})
	monitorsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sentinel_dash_monitors",
		Help: "Monitors in the current snapshot by state",
	}, []string{"state"})
)

// Register registers Prometheus collectors. Call once per registry.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(refreshTotal, refreshDuration, mutationsTotal, sessionExpiredTotal, monitorsGauge)
}

func ObserveRefresh(err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	refreshTotal.WithLabelValues(result).Inc()
	refreshDuration.Observe(elapsed.Seconds())
}

// ObserveMutation records an admin operation. result is one of success,
// failure, declined.
func ObserveMutation(op, result string) {
	mutationsTotal.WithLabelValues(op, result).Inc()
}

func IncSessionExpired() { sessionExpiredTotal.Inc() }

func SetMonitors(up, down int) {
	monitorsGauge.WithLabelValues("up").Set(float64(up))
	monitorsGauge.WithLabelValues("down").Set(float64(down))
}
