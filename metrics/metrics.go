package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seikatsu",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seikatsu",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	xpMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seikatsu",
			Subsystem: "xp",
			Name:      "points_total",
			Help:      "XP points moved by the ledger.",
		},
		[]string{"direction"},
	)

	levelUps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seikatsu",
			Subsystem: "xp",
			Name:      "level_ups_total",
			Help:      "Level-up transitions.",
		},
		[]string{"scope"},
	)

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seikatsu",
			Subsystem: "notifications",
			Name:      "failures_total",
			Help:      "Notifications that could not be delivered or queued.",
		},
		[]string{"kind"},
	)

	postCommitFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seikatsu",
			Subsystem: "activity",
			Name:      "post_commit_failures_total",
			Help:      "Follow-up steps that failed after an award was committed.",
		},
		[]string{"step"},
	)

	notificationsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "seikatsu",
			Subsystem: "notifications",
			Name:      "published_total",
			Help:      "Notifications published to the broker.",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		xpMoved,
		levelUps,
		notificationFailures,
		postCommitFailures,
		notificationsPublished,
	)
}

// Handler exposes the registry for fiber
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency by route pattern
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		httpRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

func RecordXP(added, deducted int64) {
	if added > 0 {
		xpMoved.WithLabelValues("gain").Add(float64(added))
	}
	if deducted > 0 {
		xpMoved.WithLabelValues("deduct").Add(float64(deducted))
	}
}

func RecordLevelUp(scope string) {
	levelUps.WithLabelValues(scope).Inc()
}

func RecordNotificationFailure(kind string) {
	notificationFailures.WithLabelValues(kind).Inc()
}

func RecordNotificationPublished() {
	notificationsPublished.Inc()
}

func RecordPostCommitFailure(step string) {
	postCommitFailures.WithLabelValues(step).Inc()
}
