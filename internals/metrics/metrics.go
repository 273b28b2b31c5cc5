// Package metrics: counter/gauge Prometheus untuk pipeline absensi.
// Diekspos di GET /metrics (lihat route).
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_sessions_created_total",
		Help: "Total attendance sessions created",
	})

	RecordsMarkedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_records_marked_total",
		Help: "Total attendance records written by mark calls, by status",
	}, []string{"status"})

	EditsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_edits_total",
		Help: "Total attendance corrections recorded in the audit ledger",
	})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_notifications_total",
		Help: "Notification deliveries by channel (realtime, push, email) and result",
	}, []string{"channel", "result"})

	RealtimeClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_clients",
		Help: "Connected websocket clients",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "code"})
)

func RecordNotification(channel string, ok bool, n int) {
	if n <= 0 {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	NotificationsTotal.WithLabelValues(channel, result).Add(float64(n))
}

// Middleware: latency per route pattern (bukan path mentah, supaya label tidak meledak).
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := "unknown"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		code := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			} else {
				code = fiber.StatusInternalServerError
			}
		}
		HTTPRequestDuration.
			WithLabelValues(c.Method(), route, strconv.Itoa(code)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
