package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "library"

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	IssuesCreated   prometheus.Counter
	IssuesReturned  prometheus.Counter
	FinesCharged    prometheus.Counter
	RemindersSent   prometheus.Counter
	RemindersFailed *prometheus.CounterVec
	HTTPRequests    *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IssuesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_created_total",
			Help:      "Books issued to students.",
		}),
		IssuesReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_returned_total",
			Help:      "Books returned.",
		}),
		FinesCharged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fines_charged_total",
			Help:      "Sum of late fines frozen at return, in currency units.",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Overdue reminders accepted by the SMS gateway.",
		}),
		RemindersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_failed_total",
			Help:      "Overdue reminders that could not be delivered.",
		}, []string{"cause"}),
		HTTPRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.IssuesCreated,
		m.IssuesReturned,
		m.FinesCharged,
		m.RemindersSent,
		m.RemindersFailed,
		m.HTTPRequests,
	)
	return m
}

// Middleware observes request latency keyed by the matched route pattern.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// NewUnregistered creates collectors on a private registry, for callers that
// do not export metrics.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
