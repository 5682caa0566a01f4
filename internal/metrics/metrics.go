// Package metrics exposes Prometheus collectors for admissions and HTTP traffic.
package metrics

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hotel"

// Metrics holds the collectors.  A nil *Metrics is valid and records nothing.
type Metrics struct {
    admissions   *prometheus.CounterVec
    events       *prometheus.CounterVec
    httpRequests *prometheus.CounterVec
    httpDuration *prometheus.HistogramVec
    httpInFlight prometheus.Gauge
    gatherer     prometheus.Gatherer
}

// New registers the collectors on reg.  Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
    f := promauto.With(reg)
    return &Metrics{
        admissions: f.NewCounterVec(prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "admissions_total",
            Help:      "Reservation admission decisions by outcome.",
        }, []string{"outcome"}),
        events: f.NewCounterVec(prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "reservation_events_total",
            Help:      "Reservation events handed to the broker.",
        }, []string{"type", "result"}),
        httpRequests: f.NewCounterVec(prometheus.CounterOpts{
            Namespace: namespace,
            Name:      "http_requests_total",
            Help:      "Total number of HTTP requests.",
        }, []string{"method", "path", "status"}),
        httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
            Namespace: namespace,
            Name:      "http_request_duration_seconds",
            Help:      "HTTP request duration in seconds.",
            Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
        }, []string{"method", "path"}),
        httpInFlight: f.NewGauge(prometheus.GaugeOpts{
            Namespace: namespace,
            Name:      "http_requests_in_flight",
            Help:      "Requests currently being served.",
        }),
        gatherer: reg,
    }
}

// Admission counts one admission decision.
func (m *Metrics) Admission(outcome string) {
    if m == nil {
        return
    }
    m.admissions.WithLabelValues(outcome).Inc()
}

// Event counts one publish attempt.
func (m *Metrics) Event(eventType string, err error) {
    if m == nil {
        return
    }
    result := "ok"
    if err != nil {
        result = "error"
    }
    m.events.WithLabelValues(eventType, result).Inc()
}

// Middleware records request count, latency and in-flight requests.  The
// route pattern (c.Path()) is used as label to keep cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if m == nil {
                return next(c)
            }
            m.httpInFlight.Inc()
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            m.httpInFlight.Dec()
            path := c.Path()
            if path == "" {
                path = "unmatched"
            }
            status := strconv.Itoa(c.Response().Status)
            m.httpRequests.WithLabelValues(c.Request().Method, path, status).Inc()
            m.httpDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
            return nil
        }
    }
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() echo.HandlerFunc {
    return echo.WrapHandler(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}
