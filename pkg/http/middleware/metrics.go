package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	applogger "CosmicOptic/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics holds request collectors registered on one registry.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewHTTPMetrics registers the collectors on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	f := promauto.With(reg)
	return &HTTPMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cosmicoptic",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route template, method and status.",
		}, []string{"route", "method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cosmicoptic",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			// the demo delay puts most analyses around 1.5s
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 1.5, 2, 3, 5, 10},
		}, []string{"route", "method", "class"}),
		size: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cosmicoptic",
			Name:      "http_response_size_bytes",
			Help:      "HTTP response body size.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"route", "class"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "cosmicoptic",
			Name:      "http_in_flight_requests",
			Help:      "Requests currently being served.",
		}),
	}
}

// Middleware labels by Echo's route template, so it must run after routing
// (Use, not Pre). 5xx responses are logged as errors and requests slower
// than slow as warnings.
func (m *HTTPMetrics) Middleware(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()
			start := time.Now()

			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			code := responseStatus(c, err)
			class := statusClass(code)
			took := time.Since(start)
			method := c.Request().Method

			m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
			m.duration.WithLabelValues(route, method, class).Observe(took.Seconds())
			m.size.WithLabelValues(route, class).Observe(float64(c.Response().Size))

			switch {
			case code >= http.StatusInternalServerError:
				l.Error("http request failed",
					applogger.String("route", route),
					applogger.Int("status", code),
					applogger.Duration("duration_ms", took),
				)
			case slow > 0 && took >= slow:
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.Int("status", code),
					applogger.Duration("duration_ms", took),
				)
			}
			return err
		}
	}
}

// responseStatus is the status the client will see, including errors that
// Echo's error handler has not written yet.
func responseStatus(c echo.Context, err error) int {
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he.Code
		}
		return http.StatusInternalServerError
	}
	if c.IsWebSocket() && !c.Response().Committed {
		return http.StatusSwitchingProtocols
	}
	return c.Response().Status
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "5xx"
	}
	return strconv.Itoa(code/100) + "xx"
}
