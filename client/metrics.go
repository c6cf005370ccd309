package client

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
)

const metricsNamespace = "bigfish_gateway"

type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the request counters with reg.
func NewMetrics(reg prometheus.Registerer) (out *Metrics, err error) {
	out = &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Requests sent to the payment gateway by transport, method and outcome.",
		}, []string{"transport", "method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent waiting on the payment gateway.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300, 600},
		}, []string{"transport", "method"}),
	}
	for _, c := range []prometheus.Collector{out.requests, out.duration} {
		if err = reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register gateway metrics")
		}
	}
	return
}

// Requests exposes the request counter, labelled transport, method, outcome.
func (m *Metrics) Requests() *prometheus.CounterVec {
	return m.requests
}

// outcome is the result code of a reply or the kind of the error.
func outcome(res api.Envelope, err error) string {
	var apiErr *api.Error
	if err == nil {
		if code := res.ResultCode(); code != "" {
			return code.String()
		}
		return "UNKNOWN"
	} else if errors.As(err, &apiErr) {
		return string(apiErr.Kind)
	}
	return "error"
}

func (m *Metrics) observe(transport string, method api.Method, started time.Time, res api.Envelope, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(transport, method.String(), outcome(res, err)).Inc()
	m.duration.WithLabelValues(transport, method.String()).Observe(time.Since(started).Seconds())
}
