package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/coerce-go/core/metrics"
	"github.com/codewandler/coerce-go/core/remote"
)

type remoteMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
	nameLookups     *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
	handlersTotal   *prometheus.CounterVec
	handlersActive  *prometheus.GaugeVec
}

func NewRemoteMetrics(reg prometheus.Registerer) remote.RemoteMetrics {
	m := &remoteMetrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coerce_remote_request_duration_seconds",
			Help:    "Client request latency in seconds",
			Buckets: defaultBuckets,
		}, []string{"handler"}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coerce_remote_requests_total",
			Help: "Total number of client requests",
		}, []string{"handler", "success"}),

		transportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coerce_remote_transport_errors_total",
			Help: "Total number of transport errors",
		}, []string{"error_type"}),

		nameLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coerce_remote_name_lookups_total",
			Help: "Handler name lookups by the client",
		}, []string{"cached"}),

		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coerce_remote_handler_duration_seconds",
			Help:    "Inbound handler execution time in seconds",
			Buckets: defaultBuckets,
		}, []string{"handler"}),

		handlersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coerce_remote_handlers_total",
			Help: "Total number of inbound messages handled",
		}, []string{"handler", "success"}),

		handlersActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coerce_remote_handlers_active",
			Help: "Number of concurrent inbound handlers",
		}, []string{"node_id"}),
	}

	reg.MustRegister(
		m.requestDuration,
		m.requestsTotal,
		m.transportErrors,
		m.nameLookups,
		m.handlerDuration,
		m.handlersTotal,
		m.handlersActive,
	)

	return m
}

func (m *remoteMetrics) RequestDuration(handler string) metrics.Timer {
	return newTimer(m.requestDuration.WithLabelValues(handler))
}

func (m *remoteMetrics) RequestCompleted(handler string, success bool) {
	m.requestsTotal.WithLabelValues(handler, boolToStr(success)).Inc()
}

func (m *remoteMetrics) TransportError(errorType string) {
	m.transportErrors.WithLabelValues(errorType).Inc()
}

func (m *remoteMetrics) NameLookup(cached bool) {
	m.nameLookups.WithLabelValues(boolToStr(cached)).Inc()
}

func (m *remoteMetrics) HandlerDuration(handler string) metrics.Timer {
	return newTimer(m.handlerDuration.WithLabelValues(handler))
}

func (m *remoteMetrics) HandlerCompleted(handler string, success bool) {
	m.handlersTotal.WithLabelValues(handler, boolToStr(success)).Inc()
}

func (m *remoteMetrics) HandlersActive(nodeID string, n int) {
	m.handlersActive.WithLabelValues(nodeID).Set(float64(n))
}

var _ remote.RemoteMetrics = (*remoteMetrics)(nil)
