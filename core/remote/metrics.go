package remote

import "github.com/codewandler/coerce-go/core/metrics"

// RemoteMetrics records the outbound and inbound remote paths.
// Implementations must be safe for concurrent use.
type RemoteMetrics interface {
	// client side
	RequestDuration(handler string) metrics.Timer
	RequestCompleted(handler string, success bool)
	// TransportError is labelled no_subscriber, timeout, ttl_expired or closed.
	TransportError(errorType string)
	NameLookup(cached bool)

	// node side
	HandlerDuration(handler string) metrics.Timer
	HandlerCompleted(handler string, success bool)
	HandlersActive(nodeID string, n int)
}

type nopRemoteMetrics struct{}

func (nopRemoteMetrics) RequestDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopRemoteMetrics) RequestCompleted(string, bool)        {}
func (nopRemoteMetrics) TransportError(string)                {}
func (nopRemoteMetrics) NameLookup(bool)                      {}
func (nopRemoteMetrics) HandlerDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopRemoteMetrics) HandlerCompleted(string, bool)        {}
func (nopRemoteMetrics) HandlersActive(string, int)           {}

func NopRemoteMetrics() RemoteMetrics { return nopRemoteMetrics{} }
