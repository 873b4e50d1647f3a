// Package prometheus implements the actor and remote metrics ports with
// Prometheus collectors.
package prometheus

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/coerce-go/core/metrics"
)

// newTimer observes elapsed seconds into h. prometheus.Observer already
// satisfies metrics.Histogram.
func newTimer(h prometheus.Observer) metrics.Timer { return metrics.NewTimer(h) }

// Default histogram buckets for latency metrics (in seconds).
var defaultBuckets = []float64{
	.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5,
}

func boolToStr(b bool) string { return strconv.FormatBool(b) }

// AllMetrics holds both metric sets, registered on one registerer.
type AllMetrics struct {
	Actor  *actorMetrics
	Remote *remoteMetrics
}

func NewAllMetrics(reg prometheus.Registerer) *AllMetrics {
	return &AllMetrics{
		Actor:  NewActorMetrics(reg).(*actorMetrics),
		Remote: NewRemoteMetrics(reg).(*remoteMetrics),
	}
}
