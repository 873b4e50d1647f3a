package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/coerce-go/core/actor"
	"github.com/codewandler/coerce-go/core/metrics"
)

type actorMetrics struct {
	messageDuration *prometheus.HistogramVec
	messagesTotal   *prometheus.CounterVec
	panicTotal      *prometheus.CounterVec
	mailboxDepth    *prometheus.GaugeVec
	actorsLive      prometheus.Gauge
	actorsStarted   *prometheus.CounterVec
	tasksInflight   *prometheus.GaugeVec
	taskDuration    prometheus.Histogram
	tasksTotal      *prometheus.CounterVec
}

func NewActorMetrics(reg prometheus.Registerer) actor.ActorMetrics {
	m := &actorMetrics{
		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coerce_actor_message_duration_seconds",
			Help:    "Message handling time in seconds",
			Buckets: defaultBuckets,
		}, []string{"message_type"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coerce_actor_messages_total",
			Help: "Total number of messages processed",
		}, []string{"message_type", "success"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coerce_actor_panics_total",
			Help: "Total number of handler panics",
		}, []string{"message_type"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coerce_actor_mailbox_depth",
			Help: "Current mailbox queue depth",
		}, []string{"actor_id"}),

		actorsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coerce_actor_live",
			Help: "Number of actors registered with the scheduler",
		}),

		actorsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coerce_actor_starts_total",
			Help: "Total number of actor starts",
		}, []string{"success"}),

		tasksInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coerce_actor_tasks_inflight",
			Help: "Number of concurrent scheduled tasks",
		}, []string{"actor_id"}),

		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coerce_actor_task_duration_seconds",
			Help:    "Scheduled task duration in seconds",
			Buckets: defaultBuckets,
		}),

		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coerce_actor_tasks_total",
			Help: "Total number of scheduled tasks completed",
		}, []string{"success"}),
	}

	reg.MustRegister(
		m.messageDuration,
		m.messagesTotal,
		m.panicTotal,
		m.mailboxDepth,
		m.actorsLive,
		m.actorsStarted,
		m.tasksInflight,
		m.taskDuration,
		m.tasksTotal,
	)

	return m
}

func (m *actorMetrics) MessageDuration(msgType string) metrics.Timer {
	return newTimer(m.messageDuration.WithLabelValues(msgType))
}

func (m *actorMetrics) MessageProcessed(msgType string, success bool) {
	m.messagesTotal.WithLabelValues(msgType, boolToStr(success)).Inc()
}

func (m *actorMetrics) MessagePanic(msgType string) {
	m.panicTotal.WithLabelValues(msgType).Inc()
}

func (m *actorMetrics) MailboxDepth(actorID string, depth int) {
	m.mailboxDepth.WithLabelValues(actorID).Set(float64(depth))
}

func (m *actorMetrics) ActorsLive(count int) {
	m.actorsLive.Set(float64(count))
}

func (m *actorMetrics) ActorStarted(success bool) {
	m.actorsStarted.WithLabelValues(boolToStr(success)).Inc()
}

func (m *actorMetrics) TasksInflight(actorID string, count int) {
	m.tasksInflight.WithLabelValues(actorID).Set(float64(count))
}

func (m *actorMetrics) TaskDuration() metrics.Timer {
	return newTimer(m.taskDuration)
}

func (m *actorMetrics) TaskCompleted(success bool) {
	m.tasksTotal.WithLabelValues(boolToStr(success)).Inc()
}

var _ actor.ActorMetrics = (*actorMetrics)(nil)
