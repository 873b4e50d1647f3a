package actor

import "github.com/codewandler/coerce-go/core/metrics"

// ActorMetrics defines the metrics interface for actors and their scheduler.
// All methods are thread-safe.
type ActorMetrics interface {
	// Message handling
	MessageDuration(msgType string) metrics.Timer
	MessageProcessed(msgType string, success bool)
	MessagePanic(msgType string)

	// Mailbox
	MailboxDepth(actorID string, depth int)

	// Registry
	ActorsLive(count int)
	ActorStarted(success bool)

	// Background tasks scheduled via HandlerCtx.Schedule
	TasksInflight(actorID string, count int)
	TaskDuration() metrics.Timer
	TaskCompleted(success bool)
}

type nopActorMetrics struct{}

func (nopActorMetrics) MessageDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) MessageProcessed(string, bool)        {}
func (nopActorMetrics) MessagePanic(string)                  {}

func (nopActorMetrics) MailboxDepth(string, int) {}

func (nopActorMetrics) ActorsLive(int)    {}
func (nopActorMetrics) ActorStarted(bool) {}

func (nopActorMetrics) TasksInflight(string, int)   {}
func (nopActorMetrics) TaskDuration() metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) TaskCompleted(bool)          {}

// NopActorMetrics returns a no-op ActorMetrics implementation.
func NopActorMetrics() ActorMetrics { return nopActorMetrics{} }
