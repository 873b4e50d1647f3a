package actor

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

type (
	// ActorID identifies a registered actor for its whole life.
	ActorID string

	// Starter is implemented by actors that need setup before their first
	// message. A non-nil error aborts the registration with ErrActorUnavailable.
	Starter interface {
		Started(hc HandlerCtx) error
	}

	// Stopper is implemented by actors that release resources on shutdown.
	// Stopped runs on the actor's goroutine after its last message.
	Stopper interface {
		Stopped(hc HandlerCtx)
	}

	OnPanic func(recovered any, stack []byte, msg any)
)

func (id ActorID) String() string { return string(id) }

func newActorID() ActorID { return ActorID(uuid.NewString()) }

// ActorStatus is the lifecycle phase of an actor.
type ActorStatus int32

const (
	StatusStarting ActorStatus = iota
	StatusStarted
	StatusStopping
	StatusStopped
)

func (s ActorStatus) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusStarted:
		return "started"
	case StatusStopping:
		return "stopping"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// status only ever moves forward.
type status struct{ v atomic.Int32 }

func (s *status) load() ActorStatus { return ActorStatus(s.v.Load()) }

func (s *status) advance(next ActorStatus) bool {
	for {
		cur := s.v.Load()
		if int32(next) <= cur {
			return false
		}
		if s.v.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}

type Options struct {
	MailboxSize int
	// Context is the parent of every actor context. Cancelling it stops all
	// actors created with these options.
	Context context.Context
	Logger  *slog.Logger
	OnPanic OnPanic
	// MaxConcurrentTasks caps the number of tasks run via HandlerCtx.Schedule
	// per actor. If 0 or negative, 32 is used.
	MaxConcurrentTasks int
	Metrics            ActorMetrics
}

func (opt Options) withDefaults() Options {
	if opt.MailboxSize <= 0 {
		opt.MailboxSize = 1024
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.MaxConcurrentTasks <= 0 {
		opt.MaxConcurrentTasks = 32
	}
	if opt.Metrics == nil {
		opt.Metrics = NopActorMetrics()
	}
	if opt.OnPanic == nil {
		log := opt.Logger
		opt.OnPanic = func(recovered any, stack []byte, msg any) {
			log.Error("actor panicked", slog.Any("recovered", recovered), slog.String("stack", string(stack)), slog.Any("msg", msg))
		}
	}
	return opt
}
