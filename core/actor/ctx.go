package actor

import (
	"context"
	"log/slog"
)

type (
	// HandlerCtx is passed to every handler invocation. It is cancelled when
	// the actor stops.
	HandlerCtx interface {
		context.Context
		ActorID() ActorID
		Status() ActorStatus
		// ActorContext gives handlers access to spawn, lookup and removal.
		ActorContext() *ActorContext
		Log() *slog.Logger
		// Schedule runs f outside the mailbox. The actor waits for scheduled
		// work on shutdown. f must use its ctx argument, not the HandlerCtx,
		// when it sends to its own actor.
		Schedule(f func(ctx context.Context))
	}
)

// selfKey marks contexts derived from a handler so Send can refuse requests
// an actor makes to itself.
type selfKey struct{}

func isSelf(ctx context.Context, id ActorID) bool {
	self, ok := ctx.Value(selfKey{}).(ActorID)
	return ok && self == id
}

type handlerCtx struct {
	context.Context
	id     ActorID
	status *status
	actx   *ActorContext
	log    *slog.Logger
	tasks  TaskPool
}

func (hc *handlerCtx) ActorID() ActorID            { return hc.id }
func (hc *handlerCtx) Status() ActorStatus         { return hc.status.load() }
func (hc *handlerCtx) ActorContext() *ActorContext { return hc.actx }
func (hc *handlerCtx) Log() *slog.Logger           { return hc.log }

func (hc *handlerCtx) Schedule(f func(ctx context.Context)) {
	ctx := context.WithValue(hc.Context, selfKey{}, nil)
	hc.tasks.Schedule(func() { f(ctx) })
}

var _ HandlerCtx = (*handlerCtx)(nil)
