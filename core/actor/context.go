package actor

import (
	"context"
	"errors"
	"sync"
)

// ActorContext is the entry point for spawning, finding and removing actors.
// It wraps one scheduler; copies of the pointer share it.
type ActorContext struct {
	scheduler *Ref[*Scheduler]
	opts      Options
}

var defaultContext = sync.OnceValue(func() *ActorContext {
	return NewContext(Options{})
})

// Default returns the process-wide context, creating it on first use.
func Default() *ActorContext { return defaultContext() }

// NewContext creates a context with its own scheduler, isolated from every
// other context.
func NewContext(opts Options) *ActorContext {
	return FromScheduler(NewScheduler(opts))
}

// FromScheduler binds a context to an existing scheduler.
func FromScheduler(s *Ref[*Scheduler]) *ActorContext {
	return &ActorContext{scheduler: s, opts: s.c.actor.opts}
}

func (c *ActorContext) Scheduler() *Ref[*Scheduler] { return c.scheduler }

// NewActor registers a and starts its mailbox. It fails with
// ErrActorUnavailable when the scheduler cannot be reached, ctx ends first,
// or a's Started hook returns an error.
func NewActor[A any](ctx context.Context, actx *ActorContext, a A) (*Ref[A], error) {
	ack := make(chan error, 1)
	res, err := Send[AnyRef](ctx, actx.scheduler, registerActor{
		start: func(id ActorID) AnyRef {
			c := newCell(id, a, actx.opts)
			go c.run(actx, ack)
			return c.ref
		},
	})
	if err != nil {
		return nil, unavailable(err)
	}
	ref := res.(*Ref[A])

	select {
	case err = <-ack:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		ref.Stop()
		_, _ = actx.Remove(context.WithoutCancel(ctx), ref.ID())
		return nil, unavailable(err)
	}
	return ref, nil
}

// GetActor returns the live actor registered under id, if it is an A.
func GetActor[A any](ctx context.Context, actx *ActorContext, id ActorID) (*Ref[A], bool) {
	res, err := Send[AnyRef](ctx, actx.scheduler, getActor{id: id, match: isRef[A]})
	if err != nil || res == nil {
		return nil, false
	}
	ref, ok := res.(*Ref[A])
	return ref, ok
}

// RemoveActor unregisters and stops the actor under id, returning the
// reference it had. Removing an unknown id, or one that is not an A, does
// nothing.
func RemoveActor[A any](ctx context.Context, actx *ActorContext, id ActorID) (*Ref[A], bool) {
	res, err := Send[AnyRef](ctx, actx.scheduler, removeActor{id: id, match: isRef[A]})
	if err != nil || res == nil {
		return nil, false
	}
	ref, ok := res.(*Ref[A])
	return ref, ok
}

// Lookup is the untyped form of [GetActor].
func (c *ActorContext) Lookup(ctx context.Context, id ActorID) (AnyRef, bool) {
	res, err := Send[AnyRef](ctx, c.scheduler, getActor{id: id})
	if err != nil || res == nil {
		return nil, false
	}
	return res, true
}

// Remove is the untyped form of [RemoveActor].
func (c *ActorContext) Remove(ctx context.Context, id ActorID) (AnyRef, bool) {
	res, err := Send[AnyRef](ctx, c.scheduler, removeActor{id: id})
	if err != nil || res == nil {
		return nil, false
	}
	return res, true
}

// Actors lists the ids currently registered.
func (c *ActorContext) Actors(ctx context.Context) ([]ActorID, error) {
	ids, err := Send[[]ActorID](ctx, c.scheduler, listActors{})
	if err != nil {
		return nil, unavailable(err)
	}
	return ids, nil
}

// Shutdown stops every registered actor and then the scheduler, waiting for
// all of them until ctx is done. The context is unusable afterwards.
func (c *ActorContext) Shutdown(ctx context.Context) error {
	refs, err := Send[[]AnyRef](ctx, c.scheduler, stopAll{})
	if err != nil && !errors.Is(err, ErrActorUnavailable) {
		return err
	}
	c.scheduler.Stop()

	for _, r := range append(refs, c.scheduler) {
		select {
		case <-r.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func isRef[A any](r AnyRef) bool {
	_, ok := r.(*Ref[A])
	return ok
}
