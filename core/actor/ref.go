package actor

import (
	"context"
	"fmt"
)

type (
	// Ref is a handle to one actor's mailbox. It is safe to share and use
	// from any number of goroutines; it never exposes the actor's state.
	Ref[A any] struct {
		c *cell[A]
	}

	// AnyRef is the untyped view of a *Ref[A].
	AnyRef interface {
		ID() ActorID
		Status() ActorStatus
		Done() <-chan struct{}
		Stop()
	}
)

func (r *Ref[A]) ID() ActorID         { return r.c.id }
func (r *Ref[A]) Status() ActorStatus { return r.c.status.load() }
func (r *Ref[A]) String() string      { return "actor:" + string(r.c.id) }

// Done is closed once the actor has stopped.
func (r *Ref[A]) Done() <-chan struct{} { return r.c.done }

// Stop asks the actor to stop and returns immediately. Messages still queued
// are not handled; their senders get ErrActorUnavailable.
func (r *Ref[A]) Stop() { r.c.requestStop() }

var _ AnyRef = (*Ref[any])(nil)

// Send delivers msg to the actor behind ref and waits for the result.
//
// If ctx is done before the reply arrives the handler still runs to
// completion and its result is discarded.
//
//	status, err := actor.Send[Status](ctx, ref, GetStatus{})
func Send[R any, A any, M Message[A, R]](ctx context.Context, ref *Ref[A], msg M) (out R, err error) {
	if ref == nil {
		return out, ErrActorUnavailable
	}
	if isSelf(ctx, ref.c.id) {
		return out, ErrSelfRequest
	}

	replyCh := make(chan reply[R], 1)
	if err = ref.c.enqueue(ctx, newActorMessage[A, R](msg, replyCh)); err != nil {
		return out, err
	}

	select {
	case rep := <-replyCh:
		return rep.val, rep.err
	case <-ctx.Done():
		return out, fmt.Errorf("awaiting reply: %w", ctx.Err())
	case <-ref.c.done:
		// the reply may have been written just before the actor stopped
		select {
		case rep := <-replyCh:
			return rep.val, rep.err
		default:
			return out, ErrActorUnavailable
		}
	}
}

// Notify enqueues msg without waiting for it to be handled.
func Notify[R any, A any, M Message[A, R]](ctx context.Context, ref *Ref[A], msg M) error {
	if ref == nil {
		return ErrActorUnavailable
	}
	return ref.c.enqueue(ctx, newActorMessage[A, R](msg, nil))
}

// Exec runs f on the actor's goroutine, like a message with an inline handler.
func Exec[R any, A any](ctx context.Context, ref *Ref[A], f func(hc HandlerCtx, a A) (R, error)) (R, error) {
	return Send[R](ctx, ref, funcMsg[A, R](f))
}
