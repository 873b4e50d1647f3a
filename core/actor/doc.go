// Package actor provides a mailbox-based actor runtime.
//
// An actor is any Go value (usually a pointer to a struct) whose state is
// only ever touched by its own goroutine. Other code talks to it through a
// [Ref], which enqueues messages onto the actor's mailbox. Messages are
// handled one at a time, in the order they were enqueued.
//
// # Messages
//
// A message type declares how actors of a given type handle it by
// implementing [Message]:
//
//	type GetStatus struct{}
//
//	func (GetStatus) Handle(hc actor.HandlerCtx, a *Device) (Status, error) {
//	    return a.status, nil
//	}
//
// The result type is part of the message's contract, so callers get it back
// without casting:
//
//	status, err := actor.Send[Status](ctx, ref, GetStatus{})
//
// Use [Notify] for fire-and-forget delivery and [Exec] to run a closure on
// the actor's goroutine.
//
// # Spawning and Lookup
//
// Actors live in an [ActorContext], which wraps a [Scheduler]. The scheduler
// is an actor too: registration, lookup and removal are messages on its
// mailbox, so the id → mailbox table needs no lock.
//
//	actx := actor.NewContext(actor.Options{})
//	ref, err := actor.NewActor(ctx, actx, &Device{})
//	same, ok := actor.GetActor[*Device](ctx, actx, ref.ID())
//	removed, ok := actor.RemoveActor[*Device](ctx, actx, ref.ID())
//
// [Default] returns a process-wide context created on first use. Prefer
// passing an explicit context; use [NewContext] to isolate tests.
//
// # Lifecycle
//
// Every actor moves through [StatusStarting], [StatusStarted],
// [StatusStopping] and [StatusStopped], never backwards. Actors may implement
// [Starter] and [Stopper] to hook into the transitions. A failing Started
// hook makes [NewActor] return [ErrActorUnavailable].
//
// # Errors
//
//   - [ErrActorUnavailable]: the mailbox is closed or the actor stopped
//     before replying
//   - [ErrSelfRequest]: a handler tried to wait for its own actor
//   - [ErrHandlerPanic]: the handler panicked; the actor keeps running
//
// A caller that gives up (its ctx is done) never affects the actor: the
// handler finishes and its reply is dropped.
package actor
