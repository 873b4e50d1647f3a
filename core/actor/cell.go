package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// cell owns one actor value and the goroutine that drains its mailbox.
type cell[A any] struct {
	id    ActorID
	actor A
	log   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mailbox  chan envelope[A]
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	status  status
	tasks   TaskPool
	metrics ActorMetrics
	onPanic OnPanic

	ref *Ref[A]
}

func newCell[A any](id ActorID, a A, opts Options) *cell[A] {
	ctx, cancel := context.WithCancel(opts.Context)
	log := opts.Logger.With(slog.String("actor", string(id)))

	c := &cell[A]{
		id:      id,
		actor:   a,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		mailbox: make(chan envelope[A], opts.MailboxSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		tasks:   NewTaskPool(ctx, opts.MaxConcurrentTasks, string(id), opts.Metrics, log),
		metrics: opts.Metrics,
		onPanic: opts.OnPanic,
	}
	c.ref = &Ref[A]{c: c}
	return c
}

func (c *cell[A]) requestStop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// enqueue blocks until the envelope is queued, ctx is done or the actor stops.
func (c *cell[A]) enqueue(ctx context.Context, e envelope[A]) error {
	select {
	case <-c.stop:
		return ErrActorUnavailable
	default:
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("send failed: %w", ctx.Err())
	case <-c.stop:
		return ErrActorUnavailable
	case c.mailbox <- e:
		c.metrics.MailboxDepth(string(c.id), len(c.mailbox))
		return nil
	}
}

// run is the actor's goroutine. ack receives exactly one value: nil once the
// actor is started, or the reason it could not start.
func (c *cell[A]) run(actx *ActorContext, ack chan<- error) {
	defer close(c.done)

	hc := &handlerCtx{
		Context: context.WithValue(c.ctx, selfKey{}, c.id),
		id:      c.id,
		status:  &c.status,
		actx:    actx,
		log:     c.log,
		tasks:   c.tasks,
	}

	if err := c.start(hc); err != nil {
		c.requestStop()
		c.status.advance(StatusStopped)
		c.cancel()
		c.metrics.ActorStarted(false)
		c.log.Debug("actor failed to start", slog.Any("error", err))
		ack <- err
		return
	}
	c.status.advance(StatusStarted)
	c.metrics.ActorStarted(true)
	c.log.Debug("actor started")
	ack <- nil

	defer c.shutdown(hc)

	for {
		// a pending stop wins over queued mail
		select {
		case <-c.stop:
			return
		default:
		}

		select {
		case <-c.stop:
			return
		case <-c.ctx.Done():
			return
		case e := <-c.mailbox:
			c.dispatch(hc, e)
		}
	}
}

func (c *cell[A]) start(hc *handlerCtx) (err error) {
	s, ok := any(c.actor).(Starter)
	if !ok {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Recovered: r, Stack: debug.Stack()}
		}
	}()
	return s.Started(hc)
}

func (c *cell[A]) dispatch(hc *handlerCtx, e envelope[A]) {
	mt := e.msgType()

	timer := c.metrics.MessageDuration(mt)
	panicked, err := e.invoke(hc, c.actor)
	timer.ObserveDuration()

	c.metrics.MessageProcessed(mt, err == nil)
	c.metrics.MailboxDepth(string(c.id), len(c.mailbox))

	switch {
	case panicked != nil:
		c.metrics.MessagePanic(mt)
		c.onPanic(panicked.Recovered, panicked.Stack, mt)
	case errors.Is(err, ErrMessageConsumed):
		c.log.Error("envelope dispatched twice", slog.String("msg_type", mt))
	}
}

func (c *cell[A]) shutdown(hc *handlerCtx) {
	c.requestStop()
	c.status.advance(StatusStopping)

	if s, ok := any(c.actor).(Stopper); ok {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.onPanic(r, debug.Stack(), "stopped")
				}
			}()
			s.Stopped(hc)
		}()
	}

	c.cancel()
	c.tasks.Wait()
	c.status.advance(StatusStopped)
	c.log.Debug("actor stopped")
}
