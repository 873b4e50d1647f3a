package actor

import "runtime/debug"

// envelope is the element type of a mailbox. It hides the concrete message
// type while still invoking that message's handler.
type envelope[A any] interface {
	msgType() string
	invoke(hc HandlerCtx, a A) (panicked *PanicError, err error)
}

type reply[R any] struct {
	val R
	err error
}

// actorMessage pairs one message with its single-use reply channel.
// Both are taken by the first invoke.
type actorMessage[A any, R any, M Message[A, R]] struct {
	msg   *M
	reply chan<- reply[R]
	mt    string
}

// newActorMessage wraps msg. replyCh must be buffered (cap >= 1) or nil when
// nobody waits for the result.
func newActorMessage[A any, R any, M Message[A, R]](msg M, replyCh chan<- reply[R]) *actorMessage[A, R, M] {
	return &actorMessage[A, R, M]{msg: &msg, reply: replyCh, mt: msgTypeOf(msg)}
}

func (m *actorMessage[A, R, M]) msgType() string { return m.mt }

// invoke runs the handler and delivers its result. err is the handler's
// error or ErrMessageConsumed; panicked is set when the handler panicked.
func (m *actorMessage[A, R, M]) invoke(hc HandlerCtx, a A) (panicked *PanicError, err error) {
	if m.msg == nil {
		return nil, ErrMessageConsumed
	}
	msg, replyCh := *m.msg, m.reply
	m.msg, m.reply = nil, nil

	defer func() {
		if r := recover(); r != nil {
			panicked = &PanicError{Recovered: r, Stack: debug.Stack()}
			m.deliver(replyCh, reply[R]{err: panicked})
			err = panicked
		}
	}()

	res, err := msg.Handle(hc, a)
	m.deliver(replyCh, reply[R]{val: res, err: err})
	return nil, err
}

// deliver never blocks: the channel is buffered and written once. If the
// caller stopped listening the value is simply never read.
func (m *actorMessage[A, R, M]) deliver(ch chan<- reply[R], r reply[R]) {
	if ch == nil {
		return
	}
	select {
	case ch <- r:
	default:
	}
}
