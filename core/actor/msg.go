package actor

import "github.com/codewandler/coerce-go/core/reflector"

// Message is a value that actors of type A know how to handle, producing a
// result of type R.
//
// Handle is the handler statically bound to the (A, message type) pair. It
// runs on the actor's own goroutine with exclusive access to a, so it may
// mutate a freely. A is normally a pointer type.
type Message[A any, R any] interface {
	Handle(hc HandlerCtx, a A) (R, error)
}

// msgTyper lets a message override the label used in logs and metrics.
type msgTyper interface{ MsgType() string }

func msgTypeOf(x any) string {
	if mt, ok := x.(msgTyper); ok {
		return mt.MsgType()
	}
	return reflector.TypeInfoOf(x).Name
}

// funcMsg runs an arbitrary function against the actor. See [Exec].
type funcMsg[A any, R any] func(hc HandlerCtx, a A) (R, error)

func (f funcMsg[A, R]) Handle(hc HandlerCtx, a A) (R, error) { return f(hc, a) }
func (funcMsg[A, R]) MsgType() string                        { return "func" }
