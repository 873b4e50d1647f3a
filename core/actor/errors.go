package actor

import (
	"errors"
	"fmt"
)

var (
	// ErrActorUnavailable is returned when an actor's mailbox is closed,
	// the actor stopped before replying, or its registration failed.
	ErrActorUnavailable = errors.New("actor unavailable")

	// ErrMessageConsumed is returned when an envelope is dispatched twice.
	ErrMessageConsumed = errors.New("message already consumed")

	// ErrSelfRequest is returned when a handler sends to its own actor and
	// waits for the reply, which can never arrive.
	ErrSelfRequest = errors.New("actor cannot send a request to itself")

	// ErrHandlerPanic is wrapped by every [PanicError].
	ErrHandlerPanic = errors.New("handler panicked")
)

// PanicError carries a value recovered from a panicking handler.
type PanicError struct {
	Recovered any
	Stack     []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("%s: %v", ErrHandlerPanic, e.Recovered) }
func (e *PanicError) Unwrap() error { return ErrHandlerPanic }

// unavailable folds any failure into ErrActorUnavailable, keeping the cause.
func unavailable(err error) error {
	if errors.Is(err, ErrActorUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrActorUnavailable, err)
}
