package remote

import "errors"

var (
	// ErrDuplicateHandler is returned by NewHandler when two registrations
	// share a name or an (actor, message) type pair.
	ErrDuplicateHandler = errors.New("duplicate remote handler")

	ErrHandlerNotFound   = errors.New("remote handler not found")
	ErrActorNotFound     = errors.New("actor not found")
	ErrActorTypeMismatch = errors.New("actor type does not match handler")

	// ErrNameNotRegistered is returned when sending a message type that no
	// registration covers for the target actor type.
	ErrNameNotRegistered = errors.New("no remote handler name for message type")
)
