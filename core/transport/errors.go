package transport

import "errors"

var (
	ErrTransportClosed = errors.New("transport closed")
	ErrNoSubscriber    = errors.New("no subscriber for node")

	ErrEnvelopeExpired = errors.New("envelope TTL expired")
	ErrReservedHeader  = errors.New("cannot set reserved header")

	ErrHandlerTimeout = errors.New("handler exceeded deadline")
)
