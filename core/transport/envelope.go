package transport

import (
	"strings"
	"time"
)

const (
	// HeaderCodec names the codec of Data and of the response payload.
	HeaderCodec = "x-coerce-codec"

	reservedPrefix = "x-coerce-"
)

// Envelope is one request on the wire.
type Envelope struct {
	// Node is the id of the node that should handle the request.
	Node string `json:"node" msgpack:"node"`
	// Handler is a remote handler name, or a built-in request such as
	// "coerce.node.info".
	Handler string `json:"handler" msgpack:"handler"`
	// ActorID is the target actor on Node. Built-in requests leave it empty.
	ActorID string            `json:"actor_id,omitempty" msgpack:"actor_id,omitempty"`
	Data    []byte            `json:"data" msgpack:"data"`
	ReplyTo string            `json:"reply_to,omitempty" msgpack:"reply_to,omitempty"`
	Headers map[string]string `json:"headers,omitempty" msgpack:"headers,omitempty"`

	TTLMs       int64 `json:"ttl_ms,omitempty" msgpack:"ttl_ms,omitempty"`
	CreatedAtMs int64 `json:"created_at_ms,omitempty" msgpack:"created_at_ms,omitempty"`
}

type EnvelopeOption func(*Envelope)

func WithHeader(key, value string) EnvelopeOption {
	return func(e *Envelope) {
		if e.Headers == nil {
			e.Headers = make(map[string]string)
		}
		e.Headers[key] = value
	}
}

// WithTTL drops the request on the receiving side once ttl has passed
// since it was sent.
func WithTTL(ttl time.Duration) EnvelopeOption {
	return func(e *Envelope) { e.TTLMs = ttl.Milliseconds() }
}

func (e Envelope) GetHeader(key string) (string, bool) {
	if e.Headers == nil {
		return "", false
	}
	v, ok := e.Headers[key]
	return v, ok
}

// Validate rejects headers in the reserved x-coerce- namespace, except the
// ones a sender is expected to set.
func (e Envelope) Validate() error {
	for k := range e.Headers {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, reservedPrefix) && lk != HeaderCodec {
			return ErrReservedHeader
		}
	}
	return nil
}

// stamp records the send time for envelopes with a TTL.
func (e *Envelope) stamp() {
	if e.TTLMs > 0 && e.CreatedAtMs == 0 {
		e.CreatedAtMs = time.Now().UnixMilli()
	}
}

// Expired reports whether the TTL has passed. Envelopes without a TTL or
// send time never expire.
func (e Envelope) Expired() bool {
	if e.TTLMs <= 0 || e.CreatedAtMs <= 0 {
		return false
	}
	return time.Now().UnixMilli() > e.CreatedAtMs+e.TTLMs
}

// TTL returns the time left, or 0 when there is no TTL or it has passed.
func (e Envelope) TTL() time.Duration {
	if e.TTLMs <= 0 || e.CreatedAtMs <= 0 {
		return 0
	}
	left := time.Duration(e.CreatedAtMs+e.TTLMs-time.Now().UnixMilli()) * time.Millisecond
	if left < 0 {
		return 0
	}
	return left
}

// Prepare validates env and stamps it for sending. Transports call it at
// the start of Request.
func Prepare(env *Envelope) error {
	if err := env.Validate(); err != nil {
		return err
	}
	env.stamp()
	if env.Expired() {
		return ErrEnvelopeExpired
	}
	return nil
}
