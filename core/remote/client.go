package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codewandler/coerce-go/core/actor"
	"github.com/codewandler/coerce-go/core/cache"
	"github.com/codewandler/coerce-go/core/codec"
	"github.com/codewandler/coerce-go/core/reflector"
	"github.com/codewandler/coerce-go/core/sf"
	"github.com/codewandler/coerce-go/core/transport"
)

type ClientOptions struct {
	Log       *slog.Logger
	Transport transport.ClientTransport
	// Handler resolves outgoing message types to wire names. Required.
	Handler *actor.Ref[*Handler]
	// Codec encodes payloads. Defaults to codec.Default.
	Codec codec.Codec
	// NameCacheSize bounds the resolved-name cache. Defaults to 256.
	NameCacheSize int
	// NameCacheTTL expires cached names. Zero keeps them until evicted.
	NameCacheTTL    time.Duration
	EnvelopeOptions []transport.EnvelopeOption
	Metrics         RemoteMetrics
}

// Client sends messages to actors on other nodes.
type Client struct {
	log     *slog.Logger
	t       transport.ClientTransport
	handler *actor.Ref[*Handler]
	codec   codec.Codec
	opts    []transport.EnvelopeOption
	metrics RemoteMetrics

	lru      *cache.LRU
	names    cache.TypedCache[string]
	nameTTL  time.Duration
	inflight *sf.Group[string]
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Transport == nil {
		return nil, errors.New("remote: ClientOptions.Transport is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("remote: ClientOptions.Handler is required")
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}
	m := opts.Metrics
	if m == nil {
		m = NopRemoteMetrics()
	}
	size := opts.NameCacheSize
	if size <= 0 {
		size = 256
	}

	lru := cache.NewLRU(cache.LRUOpts{Size: size})
	return &Client{
		log:      log.With(slog.String("component", "remote_client")),
		t:        opts.Transport,
		handler:  opts.Handler,
		codec:    c,
		opts:     opts.EnvelopeOptions,
		metrics:  m,
		lru:      lru,
		names:    cache.NewTyped[string](lru),
		nameTTL:  opts.NameCacheTTL,
		inflight: sf.New[string](),
	}, nil
}

func (c *Client) Codec() codec.Codec { return c.codec }

// Close releases the name cache. It does not close the transport.
func (c *Client) Close() { c.lru.Close() }

// Request sends raw, already encoded data to handler on node and returns
// the raw reply.
func (c *Client) Request(ctx context.Context, node string, id actor.ActorID, handler string, data []byte, opts ...transport.EnvelopeOption) ([]byte, error) {
	env := transport.Envelope{
		Node:    node,
		Handler: handler,
		ActorID: string(id),
		Data:    data,
	}
	for _, opt := range c.opts {
		opt(&env)
	}
	for _, opt := range opts {
		opt(&env)
	}
	transport.WithHeader(transport.HeaderCodec, c.codec.Name())(&env)

	defer c.metrics.RequestDuration(handler).ObserveDuration()

	res, err := c.t.Request(ctx, env)
	c.metrics.RequestCompleted(handler, err == nil)
	if err != nil {
		c.recordTransportError(err)
		return nil, err
	}
	return res, nil
}

// NodeInfo asks node to describe itself.
func (c *Client) NodeInfo(ctx context.Context, node string) (NodeInfo, error) {
	var info NodeInfo
	res, err := c.Request(ctx, node, "", NodeInfoRequest, nil)
	if err != nil {
		return info, err
	}
	if err := c.codec.Unmarshal(res, &info); err != nil {
		return info, fmt.Errorf("decode node info: %w", err)
	}
	return info, nil
}

// resolve returns the wire name for key, asking the Handler actor at most
// once per key at a time.
func (c *Client) resolve(ctx context.Context, key handlerKey) (string, error) {
	k := key.String()
	if name, ok := c.names.Get(k); ok {
		c.metrics.NameLookup(true)
		return name, nil
	}
	c.metrics.NameLookup(false)

	return c.inflight.DoContext(ctx, k, func() (string, error) {
		// detached from ctx: other callers may be waiting on this lookup
		name, err := lookupName(context.WithoutCancel(ctx), c.handler, key)
		if err != nil {
			return "", err
		}
		if name == "" {
			return "", fmt.Errorf("%w: %s", ErrNameNotRegistered, k)
		}
		c.names.Put(k, name, cache.WithTTL(c.nameTTL))
		return name, nil
	})
}

func (c *Client) recordTransportError(err error) {
	switch {
	case errors.Is(err, transport.ErrNoSubscriber):
		c.metrics.TransportError("no_subscriber")
	case errors.Is(err, transport.ErrHandlerTimeout), errors.Is(err, context.DeadlineExceeded):
		c.metrics.TransportError("timeout")
	case errors.Is(err, transport.ErrEnvelopeExpired):
		c.metrics.TransportError("ttl_expired")
	case errors.Is(err, transport.ErrTransportClosed):
		c.metrics.TransportError("closed")
	}
}

// RemoteRef addresses an actor of type A living on another node.
type RemoteRef[A any] struct {
	c    *Client
	node string
	id   actor.ActorID
}

func Remote[A any](c *Client, node string, id actor.ActorID) *RemoteRef[A] {
	return &RemoteRef[A]{c: c, node: node, id: id}
}

func (r *RemoteRef[A]) ID() actor.ActorID { return r.id }
func (r *RemoteRef[A]) Node() string      { return r.node }

func (r *RemoteRef[A]) String() string {
	return fmt.Sprintf("remote:%s/%s(%s)", r.node, r.id, reflector.TypeInfoFor[A]().Name)
}

// Send encodes msg, delivers it to the actor behind ref and decodes the
// result. Handler errors on the remote side come back as plain errors
// carrying the original message.
func Send[R any, A any, M actor.Message[A, R]](ctx context.Context, ref *RemoteRef[A], msg M, opts ...transport.EnvelopeOption) (out R, err error) {
	name, err := ref.c.resolve(ctx, keyFor[A, M]())
	if err != nil {
		return out, err
	}

	data, err := ref.c.codec.Marshal(msg)
	if err != nil {
		return out, fmt.Errorf("encode %s: %w", name, err)
	}

	res, err := ref.c.Request(ctx, ref.node, ref.id, name, data, opts...)
	if err != nil {
		return out, err
	}

	if err = ref.c.codec.Unmarshal(res, &out); err != nil {
		return out, fmt.Errorf("decode %s result: %w", name, err)
	}
	return out, nil
}
