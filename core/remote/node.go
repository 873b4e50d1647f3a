package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/coerce-go/core/actor"
	"github.com/codewandler/coerce-go/core/codec"
	"github.com/codewandler/coerce-go/core/transport"
)

type (
	NodeOptions struct {
		Log       *slog.Logger
		NodeID    string
		Transport transport.ServerTransport
		// Actors is where inbound messages are delivered. Defaults to
		// actor.Default().
		Actors *actor.ActorContext
		// Handler resolves handler names. Required.
		Handler *actor.Ref[*Handler]
		// Registry answers node info requests. One is spawned when nil.
		Registry *actor.Ref[*Registry]
		Metrics  RemoteMetrics
	}

	// Node receives envelopes addressed to its id and feeds them to local
	// actors through the registered handlers.
	Node struct {
		log      *slog.Logger
		nodeID   string
		t        transport.ServerTransport
		actx     *actor.ActorContext
		handler  *actor.Ref[*Handler]
		registry *actor.Ref[*Registry]
		metrics  RemoteMetrics
		active   atomic.Int64

		mu  sync.Mutex
		sub transport.Subscription
	}
)

func NewNode(ctx context.Context, opts NodeOptions) (*Node, error) {
	if opts.Transport == nil {
		return nil, errors.New("remote: NodeOptions.Transport is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("remote: NodeOptions.Handler is required")
	}

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	nodeID := opts.NodeID
	if nodeID == "" {
		nodeID = fmt.Sprintf("node-%s", gonanoid.Must(6))
	}
	actx := opts.Actors
	if actx == nil {
		actx = actor.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = NopRemoteMetrics()
	}

	registry := opts.Registry
	if registry == nil {
		var err error
		if registry, err = NewRegistry(ctx, actx, nodeID); err != nil {
			return nil, fmt.Errorf("spawn registry: %w", err)
		}
	}

	return &Node{
		log:      log.With(slog.String("node", nodeID)),
		nodeID:   nodeID,
		t:        opts.Transport,
		actx:     actx,
		handler:  opts.Handler,
		registry: registry,
		metrics:  m,
	}, nil
}

func (n *Node) ID() string                        { return n.nodeID }
func (n *Node) Registry() *actor.Ref[*Registry]   { return n.registry }
func (n *Node) Handler() *actor.Ref[*Handler]     { return n.handler }
func (n *Node) ActorContext() *actor.ActorContext { return n.actx }

// Run subscribes the node to its transport. It returns once subscribed;
// delivery stops when ctx is done or Close is called.
func (n *Node) Run(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sub != nil {
		return errors.New("remote: node already running")
	}

	sub, err := n.t.SubscribeNode(ctx, n.nodeID, n.handleMsg)
	if err != nil {
		return fmt.Errorf("subscribe node %s: %w", n.nodeID, err)
	}
	n.sub = sub
	n.log.Info("node running")
	return nil
}

func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sub == nil {
		return nil
	}
	err := n.sub.Unsubscribe()
	n.sub = nil
	return err
}

func (n *Node) handleMsg(ctx context.Context, env transport.Envelope) (data []byte, err error) {
	n.log.Debug(
		"handle",
		slog.Group(
			"envelope",
			slog.String("handler", env.Handler),
			slog.String("actor", env.ActorID),
			slog.Any("headers", env.Headers),
		),
	)

	n.metrics.HandlersActive(n.nodeID, int(n.active.Add(1)))
	defer func() { n.metrics.HandlersActive(n.nodeID, int(n.active.Add(-1))) }()

	defer n.metrics.HandlerDuration(env.Handler).ObserveDuration()
	defer func() {
		n.metrics.HandlerCompleted(env.Handler, err == nil)
		if err != nil {
			n.log.Error(
				"failed to handle message",
				slog.String("handler", env.Handler),
				slog.String("actor", env.ActorID),
				slog.Any("error", err),
			)
		}
	}()

	name, _ := env.GetHeader(transport.HeaderCodec)
	c, err := codec.ByName(name)
	if err != nil {
		return nil, err
	}

	if env.Handler == NodeInfoRequest {
		info, err := actor.Send[NodeInfo](ctx, n.registry, GetNodeInfo{})
		if err != nil {
			return nil, err
		}
		return c.Marshal(info)
	}

	h, ok := GetHandler(ctx, n.handler, env.Handler)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrHandlerNotFound, env.Handler)
	}

	target, ok := n.actx.Lookup(ctx, actor.ActorID(env.ActorID))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActorNotFound, env.ActorID)
	}

	return h.Handle(ctx, target, env.Data, c)
}
