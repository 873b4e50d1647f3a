package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/codewandler/coerce-go/core/transport"
)

type TransportConfig struct {
	Connect        Connector     // Connect creates the NATS connection. If nil, ConnectDefault() is used.
	Log            *slog.Logger  // Log for diagnostics (optional)
	SubjectPrefix  string        // SubjectPrefix for node subjects, e.g. "coerce" -> coerce.node.<id>
	HandlerTimeout time.Duration // HandlerTimeout bounds each inbound handler call (optional)
}

type Transport struct {
	nc             *natsgo.Conn
	closeNc        closeFunc
	log            *slog.Logger
	prefix         string
	handlerTimeout time.Duration

	mu       sync.Mutex
	subs     map[*natsgo.Subscription]struct{}
	handlers sync.WaitGroup

	closed atomic.Bool
}

func NewTransport(cfg TransportConfig) (*Transport, error) {
	connFn := cfg.Connect
	if connFn == nil {
		connFn = ConnectDefault()
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "coerce"
	}

	nc, closeNc, err := connFn()
	if err != nil {
		return nil, err
	}

	return &Transport{
		nc:             nc,
		closeNc:        closeNc,
		log:            log.With(slog.String("transport", "nats")),
		prefix:         prefix,
		handlerTimeout: cfg.HandlerTimeout,
		subs:           make(map[*natsgo.Subscription]struct{}),
	}, nil
}

// subjectNode returns the subject a node listens on.
func (t *Transport) subjectNode(nodeID string) string {
	return t.prefix + ".node." + nodeID
}

func (t *Transport) Request(ctx context.Context, env transport.Envelope) ([]byte, error) {
	if t.closed.Load() {
		return nil, transport.ErrTransportClosed
	}
	if err := transport.Prepare(&env); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	msg, err := t.nc.RequestWithContext(ctx, t.subjectNode(env.Node), payload)
	switch {
	case errors.Is(err, natsgo.ErrNoResponders):
		return nil, fmt.Errorf("%w: %s", transport.ErrNoSubscriber, env.Node)
	case errors.Is(err, natsgo.ErrConnectionClosed):
		return nil, transport.ErrTransportClosed
	case err != nil:
		return nil, fmt.Errorf("nats: request: %w", err)
	}
	return transport.DecodeResponse(msg.Data)
}

// SubscribeNode joins the queue group of nodeID, so several processes
// serving one node id share its traffic.
func (t *Transport) SubscribeNode(ctx context.Context, nodeID string, h transport.ServerHandlerFunc) (transport.Subscription, error) {
	if t.closed.Load() {
		return nil, transport.ErrTransportClosed
	}
	subj := t.subjectNode(nodeID)

	sub, err := t.nc.QueueSubscribe(subj, nodeID, func(msg *natsgo.Msg) {
		if t.closed.Load() {
			return
		}
		t.handlers.Add(1)
		go func() {
			defer t.handlers.Done()
			t.handleMsg(ctx, h, msg)
		}()
	})
	if err != nil {
		return nil, fmt.Errorf("nats: subscribe node: %w", err)
	}

	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()

	s := &subscription{sub: sub, t: t}
	context.AfterFunc(ctx, func() { _ = s.Unsubscribe() })

	t.log.Debug("subscribed", slog.String("subject", subj))
	return s, nil
}

func (t *Transport) handleMsg(ctx context.Context, h transport.ServerHandlerFunc, msg *natsgo.Msg) {
	var env transport.Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		t.log.Error("failed to decode envelope", slog.Any("error", err))
		t.respond(msg, nil, fmt.Errorf("decode envelope: %w", err))
		return
	}
	if env.Expired() {
		t.respond(msg, nil, transport.ErrEnvelopeExpired)
		return
	}

	hctx := context.WithoutCancel(ctx)
	if t.handlerTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(hctx, t.handlerTimeout)
		defer cancel()
	}

	data, err := h(hctx, env)
	if err != nil && errors.Is(hctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", transport.ErrHandlerTimeout, err)
	}
	t.respond(msg, data, err)
}

func (t *Transport) respond(msg *natsgo.Msg, data []byte, err error) {
	if msg.Reply == "" {
		if err != nil {
			t.log.Error("handler failed", slog.Any("error", err))
		}
		return
	}
	if err := msg.Respond(transport.EncodeResponse(data, err)); err != nil {
		t.log.Error("failed to publish reply", slog.Any("error", err))
	}
}

// Close unsubscribes everything, waits for running handlers and releases
// the connection.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.mu.Lock()
	for s := range t.subs {
		_ = s.Unsubscribe()
	}
	t.subs = map[*natsgo.Subscription]struct{}{}
	t.mu.Unlock()

	t.handlers.Wait()
	if t.nc != nil {
		// the connection may be shared through ReuseConnection
		_ = t.nc.Flush()
		t.closeNc()
	}
	return nil
}

type subscription struct {
	sub  *natsgo.Subscription
	t    *Transport
	once sync.Once
}

func (s *subscription) Unsubscribe() (err error) {
	s.once.Do(func() {
		s.t.mu.Lock()
		defer s.t.mu.Unlock()
		if _, ok := s.t.subs[s.sub]; !ok {
			return
		}
		delete(s.t.subs, s.sub)
		err = s.sub.Unsubscribe()
	})
	return err
}

var _ transport.Transport = (*Transport)(nil)
