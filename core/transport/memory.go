package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type MemoryTransportOpts struct {
	Log *slog.Logger
	// HandlerTimeout bounds each handler call. Zero means no bound.
	HandlerTimeout time.Duration
	// MaxConcurrentHandlers limits handlers running at once across all
	// subscriptions. Zero means unlimited.
	MaxConcurrentHandlers int
}

// MemoryTransport connects nodes living in the same process.
type MemoryTransport struct {
	mu   sync.RWMutex
	log  *slog.Logger
	opts MemoryTransportOpts

	closed bool

	// node -> subID -> handler
	nodeSubs map[string]map[string]ServerHandlerFunc
	// replyTo -> response frame
	inboxes map[string]chan []byte

	sem      chan struct{}
	handlers sync.WaitGroup
}

func NewInMemoryTransport(opts ...MemoryTransportOpts) *MemoryTransport {
	var o MemoryTransportOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Log == nil {
		o.Log = slog.New(slog.DiscardHandler)
	}

	t := &MemoryTransport{
		log:      o.Log.With(slog.String("transport", "mem")),
		opts:     o,
		nodeSubs: make(map[string]map[string]ServerHandlerFunc),
		inboxes:  make(map[string]chan []byte),
	}
	if o.MaxConcurrentHandlers > 0 {
		t.sem = make(chan struct{}, o.MaxConcurrentHandlers)
	}
	return t
}

func (t *MemoryTransport) WithLog(log *slog.Logger) *MemoryTransport {
	t.log = log.With(slog.String("transport", "mem"))
	return t
}

func (t *MemoryTransport) Request(ctx context.Context, env Envelope) ([]byte, error) {
	if err := Prepare(&env); err != nil {
		return nil, err
	}

	env.ReplyTo = "inbox." + gonanoid.Must()
	replyCh, err := t.registerInbox(env.ReplyTo)
	if err != nil {
		return nil, err
	}
	defer t.unregisterInbox(env.ReplyTo)

	if err := t.dispatch(ctx, env); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case b, ok := <-replyCh:
		if !ok {
			return nil, ErrTransportClosed
		}
		return DecodeResponse(b)
	}
}

// dispatch hands env to one subscriber of its node.
func (t *MemoryTransport) dispatch(ctx context.Context, env Envelope) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return ErrTransportClosed
	}

	var h ServerHandlerFunc
	for _, h = range t.nodeSubs[env.Node] {
		break
	}
	if h == nil {
		return fmt.Errorf("%w: %s", ErrNoSubscriber, env.Node)
	}

	t.handlers.Add(1)
	go t.invokeHandler(context.WithoutCancel(ctx), h, env)
	return nil
}

func (t *MemoryTransport) invokeHandler(ctx context.Context, h ServerHandlerFunc, env Envelope) {
	defer t.handlers.Done()

	if t.sem != nil {
		t.sem <- struct{}{}
		defer func() { <-t.sem }()
	}

	if env.Expired() {
		t.reply(env, nil, ErrEnvelopeExpired)
		return
	}

	if t.opts.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.HandlerTimeout)
		defer cancel()
	}

	resp, err := h(ctx, env)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrHandlerTimeout, err)
	}
	t.reply(env, resp, err)
}

func (t *MemoryTransport) reply(env Envelope, resp []byte, err error) {
	if env.ReplyTo == "" {
		if err != nil {
			t.log.Error("handler failed", slog.String("handler", env.Handler), slog.Any("error", err))
		}
		return
	}

	// inboxes are closed under the write lock, so sending under the read
	// lock cannot hit a closed channel
	t.mu.RLock()
	defer t.mu.RUnlock()
	ch := t.inboxes[env.ReplyTo]
	if ch == nil {
		t.log.Debug("dropping response", slog.String("reply_to", env.ReplyTo))
		return
	}
	select {
	case ch <- EncodeResponse(resp, err):
	default:
	}
}

func (t *MemoryTransport) SubscribeNode(ctx context.Context, nodeID string, h ServerHandlerFunc) (Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	if t.nodeSubs[nodeID] == nil {
		t.nodeSubs[nodeID] = make(map[string]ServerHandlerFunc)
	}

	subID := gonanoid.Must()
	t.nodeSubs[nodeID][subID] = h
	t.log.Debug("subscribed", slog.String("node", nodeID), slog.String("subscription", subID))

	s := &subscription{
		t:      t,
		log:    t.log.With(slog.String("node", nodeID), slog.String("subscription", subID)),
		nodeID: nodeID,
		subID:  subID,
	}
	context.AfterFunc(ctx, func() { _ = s.Unsubscribe() })
	return s, nil
}

// Close refuses new requests, waits for running handlers and then fails
// every request still waiting with ErrTransportClosed.
func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.handlers.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()
	for k, ch := range t.inboxes {
		close(ch)
		delete(t.inboxes, k)
	}
	clear(t.nodeSubs)
	t.log.Debug("closed")
	return nil
}

type subscription struct {
	t      *MemoryTransport
	log    *slog.Logger
	nodeID string
	subID  string
	once   sync.Once
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.t.mu.Lock()
		defer s.t.mu.Unlock()
		if subs := s.t.nodeSubs[s.nodeID]; subs != nil {
			delete(subs, s.subID)
			if len(subs) == 0 {
				delete(s.t.nodeSubs, s.nodeID)
			}
		}
		s.log.Debug("unsubscribed")
	})
	return nil
}

func (t *MemoryTransport) registerInbox(replyTo string) (<-chan []byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	ch := make(chan []byte, 1)
	t.inboxes[replyTo] = ch
	return ch, nil
}

func (t *MemoryTransport) unregisterInbox(replyTo string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ch := t.inboxes[replyTo]; ch != nil {
		close(ch)
		delete(t.inboxes, replyTo)
	}
}

var _ Transport = (*MemoryTransport)(nil)
