package remote

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/codewandler/coerce-go/core/actor"
	"github.com/codewandler/coerce-go/core/codec"
	"github.com/codewandler/coerce-go/core/reflector"
)

type (
	// MessageHandler delivers one encoded message to a local actor and
	// encodes the result.
	MessageHandler interface {
		// Name is the wire name the handler was registered under.
		Name() string
		Handle(ctx context.Context, target actor.AnyRef, payload []byte, c codec.Codec) ([]byte, error)
	}

	HandlerFactory func() MessageHandler

	// handlerKey identifies the (actor type, message type) pair a handler
	// serves. Pointer types are unwrapped.
	handlerKey struct {
		actor reflect.Type
		msg   reflect.Type
	}

	// Registration binds a wire name to a message type of an actor type.
	// Build it with [Handle].
	Registration struct {
		name    string
		key     handlerKey
		factory HandlerFactory
	}
)

func keyFor[A any, M any]() handlerKey {
	return handlerKey{
		actor: reflector.TypeInfoFor[A]().Type,
		msg:   reflector.TypeInfoFor[M]().Type,
	}
}

func (k handlerKey) String() string {
	return reflector.TypeInfoForType(k.actor).Path + "|" + reflector.TypeInfoForType(k.msg).Path
}

// Handle registers message type M, handled by actors of type A with
// result R, under name. An empty name defaults to "<A>/<M>" using the
// short type names, e.g. "main.Device/main.GetStatus".
func Handle[A any, R any, M actor.Message[A, R]](name string) Registration {
	if name == "" {
		name = reflector.TypeInfoFor[A]().Name + "/" + reflector.TypeInfoFor[M]().Name
	}
	return Registration{
		name: name,
		key:  keyFor[A, M](),
		factory: func() MessageHandler {
			return &typedHandler[A, R, M]{name: name}
		},
	}
}

func (r Registration) Name() string { return r.name }

type typedHandler[A any, R any, M actor.Message[A, R]] struct {
	name string
}

func (h *typedHandler[A, R, M]) Name() string { return h.name }

func (h *typedHandler[A, R, M]) Handle(ctx context.Context, target actor.AnyRef, payload []byte, c codec.Codec) ([]byte, error) {
	ref, ok := target.(*actor.Ref[A])
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot handle %s", ErrActorTypeMismatch, target.ID(), h.name)
	}

	var msg M
	if err := c.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", h.name, err)
	}

	res, err := actor.Send[R](ctx, ref, msg)
	if err != nil {
		return nil, err
	}

	b, err := c.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", h.name, err)
	}
	return b, nil
}

// Handler is the actor holding the name tables. It is read-only once
// spawned.
type Handler struct {
	names     map[handlerKey]string
	factories map[string]HandlerFactory
}

// NewHandler validates regs and spawns the Handler actor in actx.
func NewHandler(ctx context.Context, actx *actor.ActorContext, regs ...Registration) (*actor.Ref[*Handler], error) {
	h := &Handler{
		names:     make(map[handlerKey]string, len(regs)),
		factories: make(map[string]HandlerFactory, len(regs)),
	}
	for _, r := range regs {
		if _, dup := h.factories[r.name]; dup {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateHandler, r.name)
		}
		if prev, dup := h.names[r.key]; dup {
			return nil, fmt.Errorf("%w: %s already registered as %q", ErrDuplicateHandler, r.key, prev)
		}
		h.names[r.key] = r.name
		h.factories[r.name] = r.factory
	}
	return actor.NewActor(ctx, actx, h)
}

func (h *Handler) Started(hc actor.HandlerCtx) error {
	hc.Log().Debug("remote handler started", slog.Int("handlers", len(h.factories)))
	return nil
}

type (
	getHandler   struct{ name string }
	handlerName  struct{ key handlerKey }
	handlerNames struct{}
)

func (getHandler) MsgType() string   { return "coerce.remote.get_handler" }
func (handlerName) MsgType() string  { return "coerce.remote.handler_name" }
func (handlerNames) MsgType() string { return "coerce.remote.handler_names" }

func (m getHandler) Handle(hc actor.HandlerCtx, h *Handler) (MessageHandler, error) {
	f, ok := h.factories[m.name]
	if !ok {
		return nil, nil
	}
	return f(), nil
}

func (m handlerName) Handle(hc actor.HandlerCtx, h *Handler) (string, error) {
	return h.names[m.key], nil
}

func (handlerNames) Handle(hc actor.HandlerCtx, h *Handler) ([]string, error) {
	names := make([]string, 0, len(h.factories))
	for n := range h.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// GetHandler returns a fresh handler for name.
func GetHandler(ctx context.Context, ref *actor.Ref[*Handler], name string) (MessageHandler, bool) {
	mh, err := actor.Send[MessageHandler](ctx, ref, getHandler{name: name})
	if err != nil || mh == nil {
		return nil, false
	}
	return mh, true
}

// HandlerName returns the name registered for message type M sent to
// actors of type A.
func HandlerName[A any, M any](ctx context.Context, ref *actor.Ref[*Handler]) (string, bool) {
	name, err := lookupName(ctx, ref, keyFor[A, M]())
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// lookupName returns "" without error when key is not registered.
func lookupName(ctx context.Context, ref *actor.Ref[*Handler], key handlerKey) (string, error) {
	return actor.Send[string](ctx, ref, handlerName{key: key})
}

// HandlerNames lists every registered name in order.
func HandlerNames(ctx context.Context, ref *actor.Ref[*Handler]) ([]string, error) {
	return actor.Send[[]string](ctx, ref, handlerNames{})
}
