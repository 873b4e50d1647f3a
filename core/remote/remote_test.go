package remote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/coerce-go/core/actor"
	"github.com/codewandler/coerce-go/core/codec"
	"github.com/codewandler/coerce-go/core/transport"
)

type (
	Status int

	device struct {
		status *Status
	}

	other struct{}

	GetStatus struct{}
	SetStatus struct {
		Status Status `json:"status" msgpack:"status"`
	}
	Fail struct {
		Reason string `json:"reason" msgpack:"reason"`
	}
	Unregistered struct{}
)

const (
	StatusInactive Status = iota + 1
	StatusActive
)

func (GetStatus) Handle(hc actor.HandlerCtx, d *device) (*Status, error) { return d.status, nil }

func (m SetStatus) Handle(hc actor.HandlerCtx, d *device) (bool, error) {
	s := m.Status
	d.status = &s
	return true, nil
}

func (m Fail) Handle(hc actor.HandlerCtx, d *device) (struct{}, error) {
	return struct{}{}, errors.New(m.Reason)
}

func (Unregistered) Handle(hc actor.HandlerCtx, d *device) (int, error) { return 1, nil }

func registrations() []Registration {
	return []Registration{
		Handle[*device, *Status, GetStatus]("device.get_status"),
		Handle[*device, bool, SetStatus]("device.set_status"),
		Handle[*device, struct{}, Fail](""),
	}
}

func newTestContext(t *testing.T) *actor.ActorContext {
	actx := actor.NewContext(actor.Options{Context: t.Context()})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = actx.Shutdown(ctx)
	})
	return actx
}

func newTestHandler(t *testing.T, actx *actor.ActorContext) *actor.Ref[*Handler] {
	h, err := NewHandler(t.Context(), actx, registrations()...)
	require.NoError(t, err)
	return h
}

func TestHandle_default_name(t *testing.T) {
	r := Handle[*device, struct{}, Fail]("")
	require.Equal(t, "remote.device/remote.Fail", r.Name())

	require.Equal(t, "custom", Handle[*device, struct{}, Fail]("custom").Name())
}

func TestNewHandler_duplicates(t *testing.T) {
	actx := newTestContext(t)

	_, err := NewHandler(t.Context(), actx,
		Handle[*device, *Status, GetStatus]("a"),
		Handle[*device, bool, SetStatus]("a"),
	)
	require.ErrorIs(t, err, ErrDuplicateHandler)

	_, err = NewHandler(t.Context(), actx,
		Handle[*device, *Status, GetStatus]("a"),
		Handle[*device, *Status, GetStatus]("b"),
	)
	require.ErrorIs(t, err, ErrDuplicateHandler)

	ids, err := actx.Actors(t.Context())
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestHandler_lookup(t *testing.T) {
	actx := newTestContext(t)
	h := newTestHandler(t, actx)

	name, ok := HandlerName[*device, SetStatus](t.Context(), h)
	require.True(t, ok)
	require.Equal(t, "device.set_status", name)

	// pointer and value actor types share a key
	name, ok = HandlerName[device, GetStatus](t.Context(), h)
	require.True(t, ok)
	require.Equal(t, "device.get_status", name)

	_, ok = HandlerName[*device, Unregistered](t.Context(), h)
	require.False(t, ok)

	mh, ok := GetHandler(t.Context(), h, "device.set_status")
	require.True(t, ok)
	require.Equal(t, "device.set_status", mh.Name())

	again, ok := GetHandler(t.Context(), h, "device.set_status")
	require.True(t, ok)
	require.NotSame(t, mh, again, "every lookup builds a new handler")

	_, ok = GetHandler(t.Context(), h, "nope")
	require.False(t, ok)

	names, err := HandlerNames(t.Context(), h)
	require.NoError(t, err)
	require.Equal(t, []string{"device.get_status", "device.set_status", "remote.device/remote.Fail"}, names)
}

func TestMessageHandler_direct(t *testing.T) {
	actx := newTestContext(t)
	h := newTestHandler(t, actx)

	dev, err := actor.NewActor(t.Context(), actx, &device{})
	require.NoError(t, err)

	for _, c := range []codec.Codec{codec.JSON{}, codec.Msgpack{}} {
		t.Run(c.Name(), func(t *testing.T) {
			set, ok := GetHandler(t.Context(), h, "device.set_status")
			require.True(t, ok)

			payload, err := c.Marshal(SetStatus{Status: StatusActive})
			require.NoError(t, err)
			res, err := set.Handle(t.Context(), dev, payload, c)
			require.NoError(t, err)

			var applied bool
			require.NoError(t, c.Unmarshal(res, &applied))
			require.True(t, applied)

			get, ok := GetHandler(t.Context(), h, "device.get_status")
			require.True(t, ok)
			payload, err = c.Marshal(GetStatus{})
			require.NoError(t, err)
			res, err = get.Handle(t.Context(), dev, payload, c)
			require.NoError(t, err)

			var status *Status
			require.NoError(t, c.Unmarshal(res, &status))
			require.NotNil(t, status)
			require.Equal(t, StatusActive, *status)
		})
	}
}

func TestMessageHandler_type_mismatch(t *testing.T) {
	actx := newTestContext(t)
	h := newTestHandler(t, actx)

	o, err := actor.NewActor(t.Context(), actx, &other{})
	require.NoError(t, err)

	mh, ok := GetHandler(t.Context(), h, "device.get_status")
	require.True(t, ok)
	_, err = mh.Handle(t.Context(), o, []byte("{}"), codec.JSON{})
	require.ErrorIs(t, err, ErrActorTypeMismatch)
}

func TestMessageHandler_bad_payload(t *testing.T) {
	actx := newTestContext(t)
	h := newTestHandler(t, actx)
	dev, err := actor.NewActor(t.Context(), actx, &device{})
	require.NoError(t, err)

	mh, ok := GetHandler(t.Context(), h, "device.set_status")
	require.True(t, ok)
	_, err = mh.Handle(t.Context(), dev, []byte("{not json"), codec.JSON{})
	require.ErrorContains(t, err, "decode device.set_status")
}

func TestRegistry(t *testing.T) {
	actx := newTestContext(t)
	r, err := NewRegistry(t.Context(), actx, "node-x")
	require.NoError(t, err)

	info, err := actor.Send[NodeInfo](t.Context(), r, GetNodeInfo{})
	require.NoError(t, err)
	require.Equal(t, NodeInfo{NodeID: "node-x"}, info)
}

// testNode wires a node and a client over one in-memory transport.
type testNode struct {
	actx   *actor.ActorContext
	node   *Node
	client *Client
	tr     *transport.MemoryTransport
}

func newTestNode(t *testing.T, c codec.Codec) *testNode {
	actx := newTestContext(t)
	h := newTestHandler(t, actx)

	tr := transport.NewInMemoryTransport()
	t.Cleanup(func() { require.NoError(t, tr.Close()) })

	node, err := NewNode(t.Context(), NodeOptions{NodeID: "node-1", Transport: tr, Actors: actx, Handler: h})
	require.NoError(t, err)
	require.NoError(t, node.Run(t.Context()))
	t.Cleanup(func() { _ = node.Close() })

	client, err := NewClient(ClientOptions{Transport: tr, Handler: h, Codec: c})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return &testNode{actx: actx, node: node, client: client, tr: tr}
}

func TestRemote_roundtrip(t *testing.T) {
	for _, c := range []codec.Codec{codec.JSON{}, codec.Msgpack{}} {
		t.Run(c.Name(), func(t *testing.T) {
			tn := newTestNode(t, c)

			dev, err := actor.NewActor(t.Context(), tn.actx, &device{})
			require.NoError(t, err)
			ref := Remote[*device](tn.client, tn.node.ID(), dev.ID())

			status, err := Send[*Status](t.Context(), ref, GetStatus{})
			require.NoError(t, err)
			require.Nil(t, status)

			ok, err := Send[bool](t.Context(), ref, SetStatus{Status: StatusInactive})
			require.NoError(t, err)
			require.True(t, ok)

			status, err = Send[*Status](t.Context(), ref, GetStatus{})
			require.NoError(t, err)
			require.NotNil(t, status)
			require.Equal(t, StatusInactive, *status)

			// state is the same one local senders see
			local, err := actor.Send[*Status](t.Context(), dev, GetStatus{})
			require.NoError(t, err)
			require.Equal(t, StatusInactive, *local)
		})
	}
}

func TestRemote_errors(t *testing.T) {
	tn := newTestNode(t, codec.JSON{})
	dev, err := actor.NewActor(t.Context(), tn.actx, &device{})
	require.NoError(t, err)

	t.Run("handler error", func(t *testing.T) {
		_, err := Send[struct{}](t.Context(), Remote[*device](tn.client, "node-1", dev.ID()), Fail{Reason: "no power"})
		require.EqualError(t, err, "no power")
	})

	t.Run("unknown actor", func(t *testing.T) {
		_, err := Send[*Status](t.Context(), Remote[*device](tn.client, "node-1", "missing"), GetStatus{})
		require.ErrorContains(t, err, ErrActorNotFound.Error())
	})

	t.Run("unregistered message", func(t *testing.T) {
		_, err := Send[int](t.Context(), Remote[*device](tn.client, "node-1", dev.ID()), Unregistered{})
		require.ErrorIs(t, err, ErrNameNotRegistered)
	})

	t.Run("unknown handler name", func(t *testing.T) {
		_, err := tn.client.Request(t.Context(), "node-1", dev.ID(), "device.reboot", []byte("{}"))
		require.ErrorContains(t, err, ErrHandlerNotFound.Error())
	})

	t.Run("unknown node", func(t *testing.T) {
		_, err := Send[*Status](t.Context(), Remote[*device](tn.client, "node-2", dev.ID()), GetStatus{})
		require.ErrorIs(t, err, transport.ErrNoSubscriber)
	})

	t.Run("removed actor", func(t *testing.T) {
		gone, err := actor.NewActor(t.Context(), tn.actx, &device{})
		require.NoError(t, err)
		_, ok := actor.RemoveActor[*device](t.Context(), tn.actx, gone.ID())
		require.True(t, ok)

		_, err = Send[*Status](t.Context(), Remote[*device](tn.client, "node-1", gone.ID()), GetStatus{})
		require.ErrorContains(t, err, ErrActorNotFound.Error())
	})
}

func TestRemote_unknown_codec(t *testing.T) {
	tn := newTestNode(t, codec.JSON{})
	_, err := tn.tr.Request(t.Context(), transport.Envelope{
		Node:    "node-1",
		Handler: NodeInfoRequest,
		Headers: map[string]string{transport.HeaderCodec: "xml"},
	})
	require.ErrorContains(t, err, codec.ErrUnknownCodec.Error())
}

func TestRemote_node_info(t *testing.T) {
	tn := newTestNode(t, codec.Msgpack{})

	info, err := tn.client.NodeInfo(t.Context(), "node-1")
	require.NoError(t, err)
	require.Equal(t, "node-1", info.NodeID)
}

func TestRemote_concurrent_senders(t *testing.T) {
	tn := newTestNode(t, codec.JSON{})
	dev, err := actor.NewActor(t.Context(), tn.actx, &device{})
	require.NoError(t, err)
	ref := Remote[*device](tn.client, "node-1", dev.ID())

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range cap(errs) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Send[bool](t.Context(), ref, SetStatus{Status: Status(i%2 + 1)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestNode_options(t *testing.T) {
	actx := newTestContext(t)
	h := newTestHandler(t, actx)

	_, err := NewNode(t.Context(), NodeOptions{Handler: h})
	require.Error(t, err)
	_, err = NewNode(t.Context(), NodeOptions{Transport: transport.NewInMemoryTransport()})
	require.Error(t, err)

	n, err := NewNode(t.Context(), NodeOptions{Transport: transport.NewInMemoryTransport(), Handler: h, Actors: actx})
	require.NoError(t, err)
	require.Contains(t, n.ID(), "node-")
	require.NotNil(t, n.Registry())

	require.NoError(t, n.Run(t.Context()))
	require.Error(t, n.Run(t.Context()))
	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
}

func TestClient_options(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)
}
