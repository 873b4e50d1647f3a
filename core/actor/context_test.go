package actor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type (
	brokenActor struct{}

	hookedActor struct {
		started chan ActorStatus
		stopped chan ActorStatus
	}

	parent struct{ child *Ref[*device] }

	spawnChild struct{}
)

func (brokenActor) Started(hc HandlerCtx) error { return errors.New("no power") }

func (a *hookedActor) Started(hc HandlerCtx) error {
	a.started <- hc.Status()
	return nil
}

func (a *hookedActor) Stopped(hc HandlerCtx) { a.stopped <- hc.Status() }

func (spawnChild) Handle(hc HandlerCtx, p *parent) (ActorID, error) {
	ref, err := NewActor(hc, hc.ActorContext(), &device{})
	if err != nil {
		return "", err
	}
	p.child = ref
	return ref.ID(), nil
}

func TestContext_new_get_remove_roundtrip(t *testing.T) {
	actx := newTestContext(t)
	ref := newDevice(t, actx)

	got, ok := GetActor[*device](t.Context(), actx, ref.ID())
	require.True(t, ok)
	require.Same(t, ref, got)

	removed, ok := RemoveActor[*device](t.Context(), actx, ref.ID())
	require.True(t, ok)
	require.Same(t, ref, removed)

	_, ok = GetActor[*device](t.Context(), actx, ref.ID())
	require.False(t, ok)

	select {
	case <-removed.Done():
	case <-time.After(time.Second):
		t.Fatal("removed actor did not stop")
	}
	_, err := Send[int](t.Context(), removed, record{V: 1})
	require.ErrorIs(t, err, ErrActorUnavailable)
}

func TestContext_remove_idempotent(t *testing.T) {
	actx := newTestContext(t)
	ref := newDevice(t, actx)

	_, ok := RemoveActor[*device](t.Context(), actx, ref.ID())
	require.True(t, ok)

	again, ok := RemoveActor[*device](t.Context(), actx, ref.ID())
	require.False(t, ok)
	require.Nil(t, again)
}

func TestContext_unknown_id(t *testing.T) {
	actx := newTestContext(t)

	ref, ok := GetActor[*device](t.Context(), actx, ActorID("never-registered"))
	require.False(t, ok)
	require.Nil(t, ref)

	_, ok = actx.Lookup(t.Context(), ActorID("never-registered"))
	require.False(t, ok)
}

func TestContext_mistyped(t *testing.T) {
	actx := newTestContext(t)
	ref := newDevice(t, actx)

	_, ok := GetActor[*parent](t.Context(), actx, ref.ID())
	require.False(t, ok)

	_, ok = RemoveActor[*parent](t.Context(), actx, ref.ID())
	require.False(t, ok)

	// still registered
	found, ok := actx.Lookup(t.Context(), ref.ID())
	require.True(t, ok)
	require.Equal(t, ref.ID(), found.ID())
}

func TestContext_start_failure(t *testing.T) {
	actx := newTestContext(t)

	ref, err := NewActor(t.Context(), actx, brokenActor{})
	require.ErrorIs(t, err, ErrActorUnavailable)
	require.ErrorContains(t, err, "no power")
	require.Nil(t, ref)

	ids, err := actx.Actors(t.Context())
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestContext_lifecycle_hooks(t *testing.T) {
	actx := newTestContext(t)
	a := &hookedActor{started: make(chan ActorStatus, 1), stopped: make(chan ActorStatus, 1)}

	ref, err := NewActor(t.Context(), actx, a)
	require.NoError(t, err)
	require.Equal(t, StatusStarting, <-a.started)
	require.Equal(t, StatusStarted, ref.Status())

	_, ok := actx.Remove(t.Context(), ref.ID())
	require.True(t, ok)

	select {
	case st := <-a.stopped:
		require.Equal(t, StatusStopping, st)
	case <-time.After(time.Second):
		t.Fatal("Stopped hook not called")
	}
	<-ref.Done()
	require.Equal(t, StatusStopped, ref.Status())
}

func TestContext_prunes_stopped(t *testing.T) {
	actx := newTestContext(t)
	ref := newDevice(t, actx)

	ref.Stop()
	<-ref.Done()

	_, ok := GetActor[*device](t.Context(), actx, ref.ID())
	require.False(t, ok)

	ids, err := actx.Actors(t.Context())
	require.NoError(t, err)
	require.NotContains(t, ids, ref.ID())
}

func TestContext_nested_spawn(t *testing.T) {
	actx := newTestContext(t)

	p, err := NewActor(t.Context(), actx, &parent{})
	require.NoError(t, err)

	childID, err := Send[ActorID](t.Context(), p, spawnChild{})
	require.NoError(t, err)

	child, ok := GetActor[*device](t.Context(), actx, childID)
	require.True(t, ok)

	ok, err = Send[bool](t.Context(), child, setStatus{Status: statusInactive})
	require.NoError(t, err)
	require.True(t, ok)

	ids, err := actx.Actors(t.Context())
	require.NoError(t, err)
	require.ElementsMatch(t, []ActorID{p.ID(), childID}, ids)
}

func TestContext_isolation(t *testing.T) {
	a := newTestContext(t)
	b := newTestContext(t)

	ref := newDevice(t, a)

	_, ok := GetActor[*device](t.Context(), b, ref.ID())
	require.False(t, ok)

	shared := FromScheduler(a.Scheduler())
	got, ok := GetActor[*device](t.Context(), shared, ref.ID())
	require.True(t, ok)
	require.Same(t, ref, got)
}

func TestContext_default(t *testing.T) {
	require.Same(t, Default(), Default())

	ref, err := NewActor(t.Context(), Default(), &device{})
	require.NoError(t, err)
	t.Cleanup(func() { Default().Remove(context.Background(), ref.ID()) })

	_, ok := GetActor[*device](t.Context(), Default(), ref.ID())
	require.True(t, ok)
}

func TestContext_shutdown(t *testing.T) {
	actx := NewContext(Options{Context: t.Context()})

	refs := make([]*Ref[*device], 0, 5)
	for range 5 {
		refs = append(refs, newDevice(t, actx))
	}

	require.NoError(t, actx.Shutdown(t.Context()))
	for _, r := range refs {
		require.Equal(t, StatusStopped, r.Status())
	}

	_, err := NewActor(t.Context(), actx, &device{})
	require.ErrorIs(t, err, ErrActorUnavailable)
}
