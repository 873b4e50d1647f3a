package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/coerce-go/core/actor"
	"github.com/codewandler/coerce-go/core/remote"
	"github.com/codewandler/coerce-go/core/transport"
)

type (
	counter struct{ n int }

	Incr struct {
		By int `json:"by" msgpack:"by"`
	}
)

func (m Incr) Handle(hc actor.HandlerCtx, c *counter) (int, error) {
	c.n += m.By
	return c.n, nil
}

func runApp(t *testing.T, cfg Config) *App {
	a, err := Run(cfg, remote.Handle[*counter, int, Incr]("counter.incr"))
	require.NoError(t, err)
	t.Cleanup(a.Stop)
	return a
}

func TestApp(t *testing.T) {
	a := runApp(t, Config{NodeID: "node-1"})
	require.Equal(t, "node-1", a.NodeID())

	c, err := actor.NewActor(t.Context(), a.ActorContext(), &counter{})
	require.NoError(t, err)

	ref := remote.Remote[*counter](a.Client(), a.NodeID(), c.ID())
	n, err := remote.Send[int](t.Context(), ref, Incr{By: 2})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = actor.Send[int](t.Context(), c, Incr{By: 1})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	info, err := a.Client().NodeInfo(t.Context(), "node-1")
	require.NoError(t, err)
	require.Equal(t, "node-1", info.NodeID)
}

func TestApp_two_nodes(t *testing.T) {
	tr := transport.NewInMemoryTransport()
	a := runApp(t, Config{NodeID: "a", Transport: tr, Remote: RemoteConfig{Codec: "msgpack"}})
	b := runApp(t, Config{NodeID: "b", Transport: tr, Remote: RemoteConfig{Codec: "msgpack"}})

	c, err := actor.NewActor(t.Context(), b.ActorContext(), &counter{})
	require.NoError(t, err)

	// a reaches an actor that only exists on b
	_, ok := actor.GetActor[*counter](t.Context(), a.ActorContext(), c.ID())
	require.False(t, ok)

	n, err := remote.Send[int](t.Context(), remote.Remote[*counter](a.Client(), "b", c.ID()), Incr{By: 5})
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestApp_generated_node_id(t *testing.T) {
	a := runApp(t, Config{})
	require.Contains(t, a.NodeID(), "node-")
	require.NotNil(t, a.Node())
	require.NotNil(t, a.Handler())
}

func TestApp_bad_codec(t *testing.T) {
	_, err := New(Config{Remote: RemoteConfig{Codec: "xml"}})
	require.Error(t, err)
}

func TestApp_duplicate_registration(t *testing.T) {
	_, err := New(Config{},
		remote.Handle[*counter, int, Incr]("x"),
		remote.Handle[*counter, int, Incr]("y"),
	)
	require.ErrorIs(t, err, remote.ErrDuplicateHandler)
}

func TestApp_Shutdown(t *testing.T) {
	a, err := Run(Config{})
	require.NoError(t, err)

	c, err := actor.NewActor(t.Context(), a.ActorContext(), &counter{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Shutdown(ctx))
	require.NoError(t, a.Shutdown(ctx))

	select {
	case <-a.Done():
	default:
		t.Fatal("Done should be closed after Shutdown")
	}
	require.Equal(t, actor.StatusStopped, c.Status())
}

func TestApp_Stop(t *testing.T) {
	a, err := Run(Config{})
	require.NoError(t, err)

	a.Stop()
	a.Stop()

	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("Done should be closed after Stop")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coerce.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
node_id: node-7
actor:
  mailbox_size: 64
  max_concurrent_tasks: 4
remote:
  codec: msgpack
  name_cache_size: 10
  name_cache_ttl: 5m
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "node-7", cfg.NodeID)
	require.Equal(t, ActorConfig{MailboxSize: 64, MaxConcurrentTasks: 4}, cfg.Actor)
	require.Equal(t, RemoteConfig{Codec: "msgpack", NameCacheSize: 10, NameCacheTTL: 5 * time.Minute}, cfg.Remote)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestParseConfig_env(t *testing.T) {
	t.Setenv("COERCE_NODE_ID", "from-env")
	t.Setenv("COERCE_MAILBOX_SIZE", "128")
	t.Setenv("COERCE_NAME_CACHE_TTL", "30s")

	cfg, err := ParseConfig([]byte("node_id: from-file\nactor:\n  mailbox_size: 1\n"))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.NodeID)
	require.Equal(t, 128, cfg.Actor.MailboxSize)
	require.Equal(t, 30*time.Second, cfg.Remote.NameCacheTTL)

	t.Setenv("COERCE_MAX_CONCURRENT_TASKS", "lots")
	_, err = ParseConfig(nil)
	require.ErrorContains(t, err, "COERCE_MAX_CONCURRENT_TASKS")
}
