package prometheus

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewandler/coerce-go/core/actor"
)

func gatherNames(t *testing.T, reg *prometheus.Registry) map[string]bool {
	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

func TestNewActorMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewActorMetrics(reg)
	require.NotNil(t, m)

	m.MessageDuration("get_status").ObserveDuration()
	m.MessageProcessed("get_status", true)
	m.MessageProcessed("get_status", false)
	m.MessagePanic("get_status")
	m.MailboxDepth("actor-123", 10)
	m.ActorsLive(3)
	m.ActorStarted(true)
	m.TasksInflight("actor-123", 5)
	m.TaskDuration().ObserveDuration()
	m.TaskCompleted(true)

	names := gatherNames(t, reg)
	assert.True(t, names["coerce_actor_message_duration_seconds"])
	assert.True(t, names["coerce_actor_messages_total"])
	assert.True(t, names["coerce_actor_mailbox_depth"])
	assert.True(t, names["coerce_actor_live"])
	assert.True(t, names["coerce_actor_tasks_total"])

	am := m.(*actorMetrics)
	assert.Equal(t, 1.0, testutil.ToFloat64(am.messagesTotal.WithLabelValues("get_status", "false")))
	assert.Equal(t, 3.0, testutil.ToFloat64(am.actorsLive))
}

func TestNewRemoteMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRemoteMetrics(reg)
	require.NotNil(t, m)

	m.RequestDuration("device.get_status").ObserveDuration()
	m.RequestCompleted("device.get_status", true)
	m.TransportError("no_subscriber")
	m.NameLookup(true)
	m.NameLookup(false)
	m.HandlerDuration("device.get_status").ObserveDuration()
	m.HandlerCompleted("device.get_status", false)
	m.HandlersActive("node-1", 2)

	names := gatherNames(t, reg)
	assert.True(t, names["coerce_remote_request_duration_seconds"])
	assert.True(t, names["coerce_remote_transport_errors_total"])
	assert.True(t, names["coerce_remote_name_lookups_total"])
	assert.True(t, names["coerce_remote_handlers_active"])
}

func TestNewAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAllMetrics(reg)
	require.NotNil(t, m.Actor)
	require.NotNil(t, m.Remote)

	m.Actor.MessageProcessed("test", true)
	m.Remote.RequestCompleted("test", true)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

type ping struct{}

func (ping) MsgType() string { return "ping" }

func (ping) Handle(hc actor.HandlerCtx, n *int) (int, error) {
	*n++
	return *n, nil
}

func TestActorMetrics_wired(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewActorMetrics(reg)

	actx := actor.NewContext(actor.Options{Context: t.Context(), Metrics: m})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = actx.Shutdown(ctx)
	}()

	ref, err := actor.NewActor(t.Context(), actx, new(int))
	require.NoError(t, err)
	for range 3 {
		_, err := actor.Send[int](t.Context(), ref, ping{})
		require.NoError(t, err)
	}

	am := m.(*actorMetrics)
	// recorded after the reply is delivered
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(am.messagesTotal.WithLabelValues("ping", "true")) == 3
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(am.actorsLive))
}

func TestBoolToStr(t *testing.T) {
	assert.Equal(t, "true", boolToStr(true))
	assert.Equal(t, "false", boolToStr(false))
}
