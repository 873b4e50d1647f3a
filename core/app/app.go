package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/codewandler/coerce-go/core/actor"
	"github.com/codewandler/coerce-go/core/codec"
	"github.com/codewandler/coerce-go/core/remote"
	"github.com/codewandler/coerce-go/core/transport"
)

// App bundles an ActorContext with the remote plumbing of one node.
type App struct {
	ctx       context.Context
	cancelCtx context.CancelFunc
	log       *slog.Logger

	actx    *actor.ActorContext
	handler *actor.Ref[*remote.Handler]
	node    *remote.Node
	client  *remote.Client
	tr      transport.Transport

	stopOnce sync.Once
	stopErr  error
	done     chan struct{}
}

func New(config Config, regs ...remote.Registration) (app *App, err error) {
	app = &App{done: make(chan struct{})}

	if config.NodeID == "" {
		config.NodeID = fmt.Sprintf("node-%s", gonanoid.Must(6))
	}
	if config.Transport == nil {
		config.Transport = transport.NewInMemoryTransport()
	}
	app.tr = config.Transport

	if config.Log == nil {
		config.Log = slog.Default()
	}
	app.log = config.Log.With(slog.String("node", config.NodeID))

	if config.Context == nil {
		config.Context = context.Background()
	}
	app.ctx, app.cancelCtx = context.WithCancel(config.Context)
	defer func() {
		if err != nil {
			app.cancelCtx()
		}
	}()

	c, err := codec.ByName(config.Remote.Codec)
	if err != nil {
		return nil, err
	}

	app.log.Debug("creating app", slog.Any("actor", config.Actor), slog.Any("remote", config.Remote))

	app.actx = actor.NewContext(actor.Options{
		Context:            app.ctx,
		Logger:             app.log,
		MailboxSize:        config.Actor.MailboxSize,
		MaxConcurrentTasks: config.Actor.MaxConcurrentTasks,
		Metrics:            config.ActorMetrics,
		OnPanic: func(recovered any, stack []byte, msg any) {
			app.log.Error("actor panicked", slog.Any("recovered", recovered), slog.String("stack", string(stack)), slog.Any("msg", msg))
		},
	})

	if app.handler, err = remote.NewHandler(app.ctx, app.actx, regs...); err != nil {
		return nil, err
	}

	app.node, err = remote.NewNode(app.ctx, remote.NodeOptions{
		Log:       app.log,
		NodeID:    config.NodeID,
		Transport: config.Transport,
		Actors:    app.actx,
		Handler:   app.handler,
		Metrics:   config.RemoteMetrics,
	})
	if err != nil {
		return nil, err
	}

	app.client, err = remote.NewClient(remote.ClientOptions{
		Log:           app.log,
		Transport:     config.Transport,
		Handler:       app.handler,
		Codec:         c,
		NameCacheSize: config.Remote.NameCacheSize,
		NameCacheTTL:  config.Remote.NameCacheTTL,
		Metrics:       config.RemoteMetrics,
	})
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) NodeID() string                       { return a.node.ID() }
func (a *App) Node() *remote.Node                   { return a.node }
func (a *App) Client() *remote.Client               { return a.client }
func (a *App) ActorContext() *actor.ActorContext    { return a.actx }
func (a *App) Handler() *actor.Ref[*remote.Handler] { return a.handler }

// Done is closed once the app has stopped.
func (a *App) Done() <-chan struct{} { return a.done }

func (a *App) Run() error {
	if err := a.node.Run(a.ctx); err != nil {
		return err
	}
	a.log.Info("app started")
	return nil
}

// Shutdown stops the node, closes the transport and stops every actor,
// waiting until ctx is done. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.stopOnce.Do(func() {
		defer close(a.done)

		nodeErr := a.node.Close()
		a.client.Close()

		var g errgroup.Group
		g.Go(a.tr.Close)
		g.Go(func() error { return a.actx.Shutdown(ctx) })
		a.stopErr = errors.Join(nodeErr, g.Wait())

		a.cancelCtx()
		a.log.Info("app stopped")
	})
	return a.stopErr
}

// Stop is Shutdown without a deadline.
func (a *App) Stop() { _ = a.Shutdown(context.Background()) }

func Run(config Config, regs ...remote.Registration) (app *App, err error) {
	if app, err = New(config, regs...); err != nil {
		return nil, err
	}
	if err = app.Run(); err != nil {
		app.Stop()
		return nil, err
	}
	return app, nil
}
