package actor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// TaskPool runs background work for one actor with bounded concurrency.
type TaskPool interface {
	Schedule(f func())
	// Wait blocks until all in-flight tasks complete.
	Wait()
}

type taskPool struct {
	ctx      context.Context
	log      *slog.Logger
	inflight atomic.Int32
	sem      chan struct{}

	wg sync.WaitGroup

	actorID string
	metrics ActorMetrics
}

// NewTaskPool creates a pool that runs at most limit tasks at once. If
// limit <= 0, concurrency is unlimited. Tasks not yet started when ctx is
// cancelled are dropped.
func NewTaskPool(ctx context.Context, limit int, actorID string, metrics ActorMetrics, log *slog.Logger) TaskPool {
	var sem chan struct{}
	if limit > 0 {
		sem = make(chan struct{}, limit)
	}
	if metrics == nil {
		metrics = NopActorMetrics()
	}
	if log == nil {
		log = slog.Default()
	}
	return &taskPool{
		ctx:     ctx,
		sem:     sem,
		log:     log,
		actorID: actorID,
		metrics: metrics,
	}
}

func (p *taskPool) Schedule(f func()) {
	select {
	case <-p.ctx.Done():
		return
	default:
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.sem != nil {
			select {
			case <-p.ctx.Done():
				return
			case p.sem <- struct{}{}:
			}
			defer func() { <-p.sem }()
		}

		p.metrics.TasksInflight(p.actorID, int(p.inflight.Add(1)))
		defer func() {
			p.metrics.TasksInflight(p.actorID, int(p.inflight.Add(-1)))
		}()

		p.run(f)
	}()
}

func (p *taskPool) run(f func()) {
	defer p.metrics.TaskDuration().ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			p.metrics.TaskCompleted(false)
			p.log.Error("scheduled task panicked", slog.Any("recovered", r))
		}
	}()

	f()
	p.metrics.TaskCompleted(true)
}

func (p *taskPool) Wait() { p.wg.Wait() }
