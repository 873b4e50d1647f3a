package actor

import (
	"log/slog"
	"sort"
)

// Scheduler is the only owner of the ActorID → mailbox mapping. It is an
// actor itself, so the mapping is only ever touched from its own goroutine
// and needs no lock.
type Scheduler struct {
	actors  map[ActorID]AnyRef
	opts    Options
	log     *slog.Logger
	metrics ActorMetrics
}

// NewScheduler starts a scheduler actor. Most callers want [NewContext].
func NewScheduler(opts Options) *Ref[*Scheduler] {
	opts = opts.withDefaults()
	s := &Scheduler{
		actors:  make(map[ActorID]AnyRef),
		opts:    opts,
		log:     opts.Logger.With(slog.String("component", "scheduler")),
		metrics: opts.Metrics,
	}

	c := newCell(newActorID(), s, opts)
	ack := make(chan error, 1)
	go c.run(&ActorContext{scheduler: c.ref, opts: opts}, ack)
	<-ack
	return c.ref
}

// Stopped asks every registered actor to stop.
func (s *Scheduler) Stopped(hc HandlerCtx) {
	for id, ref := range s.actors {
		ref.Stop()
		delete(s.actors, id)
	}
	s.metrics.ActorsLive(0)
	s.log.Debug("scheduler stopped")
}

func (s *Scheduler) lookup(id ActorID, match func(AnyRef) bool) (AnyRef, bool) {
	ref, ok := s.actors[id]
	if !ok {
		return nil, false
	}
	select {
	case <-ref.Done():
		// stopped on its own, forget it
		delete(s.actors, id)
		s.metrics.ActorsLive(len(s.actors))
		return nil, false
	default:
	}
	if match != nil && !match(ref) {
		return nil, false
	}
	return ref, true
}

type (
	// registerActor allocates an id and calls start, which must launch the
	// actor without waiting for it.
	registerActor struct {
		start func(id ActorID) AnyRef
	}

	getActor struct {
		id    ActorID
		match func(AnyRef) bool
	}

	removeActor struct {
		id    ActorID
		match func(AnyRef) bool
	}

	listActors struct{}

	// stopAll empties the registry and returns everything that was in it.
	stopAll struct{}
)

func (registerActor) MsgType() string { return "coerce.scheduler.register" }
func (getActor) MsgType() string      { return "coerce.scheduler.get" }
func (removeActor) MsgType() string   { return "coerce.scheduler.remove" }
func (listActors) MsgType() string    { return "coerce.scheduler.list" }
func (stopAll) MsgType() string       { return "coerce.scheduler.stop_all" }

func (m registerActor) Handle(hc HandlerCtx, s *Scheduler) (AnyRef, error) {
	id := newActorID()
	for s.actors[id] != nil {
		id = newActorID()
	}
	ref := m.start(id)
	s.actors[id] = ref
	s.metrics.ActorsLive(len(s.actors))
	s.log.Debug("actor registered", slog.String("id", string(id)))
	return ref, nil
}

func (m getActor) Handle(hc HandlerCtx, s *Scheduler) (AnyRef, error) {
	ref, ok := s.lookup(m.id, m.match)
	if !ok {
		return nil, nil
	}
	return ref, nil
}

func (m removeActor) Handle(hc HandlerCtx, s *Scheduler) (AnyRef, error) {
	ref, ok := s.actors[m.id]
	if !ok || (m.match != nil && !m.match(ref)) {
		return nil, nil
	}
	delete(s.actors, m.id)
	ref.Stop()
	s.metrics.ActorsLive(len(s.actors))
	s.log.Debug("actor removed", slog.String("id", string(m.id)))
	return ref, nil
}

func (listActors) Handle(hc HandlerCtx, s *Scheduler) ([]ActorID, error) {
	ids := make([]ActorID, 0, len(s.actors))
	for id := range s.actors {
		if _, ok := s.lookup(id, nil); ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (stopAll) Handle(hc HandlerCtx, s *Scheduler) ([]AnyRef, error) {
	refs := make([]AnyRef, 0, len(s.actors))
	for id, ref := range s.actors {
		ref.Stop()
		refs = append(refs, ref)
		delete(s.actors, id)
	}
	s.metrics.ActorsLive(0)
	return refs, nil
}
