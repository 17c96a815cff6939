// Package engine drives the live world of a shard: it owns the entity store, runs timers and
// systems once per tick, dispatches inbound messages and defers entity destruction to the end of
// the tick.
package engine

import (
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// World is the single-threaded owner of all entity state. Except for Enqueue and Submit, its
// methods must only be called from the goroutine calling Update.
type World struct {
	store *ecs.Store

	systems  []systemEntry
	timers   timerQueue
	timerSeq uint64
	handlers map[string]handler
	inbox    inbox
	inboxCap int
	pending  []job

	destroyQueue []ecs.Entity
	queued       map[ecs.Entity]struct{}

	now      time.Duration
	tick     uint64
	objectID uint32
	nearby   float32

	logger  zerolog.Logger
	current zerolog.Logger
	statsd  ddstatsd.ClientInterface
}

// New creates an empty world.
func New(opts ...Option) *World {
	w := &World{
		store:        ecs.NewStore(),
		systems:      make([]systemEntry, 0),
		timers:       make(timerQueue, 0),
		handlers:     make(map[string]handler),
		destroyQueue: make([]ecs.Entity, 0),
		queued:       make(map[ecs.Entity]struct{}),
		nearby:       DefaultNearbyDistance,
		logger:       zerolog.Nop(),
		statsd:       &ddstatsd.NoOpClient{},
		inboxCap:     DefaultInboxCapacity,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.inbox.jobs = make([]job, 0, w.inboxCap)
	w.current = w.logger
	return w
}

// Store returns the component store of the world.
func (w *World) Store() *ecs.Store {
	return w.store
}

// Create creates an entity without any components.
func (w *World) Create() ecs.Entity {
	return ecs.Create(w.store)
}

// Destroy queues e for removal at the end of the current tick, so the entity stays observable to
// the rest of the tick. Destroying a queued entity again is a no-op. Returns false if e is invalid.
func (w *World) Destroy(e ecs.Entity) bool {
	if !w.IsValid(e) {
		return false
	}
	if _, ok := w.queued[e]; ok {
		return true
	}
	w.queued[e] = struct{}{}
	w.destroyQueue = append(w.destroyQueue, e)
	return true
}

// IsValid reports whether e refers to a live entity. Entities queued for destruction remain valid
// until the end of the tick.
func (w *World) IsValid(e ecs.Entity) bool {
	return ecs.Alive(w.store, e)
}

// IsDestroying reports whether e is queued for destruction in the current tick.
func (w *World) IsDestroying(e ecs.Entity) bool {
	_, ok := w.queued[e]
	return ok
}

// Now returns the world clock, the sum of all dt passed to Update.
func (w *World) Now() time.Duration {
	return w.now
}

// CurrentTick returns the number of completed ticks.
func (w *World) CurrentTick() uint64 {
	return w.tick
}

// NextObjectID returns a fresh client-visible object id. Zero is never returned.
func (w *World) NextObjectID() uint32 {
	w.objectID++
	if w.objectID == 0 {
		w.objectID++
	}
	return w.objectID
}

// Update runs one tick: it advances the clock by dt, drains the inbox, fires due timers, runs the
// systems and finally removes the entities destroyed during the tick. A system error stops the
// remaining systems but the destroyed entities are still removed.
func (w *World) Update(dt time.Duration) error {
	start := time.Now()
	defer w.emitTickStat(start, "full_tick")

	w.now += max(dt, 0)

	w.drainInbox()
	w.fireTimers()
	err := w.runSystems()
	w.flushDestroyed()

	w.tick++
	if err != nil {
		return eris.Wrapf(err, "tick %d", w.tick-1)
	}
	return nil
}

func (w *World) flushDestroyed() {
	for _, e := range w.destroyQueue {
		if !w.store.Destroy(e) {
			w.logger.Warn().Stringer("entity", e).Msg("queued entity was already gone")
		}
	}
	clear(w.queued)
	clear(w.destroyQueue)
	w.destroyQueue = w.destroyQueue[:0]
}

// IsNearby reports whether a and b both have a Position and lie within the nearby distance of each
// other.
func (w *World) IsNearby(a, b ecs.Entity) bool {
	pa, ok := ecs.TryGet[component.Position](w.store, a)
	if !ok {
		return false
	}
	pb, ok := ecs.TryGet[component.Position](w.store, b)
	if !ok {
		return false
	}
	dx := pa.X - pb.X
	dy := pa.Y - pb.Y
	return dx*dx+dy*dy <= w.nearby*w.nearby
}

// ProcessEntities calls fn for every entity selected by filter until fn returns false.
func (w *World) ProcessEntities(filter ecs.Filter, fn func(ecs.Entity) bool) error {
	return ecs.NewSearch(filter).Each(w.store, fn)
}

func (w *World) emitTickStat(start time.Time, stage string) {
	if err := w.statsd.Timing("tick", time.Since(start), []string{stage}, 1); err != nil {
		w.logger.Warn().Err(err).Msg("failed to emit tick stat")
	}
}
