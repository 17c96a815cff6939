package engine

import (
	"sync"

	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/rotisserie/eris"
)

// Message is a decoded inbound request addressed to an entity.
type Message interface {
	Name() string
}

// Handler processes a message of type T sent by entity e.
type Handler[T Message] func(w *World, e ecs.Entity, msg T) error

type handler func(w *World, e ecs.Entity, msg Message) error

// RegisterHandler registers the handler for messages of type T, replacing any previous handler.
func RegisterHandler[T Message](w *World, fn Handler[T]) {
	var zero T
	w.handlers[zero.Name()] = func(w *World, e ecs.Entity, msg Message) error {
		typed, ok := msg.(T)
		if !ok {
			return eris.Errorf("message %s has unexpected type %T", msg.Name(), msg)
		}
		return fn(w, e, typed)
	}
}

// Dispatch runs the handler of msg on behalf of e. It must be called from the tick goroutine; use
// Enqueue from anywhere else.
func (w *World) Dispatch(e ecs.Entity, msg Message) error {
	if !w.IsValid(e) {
		return eris.Wrapf(ErrEntityNotFound, "dispatch %s to %s", msg.Name(), e)
	}
	fn, ok := w.handlers[msg.Name()]
	if !ok {
		return eris.Wrapf(ErrUnknownMessage, "message %s", msg.Name())
	}
	return fn(w, e, msg)
}

// DefaultInboxCapacity is the starting capacity of the inbox. It grows past this as needed.
const DefaultInboxCapacity = 1024

type job struct {
	entity ecs.Entity
	msg    Message
	fn     func(*World)
}

// inbox is an unbounded queue of work submitted from other goroutines. It is drained at the start
// of every tick.
type inbox struct {
	jobs []job
	mu   sync.Mutex
}

func (q *inbox) push(j job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, j)
	q.mu.Unlock()
}

// drain moves all queued jobs to target and resets the queue.
func (q *inbox) drain(target []job) []job {
	q.mu.Lock()
	defer q.mu.Unlock()

	target = append(target, q.jobs...)
	clear(q.jobs)
	q.jobs = q.jobs[:0]
	return target
}

// Enqueue queues msg for dispatch on behalf of e at the start of the next tick. It is safe to call
// from any goroutine.
func (w *World) Enqueue(e ecs.Entity, msg Message) {
	w.inbox.push(job{entity: e, msg: msg})
}

// Submit queues fn to run at the start of the next tick. It is safe to call from any goroutine.
// Use it to create or destroy entities on behalf of a session.
func (w *World) Submit(fn func(*World)) {
	w.inbox.push(job{fn: fn})
}

func (w *World) drainInbox() {
	w.pending = w.inbox.drain(w.pending[:0])
	for _, j := range w.pending {
		if j.fn != nil {
			j.fn(w)
			continue
		}
		// Bad input from a client must never fault the tick.
		if err := w.Dispatch(j.entity, j.msg); err != nil {
			w.logger.Debug().Err(err).Str("message", j.msg.Name()).Stringer("entity", j.entity).
				Msg("message rejected")
		}
	}
	clear(w.pending)
}
