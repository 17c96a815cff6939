package engine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct{ N int }

func (ping) Name() string { return "ping" }

type unhandled struct{}

func (unhandled) Name() string { return "unhandled" }

func TestWorld_DestroyIsDeferredToEndOfTick(t *testing.T) {
	t.Parallel()

	w := engine.New()
	victim := w.Create()
	require.NoError(t, ecs.Set(w.Store(), victim, component.Position{X: 1, Y: 1}))

	var seenInTick []ecs.Entity
	destroyFirst := func(w *engine.World) error {
		assert.True(t, w.Destroy(victim))
		assert.True(t, w.Destroy(victim), "destroying twice is a no-op")
		return nil
	}
	observeAfter := func(w *engine.World) error {
		seenInTick = seenInTick[:0]
		return w.ProcessEntities(ecs.Contains(component.Position{}), func(e ecs.Entity) bool {
			seenInTick = append(seenInTick, e)
			return true
		})
	}
	require.NoError(t, w.RegisterSystems(destroyFirst, observeAfter))

	require.NoError(t, w.Update(time.Millisecond))
	assert.Equal(t, []ecs.Entity{victim}, seenInTick, "destroyed entity is observable for the rest of the tick")
	assert.False(t, w.IsValid(victim))
	assert.False(t, w.Destroy(victim))
	assert.Equal(t, uint64(1), w.CurrentTick())
}

func TestWorld_IndexReuseInvalidatesOldHandle(t *testing.T) {
	t.Parallel()

	w := engine.New()
	old := w.Create()
	require.True(t, w.Destroy(old))
	require.NoError(t, w.Update(0))

	fresh := w.Create()
	assert.Equal(t, old.Index(), fresh.Index())
	assert.False(t, w.IsValid(old))
	assert.True(t, w.IsValid(fresh))
}

func TestWorld_RegisterSystemsRejectsDuplicatesAtomically(t *testing.T) {
	t.Parallel()

	w := engine.New()
	a := func(*engine.World) error { return nil }
	b := func(*engine.World) error { return nil }

	require.NoError(t, w.RegisterSystems(a))
	require.Error(t, w.RegisterSystems(b, a))
	assert.Len(t, w.SystemNames(), 1, "b must not be registered when a is a duplicate")

	require.Error(t, w.RegisterSystems(b, b))
	require.NoError(t, w.RegisterSystems(b))
	assert.Len(t, w.SystemNames(), 2)
}

func TestWorld_SystemErrorStillFlushesDestroys(t *testing.T) {
	t.Parallel()

	w := engine.New()
	e := w.Create()
	ran := false

	failing := func(w *engine.World) error {
		w.Destroy(e)
		return errors.New("boom")
	}
	skipped := func(*engine.World) error {
		ran = true
		return nil
	}
	require.NoError(t, w.RegisterSystems(failing, skipped))

	require.Error(t, w.Update(0))
	assert.False(t, ran)
	assert.False(t, w.IsValid(e))
}

func TestWorld_TimersFireInDueOrderThenFIFO(t *testing.T) {
	t.Parallel()

	w := engine.New()
	var order []string
	w.AddTimer(2*time.Second, func(*engine.World) { order = append(order, "late") })
	w.AddTimer(time.Second, func(*engine.World) { order = append(order, "first") })
	w.AddTimer(time.Second, func(*engine.World) { order = append(order, "second") })

	require.NoError(t, w.Update(500*time.Millisecond))
	assert.Empty(t, order)

	require.NoError(t, w.Update(500*time.Millisecond))
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 1, w.PendingTimers())

	require.NoError(t, w.Update(time.Second))
	assert.Equal(t, []string{"first", "second", "late"}, order)
	assert.Zero(t, w.PendingTimers())
}

func TestWorld_TimerEffectsVisibleToSameTickSystems(t *testing.T) {
	t.Parallel()

	w := engine.New()
	e := w.Create()
	w.AddTimer(0, func(w *engine.World) {
		require.NoError(t, ecs.Set(w.Store(), e, component.Position{}))
	})

	var saw bool
	require.NoError(t, w.RegisterSystems(func(w *engine.World) error {
		saw = ecs.Has[component.Position](w.Store(), e)
		return nil
	}))
	require.NoError(t, w.Update(0))
	assert.True(t, saw)
}

func TestWorld_TimerMustRevalidateTarget(t *testing.T) {
	t.Parallel()

	w := engine.New()
	target := w.Create()
	fired := false
	w.AddTimer(time.Second, func(w *engine.World) {
		fired = true
		assert.False(t, w.IsValid(target))
	})

	w.Destroy(target)
	require.NoError(t, w.Update(0))
	reused := w.Create()
	require.Equal(t, target.Index(), reused.Index())

	require.NoError(t, w.Update(time.Second))
	assert.True(t, fired)
}

func TestWorld_Dispatch(t *testing.T) {
	t.Parallel()

	w := engine.New()
	e := w.Create()
	var got []int
	engine.RegisterHandler(w, func(_ *engine.World, from ecs.Entity, msg ping) error {
		assert.Equal(t, e, from)
		got = append(got, msg.N)
		return nil
	})

	require.NoError(t, w.Dispatch(e, ping{N: 1}))
	require.ErrorIs(t, w.Dispatch(e, unhandled{}), engine.ErrUnknownMessage)
	require.ErrorIs(t, w.Dispatch(ecs.Null, ping{}), engine.ErrEntityNotFound)

	w.Enqueue(e, ping{N: 2})
	w.Enqueue(e, ping{N: 3})
	w.Submit(func(*engine.World) { got = append(got, 4) })
	assert.Equal(t, []int{1}, got, "queued work waits for the tick")

	require.NoError(t, w.Update(0))
	assert.Equal(t, []int{1, 2, 3, 4}, got)
}

func TestWorld_EnqueueIsSafeFromOtherGoroutines(t *testing.T) {
	t.Parallel()

	w := engine.New()
	e := w.Create()
	count := 0
	engine.RegisterHandler(w, func(*engine.World, ecs.Entity, ping) error {
		count++
		return nil
	})

	done := make(chan struct{})
	for range 4 {
		go func() {
			for i := range 100 {
				w.Enqueue(e, ping{N: i})
			}
			done <- struct{}{}
		}()
	}
	for range 4 {
		<-done
	}

	require.NoError(t, w.Update(0))
	assert.Equal(t, 400, count)
}

func TestWorld_InboxGrowsPastCapacity(t *testing.T) {
	t.Parallel()

	w := engine.New(engine.WithInboxCapacity(2))
	e := w.Create()
	var got []int
	engine.RegisterHandler(w, func(_ *engine.World, _ ecs.Entity, msg ping) error {
		got = append(got, msg.N)
		return nil
	})

	for i := range 5 {
		w.Enqueue(e, ping{N: i})
	}
	require.NoError(t, w.Update(0))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)

	w.Enqueue(e, ping{N: 5})
	require.NoError(t, w.Update(0))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, got, "the inbox is reusable after a drain")
}

func TestWorld_IsNearby(t *testing.T) {
	t.Parallel()

	w := engine.New(engine.WithNearbyDistance(10))
	a := w.Create()
	b := w.Create()
	far := w.Create()
	nowhere := w.Create()
	require.NoError(t, ecs.Set(w.Store(), a, component.Position{X: 0, Y: 0}))
	require.NoError(t, ecs.Set(w.Store(), b, component.Position{X: 6, Y: 8}))
	require.NoError(t, ecs.Set(w.Store(), far, component.Position{X: 7, Y: 8}))

	assert.True(t, w.IsNearby(a, b), "exactly at the threshold")
	assert.False(t, w.IsNearby(a, far))
	assert.False(t, w.IsNearby(a, nowhere))
}

func TestWorld_NextObjectID(t *testing.T) {
	t.Parallel()

	w := engine.New()
	first := w.NextObjectID()
	assert.NotZero(t, first)
	assert.Equal(t, first+1, w.NextObjectID())
}
