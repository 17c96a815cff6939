package inventory

import (
	"math"

	"github.com/argus-labs/roseshard/pkg/assert"
	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/rotisserie/eris"
)

// DropItem places item in the world at (x, y). With a live owner, only the owner may pick it up
// until the owner grace period ends; without one the item is free for all right away. Items still
// lying in the world when the drop expiry ends are destroyed.
func (e *Engine) DropItem(w *engine.World, item ecs.Entity, x, y float32, owner ecs.Entity) {
	s := w.Store()
	assert.Always(w.IsValid(item), "dropping dead item %s", item)

	info := component.BasicInfo{ID: w.NextObjectID()}
	if !owner.IsNull() && w.IsValid(owner) {
		ownerInfo, _ := ecs.TryGet[component.BasicInfo](s, owner)
		info.TeamID = ownerInfo.TeamID
		assert.Always(ecs.Set(s, item, component.Owner{Owner: owner}) == nil, "failed to set owner")
	} else {
		info.TeamID = info.ID
		if ecs.Has[component.Owner](s, item) {
			assert.Always(ecs.Remove[component.Owner](s, item) == nil, "failed to remove owner")
		}
	}
	assert.Always(ecs.Set(s, item, info) == nil, "failed to set basic info")
	assert.Always(ecs.Set(s, item, component.Position{X: x, Y: y}) == nil, "failed to set position")

	// A later drop of the same entity issues a new object id, which retires these timers.
	id := info.ID
	e.dropped[id] = item
	w.AddTimer(e.opts.OwnerGrace, func(w *engine.World) {
		if !droppedAs(w, item, id) || !ecs.Has[component.Owner](w.Store(), item) {
			return
		}
		_ = ecs.Remove[component.Owner](w.Store(), item)
		info := ecs.MustGet[component.BasicInfo](w.Store(), item)
		info.TeamID = info.ID
		_ = ecs.Set(w.Store(), item, info)
	})
	w.AddTimer(e.opts.DropExpiry, func(w *engine.World) {
		if e.dropped[id] == item {
			delete(e.dropped, id)
		}
		if droppedAs(w, item, id) && ecs.Has[component.Position](w.Store(), item) {
			w.Destroy(item)
		}
	})
}

// WorldItem returns the item lying in the world under object id.
func (e *Engine) WorldItem(w *engine.World, id uint32) (ecs.Entity, bool) {
	item, ok := e.dropped[id]
	if !ok {
		return ecs.Null, false
	}
	if !droppedAs(w, item, id) || w.IsDestroying(item) || !ecs.Has[component.Position](w.Store(), item) {
		delete(e.dropped, id)
		return ecs.Null, false
	}
	return item, true
}

// droppedAs reports whether item is still alive and lies in the world under object id.
func droppedAs(w *engine.World, item ecs.Entity, id uint32) bool {
	if !w.IsValid(item) {
		return false
	}
	info, ok := ecs.TryGet[component.BasicInfo](w.Store(), item)
	return ok && info.ID == id
}

// PickupItem moves a world item into the inventory of picker. Zuly is credited to the balance and
// the item destroyed. If the inventory has no room the item is put back exactly as it lay, so the
// timers of its original drop still apply, and ErrNoSpace is returned.
func (e *Engine) PickupItem(w *engine.World, picker, item ecs.Entity) error {
	s := w.Store()
	assert.Always(w.IsValid(picker), "pickup by dead entity %s", picker)

	if !w.IsValid(item) || w.IsDestroying(item) {
		return eris.Wrapf(ErrWrongIndex, "pickup of gone item %s", item)
	}
	pos, ok := ecs.TryGet[component.Position](s, item)
	if !ok || !ecs.Has[component.Item](s, item) {
		return eris.Wrapf(ErrWrongIndex, "%s is not a world item", item)
	}
	owner, restricted := ecs.TryGet[component.Owner](s, item)
	if restricted && owner.Owner != picker {
		return eris.Wrapf(ErrRequirementsNotMet, "%s is reserved for %s", item, owner.Owner)
	}
	info, _ := ecs.TryGet[component.BasicInfo](s, item)

	delete(e.dropped, info.ID)
	_ = ecs.Remove[component.Position](s, item)
	_ = ecs.Remove[component.BasicInfo](s, item)
	if restricted {
		_ = ecs.Remove[component.Owner](s, item)
	}

	data := ecs.MustGet[component.Item](s, item)
	if data.IsZuly {
		if err := e.AddZuly(w, picker, int64(data.Count)); err != nil {
			e.putBack(w, item, pos, info, owner, restricted)
			return err
		}
		w.Destroy(item)
		return nil
	}

	if err := e.AddItem(w, picker, item); err != nil {
		e.putBack(w, item, pos, info, owner, restricted)
		return err
	}
	return nil
}

// putBack restores the world components a failed pickup stripped from item. The object id is kept,
// so the pending drop timers still match.
func (e *Engine) putBack(
	w *engine.World, item ecs.Entity, pos component.Position, info component.BasicInfo,
	owner component.Owner, restricted bool,
) {
	s := w.Store()
	assert.Always(ecs.Set(s, item, info) == nil, "failed to restore basic info")
	assert.Always(ecs.Set(s, item, pos) == nil, "failed to restore position")
	if restricted {
		assert.Always(ecs.Set(s, item, owner) == nil, "failed to restore owner")
	}
	e.dropped[info.ID] = item
}

// AddZuly changes the balance of holder by delta. A withdrawal larger than the balance fails with
// ErrNotEnoughZuly; a deposit saturates at math.MaxInt64.
func (e *Engine) AddZuly(w *engine.World, holder ecs.Entity, delta int64) error {
	inv := inventory(w, holder)

	switch {
	case delta < 0 && inv.Zuly+delta < 0:
		return eris.Wrapf(ErrNotEnoughZuly, "apply %d to balance %d", delta, inv.Zuly)
	case delta > math.MaxInt64-inv.Zuly:
		inv.Zuly = math.MaxInt64
	default:
		inv.Zuly += delta
	}

	setInventory(w, holder, inv)
	e.notifier.SetMoney(w, holder)
	return nil
}
