package inventory

import (
	"github.com/argus-labs/roseshard/pkg/assert"
	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/rotisserie/eris"
)

// FindFirstAvailableSpot scans the carried range in order and returns the first empty slot or, if
// item is stackable, the first slot holding a non-full stack of the same kind, whichever comes
// first. Pass ecs.Null to look for an empty slot only.
func (e *Engine) FindFirstAvailableSpot(w *engine.World, holder, item ecs.Entity) (int, bool) {
	return e.findSpot(w, inventory(w, holder), item)
}

func (e *Engine) findSpot(w *engine.World, inv component.Inventory, item ecs.Entity) (int, bool) {
	s := w.Store()

	var def component.ItemDef
	stackable := false
	if !item.IsNull() {
		def = ecs.MustGet[component.ItemDef](s, item)
		stackable = def.Stackable
	}

	for slot := inv.Carried.Offset; slot < inv.Carried.End(); slot++ {
		occupant := inv.Slots[slot]
		if occupant.IsNull() {
			return slot, true
		}
		if !stackable || occupant == item {
			continue
		}
		other, ok := ecs.TryGet[component.ItemDef](s, occupant)
		if !ok || !other.SameKind(def) {
			continue
		}
		if ecs.MustGet[component.Item](s, occupant).Count < e.opts.MaxStack {
			return slot, true
		}
	}
	return 0, false
}

// AddItem places item in the carried range of holder. A stackable item is merged into existing
// stacks of the same kind first; stacks are filled up to the maximum and the rest continues to the
// next available slot. Either the whole count is placed or nothing changes. An item whose count is
// fully merged is destroyed.
func (e *Engine) AddItem(w *engine.World, holder, item ecs.Entity) error {
	assert.Always(w.IsValid(item), "adding dead item %s", item)

	slots, err := e.place(w, holder, item)
	if err != nil {
		return err
	}
	e.notifier.SetItems(w, holder, slots...)
	return nil
}

type stackSnapshot struct {
	item  ecs.Entity
	count uint32
}

// place puts item into holder's inventory and returns the changed slots.
func (e *Engine) place(w *engine.World, holder, item ecs.Entity) ([]int, error) {
	s := w.Store()
	inv := inventory(w, holder)
	remaining := uint64(ecs.MustGet[component.Item](s, item).Count)
	maxStack := uint64(e.opts.MaxStack)

	var (
		changed []int
		touched []stackSnapshot
	)
	rollback := func() {
		for _, snap := range touched {
			data := ecs.MustGet[component.Item](s, snap.item)
			data.Count = snap.count
			setItem(w, snap.item, data)
		}
	}

	for {
		slot, ok := e.findSpot(w, inv, item)
		if !ok {
			rollback()
			return nil, eris.Wrapf(ErrNoSpace, "%s", holder)
		}
		changed = append(changed, slot)

		occupant := inv.Slots[slot]
		if occupant.IsNull() {
			data := ecs.MustGet[component.Item](s, item)
			data.Count = uint32(remaining) //nolint:gosec // never more than the original count
			setItem(w, item, data)
			inv.Slots[slot] = item
			setInventory(w, holder, inv)
			return changed, nil
		}

		stack := ecs.MustGet[component.Item](s, occupant)
		touched = append(touched, stackSnapshot{item: occupant, count: stack.Count})
		total := uint64(stack.Count) + remaining
		if total <= maxStack {
			stack.Count = uint32(total)
			setItem(w, occupant, stack)
			w.Destroy(item)
			return changed, nil
		}

		remaining = total - maxStack
		stack.Count = e.opts.MaxStack
		setItem(w, occupant, stack)
	}
}

// RemoveItem takes quantity items out of slot. When quantity is less than the stack, the stack
// shrinks and a new item entity with the removed quantity is returned. Otherwise the slot is emptied
// and its item returned; removing an equipped item runs its unequip hook, whose veto aborts the
// removal.
func (e *Engine) RemoveItem(w *engine.World, holder ecs.Entity, slot int, quantity uint32) (ecs.Entity, error) {
	s := w.Store()
	inv := inventory(w, holder)

	if !inv.Valid(slot) || inv.Slots[slot].IsNull() {
		return ecs.Null, eris.Wrapf(ErrWrongIndex, "remove from slot %d", slot)
	}
	item := inv.Slots[slot]
	data := ecs.MustGet[component.Item](s, item)
	if quantity == 0 || data.Count < quantity {
		return ecs.Null, eris.Wrapf(ErrInvalidQuantity, "remove %d from stack of %d", quantity, data.Count)
	}

	if quantity < data.Count {
		split := e.split(w, item, quantity)
		data.Count -= quantity
		setItem(w, item, data)
		e.notifier.SetItems(w, holder, slot)
		return split, nil
	}

	equipped := inv.Equipped.Contains(slot)
	if equipped && !e.allowUnequip(w, holder, item) {
		return ecs.Null, eris.Wrapf(ErrRequirementsNotMet, "unequip hook vetoed removal from slot %d", slot)
	}
	inv.Slots[slot] = ecs.Null
	setInventory(w, holder, inv)
	if equipped {
		e.notifier.EquipItem(w, holder, slot, ecs.Null)
	}
	e.notifier.SetItems(w, holder, slot)
	return item, nil
}

// split creates a new item of the same kind as item holding quantity.
func (e *Engine) split(w *engine.World, item ecs.Entity, quantity uint32) ecs.Entity {
	s := w.Store()
	data := ecs.MustGet[component.Item](s, item)
	def := ecs.MustGet[component.ItemDef](s, item)

	spawned := w.Create()
	setItem(w, spawned, component.Item{Count: quantity, IsZuly: data.IsZuly})
	assert.Always(ecs.Set(s, spawned, def) == nil, "failed to set item definition")
	if hook, ok := ecs.TryGet[component.ScriptHook](s, item); ok {
		assert.Always(ecs.Set(s, spawned, hook) == nil, "failed to set script hook")
	}
	return spawned
}

// SwapItem exchanges the content of two slots. It doesn't check anything: callers validate the
// move and send the notifications.
func (e *Engine) SwapItem(w *engine.World, holder ecs.Entity, a, b int) {
	inv := inventory(w, holder)
	assert.That(inv.Valid(a) && inv.Valid(b), "swap of invalid slots %d and %d", a, b)

	inv.Slots[a], inv.Slots[b] = inv.Slots[b], inv.Slots[a]
	setInventory(w, holder, inv)
}
