package inventory

import (
	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/argus-labs/roseshard/pkg/script"
	"github.com/rotisserie/eris"
)

// EquipItem moves the item in carried slot from into equipment slot to. Whatever occupied to moves
// to from. The item must match the category of to, unless to is a pass-through slot.
func (e *Engine) EquipItem(w *engine.World, holder ecs.Entity, from, to int) error {
	s := w.Store()
	inv := inventory(w, holder)

	if !inv.Carried.Contains(from) || !inv.Equipped.Contains(to) {
		return eris.Wrapf(ErrWrongIndex, "equip from %d to %d", from, to)
	}
	toEquip := inv.Slots[from]
	if toEquip.IsNull() {
		return eris.Wrapf(ErrRequirementsNotMet, "slot %d is empty", from)
	}
	def := ecs.MustGet[component.ItemDef](s, toEquip)
	if !component.SlotAccepts(to, def.Category) {
		return eris.Wrapf(ErrRequirementsNotMet, "%s doesn't fit slot %d", def.Category, to)
	}

	equipped := inv.Slots[to]
	allowed := true
	if !equipped.IsNull() {
		allowed = e.allowUnequip(w, holder, equipped)
	}
	allowed = e.allowEquip(w, holder, toEquip) && allowed
	if !allowed && e.opts.EnforceHookVeto {
		return eris.Wrapf(ErrRequirementsNotMet, "hook vetoed equip to slot %d", to)
	}

	e.SwapItem(w, holder, from, to)
	e.notifier.EquipItem(w, holder, to, toEquip)
	e.notifier.SetItems(w, holder, to, from)
	return nil
}

// UnequipItem moves the item in equipment slot from to the first empty carried slot. Unequipping an
// empty slot does nothing.
func (e *Engine) UnequipItem(w *engine.World, holder ecs.Entity, from int) error {
	inv := inventory(w, holder)

	to, ok := e.findSpot(w, inv, ecs.Null)
	if !ok {
		return eris.Wrapf(ErrNoSpace, "unequip slot %d", from)
	}
	if !inv.Equipped.Contains(from) {
		return eris.Wrapf(ErrWrongIndex, "unequip slot %d", from)
	}

	equipped := inv.Slots[from]
	if equipped.IsNull() {
		return nil
	}
	if !e.allowUnequip(w, holder, equipped) && e.opts.EnforceHookVeto {
		return eris.Wrapf(ErrRequirementsNotMet, "hook vetoed unequip of slot %d", from)
	}

	e.SwapItem(w, holder, from, to)
	e.notifier.EquipItem(w, holder, from, ecs.Null)
	e.notifier.SetItems(w, holder, to, from)
	return nil
}

func (e *Engine) allowEquip(w *engine.World, holder, item ecs.Entity) bool {
	return e.runHook(w, holder, item, "equip", (*script.Program).OnEquip)
}

func (e *Engine) allowUnequip(w *engine.World, holder, item ecs.Entity) bool {
	return e.runHook(w, holder, item, "unequip", (*script.Program).OnUnequip)
}

// runHook evaluates a hook of item for holder. Items without a hook, or whose hook program is gone,
// allow everything. A failing hook counts as a veto.
func (e *Engine) runHook(
	w *engine.World, holder, item ecs.Entity, kind string, hook func(*script.Program, script.Env) (bool, error),
) bool {
	h, ok := ecs.TryGet[component.ScriptHook](w.Store(), item)
	if !ok {
		return true
	}
	program := h.Resolve()
	if program == nil {
		return true
	}

	allowed, err := hook(program, hookEnv(w, holder))
	if err != nil {
		w.Logger().Error().Err(err).Str("item", program.Name()).Str("hook", kind).Msg("hook failed")
		return false
	}
	if !allowed {
		w.Logger().Debug().Str("item", program.Name()).Str("hook", kind).Stringer("holder", holder).
			Bool("enforced", e.opts.EnforceHookVeto).Msg("hook vetoed")
	}
	return allowed
}

func hookEnv(w *engine.World, holder ecs.Entity) script.Env {
	s := w.Store()
	char, _ := ecs.TryGet[component.Character](s, holder)
	info, _ := ecs.TryGet[component.BasicInfo](s, holder)
	inv, _ := ecs.TryGet[component.Inventory](s, holder)
	return script.Env{
		Level:  int(char.Level),
		Job:    int(char.Job),
		Zuly:   inv.Zuly,
		TeamID: int(info.TeamID),
	}
}
