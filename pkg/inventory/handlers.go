package inventory

import (
	"math"

	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/argus-labs/roseshard/pkg/protocol"
	"github.com/rotisserie/eris"
)

// Register installs the handlers of the inventory requests in w.
func (e *Engine) Register(w *engine.World) {
	engine.RegisterHandler(w, e.handleEquip)
	engine.RegisterHandler(w, e.handleDrop)
	engine.RegisterHandler(w, e.handlePickup)
}

func (e *Engine) handleEquip(w *engine.World, holder ecs.Entity, req protocol.EquipItemRequest) error {
	if !ecs.Has[component.Inventory](w.Store(), holder) {
		return eris.Errorf("%s has no inventory", holder)
	}
	// Slot 0 never holds an item, so the client uses it to ask for an unequip.
	if req.SlotFrom == 0 {
		return e.UnequipItem(w, holder, req.SlotTo)
	}
	return e.EquipItem(w, holder, req.SlotFrom, req.SlotTo)
}

func (e *Engine) handleDrop(w *engine.World, holder ecs.Entity, req protocol.DropItemRequest) error {
	s := w.Store()
	inv, ok := ecs.TryGet[component.Inventory](s, holder)
	if !ok {
		return eris.Errorf("%s has no inventory", holder)
	}
	pos, ok := ecs.TryGet[component.Position](s, holder)
	if !ok {
		return eris.Errorf("%s is not in the world", holder)
	}
	if req.Quantity == 0 {
		return eris.Wrap(ErrInvalidQuantity, "drop nothing")
	}

	var item ecs.Entity
	if req.Index == 0 {
		if err := e.AddZuly(w, holder, -int64(req.Quantity)); err != nil {
			return err
		}
		item = e.CreateZuly(w, req.Quantity)
	} else {
		if !inv.Valid(req.Index) {
			return eris.Wrapf(ErrWrongIndex, "drop from slot %d", req.Index)
		}
		var err error
		if item, err = e.RemoveItem(w, holder, req.Index, req.Quantity); err != nil {
			return err
		}
	}

	x, y := e.scatter(pos)
	e.DropItem(w, item, x, y, holder)
	return nil
}

// scatter returns a uniformly random point within the drop range of pos.
func (e *Engine) scatter(pos component.Position) (float32, float32) {
	r := float64(e.opts.DropRange) * math.Sqrt(e.opts.Rand.Float64())
	theta := 2 * math.Pi * e.opts.Rand.Float64()
	return pos.X + float32(r*math.Cos(theta)), pos.Y + float32(r*math.Sin(theta))
}

func (e *Engine) handlePickup(w *engine.World, picker ecs.Entity, req protocol.PickupItemRequest) error {
	item, found := e.WorldItem(w, req.ObjectID)
	if !found {
		return eris.Wrapf(ErrWrongIndex, "no world item %d", req.ObjectID)
	}
	if !w.IsNearby(picker, item) {
		return eris.Wrapf(ErrRequirementsNotMet, "world item %d is out of reach", req.ObjectID)
	}
	return e.PickupItem(w, picker, item)
}
