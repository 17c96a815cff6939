package inventory

import (
	"github.com/argus-labs/roseshard/pkg/assert"
	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/argus-labs/roseshard/pkg/itemdb"
	"github.com/rotisserie/eris"
)

// CreateItem creates an item entity of the catalog item (category, id) holding count. The item
// doesn't lie anywhere until it is added to an inventory or dropped.
func (e *Engine) CreateItem(w *engine.World, category component.Category, id uint16, count uint32) (ecs.Entity, error) {
	def, ok := e.catalog.Lookup(category, id)
	if !ok {
		return ecs.Null, eris.Wrapf(itemdb.ErrNotFound, "%s %d", category, id)
	}
	if count == 0 {
		return ecs.Null, eris.Wrap(ErrInvalidQuantity, "create empty item")
	}

	s := w.Store()
	item := w.Create()
	setItem(w, item, component.Item{Count: count})
	assert.Always(ecs.Set(s, item, component.ItemDef{
		Category:  def.Category,
		ID:        def.ID,
		Stackable: def.Stackable,
	}) == nil, "failed to set item definition")
	if def.Program != nil {
		assert.Always(ecs.Set(s, item, component.NewScriptHook(def.Program)) == nil, "failed to set script hook")
	}
	return item, nil
}

// CreateZuly creates a zuly item worth amount.
func (e *Engine) CreateZuly(w *engine.World, amount uint32) ecs.Entity {
	item := w.Create()
	setItem(w, item, component.Item{Count: amount, IsZuly: true})
	assert.Always(ecs.Set(w.Store(), item, component.ItemDef{Category: component.CategoryZuly}) == nil,
		"failed to set item definition")
	return item
}
