package ecs

import (
	"github.com/argus-labs/roseshard/pkg/assert"
	"github.com/kelindar/bitmap"
)

// archetypeID is the unique identifier for an archetype, its index in the store's archetype list.
type archetypeID = int

// archetype represents a collection of entities with the same component types.
// NOTE: We store the compCount instead of using Bitmap.Count() because counting bits is O(n).
// Columns are kept in a slice ordered like compIDs, which is faster than a map for the handful of
// components an entity carries.
type archetype struct {
	id         archetypeID    // Corresponds to the index in the archetypes list
	components bitmap.Bitmap  // Bitmap of components contained in this archetype
	compIDs    []componentID  // Component IDs in ascending order, parallel to columns
	rows       sparseSet      // Entity index -> row
	entities   []Entity       // List of entities of this archetype
	columns    []abstractColumn
	compCount  int
}

// newArchetype creates an archetype for the given component mask using the registered factories.
func newArchetype(aid archetypeID, components bitmap.Bitmap, cm *componentManager) *archetype {
	compIDs := make([]componentID, 0, components.Count())
	columns := make([]abstractColumn, 0, components.Count())
	components.Range(func(cid uint32) {
		compIDs = append(compIDs, cid)
		columns = append(columns, cm.factories[cid]())
	})

	return &archetype{
		id:         aid,
		components: components,
		compIDs:    compIDs,
		rows:       newSparseSet(),
		entities:   make([]Entity, 0),
		columns:    columns,
		compCount:  len(columns),
	}
}

// exact returns true if the given components matches the archetype's exactly.
func (a *archetype) exact(components bitmap.Bitmap) bool {
	if a.compCount != components.Count() {
		return false
	}
	return a.contains(components)
}

// contains returns true if the archetype contains all of the components in the given components.
func (a *archetype) contains(components bitmap.Bitmap) bool {
	intersect := components.Clone(nil)
	intersect.And(a.components)
	return intersect.Count() == components.Count()
}

// column returns the column storing component cid, or nil if the archetype lacks it.
func (a *archetype) column(cid componentID) abstractColumn {
	for i, id := range a.compIDs {
		if id == cid {
			return a.columns[i]
		}
	}
	return nil
}

// -------------------------------------------------------------------------------------------------
// Entity operations
// -------------------------------------------------------------------------------------------------

// newEntity adds the entity to the archetype with zero-valued components and returns its row.
func (a *archetype) newEntity(e Entity) int {
	a.entities = append(a.entities, e)

	for _, column := range a.columns {
		column.extend()
		assert.That(column.len() == len(a.entities), "column components length doesn't match entities")
	}

	row := len(a.entities) - 1
	a.rows.set(e.index, row)
	return row
}

// removeEntity removes an entity from the archetype by swapping the last entity into its row.
// Expects the caller to check that the entity belongs to this archetype.
func (a *archetype) removeEntity(e Entity) {
	row, exists := a.rows.get(e.index)
	assert.That(exists, "entity is not in archetype")

	lastIndex := len(a.entities) - 1
	a.entities[row] = a.entities[lastIndex]
	a.entities = a.entities[:lastIndex]

	for _, column := range a.columns {
		column.remove(row)
		assert.That(column.len() == len(a.entities), "column components length doesn't match entities")
	}

	ok := a.rows.remove(e.index)
	assert.That(ok, "entity isn't removed from sparse set")

	// If the entity was the last one, nothing was swapped.
	if row == lastIndex {
		return
	}
	a.rows.set(a.entities[row].index, row)
}

// moveEntity moves an entity into destination, copying every component both archetypes share.
// Returns the entity's row in destination.
func (a *archetype) moveEntity(destination *archetype, e Entity) int {
	row, exists := a.rows.get(e.index)
	assert.That(exists, "entity is not in archetype")

	newRow := destination.newEntity(e)
	for i, cid := range destination.compIDs {
		if src := a.column(cid); src != nil {
			destination.columns[i].setAbstract(newRow, src.getAbstract(row))
		}
	}

	a.removeEntity(e)
	return newRow
}

// row returns the row of e in the archetype.
func (a *archetype) row(e Entity) int {
	row, exists := a.rows.get(e.index)
	assert.That(exists, "entity is not in archetype")
	return row
}
