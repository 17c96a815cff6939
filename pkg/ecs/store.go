package ecs

import (
	"github.com/argus-labs/roseshard/pkg/assert"
	"github.com/kelindar/bitmap"
	"github.com/rotisserie/eris"
)

// Store holds every entity and its components. A Store is not safe for concurrent use; it is owned
// by the goroutine running the tick.
type Store struct {
	entities   entityManager
	components componentManager
	archetypes []*archetype // Index is the archetype ID
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{
		entities:   newEntityManager(),
		components: newComponentManager(),
		archetypes: make([]*archetype, 0),
	}
	// Archetype 0 holds entities without components.
	s.findOrCreateArchetype(bitmap.Bitmap{})
	return s
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	return s.entities.alive
}

// Destroy deletes an entity and all its components. Returns false if the handle is stale.
func (s *Store) Destroy(e Entity) bool {
	return s.entities.remove(e) == nil
}

// findOrCreateArchetype finds the archetype matching the component mask exactly, creating it if
// none exists.
func (s *Store) findOrCreateArchetype(components bitmap.Bitmap) *archetype {
	for _, arch := range s.archetypes {
		if arch.exact(components) {
			return arch
		}
	}

	arch := newArchetype(len(s.archetypes), components.Clone(nil), &s.components)
	s.archetypes = append(s.archetypes, arch)
	return arch
}

// locate returns the archetype and row holding a live entity.
func (s *Store) locate(e Entity) (*archetype, int, error) {
	arch, err := s.entities.getArchetype(e)
	if err != nil {
		return nil, 0, err
	}
	return arch, arch.row(e), nil
}

// -------------------------------------------------------------------------------------------------
// Entity and component accessors
// -------------------------------------------------------------------------------------------------

// Create creates an entity without any components.
func Create(s *Store) Entity {
	e, err := s.entities.new(s.archetypes[0])
	assert.Always(err == nil, "failed to create entity: %v", err)
	return e
}

// Alive checks if a handle refers to a live entity.
func Alive(s *Store, e Entity) bool {
	return s.entities.isAlive(e)
}

// Set sets a component on an entity. If the entity contains the component type, it will update the
// value. If it doesn't, it will add the component.
func Set[T Component](s *Store, e Entity, component T) error {
	arch, row, err := s.locate(e)
	if err != nil {
		return err
	}

	cid, err := registerComponent[T](&s.components)
	if err != nil {
		return eris.Wrap(err, "failed to register component")
	}

	if col := arch.column(cid); col != nil {
		col.(*column[T]).set(row, component) //nolint:errcheck // type is guaranteed by registration
		return nil
	}

	mask := arch.components.Clone(nil)
	mask.Set(cid)
	destination := s.findOrCreateArchetype(mask)
	newRow := arch.moveEntity(destination, e)
	s.entities.setArchetype(e, destination)
	destination.column(cid).(*column[T]).set(newRow, component) //nolint:errcheck // see above

	return nil
}

// Get gets a component from an entity. The returned value is a copy, but reference fields (slices,
// maps) share their backing storage with the stored component; call Set to publish changes.
// Returns an error if the entity doesn't exist or doesn't contain the component type.
func Get[T Component](s *Store, e Entity) (T, error) {
	var zero T

	arch, row, err := s.locate(e)
	if err != nil {
		return zero, err
	}

	cid, ok := s.components.lookup(zero.Name())
	if !ok {
		return zero, eris.Wrapf(ErrComponentNotFound, "component %s", zero.Name())
	}
	col := arch.column(cid)
	if col == nil {
		return zero, eris.Wrapf(ErrComponentNotFound, "component %s", zero.Name())
	}

	return col.(*column[T]).get(row), nil //nolint:errcheck // type is guaranteed by registration
}

// TryGet returns the component and true, or the zero value and false when the entity is dead or
// lacks the component.
func TryGet[T Component](s *Store, e Entity) (T, bool) {
	c, err := Get[T](s, e)
	return c, err == nil
}

// MustGet returns the component, panicking when the entity is dead or lacks it. Use it only where
// the caller has already established that the component is present.
func MustGet[T Component](s *Store, e Entity) T {
	c, err := Get[T](s, e)
	assert.Always(err == nil, "MustGet %s on %s: %v", c.Name(), e, err)
	return c
}

// Remove removes a component from an entity.
// Returns an error if the entity or the component to remove doesn't exist.
func Remove[T Component](s *Store, e Entity) error {
	var zero T

	arch, _, err := s.locate(e)
	if err != nil {
		return err
	}

	cid, ok := s.components.lookup(zero.Name())
	if !ok || arch.column(cid) == nil {
		return eris.Wrapf(ErrComponentNotFound, "component %s", zero.Name())
	}

	mask := arch.components.Clone(nil)
	mask.Remove(cid)
	destination := s.findOrCreateArchetype(mask)
	arch.moveEntity(destination, e)
	s.entities.setArchetype(e, destination)

	return nil
}

// Has checks if an entity has a specific component type.
// Returns false if either the entity doesn't exist or doesn't have the component.
func Has[T Component](s *Store, e Entity) bool {
	_, err := Get[T](s, e)
	return err == nil
}
