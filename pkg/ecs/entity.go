package ecs

import (
	"fmt"
	"math"

	"github.com/argus-labs/roseshard/pkg/assert"
	"github.com/rotisserie/eris"
)

// Entity is an opaque handle to a live object. It pairs an index into the entity table with the
// generation that index had when the handle was issued. Destroying an entity bumps the generation,
// so handles captured before the destroy (by timers, sessions, slot references) stop resolving even
// after the index is recycled for a new entity.
type Entity struct {
	index      uint32
	generation uint32
}

// Null is the zero handle. It is never issued and marks an empty slot or an absent owner.
var Null = Entity{} //nolint:gochecknoglobals // sentinel

// MaxEntities is the maximum number of entity indices the table can hold.
const MaxEntities = math.MaxUint32 - 1

// Index returns the slot of the entity in the entity table.
func (e Entity) Index() uint32 {
	return e.index
}

// Generation returns the generation the handle was issued with.
func (e Entity) Generation() uint32 {
	return e.generation
}

// IsNull reports whether e is the Null handle.
func (e Entity) IsNull() bool {
	return e == Null
}

func (e Entity) String() string {
	if e.IsNull() {
		return "Entity(null)"
	}
	return fmt.Sprintf("Entity(%d:%d)", e.index, e.generation)
}

// entityManager issues entity handles and maps live entities to their archetypes. Freed indices
// are reused in FIFO order so a recently destroyed index stays unused for as long as possible.
type entityManager struct {
	generations []uint32     // Index -> current generation
	archetypes  []*archetype // Index -> archetype of the live entity, nil when free
	free        []uint32     // Queue of free indices
	alive       int          // Number of live entities
}

func newEntityManager() entityManager {
	return entityManager{
		generations: make([]uint32, 0),
		archetypes:  make([]*archetype, 0),
		free:        make([]uint32, 0),
		alive:       0,
	}
}

// new allocates a handle and places the entity in arch.
func (em *entityManager) new(arch *archetype) (Entity, error) {
	assert.That(arch != nil, "archetype must not be nil")

	var index uint32
	if len(em.free) > 0 {
		index = em.free[0]
		em.free = em.free[1:]
	} else {
		if len(em.generations) > MaxEntities {
			return Null, eris.New("max number of entities exceeded")
		}
		index = uint32(len(em.generations)) //nolint:gosec // bounded above
		em.generations = append(em.generations, 0)
		em.archetypes = append(em.archetypes, nil)
	}

	em.generations[index]++
	entity := Entity{index: index, generation: em.generations[index]}

	arch.newEntity(entity)
	em.archetypes[index] = arch
	em.alive++

	return entity, nil
}

// remove destroys a live entity, invalidating every outstanding handle to it.
func (em *entityManager) remove(e Entity) error {
	arch, err := em.getArchetype(e)
	if err != nil {
		return err
	}

	arch.removeEntity(e)
	em.archetypes[e.index] = nil
	em.generations[e.index]++
	em.free = append(em.free, e.index)
	em.alive--

	return nil
}

// isAlive reports whether e was issued and has not been destroyed since.
func (em *entityManager) isAlive(e Entity) bool {
	if e.IsNull() || int(e.index) >= len(em.generations) {
		return false
	}
	return em.generations[e.index] == e.generation && em.archetypes[e.index] != nil
}

// getArchetype returns the archetype holding e, or ErrEntityNotFound for a stale or unknown handle.
func (em *entityManager) getArchetype(e Entity) (*archetype, error) {
	if !em.isAlive(e) {
		return nil, eris.Wrapf(ErrEntityNotFound, "%s", e)
	}
	return em.archetypes[e.index], nil
}

// setArchetype records that e now lives in arch.
func (em *entityManager) setArchetype(e Entity, arch *archetype) {
	assert.That(em.isAlive(e), "moving a dead entity")
	em.archetypes[e.index] = arch
}
