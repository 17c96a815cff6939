// Package inventory implements carrying, stacking, equipping, dropping and picking up items, and
// the zuly balance of characters.
//
// Every operation validates before it mutates: a returned error means no component was changed.
// Operations take the world explicitly and must run on the tick goroutine. Passing a dead holder is
// a programming error and panics.
package inventory

import (
	"math/rand/v2"
	"time"

	"github.com/argus-labs/roseshard/pkg/assert"
	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/argus-labs/roseshard/pkg/itemdb"
	"github.com/rotisserie/eris"
)

var (
	// ErrNoSpace is returned when no eligible slot is free.
	ErrNoSpace = eris.New("no space in inventory")
	// ErrWrongIndex is returned when a slot is outside the range an operation requires, or holds
	// nothing to operate on.
	ErrWrongIndex = eris.New("wrong slot index")
	// ErrRequirementsNotMet is returned when an item doesn't fit the target slot, or a hook vetoed
	// the operation.
	ErrRequirementsNotMet = eris.New("requirements not met")
	// ErrNotEnoughZuly is returned when a withdrawal exceeds the balance.
	ErrNotEnoughZuly = eris.New("not enough zuly")
	// ErrInvalidQuantity is returned for a zero quantity or one larger than the stack.
	ErrInvalidQuantity = eris.New("invalid quantity")
)

// Catalog resolves item definitions.
type Catalog interface {
	Lookup(category component.Category, id uint16) (*itemdb.Definition, bool)
}

// Notifier receives the state updates of successful operations.
type Notifier interface {
	SetItems(w *engine.World, holder ecs.Entity, slots ...int)
	EquipItem(w *engine.World, holder ecs.Entity, slot int, item ecs.Entity)
	SetMoney(w *engine.World, holder ecs.Entity)
}

// Default option values.
const (
	DefaultMaxStack   = 999
	DefaultDropRange  = 500
	DefaultOwnerGrace = 2 * time.Minute
	DefaultDropExpiry = 5 * time.Minute
)

// Options tunes the engine. Zero values select the defaults.
type Options struct {
	// MaxStack is the largest count a stack reaches by merging.
	MaxStack uint32
	// DropRange is the radius around the holder dropped items land in.
	DropRange float32
	// OwnerGrace is how long only the dropper may pick up a dropped item.
	OwnerGrace time.Duration
	// DropExpiry is how long a dropped item stays in the world.
	DropExpiry time.Duration
	// EnforceHookVeto makes a false equip or unequip hook abort EquipItem and UnequipItem. When
	// unset the veto is logged and ignored. RemoveItem always honors the unequip hook.
	EnforceHookVeto bool
	// Rand scatters dropped items. Defaults to a randomly seeded source.
	Rand *rand.Rand
}

func (o Options) withDefaults() Options {
	if o.MaxStack == 0 {
		o.MaxStack = DefaultMaxStack
	}
	if o.DropRange <= 0 {
		o.DropRange = DefaultDropRange
	}
	if o.OwnerGrace <= 0 {
		o.OwnerGrace = DefaultOwnerGrace
	}
	if o.DropExpiry <= 0 {
		o.DropExpiry = DefaultDropExpiry
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // not security sensitive
	}
	return o
}

// Engine performs inventory operations.
type Engine struct {
	catalog  Catalog
	notifier Notifier
	opts     Options

	// dropped indexes world items by object id. Entries are checked against the item on lookup and
	// removed when the item leaves the world or expires.
	dropped map[uint32]ecs.Entity
}

// New creates an engine.
func New(catalog Catalog, notifier Notifier, opts Options) *Engine {
	return &Engine{
		catalog:  catalog,
		notifier: notifier,
		opts:     opts.withDefaults(),
		dropped:  make(map[uint32]ecs.Entity),
	}
}

// MaxStack returns the configured maximum stack size.
func (e *Engine) MaxStack() uint32 {
	return e.opts.MaxStack
}

// inventory returns the inventory of a live holder.
func inventory(w *engine.World, holder ecs.Entity) component.Inventory {
	assert.Always(w.IsValid(holder), "inventory operation on dead holder %s", holder)
	return ecs.MustGet[component.Inventory](w.Store(), holder)
}

func setInventory(w *engine.World, holder ecs.Entity, inv component.Inventory) {
	err := ecs.Set(w.Store(), holder, inv)
	assert.Always(err == nil, "failed to store inventory of %s: %v", holder, err)
}

func setItem(w *engine.World, item ecs.Entity, data component.Item) {
	err := ecs.Set(w.Store(), item, data)
	assert.Always(err == nil, "failed to store item %s: %v", item, err)
}
