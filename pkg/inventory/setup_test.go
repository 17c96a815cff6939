package inventory_test

import (
	"testing"
	"time"

	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/argus-labs/roseshard/pkg/inventory"
	"github.com/argus-labs/roseshard/pkg/itemdb"
	"github.com/argus-labs/roseshard/pkg/testutils"
	"github.com/stretchr/testify/require"
)

// Catalog ids used by the tests.
const (
	capID     uint16 = 1 // helmet without hooks
	knightID  uint16 = 2 // helmet requiring level 30, can't be unequipped
	swordID   uint16 = 1 // weapon_r
	potionID  uint16 = 1 // stackable consumable
	oreID     uint16 = 7 // stackable material
	testStack        = 99
)

type notification struct {
	kind   string
	holder ecs.Entity
	slots  []int
	item   ecs.Entity
}

// recorder is a Notifier that remembers every call.
type recorder struct {
	calls []notification
}

func (r *recorder) SetItems(_ *engine.World, holder ecs.Entity, slots ...int) {
	r.calls = append(r.calls, notification{kind: "set_item", holder: holder, slots: slots})
}

func (r *recorder) EquipItem(_ *engine.World, holder ecs.Entity, slot int, item ecs.Entity) {
	r.calls = append(r.calls, notification{kind: "equip_item", holder: holder, slots: []int{slot}, item: item})
}

func (r *recorder) SetMoney(_ *engine.World, holder ecs.Entity) {
	r.calls = append(r.calls, notification{kind: "set_money", holder: holder})
}

func (r *recorder) reset() {
	r.calls = r.calls[:0]
}

type fixture struct {
	t       *testing.T
	w       *engine.World
	inv     *inventory.Engine
	catalog *itemdb.Catalog
	rec     *recorder
}

func newCatalog(t *testing.T) *itemdb.Catalog {
	t.Helper()
	c := itemdb.New()
	for _, entry := range []itemdb.Entry{
		{Category: "helmet", ID: capID, Name: "Leather Cap"},
		{Category: "helmet", ID: knightID, Name: "Knight Helm", OnEquip: "level >= 30", OnUnequip: "false"},
		{Category: "weapon_r", ID: swordID, Name: "Wooden Sword"},
		{Category: "consumable", ID: potionID, Name: "Small Potion", Stackable: true},
		{Category: "material", ID: oreID, Name: "Iron Ore", Stackable: true},
	} {
		require.NoError(t, c.Register(entry))
	}
	return c
}

func newFixture(t *testing.T, opts inventory.Options) *fixture {
	t.Helper()
	if opts.MaxStack == 0 {
		opts.MaxStack = testStack
	}
	if opts.Rand == nil {
		opts.Rand = testutils.NewRand(t)
	}
	catalog := newCatalog(t)
	rec := &recorder{}
	f := &fixture{
		t:       t,
		w:       engine.New(engine.WithNearbyDistance(1000)),
		inv:     inventory.New(catalog, rec, opts),
		catalog: catalog,
		rec:     rec,
	}
	f.inv.Register(f.w)
	return f
}

// holder creates a character with equipped slots 0..9 and carried slots 10..19, standing at (x, y).
func (f *fixture) holder(x, y float32) ecs.Entity {
	f.t.Helper()
	e := f.w.Create()
	s := f.w.Store()
	inv := component.NewInventory(
		component.SlotRange{Offset: 0, Size: 10},
		component.SlotRange{Offset: 10, Size: 10},
	)
	require.NoError(f.t, ecs.Set(s, e, inv))
	require.NoError(f.t, ecs.Set(s, e, component.Position{X: x, Y: y}))
	require.NoError(f.t, ecs.Set(s, e, component.BasicInfo{ID: f.w.NextObjectID(), TeamID: 7}))
	require.NoError(f.t, ecs.Set(s, e, component.Character{CharName: "tester", Level: 10}))
	return e
}

func (f *fixture) item(category component.Category, id uint16, count uint32) ecs.Entity {
	f.t.Helper()
	item, err := f.inv.CreateItem(f.w, category, id, count)
	require.NoError(f.t, err)
	return item
}

// put places item directly in slot, bypassing the engine.
func (f *fixture) put(holder ecs.Entity, slot int, item ecs.Entity) {
	f.t.Helper()
	inv := f.inventory(holder)
	inv.Slots[slot] = item
	require.NoError(f.t, ecs.Set(f.w.Store(), holder, inv))
}

func (f *fixture) inventory(holder ecs.Entity) component.Inventory {
	f.t.Helper()
	inv, err := ecs.Get[component.Inventory](f.w.Store(), holder)
	require.NoError(f.t, err)
	return inv
}

func (f *fixture) slot(holder ecs.Entity, slot int) ecs.Entity {
	f.t.Helper()
	return f.inventory(holder).Slots[slot]
}

func (f *fixture) count(item ecs.Entity) uint32 {
	f.t.Helper()
	data, err := ecs.Get[component.Item](f.w.Store(), item)
	require.NoError(f.t, err)
	return data.Count
}

func (f *fixture) tick(dt time.Duration) {
	f.t.Helper()
	require.NoError(f.t, f.w.Update(dt))
}
