package inventory_test

import (
	"math"
	"testing"
	"time"

	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/inventory"
	"github.com/argus-labs/roseshard/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropItem(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{})
	h := f.holder(0, 0)
	owned := f.item(component.CategoryWeaponR, swordID, 1)
	free := f.item(component.CategoryWeaponR, swordID, 1)

	f.inv.DropItem(f.w, owned, 3, 4, h)
	f.inv.DropItem(f.w, free, 5, 6, ecs.Null)
	s := f.w.Store()

	info := ecs.MustGet[component.BasicInfo](s, owned)
	assert.NotZero(t, info.ID)
	assert.Equal(t, uint32(7), info.TeamID, "inherits the owner's team")
	assert.Equal(t, component.Owner{Owner: h}, ecs.MustGet[component.Owner](s, owned))
	assert.Equal(t, component.Position{X: 3, Y: 4}, ecs.MustGet[component.Position](s, owned))

	freeInfo := ecs.MustGet[component.BasicInfo](s, free)
	assert.True(t, freeInfo.IsFreeForAll())
	assert.NotEqual(t, info.ID, freeInfo.ID)
	assert.False(t, ecs.Has[component.Owner](s, free))
	assert.Equal(t, 4, f.w.PendingTimers())
}

func TestDropPickupRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{})
	h := f.holder(0, 0)
	stack := f.item(component.CategoryConsumable, potionID, 12)
	f.put(h, 13, stack)

	dropped, err := f.inv.RemoveItem(f.w, h, 13, 12)
	require.NoError(t, err)
	f.inv.DropItem(f.w, dropped, 1, 1, h)

	require.NoError(t, f.inv.PickupItem(f.w, h, dropped))
	assert.Equal(t, dropped, f.slot(h, 10))
	assert.Equal(t, uint32(12), f.count(dropped))
	def := ecs.MustGet[component.ItemDef](f.w.Store(), dropped)
	assert.Equal(t, potionID, def.ID)

	s := f.w.Store()
	assert.False(t, ecs.Has[component.Position](s, dropped))
	assert.False(t, ecs.Has[component.BasicInfo](s, dropped))
	assert.False(t, ecs.Has[component.Owner](s, dropped))

	f.tick(inventory.DefaultDropExpiry)
	assert.True(t, f.w.IsValid(dropped), "expiry doesn't touch items that left the world")
}

func TestOwnershipWindow(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{OwnerGrace: time.Minute, DropExpiry: 3 * time.Minute})
	owner := f.holder(0, 0)
	thief := f.holder(1, 1)
	sword := f.item(component.CategoryWeaponR, swordID, 1)
	f.inv.DropItem(f.w, sword, 2, 2, owner)

	err := f.inv.PickupItem(f.w, thief, sword)
	require.ErrorIs(t, err, inventory.ErrRequirementsNotMet)
	assert.True(t, ecs.Has[component.Position](f.w.Store(), sword), "rejected pickup leaves the item in place")

	f.tick(59 * time.Second)
	require.ErrorIs(t, f.inv.PickupItem(f.w, thief, sword), inventory.ErrRequirementsNotMet)

	f.tick(time.Second)
	info := ecs.MustGet[component.BasicInfo](f.w.Store(), sword)
	assert.True(t, info.IsFreeForAll())
	require.NoError(t, f.inv.PickupItem(f.w, thief, sword))
	assert.Equal(t, sword, f.slot(thief, 10))
}

func TestDropExpiry(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{})
	sword := f.item(component.CategoryWeaponR, swordID, 1)
	f.inv.DropItem(f.w, sword, 0, 0, ecs.Null)

	f.tick(inventory.DefaultDropExpiry - time.Second)
	assert.True(t, f.w.IsValid(sword))

	f.tick(time.Second)
	assert.False(t, f.w.IsValid(sword))
}

func TestDropExpiry_RedropRetiresOldTimers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{})
	sword := f.item(component.CategoryWeaponR, swordID, 1)
	f.inv.DropItem(f.w, sword, 0, 0, ecs.Null)

	f.tick(4 * time.Minute)
	f.inv.DropItem(f.w, sword, 0, 0, ecs.Null)

	f.tick(time.Minute)
	assert.True(t, f.w.IsValid(sword), "first drop's expiry must not remove the re-dropped item")

	f.tick(4 * time.Minute)
	assert.False(t, f.w.IsValid(sword))
}

func TestPickupItem_NoSpaceLeavesItemAsItLay(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{})
	h := f.holder(0, 0)
	for slot := 10; slot < 20; slot++ {
		f.put(h, slot, f.item(component.CategoryWeaponR, swordID, 1))
	}
	sword := f.item(component.CategoryWeaponR, swordID, 1)
	f.inv.DropItem(f.w, sword, 8, 9, h)
	s := f.w.Store()
	before := ecs.MustGet[component.BasicInfo](s, sword)
	timers := f.w.PendingTimers()

	require.ErrorIs(t, f.inv.PickupItem(f.w, h, sword), inventory.ErrNoSpace)

	assert.True(t, f.w.IsValid(sword), "the item is never lost")
	assert.Equal(t, component.Position{X: 8, Y: 9}, ecs.MustGet[component.Position](s, sword))
	assert.Equal(t, component.Owner{Owner: h}, ecs.MustGet[component.Owner](s, sword))
	assert.Equal(t, before, ecs.MustGet[component.BasicInfo](s, sword))
	assert.Equal(t, timers, f.w.PendingTimers(), "no new timers are scheduled")
}

func TestPickupItem_FailedPickupKeepsOriginalTimers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{OwnerGrace: time.Minute, DropExpiry: 3 * time.Minute})
	owner := f.holder(0, 0)
	for slot := 10; slot < 20; slot++ {
		f.put(owner, slot, f.item(component.CategoryWeaponR, swordID, 1))
	}
	other := f.holder(1, 1)
	sword := f.item(component.CategoryWeaponR, swordID, 1)
	f.inv.DropItem(f.w, sword, 2, 2, owner)

	f.tick(59 * time.Second)
	require.ErrorIs(t, f.inv.PickupItem(f.w, owner, sword), inventory.ErrNoSpace)
	require.ErrorIs(t, f.inv.PickupItem(f.w, other, sword), inventory.ErrRequirementsNotMet)

	f.tick(2 * time.Second)
	assert.True(t, ecs.MustGet[component.BasicInfo](f.w.Store(), sword).IsFreeForAll())
	assert.False(t, ecs.Has[component.Owner](f.w.Store(), sword))

	// A failed retry after the grace period must not restore the reservation either.
	require.ErrorIs(t, f.inv.PickupItem(f.w, owner, sword), inventory.ErrNoSpace)
	assert.False(t, ecs.Has[component.Owner](f.w.Store(), sword))

	f.tick(2 * time.Minute)
	assert.False(t, f.w.IsValid(sword), "expires on the first drop's schedule")
}

func TestPickupItem_NonOwnerAfterFailedOwnerPickup(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{OwnerGrace: time.Minute, DropExpiry: 3 * time.Minute})
	owner := f.holder(0, 0)
	for slot := 10; slot < 20; slot++ {
		f.put(owner, slot, f.item(component.CategoryWeaponR, swordID, 1))
	}
	other := f.holder(1, 1)
	sword := f.item(component.CategoryWeaponR, swordID, 1)
	f.inv.DropItem(f.w, sword, 2, 2, owner)

	f.tick(59 * time.Second)
	require.ErrorIs(t, f.inv.PickupItem(f.w, owner, sword), inventory.ErrNoSpace)

	f.tick(2 * time.Second)
	require.NoError(t, f.inv.PickupItem(f.w, other, sword))
	assert.Equal(t, sword, f.slot(other, 10))
}

func TestPickupItem_Zuly(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{})
	h := f.holder(0, 0)
	coins := f.inv.CreateZuly(f.w, 250)
	f.inv.DropItem(f.w, coins, 0, 0, ecs.Null)

	require.NoError(t, f.inv.PickupItem(f.w, h, coins))
	assert.Equal(t, int64(250), f.inventory(h).Zuly)
	assert.True(t, f.w.IsDestroying(coins))
	require.ErrorIs(t, f.inv.PickupItem(f.w, h, coins), inventory.ErrWrongIndex, "can't be picked up twice")

	f.tick(0)
	assert.False(t, f.w.IsValid(coins))
}

func TestPickupItem_NotInWorld(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{})
	h := f.holder(0, 0)
	sword := f.item(component.CategoryWeaponR, swordID, 1)

	require.ErrorIs(t, f.inv.PickupItem(f.w, h, sword), inventory.ErrWrongIndex)
	require.ErrorIs(t, f.inv.PickupItem(f.w, h, ecs.Null), inventory.ErrWrongIndex)
}

func TestAddZuly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		balance int64
		delta   int64
		want    int64
		wantErr error
	}{
		{name: "deposit", balance: 10, delta: 5, want: 15},
		{name: "withdraw", balance: 10, delta: -10, want: 0},
		{name: "overdraw rejected", balance: 10, delta: -11, want: 10, wantErr: inventory.ErrNotEnoughZuly},
		{name: "min int rejected", balance: math.MaxInt64, delta: math.MinInt64, want: math.MaxInt64, wantErr: inventory.ErrNotEnoughZuly},
		{name: "saturates", balance: math.MaxInt64 - 1, delta: 5, want: math.MaxInt64},
		{name: "saturates at max delta", balance: 1, delta: math.MaxInt64, want: math.MaxInt64},
		{name: "zero", balance: 3, delta: 0, want: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, inventory.Options{})
			h := f.holder(0, 0)
			inv := f.inventory(h)
			inv.Zuly = tc.balance
			require.NoError(t, ecs.Set(f.w.Store(), h, inv))

			err := f.inv.AddZuly(f.w, h, tc.delta)
			assert.Equal(t, tc.want, f.inventory(h).Zuly)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, f.rec.calls)
				return
			}
			require.NoError(t, err)
			require.Len(t, f.rec.calls, 1)
			assert.Equal(t, "set_money", f.rec.calls[0].kind)
		})
	}
}

func TestAddZuly_RandomSequenceStaysInBounds(t *testing.T) {
	t.Parallel()

	f := newFixture(t, inventory.Options{})
	h := f.holder(0, 0)
	prng := testutils.NewRand(t)

	for range 2_000 {
		before := f.inventory(h).Zuly
		var delta int64
		switch prng.IntN(3) {
		case 0:
			delta = prng.Int64()
		case 1:
			delta = -prng.Int64()
		default:
			delta = prng.Int64N(1000) - 500
		}

		err := f.inv.AddZuly(f.w, h, delta)
		after := f.inventory(h).Zuly
		require.GreaterOrEqual(t, after, int64(0))
		if err != nil {
			require.Equal(t, before, after, "rejected change must not mutate")
		}
	}
}
