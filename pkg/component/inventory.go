package component

import "github.com/argus-labs/roseshard/pkg/ecs"

// Equipment positions. Slot 0 is reserved as the "no item" index in client requests and never holds
// equipment.
const (
	EquipGoggles  = 1
	EquipHelmet   = 2
	EquipArmor    = 3
	EquipBackpack = 4
	EquipGauntlet = 5
	EquipBoots    = 6
	EquipWeaponR  = 7
	EquipWeaponL  = 8
	EquipNecklace = 9
	EquipRing     = 10
	EquipEarring  = 11

	// MaxEquipItems is the number of equipment positions. Equipped-range slots at or past it are
	// pass-through slots that accept any item.
	MaxEquipItems = 12
)

// equipSlots maps equipment positions to the only category they accept.
var equipSlots = [MaxEquipItems]Category{ //nolint:gochecknoglobals // lookup table
	EquipGoggles:  CategoryGoggles,
	EquipHelmet:   CategoryHelmet,
	EquipArmor:    CategoryArmor,
	EquipBackpack: CategoryBackpack,
	EquipGauntlet: CategoryGauntlet,
	EquipBoots:    CategoryBoots,
	EquipWeaponR:  CategoryWeaponR,
	EquipWeaponL:  CategoryWeaponL,
	EquipNecklace: CategoryNecklace,
	EquipRing:     CategoryRing,
	EquipEarring:  CategoryEarring,
}

// SlotAccepts reports whether an item of category c may be placed in equipment slot.
func SlotAccepts(slot int, c Category) bool {
	if slot >= MaxEquipItems {
		return true
	}
	if slot < 0 {
		return false
	}
	fixed := equipSlots[slot]
	return fixed != CategoryNone && fixed == c
}

// Default inventory layout.
const (
	CarriedPageSize     = 30
	DefaultCarriedPages = 3
)

// SlotRange is a contiguous range of inventory slots.
type SlotRange struct {
	Offset int `json:"offset"`
	Size   int `json:"size"`
}

// Contains reports whether slot lies in the range.
func (r SlotRange) Contains(slot int) bool {
	return slot >= r.Offset && slot < r.End()
}

// End returns the first slot past the range.
func (r SlotRange) End() int {
	return r.Offset + r.Size
}

// Inventory holds the item entities carried and equipped by its holder, and its currency balance.
// Empty slots hold ecs.Null.
type Inventory struct {
	Slots    []ecs.Entity `json:"-"`
	Equipped SlotRange    `json:"equipped"`
	Carried  SlotRange    `json:"carried"`
	Zuly     int64        `json:"zuly"`
}

func (Inventory) Name() string { return "Inventory" }

// NewInventory creates an empty inventory with the given ranges.
func NewInventory(equipped, carried SlotRange) Inventory {
	return Inventory{
		Slots:    make([]ecs.Entity, max(equipped.End(), carried.End())),
		Equipped: equipped,
		Carried:  carried,
		Zuly:     0,
	}
}

// DefaultInventory creates the standard layout: equipment first, then the carried pages.
func DefaultInventory(premium bool) Inventory {
	pages := DefaultCarriedPages
	if premium {
		pages++
	}
	return NewInventory(
		SlotRange{Offset: 0, Size: MaxEquipItems},
		SlotRange{Offset: MaxEquipItems, Size: pages * CarriedPageSize},
	)
}

// Valid reports whether slot indexes the inventory.
func (inv Inventory) Valid(slot int) bool {
	return slot >= 0 && slot < len(inv.Slots)
}

// Clone returns a copy of the inventory that doesn't share slot storage.
func (inv Inventory) Clone() Inventory {
	inv.Slots = append([]ecs.Entity(nil), inv.Slots...)
	return inv
}
