package component

import (
	"weak"

	"github.com/argus-labs/roseshard/pkg/script"
)

// Category is the item type of the catalog.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryGoggles
	CategoryHelmet
	CategoryArmor
	CategoryGauntlet
	CategoryBoots
	CategoryBackpack
	CategoryRing
	CategoryNecklace
	CategoryEarring
	CategoryWeaponR
	CategoryWeaponL
	CategoryConsumable
	CategoryGem
	CategoryMaterial
	CategoryQuest
	CategoryRiding
	CategoryZuly
)

var categoryNames = [...]string{ //nolint:gochecknoglobals // lookup table
	CategoryNone:       "none",
	CategoryGoggles:    "goggles",
	CategoryHelmet:     "helmet",
	CategoryArmor:      "armor",
	CategoryGauntlet:   "gauntlet",
	CategoryBoots:      "boots",
	CategoryBackpack:   "backpack",
	CategoryRing:       "ring",
	CategoryNecklace:   "necklace",
	CategoryEarring:    "earring",
	CategoryWeaponR:    "weapon_r",
	CategoryWeaponL:    "weapon_l",
	CategoryConsumable: "consumable",
	CategoryGem:        "gem",
	CategoryMaterial:   "material",
	CategoryQuest:      "quest",
	CategoryRiding:     "riding",
	CategoryZuly:       "zuly",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// ParseCategory returns the category with the given name.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true //nolint:gosec // bounded by the table
		}
	}
	return CategoryNone, false
}

// Item is the mutable part of an item entity.
type Item struct {
	Count  uint32 `json:"count"`
	IsZuly bool   `json:"isZuly"`
}

func (Item) Name() string { return "Item" }

// ItemDef references the static catalog definition of an item. It never changes after creation.
type ItemDef struct {
	Category  Category `json:"category"`
	ID        uint16   `json:"id"`
	Stackable bool     `json:"stackable"`
}

func (ItemDef) Name() string { return "ItemDef" }

// SameKind reports whether two definitions describe the same catalog item.
func (d ItemDef) SameKind(other ItemDef) bool {
	return d.Category == other.Category && d.ID == other.ID
}

// ScriptHook points at the hook program of the item's catalog entry. The reference is weak: once
// the catalog that owns the program is replaced, the hook resolves to nothing and no hook fires.
type ScriptHook struct {
	Program weak.Pointer[script.Program]
}

func (ScriptHook) Name() string { return "ScriptHook" }

// NewScriptHook returns a hook referencing p.
func NewScriptHook(p *script.Program) ScriptHook {
	return ScriptHook{Program: weak.Make(p)}
}

// Resolve returns the hook program, or nil when there is none or it is gone.
func (h ScriptHook) Resolve() *script.Program {
	return h.Program.Value()
}
