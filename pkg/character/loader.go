// Package character materializes player entities from persistent storage and writes them back.
package character

import (
	"context"

	"github.com/argus-labs/roseshard/pkg/assert"
	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/argus-labs/roseshard/pkg/inventory"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Loader moves characters between a Repository and the world. Fetch and Store do I/O and may be
// called from any goroutine; Spawn and Snapshot touch the world and must run on the tick goroutine.
type Loader struct {
	repo   Repository
	items  *inventory.Engine
	logger zerolog.Logger
}

// NewLoader creates a loader. Items are recreated through the inventory engine so they carry their
// catalog definition and hooks.
func NewLoader(repo Repository, items *inventory.Engine, logger zerolog.Logger) *Loader {
	return &Loader{
		repo:   repo,
		items:  items,
		logger: logger.With().Str("component", "character").Logger(),
	}
}

// Fetch reads the record of a character.
func (l *Loader) Fetch(ctx context.Context, id uint32) (Record, error) {
	return l.repo.Load(ctx, id)
}

// Store writes rec.
func (l *Loader) Store(ctx context.Context, rec Record) error {
	return l.repo.Save(ctx, rec)
}

// Load reads a character and materializes it in w.
func (l *Loader) Load(ctx context.Context, w *engine.World, id uint32, premium bool) (ecs.Entity, error) {
	rec, err := l.Fetch(ctx, id)
	if err != nil {
		return ecs.Null, err
	}
	return l.Spawn(w, rec, premium), nil
}

// Save writes the current state of the character entity e back to storage under id.
func (l *Loader) Save(ctx context.Context, w *engine.World, id uint32, e ecs.Entity) error {
	rec, err := l.Snapshot(w, e)
	if err != nil {
		return err
	}
	if rec.ID != id {
		return eris.Errorf("entity %s holds character %d, not %d", e, rec.ID, id)
	}
	return l.Store(ctx, rec)
}

// Spawn creates the entity of a character. Premium characters get an extra carried page. Items
// that no longer exist in the catalog are skipped; items whose slot is gone or illegal are moved to
// the first free carried slot.
func (l *Loader) Spawn(w *engine.World, rec Record, premium bool) ecs.Entity {
	s := w.Store()
	e := w.Create()

	inv := component.DefaultInventory(premium)
	inv.Zuly = max(rec.Zuly, 0)

	must(ecs.Set(s, e, component.Character{
		ID:       rec.ID,
		CharName: rec.Name,
		Level:    rec.Level,
		Job:      rec.Job,
		Premium:  premium,
	}))
	must(ecs.Set(s, e, component.BasicInfo{ID: w.NextObjectID(), TeamID: rec.TeamID}))
	must(ecs.Set(s, e, component.Position{X: rec.X, Y: rec.Y}))
	must(ecs.Set(s, e, inv))

	var misplaced []ecs.Entity
	for _, stored := range rec.Items {
		item, ok := l.createItem(w, rec.ID, stored)
		if !ok {
			continue
		}
		if !l.fits(w, inv, stored.Slot, item) {
			misplaced = append(misplaced, item)
			continue
		}
		inv.Slots[stored.Slot] = item
	}
	must(ecs.Set(s, e, inv))

	for _, item := range misplaced {
		slot, ok := l.items.FindFirstAvailableSpot(w, e, ecs.Null)
		if !ok {
			l.logger.Error().Uint32("character", rec.ID).Msg("no room for misplaced item, discarding it")
			w.Destroy(item)
			continue
		}
		inv.Slots[slot] = item
		must(ecs.Set(s, e, inv))
	}

	l.logger.Debug().Uint32("character", rec.ID).Stringer("entity", e).Msg("character spawned")
	return e
}

func (l *Loader) createItem(w *engine.World, charID uint32, stored ItemRecord) (ecs.Entity, bool) {
	category, ok := component.ParseCategory(stored.Category)
	if !ok {
		l.logger.Warn().Uint32("character", charID).Str("category", stored.Category).Msg("skipping item of unknown category")
		return ecs.Null, false
	}
	item, err := l.items.CreateItem(w, category, stored.ID, stored.Count)
	if err != nil {
		l.logger.Warn().Err(err).Uint32("character", charID).Msg("skipping item")
		return ecs.Null, false
	}
	return item, true
}

// fits reports whether item may be restored into slot.
func (l *Loader) fits(w *engine.World, inv component.Inventory, slot int, item ecs.Entity) bool {
	if !inv.Valid(slot) || !inv.Slots[slot].IsNull() {
		return false
	}
	if inv.Carried.Contains(slot) {
		return true
	}
	if !inv.Equipped.Contains(slot) {
		return false
	}
	def := ecs.MustGet[component.ItemDef](w.Store(), item)
	return component.SlotAccepts(slot, def.Category)
}

// Snapshot captures the persistent state of the character entity e.
func (l *Loader) Snapshot(w *engine.World, e ecs.Entity) (Record, error) {
	s := w.Store()
	char, err := ecs.Get[component.Character](s, e)
	if err != nil {
		return Record{}, eris.Wrapf(err, "%s is not a character", e)
	}
	info, _ := ecs.TryGet[component.BasicInfo](s, e)
	pos, _ := ecs.TryGet[component.Position](s, e)
	inv, _ := ecs.TryGet[component.Inventory](s, e)

	rec := Record{
		ID:     char.ID,
		Name:   char.CharName,
		Level:  char.Level,
		Job:    char.Job,
		TeamID: info.TeamID,
		X:      pos.X,
		Y:      pos.Y,
		Zuly:   inv.Zuly,
		Items:  make([]ItemRecord, 0),
	}
	for slot, item := range inv.Slots {
		if item.IsNull() {
			continue
		}
		data := ecs.MustGet[component.Item](s, item)
		def := ecs.MustGet[component.ItemDef](s, item)
		rec.Items = append(rec.Items, ItemRecord{
			Slot:     slot,
			Category: def.Category.String(),
			ID:       def.ID,
			Count:    data.Count,
		})
	}
	return rec, nil
}

// Despawn destroys the character entity and every item it holds.
func (l *Loader) Despawn(w *engine.World, e ecs.Entity) {
	if inv, ok := ecs.TryGet[component.Inventory](w.Store(), e); ok {
		for _, item := range inv.Slots {
			if !item.IsNull() {
				w.Destroy(item)
			}
		}
	}
	w.Destroy(e)
}

func must(err error) {
	assert.Always(err == nil, "failed to set character component: %v", err)
}
