package notify_test

import (
	"errors"
	"testing"

	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/argus-labs/roseshard/pkg/notify"
	"github.com/argus-labs/roseshard/pkg/protocol"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	to  ecs.Entity
	msg protocol.Message
}

type recorder struct {
	sent []sent
	err  error
}

func (r *recorder) Send(to ecs.Entity, msg protocol.Message) error {
	r.sent = append(r.sent, sent{to: to, msg: msg})
	return r.err
}

func spawn(t *testing.T, w *engine.World, x float32, client bool) ecs.Entity {
	t.Helper()
	e := w.Create()
	require.NoError(t, ecs.Set(w.Store(), e, component.Position{X: x}))
	require.NoError(t, ecs.Set(w.Store(), e, component.BasicInfo{ID: w.NextObjectID()}))
	require.NoError(t, ecs.Set(w.Store(), e, component.DefaultInventory(false)))
	if client {
		require.NoError(t, ecs.Set(w.Store(), e, component.Client{Session: "s"}))
	}
	return e
}

func TestNotifier_EquipItemReachesNearbyClientsOnly(t *testing.T) {
	t.Parallel()

	w := engine.New(engine.WithNearbyDistance(100))
	holder := spawn(t, w, 0, true)
	near := spawn(t, w, 50, true)
	far := spawn(t, w, 500, true)
	npc := spawn(t, w, 10, false)

	item := w.Create()
	require.NoError(t, ecs.Set(w.Store(), item, component.Item{Count: 1}))
	require.NoError(t, ecs.Set(w.Store(), item, component.ItemDef{Category: component.CategoryHelmet, ID: 3}))

	rec := &recorder{}
	notify.New(rec, zerolog.Nop()).EquipItem(w, holder, component.EquipHelmet, item)

	recipients := make([]ecs.Entity, 0, len(rec.sent))
	for _, s := range rec.sent {
		recipients = append(recipients, s.to)
	}
	assert.ElementsMatch(t, []ecs.Entity{holder, near}, recipients)
	assert.NotContains(t, recipients, far)
	assert.NotContains(t, recipients, npc)

	msg, ok := rec.sent[0].msg.(protocol.EquipItem)
	require.True(t, ok)
	assert.Equal(t, component.EquipHelmet, msg.Slot)
	assert.Equal(t, &protocol.Item{Category: uint8(component.CategoryHelmet), ID: 3, Count: 1}, msg.Item)
}

func TestNotifier_SetItems(t *testing.T) {
	t.Parallel()

	w := engine.New()
	holder := spawn(t, w, 0, true)
	item := w.Create()
	require.NoError(t, ecs.Set(w.Store(), item, component.Item{Count: 5}))
	require.NoError(t, ecs.Set(w.Store(), item, component.ItemDef{Category: component.CategoryConsumable, ID: 1}))

	inv := ecs.MustGet[component.Inventory](w.Store(), holder)
	inv.Slots[20] = item
	require.NoError(t, ecs.Set(w.Store(), holder, inv))

	rec := &recorder{}
	notify.New(rec, zerolog.Nop()).SetItems(w, holder, 20, 21, 9999)

	require.Len(t, rec.sent, 1)
	assert.Equal(t, protocol.SetItem{Items: []protocol.IndexedItem{
		{Index: 20, Item: &protocol.Item{Category: uint8(component.CategoryConsumable), ID: 1, Count: 5}},
		{Index: 21, Item: nil},
	}}, rec.sent[0].msg)
}

func TestNotifier_DeliveryFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	w := engine.New()
	holder := spawn(t, w, 0, true)
	rec := &recorder{err: errors.New("closed")}

	notify.New(rec, zerolog.Nop()).SetMoney(w, holder)
	require.Len(t, rec.sent, 1)
	assert.Equal(t, protocol.SetMoney{Zuly: 0}, rec.sent[0].msg)
}
