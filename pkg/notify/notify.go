// Package notify turns inventory changes into outbound client messages.
package notify

import (
	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/argus-labs/roseshard/pkg/protocol"
	"github.com/rs/zerolog"
)

// Sender delivers a message to the session bound to recipient.
type Sender interface {
	Send(recipient ecs.Entity, msg protocol.Message) error
}

// Notifier sends state updates after successful inventory mutations. Delivery is best effort: a
// failure is logged and the state change stands.
type Notifier struct {
	sender Sender
	logger zerolog.Logger
}

// New creates a notifier delivering through sender.
func New(sender Sender, logger zerolog.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

// SetItems sends the current content of the given slots to holder.
func (n *Notifier) SetItems(w *engine.World, holder ecs.Entity, slots ...int) {
	inv, ok := ecs.TryGet[component.Inventory](w.Store(), holder)
	if !ok {
		return
	}

	items := make([]protocol.IndexedItem, 0, len(slots))
	for _, slot := range slots {
		if !inv.Valid(slot) {
			continue
		}
		items = append(items, protocol.IndexedItem{Index: slot, Item: Snapshot(w, inv.Slots[slot])})
	}
	n.send(holder, protocol.SetItem{Items: items})
}

// EquipItem announces that item now occupies equipment slot of holder, to holder and every nearby
// client. A null item announces an emptied slot.
func (n *Notifier) EquipItem(w *engine.World, holder ecs.Entity, slot int, item ecs.Entity) {
	info, _ := ecs.TryGet[component.BasicInfo](w.Store(), holder)
	msg := protocol.EquipItem{ObjectID: info.ID, Slot: slot, Item: Snapshot(w, item)}

	n.send(holder, msg)
	err := w.ProcessEntities(ecs.Contains(component.Client{}, component.Position{}), func(observer ecs.Entity) bool {
		if observer != holder && w.IsNearby(holder, observer) {
			n.send(observer, msg)
		}
		return true
	})
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to find observers")
	}
}

// SetMoney sends the zuly balance of holder.
func (n *Notifier) SetMoney(w *engine.World, holder ecs.Entity) {
	inv, ok := ecs.TryGet[component.Inventory](w.Store(), holder)
	if !ok {
		return
	}
	n.send(holder, protocol.SetMoney{Zuly: inv.Zuly})
}

func (n *Notifier) send(recipient ecs.Entity, msg protocol.Message) {
	if err := n.sender.Send(recipient, msg); err != nil {
		n.logger.Warn().Err(err).Str("message", msg.Name()).Stringer("recipient", recipient).
			Msg("failed to deliver message")
	}
}

// Snapshot returns the client view of item, or nil when the entity is null or not an item.
func Snapshot(w *engine.World, item ecs.Entity) *protocol.Item {
	if item.IsNull() {
		return nil
	}
	data, ok := ecs.TryGet[component.Item](w.Store(), item)
	if !ok {
		return nil
	}
	def, _ := ecs.TryGet[component.ItemDef](w.Store(), item)
	return &protocol.Item{
		Category: uint8(def.Category),
		ID:       def.ID,
		Count:    data.Count,
		IsZuly:   data.IsZuly,
	}
}
