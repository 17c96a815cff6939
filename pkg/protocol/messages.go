package protocol

// EquipItemRequest moves an item between a carried and an equipped slot. SlotFrom 0 unequips the
// item in SlotTo.
type EquipItemRequest struct {
	SlotFrom int `json:"slotFrom"`
	SlotTo   int `json:"slotTo"`
}

func (EquipItemRequest) Name() string { return "equip_item_request" }

// DropItemRequest drops Quantity of the stack in slot Index. Index 0 drops Quantity zuly.
type DropItemRequest struct {
	Index    int    `json:"index"`
	Quantity uint32 `json:"quantity"`
}

func (DropItemRequest) Name() string { return "drop_item_request" }

// PickupItemRequest picks up the world item with the given object id.
type PickupItemRequest struct {
	ObjectID uint32 `json:"objectId"`
}

func (PickupItemRequest) Name() string { return "pickup_item_request" }

// Item is the client snapshot of an item.
type Item struct {
	Category uint8  `json:"category"`
	ID       uint16 `json:"id"`
	Count    uint32 `json:"count"`
	IsZuly   bool   `json:"isZuly,omitempty"`
}

// IndexedItem is the content of one inventory slot. Item is nil for an empty slot.
type IndexedItem struct {
	Index int   `json:"index"`
	Item  *Item `json:"item"`
}

// SetItem updates inventory slots of the receiving character.
type SetItem struct {
	Items []IndexedItem `json:"items"`
}

func (SetItem) Name() string { return "set_item" }

// EquipItem announces the equipment change of a character to itself and nearby observers.
type EquipItem struct {
	ObjectID uint32 `json:"objectId"`
	Slot     int    `json:"slot"`
	Item     *Item  `json:"item"`
}

func (EquipItem) Name() string { return "equip_item" }

// SetMoney updates the zuly balance of the receiving character.
type SetMoney struct {
	Zuly int64 `json:"zuly"`
}

func (SetMoney) Name() string { return "set_money" }
