package component

import "github.com/argus-labs/roseshard/pkg/ecs"

// Position is present only while the entity occupies world space.
type Position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (Position) Name() string { return "Position" }

// BasicInfo carries the client-visible object id and team of a world object.
// TeamID equal to ID marks an object that belongs to nobody (free for all).
type BasicInfo struct {
	ID     uint32 `json:"id"`
	TeamID uint32 `json:"teamId"`
}

func (BasicInfo) Name() string { return "BasicInfo" }

// IsFreeForAll reports whether the object is unowned.
func (b BasicInfo) IsFreeForAll() bool {
	return b.TeamID == b.ID
}

// Owner restricts pickup of a freshly dropped item to one entity.
type Owner struct {
	Owner ecs.Entity `json:"-"`
}

func (Owner) Name() string { return "Owner" }

// Character holds the persistent identity of a player entity.
type Character struct {
	ID       uint32 `json:"id"`
	CharName string `json:"name"`
	Level    uint16 `json:"level"`
	Job      uint16 `json:"job"`
	Premium  bool   `json:"premium"`
}

func (Character) Name() string { return "Character" }

// Client marks an entity bound to a live session. Only clients receive broadcasts.
type Client struct {
	Session string `json:"session"`
}

func (Client) Name() string { return "Client" }
