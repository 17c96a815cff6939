package character

import (
	"context"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when no character is stored under the requested id.
var ErrNotFound = eris.New("character not found")

// Record is the persisted state of a character.
type Record struct {
	ID     uint32       `json:"id"`
	Name   string       `json:"name"`
	Level  uint16       `json:"level"`
	Job    uint16       `json:"job"`
	TeamID uint32       `json:"teamId"`
	X      float32      `json:"x"`
	Y      float32      `json:"y"`
	Zuly   int64        `json:"zuly"`
	Items  []ItemRecord `json:"items"`
}

// ItemRecord is an item in an inventory slot.
type ItemRecord struct {
	Slot     int    `json:"slot"`
	Category string `json:"category"`
	ID       uint16 `json:"id"`
	Count    uint32 `json:"count"`
}

// Repository reads and writes character records.
type Repository interface {
	Load(ctx context.Context, id uint32) (Record, error)
	Save(ctx context.Context, rec Record) error
}

var _ Repository = (*RedisRepository)(nil)

// RedisRepository stores one JSON document per character under "character:<id>".
type RedisRepository struct {
	client redis.Cmdable
}

// NewRedisRepository creates a repository on top of client, which may be a client, a cluster client
// or a pipeline.
func NewRedisRepository(client redis.Cmdable) *RedisRepository {
	return &RedisRepository{client: client}
}

func key(id uint32) string {
	return "character:" + strconv.FormatUint(uint64(id), 10)
}

func (r *RedisRepository) Load(ctx context.Context, id uint32) (Record, error) {
	data, err := r.client.Get(ctx, key(id)).Bytes()
	if eris.Is(err, redis.Nil) {
		return Record{}, eris.Wrapf(ErrNotFound, "id %d", id)
	}
	if err != nil {
		return Record{}, eris.Wrapf(err, "failed to read character %d", id)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, eris.Wrapf(err, "failed to unmarshal character %d", id)
	}
	return rec, nil
}

func (r *RedisRepository) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrapf(err, "failed to marshal character %d", rec.ID)
	}
	if err := r.client.Set(ctx, key(rec.ID), data, 0).Err(); err != nil {
		return eris.Wrapf(err, "failed to write character %d", rec.ID)
	}
	return nil
}
