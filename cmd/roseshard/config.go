package main

import (
	"time"

	"github.com/argus-labs/roseshard/pkg/inventory"
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

// shardConfig holds the configuration of a shard process.
// Configuration can be set via environment variables with the specified defaults.
type shardConfig struct {
	// Address the websocket gateway listens on.
	ListenAddress string `env:"ROSESHARD_LISTEN_ADDRESS" envDefault:":29200"`

	// Address of the redis instance holding character records.
	RedisAddress string `env:"ROSESHARD_REDIS_ADDRESS" envDefault:"localhost:6379"`

	// Password of the redis instance.
	RedisPassword string `env:"ROSESHARD_REDIS_PASSWORD"`

	// Path of the YAML item catalog.
	CatalogPath string `env:"ROSESHARD_CATALOG_PATH" envDefault:"data/items.yaml"`

	// Number of ticks per second.
	TickRate float64 `env:"ROSESHARD_TICK_RATE" envDefault:"20"`

	// Proximity threshold in game units for broadcasts and pickups.
	NearbyDistance float32 `env:"ROSESHARD_NEARBY_DISTANCE" envDefault:"10000"`

	// Inventory tuning.
	MaxStack        uint32        `env:"ROSESHARD_MAX_STACK" envDefault:"999"`
	DropRange       float32       `env:"ROSESHARD_DROP_RANGE" envDefault:"500"`
	OwnerGrace      time.Duration `env:"ROSESHARD_OWNER_GRACE" envDefault:"2m"`
	DropExpiry      time.Duration `env:"ROSESHARD_DROP_EXPIRY" envDefault:"5m"`
	EnforceHookVeto bool          `env:"ROSESHARD_ENFORCE_HOOK_VETO" envDefault:"false"`

	// Time allowed for saving characters on shutdown.
	ShutdownTimeout time.Duration `env:"ROSESHARD_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// loadShardConfig loads the shard configuration from environment variables.
func loadShardConfig() (shardConfig, error) {
	cfg := shardConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse shard config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}

	return cfg, nil
}

// validate performs validation on the loaded configuration.
func (cfg *shardConfig) validate() error {
	if cfg.ListenAddress == "" {
		return eris.New("listen address cannot be empty")
	}
	if cfg.RedisAddress == "" {
		return eris.New("redis address cannot be empty")
	}
	if cfg.CatalogPath == "" {
		return eris.New("catalog path cannot be empty")
	}
	if cfg.TickRate <= 0 || cfg.TickRate > 1000 {
		return eris.Errorf("tick rate must be in (0, 1000], got %v", cfg.TickRate)
	}
	if cfg.NearbyDistance <= 0 {
		return eris.New("nearby distance must be positive")
	}
	if cfg.MaxStack == 0 {
		return eris.New("max stack must be positive")
	}
	if cfg.DropRange < 0 {
		return eris.New("drop range cannot be negative")
	}
	if cfg.OwnerGrace <= 0 || cfg.DropExpiry <= 0 {
		return eris.New("owner grace and drop expiry must be positive")
	}
	if cfg.OwnerGrace > cfg.DropExpiry {
		return eris.New("owner grace cannot outlast the drop expiry")
	}
	return nil
}

// tickInterval returns the duration of one tick.
func (cfg *shardConfig) tickInterval() time.Duration {
	return time.Duration(float64(time.Second) / cfg.TickRate)
}

// inventoryOptions returns the inventory tuning of the configuration.
func (cfg *shardConfig) inventoryOptions() inventory.Options {
	return inventory.Options{
		MaxStack:        cfg.MaxStack,
		DropRange:       cfg.DropRange,
		OwnerGrace:      cfg.OwnerGrace,
		DropExpiry:      cfg.DropExpiry,
		EnforceHookVeto: cfg.EnforceHookVeto,
	}
}
