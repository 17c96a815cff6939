// Command roseshard runs one map shard: the live world, its inventory engine and the websocket
// gateway players connect to.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ddstatsd "github.com/DataDog/datadog-go/v5/statsd"
	"github.com/argus-labs/roseshard/pkg/character"
	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/ecs"
	"github.com/argus-labs/roseshard/pkg/engine"
	"github.com/argus-labs/roseshard/pkg/gateway"
	"github.com/argus-labs/roseshard/pkg/inventory"
	"github.com/argus-labs/roseshard/pkg/itemdb"
	"github.com/argus-labs/roseshard/pkg/notify"
	"github.com/argus-labs/roseshard/pkg/protocol"
	"github.com/argus-labs/roseshard/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	tel, err := telemetry.New(telemetry.Options{ServiceName: "roseshard"})
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("failed to setup telemetry")
	}

	if err := start(&tel); err != nil {
		tel.Logger.Error().Err(err).Msg("shard stopped with an error")
		os.Exit(1)
	}
}

func start(tel *telemetry.Telemetry) error {
	defer func() {
		if err := tel.Shutdown(); err != nil {
			tel.Logger.Error().Err(err).Msg("telemetry shutdown error")
		}
	}()

	cfg, err := loadShardConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, tel)
}

// gatewaySender forwards notifications to a gateway created after the notifier.
type gatewaySender struct {
	gateway *gateway.Gateway
}

func (g *gatewaySender) Send(e ecs.Entity, msg protocol.Message) error {
	return g.gateway.Send(e, msg)
}

type shard struct {
	cfg     shardConfig
	world   *engine.World
	gateway *gateway.Gateway
	statsd  ddstatsd.ClientInterface
	logger  zerolog.Logger
}

func run(ctx context.Context, cfg shardConfig, tel *telemetry.Telemetry) error {
	logger := tel.GetLogger("shard")

	catalog, err := itemdb.LoadFile(cfg.CatalogPath)
	if err != nil {
		return err
	}
	logger.Info().Int("items", catalog.Len()).Str("path", cfg.CatalogPath).Msg("item catalog loaded")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress, Password: cfg.RedisPassword})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return eris.Wrapf(err, "failed to reach redis at %s", cfg.RedisAddress)
	}

	s := &shard{
		cfg:    cfg,
		statsd: tel.Statsd,
		logger: logger,
		world: engine.New(
			engine.WithLogger(tel.GetLogger("world")),
			engine.WithStatsd(tel.Statsd),
			engine.WithNearbyDistance(cfg.NearbyDistance),
		),
	}

	// The gateway is both the session transport and the sender of notifications.
	sender := &gatewaySender{}
	items := inventory.New(catalog, notify.New(sender, tel.GetLogger("notify")), cfg.inventoryOptions())
	items.Register(s.world)
	loader := character.NewLoader(character.NewRedisRepository(rdb), items, tel.GetLogger("character"))
	s.gateway = gateway.New(s.world, loader, tel.GetLogger("gateway"))
	sender.gateway = s.gateway

	if err := s.world.RegisterSystems(s.reportPopulation); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           s.gateway.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)
	ticking, stopTicking := context.WithCancel(context.Background())
	defer stopTicking()

	eg.Go(func() error {
		// The tick loop outlives ctx so characters can still be saved during shutdown.
		return s.tickLoop(ticking)
	})
	eg.Go(func() error {
		logger.Info().Str("address", cfg.ListenAddress).Msg("gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "gateway server failed")
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info().Msg("shutting down shard")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		defer stopTicking()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("gateway shutdown error")
		}
		s.gateway.Close()
		if err := s.gateway.Wait(shutdownCtx); err != nil {
			return err
		}
		logger.Info().Msg("shard shutdown complete")
		return nil
	})

	return eg.Wait()
}

// tickLoop runs the world at the configured rate until ctx ends.
func (s *shard) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.tickInterval())
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if err := s.world.Update(dt); err != nil {
				s.logger.Error().Err(err).Uint64("tick", s.world.CurrentTick()).Msg("tick failed")
			}
		}
	}
}

// reportPopulation publishes the number of connected players and items lying in the world.
func (s *shard) reportPopulation(w *engine.World) error {
	// Once per second is plenty.
	if w.CurrentTick()%uint64(max(s.cfg.TickRate, 1)) != 0 {
		return nil
	}

	players, err := ecs.NewSearch(ecs.Contains(component.Client{})).Count(w.Store())
	if err != nil {
		return err
	}
	dropped, err := ecs.NewSearch(ecs.Contains(component.Item{}, component.Position{})).Count(w.Store())
	if err != nil {
		return err
	}

	if err := s.statsd.Gauge("players", float64(players), nil, 1); err != nil {
		w.Logger().Debug().Err(err).Msg("failed to emit gauge")
	}
	if err := s.statsd.Gauge("world_items", float64(dropped), nil, 1); err != nil {
		w.Logger().Debug().Err(err).Msg("failed to emit gauge")
	}
	return nil
}
