// Package bedwars wires the match engine together: configuration, logging,
// metrics, timers, the upgrade store and the match registry behind one
// front door.
package bedwars

import (
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/arena-labs/bedwars-engine/arena"
	"github.com/arena-labs/bedwars-engine/events"
	"github.com/arena-labs/bedwars-engine/match"
	"github.com/arena-labs/bedwars-engine/registry"
	"github.com/arena-labs/bedwars-engine/scheduler"
	"github.com/arena-labs/bedwars-engine/statsd"
	"github.com/arena-labs/bedwars-engine/types"
	"github.com/arena-labs/bedwars-engine/upgrade"
)

// Engine is a fully wired match engine instance. One Engine serves one game
// server; the host adapter hands it a catalog of arenas plus its world and
// session surfaces and routes game events into the registry's matches.
type Engine struct {
	cfg    engineConfig
	logger zerolog.Logger

	catalog arena.Catalog
	world   types.WorldMutator
	session types.PlayerSession

	clock    clockwork.Clock
	sched    scheduler.Scheduler
	upgrades upgrade.Factory
	redis    *redis.Client
	hub      *events.Hub
	registry *registry.Registry
}

// NewEngine loads configuration from the environment and assembles an
// engine around the host's surfaces.
func NewEngine(catalog arena.Catalog, world types.WorldMutator, session types.PlayerSession, opts ...Option) (*Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		logger:  zerolog.New(os.Stderr).With().Timestamp().Str("instance", cfg.InstanceID).Logger(),
		catalog: catalog,
		world:   world,
		session: session,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if cfg.StatsdAddress != "" {
		if err := statsd.Init(cfg.StatsdAddress, []string{"instance:" + cfg.InstanceID}); err != nil {
			return nil, eris.Wrap(err, "failed to init statsd")
		}
	}

	if e.sched == nil {
		sched, err := scheduler.NewGocron(e.clock)
		if err != nil {
			return nil, eris.Wrap(err, "failed to create scheduler")
		}
		e.sched = sched
	}

	if e.upgrades == nil {
		if cfg.RedisAddress != "" {
			e.redis = redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddress,
				Password: cfg.RedisPassword,
			})
			e.upgrades = upgrade.RedisFactory(e.redis)
		} else {
			e.upgrades = upgrade.MemoryFactory()
		}
	}

	e.hub = events.NewHub()
	e.registry = registry.New(registry.Deps{
		Catalog:   catalog,
		Scheduler: e.sched,
		World:     world,
		Session:   session,
		Upgrades:  e.upgrades,
		Hub:       e.hub,
		Logger:    &e.logger,
	}, cfg.matchConfig())

	e.logger.Info().
		Int("arenas", len(catalog.Names())).
		Bool("redis", e.redis != nil).
		Msg("engine ready")
	return e, nil
}

// Registry exposes match lookup and lifecycle control.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Events exposes the engine-wide event stream.
func (e *Engine) Events() *events.Hub { return e.hub }

// MatchConfig returns the per-match settings derived from the environment.
func (e *Engine) MatchConfig() match.Config { return e.cfg.matchConfig() }

// Shutdown force-ends every live match and stops the engine's backends.
func (e *Engine) Shutdown() {
	e.registry.Shutdown()
	e.sched.Shutdown()
	e.hub.Shutdown()
	if e.redis != nil {
		if err := e.redis.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	e.logger.Info().Msg("engine stopped")
}
