package bedwars

import (
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"

	"github.com/arena-labs/bedwars-engine/match"
	"github.com/arena-labs/bedwars-engine/types"
)

// engineConfig holds the configuration for an Engine instance. Every value
// can be set via environment variables with the specified defaults.
type engineConfig struct {
	// Instance identity, used as the statsd tag and log field.
	InstanceID string `env:"BEDWARS_INSTANCE_ID" envDefault:"bedwars"`

	// Address of the statsd agent. Metrics are dropped when empty.
	StatsdAddress string `env:"BEDWARS_STATSD_ADDRESS"`

	// Address of the Redis backing the team-upgrade store. An in-memory
	// store is used when empty.
	RedisAddress  string `env:"BEDWARS_REDIS_ADDRESS"`
	RedisPassword string `env:"BEDWARS_REDIS_PASSWORD"`

	// Match pacing.
	LobbyCountdownSeconds int `env:"BEDWARS_LOBBY_COUNTDOWN_SECONDS" envDefault:"30"`
	MatchDurationSeconds  int `env:"BEDWARS_MATCH_DURATION_SECONDS" envDefault:"3600"`
	RespawnDelaySeconds   int `env:"BEDWARS_RESPAWN_DELAY_SECONDS" envDefault:"5"`
	TeardownDelaySeconds  int `env:"BEDWARS_TEARDOWN_DELAY_SECONDS" envDefault:"10"`
	HealIntervalSeconds   int `env:"BEDWARS_HEAL_INTERVAL_SECONDS" envDefault:"10"`
	ResourceExpirySeconds int `env:"BEDWARS_RESOURCE_EXPIRY_SECONDS" envDefault:"45"`

	// Generator economy.
	IronIntervalSeconds    int `env:"BEDWARS_IRON_INTERVAL_SECONDS" envDefault:"2"`
	GoldIntervalSeconds    int `env:"BEDWARS_GOLD_INTERVAL_SECONDS" envDefault:"8"`
	EmeraldIntervalSeconds int `env:"BEDWARS_EMERALD_INTERVAL_SECONDS" envDefault:"60"`
	DiamondIntervalSeconds int `env:"BEDWARS_DIAMOND_INTERVAL_SECONDS" envDefault:"30"`
	MaxPlayerScale         int `env:"BEDWARS_MAX_PLAYER_SCALE" envDefault:"3"`
}

// loadConfig loads the engine configuration from environment variables.
func loadConfig() (engineConfig, error) {
	cfg := engineConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse engine config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate config")
	}

	return cfg, nil
}

// validate performs validation on the loaded configuration.
func (cfg *engineConfig) validate() error {
	if cfg.InstanceID == "" {
		return eris.New("instance ID cannot be empty")
	}
	if cfg.LobbyCountdownSeconds <= 0 {
		return eris.New("lobby countdown must be positive")
	}
	if cfg.MatchDurationSeconds <= 0 {
		return eris.New("match duration must be positive")
	}
	if cfg.RespawnDelaySeconds < 0 {
		return eris.New("respawn delay cannot be negative")
	}
	if cfg.TeardownDelaySeconds < 0 {
		return eris.New("teardown delay cannot be negative")
	}
	for _, interval := range []int{
		cfg.IronIntervalSeconds,
		cfg.GoldIntervalSeconds,
		cfg.EmeraldIntervalSeconds,
		cfg.DiamondIntervalSeconds,
	} {
		if interval <= 0 {
			return eris.New("generator intervals must be positive")
		}
	}
	if cfg.MaxPlayerScale <= 0 {
		return eris.New("max player scale must be positive")
	}
	return nil
}

// matchConfig converts the engine tunables into per-match settings.
func (cfg *engineConfig) matchConfig() match.Config {
	return match.Config{
		LobbyCountdownSeconds: cfg.LobbyCountdownSeconds,
		MatchDurationSeconds:  cfg.MatchDurationSeconds,
		RespawnDelaySeconds:   cfg.RespawnDelaySeconds,
		TeardownDelaySeconds:  cfg.TeardownDelaySeconds,
		HealIntervalSeconds:   cfg.HealIntervalSeconds,
		ResourceExpirySeconds: cfg.ResourceExpirySeconds,
		BaseIntervalSeconds: map[types.GeneratorTier]int{
			types.TierIron:    cfg.IronIntervalSeconds,
			types.TierGold:    cfg.GoldIntervalSeconds,
			types.TierEmerald: cfg.EmeraldIntervalSeconds,
			types.TierDiamond: cfg.DiamondIntervalSeconds,
		},
		MaxPlayerScale: cfg.MaxPlayerScale,
	}
}
