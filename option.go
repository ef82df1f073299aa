package bedwars

import (
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/arena-labs/bedwars-engine/scheduler"
	"github.com/arena-labs/bedwars-engine/upgrade"
)

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger replaces the default stderr logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithScheduler substitutes the timer backend. Tests use this to drive
// the engine deterministically.
func WithScheduler(sched scheduler.Scheduler) Option {
	return func(e *Engine) {
		e.sched = sched
	}
}

// WithUpgradeFactory overrides where team upgrades are stored, regardless
// of the configured Redis address.
func WithUpgradeFactory(factory upgrade.Factory) Option {
	return func(e *Engine) {
		e.upgrades = factory
	}
}

// WithClock substitutes the wall clock behind the default scheduler.
// Ignored when WithScheduler is also given.
func WithClock(clock clockwork.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}
