package scheduler

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

// Gocron is the production Scheduler, backed by a single gocron scheduler
// shared by every match on the engine.
type Gocron struct {
	sched gocron.Scheduler
	clock clockwork.Clock
}

var _ Scheduler = (*Gocron)(nil)

// NewGocron builds and starts a scheduler. A nil clock means wall time;
// tests pass a clockwork fake clock.
func NewGocron(clock clockwork.Clock) (*Gocron, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	sched, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, eris.Wrap(err, "failed to create scheduler")
	}
	sched.Start()
	return &Gocron{sched: sched, clock: clock}, nil
}

func (g *Gocron) Schedule(delay time.Duration, fn func()) Handle {
	job, err := g.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(g.clock.Now().Add(delay))),
		gocron.NewTask(fn),
	)
	if err != nil {
		log.Logger.Warn().Err(err).Msg("failed to schedule one-shot job")
		return noopHandle{}
	}
	return &gocronHandle{sched: g.sched, id: job.ID()}
}

func (g *Gocron) ScheduleRepeating(period time.Duration, fn func()) Handle {
	job, err := g.sched.NewJob(gocron.DurationJob(period), gocron.NewTask(fn))
	if err != nil {
		log.Logger.Warn().Err(err).Msg("failed to schedule repeating job")
		return noopHandle{}
	}
	return &gocronHandle{sched: g.sched, id: job.ID()}
}

func (g *Gocron) Shutdown() {
	if err := g.sched.Shutdown(); err != nil {
		log.Logger.Warn().Err(err).Msg("scheduler shutdown failed")
	}
}

type gocronHandle struct {
	sched gocron.Scheduler
	id    uuid.UUID
	once  sync.Once
}

func (h *gocronHandle) Cancel() {
	h.once.Do(func() {
		// RemoveJob errors when the job already ran to completion; by
		// contract that is not a caller problem.
		_ = h.sched.RemoveJob(h.id)
	})
}
