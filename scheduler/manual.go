package scheduler

import (
	"sync"
	"time"
)

// Manual is a deterministic Scheduler for tests. Nothing fires until
// Advance moves the virtual clock; due callbacks then run in order on the
// caller's goroutine. Callbacks may schedule and cancel freely.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks map[int]*manualTask
}

type manualTask struct {
	at     time.Duration
	period time.Duration // 0 for one-shots
	fn     func()
}

var _ Scheduler = (*Manual)(nil)

func NewManual() *Manual {
	return &Manual{tasks: map[int]*manualTask{}}
}

func (m *Manual) Schedule(delay time.Duration, fn func()) Handle {
	return m.add(delay, 0, fn)
}

func (m *Manual) ScheduleRepeating(period time.Duration, fn func()) Handle {
	return m.add(period, period, fn)
}

func (m *Manual) add(delay, period time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.seq
	m.seq++
	m.tasks[id] = &manualTask{at: m.now + delay, period: period, fn: fn}
	return &manualHandle{m: m, id: id}
}

// Advance moves the virtual clock forward, firing every task that comes due
// along the way in (due time, creation order).
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	for {
		id, task := m.nextDueLocked(target)
		if task == nil {
			break
		}
		m.now = task.at
		if task.period > 0 {
			task.at += task.period
		} else {
			delete(m.tasks, id)
		}
		fn := task.fn
		// Run outside the lock so the callback can reschedule or cancel.
		m.mu.Unlock()
		fn()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

func (m *Manual) nextDueLocked(target time.Duration) (int, *manualTask) {
	bestID := -1
	var best *manualTask
	for id, t := range m.tasks {
		if t.at > target {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && id < bestID) {
			bestID, best = id, t
		}
	}
	return bestID, best
}

// Pending reports how many tasks are outstanding.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *Manual) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = map[int]*manualTask{}
}

type manualHandle struct {
	m  *Manual
	id int
}

func (h *manualHandle) Cancel() {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	delete(h.m.tasks, h.id)
}
