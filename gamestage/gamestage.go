package gamestage

import (
	"sync"
	"sync/atomic"
)

type Stage string

const (
	Waiting  Stage = "Waiting"  // Lobby is open and accepting players
	Starting Stage = "Starting" // Countdown is ticking; players may still join or leave
	Running  Stage = "Running"  // Match is live
	Ending   Stage = "Ending"   // Winner decided or match aborted; teardown scheduled
)

// Manager holds a match's lifecycle stage. All transitions go through
// CompareAndSwap so concurrent triggers of the same edge resolve to exactly
// one winner.
type Manager struct {
	current *atomic.Value

	mu        sync.Mutex
	listeners map[Stage][]chan struct{}
}

func NewManager() *Manager {
	m := &Manager{
		current:   &atomic.Value{},
		listeners: map[Stage][]chan struct{}{},
	}
	m.current.Store(Waiting)
	return m
}

func (m *Manager) CompareAndSwap(oldStage, newStage Stage) (swapped bool) {
	if m.current.CompareAndSwap(oldStage, newStage) {
		m.notify(newStage)
		return true
	}
	return false
}

func (m *Manager) Current() Stage {
	return m.current.Load().(Stage)
}

func (m *Manager) Store(val Stage) {
	m.current.Store(val)
	m.notify(val)
}

func (m *Manager) Swap(newStage Stage) (oldStage Stage) {
	oldStage = m.current.Swap(newStage).(Stage)
	if oldStage != newStage {
		m.notify(newStage)
	}
	return oldStage
}

// NotifyOnStage returns a channel that is closed once the given stage is
// reached. If the manager is already at that stage the channel is closed
// before it is returned.
func (m *Manager) NotifyOnStage(stage Stage) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	if m.Current() == stage {
		close(ch)
		return ch
	}
	m.listeners[stage] = append(m.listeners[stage], ch)
	return ch
}

func (m *Manager) notify(stage Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.listeners[stage] {
		close(ch)
	}
	delete(m.listeners, stage)
}
