package scheduler

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestManualFiresDueTasksInOrder(t *testing.T) {
	m := NewManual()
	var order []string
	m.Schedule(3*time.Second, func() { order = append(order, "c") })
	m.Schedule(1*time.Second, func() { order = append(order, "a") })
	m.Schedule(2*time.Second, func() { order = append(order, "b") })

	m.Advance(2 * time.Second)
	assert.DeepEqual(t, []string{"a", "b"}, order)

	m.Advance(10 * time.Second)
	assert.DeepEqual(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, m.Pending())
}

func TestManualRepeatingTask(t *testing.T) {
	m := NewManual()
	fired := 0
	h := m.ScheduleRepeating(time.Second, func() { fired++ })

	m.Advance(500 * time.Millisecond)
	assert.Equal(t, 0, fired, "nothing fires before the first period")

	m.Advance(3 * time.Second)
	assert.Equal(t, 3, fired)

	h.Cancel()
	m.Advance(5 * time.Second)
	assert.Equal(t, 3, fired, "cancelled task must not fire")
}

func TestManualCancelIsIdempotent(t *testing.T) {
	m := NewManual()
	fired := 0
	h := m.Schedule(time.Second, func() { fired++ })
	h.Cancel()
	h.Cancel()
	m.Advance(2 * time.Second)
	assert.Equal(t, 0, fired)

	// Cancelling after the task fired is fine too.
	h2 := m.Schedule(time.Second, func() { fired++ })
	m.Advance(time.Second)
	h2.Cancel()
	assert.Equal(t, 1, fired)
}

func TestManualCallbackMayRescheduleAndCancel(t *testing.T) {
	m := NewManual()
	var chained bool
	var h Handle
	h = m.ScheduleRepeating(time.Second, func() {
		h.Cancel()
		m.Schedule(time.Second, func() { chained = true })
	})

	m.Advance(time.Second)
	assert.Check(t, !chained)
	m.Advance(time.Second)
	assert.Check(t, chained)
	assert.Equal(t, 0, m.Pending())
}

func TestManualShutdownDropsTasks(t *testing.T) {
	m := NewManual()
	fired := 0
	m.Schedule(time.Second, func() { fired++ })
	m.ScheduleRepeating(time.Second, func() { fired++ })
	m.Shutdown()
	m.Advance(time.Minute)
	assert.Equal(t, 0, fired)
}
