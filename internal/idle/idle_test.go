package idle_test

import (
	"testing"
	"time"

	"codeberg.org/mutker/diskctl/internal/diskstats"
	"codeberg.org/mutker/diskctl/internal/idle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(reads, writes uint64) idle.Snapshot {
	return idle.Snapshot{
		"/dev/sda": diskstats.DeviceCounters{
			Major:           8,
			ReadsCompleted:  reads,
			SectorsRead:     reads * 8,
			WritesCompleted: writes,
			SectorsWritten:  writes * 8,
		},
	}
}

func TestChanged(t *testing.T) {
	base := snapshot(100, 50)

	t.Run("nil previous is no activity", func(t *testing.T) {
		assert.False(t, idle.Changed(nil, base))
	})

	t.Run("identical snapshots", func(t *testing.T) {
		assert.False(t, idle.Changed(base, snapshot(100, 50)))
	})

	t.Run("read counter differs", func(t *testing.T) {
		assert.True(t, idle.Changed(base, snapshot(101, 50)))
	})

	t.Run("write counter differs", func(t *testing.T) {
		assert.True(t, idle.Changed(base, snapshot(100, 51)))
	})

	t.Run("in-flight counter differs", func(t *testing.T) {
		cur := snapshot(100, 50)
		counters := cur["/dev/sda"]
		counters.IOInFlight++
		cur["/dev/sda"] = counters
		assert.True(t, idle.Changed(base, cur))
	})

	t.Run("device appears", func(t *testing.T) {
		cur := snapshot(100, 50)
		cur["/dev/sdb"] = diskstats.DeviceCounters{Major: 8, Minor: 16}
		assert.True(t, idle.Changed(base, cur))
	})

	t.Run("device disappears", func(t *testing.T) {
		assert.True(t, idle.Changed(base, idle.Snapshot{}))
	})
}

func TestTimeoutBoundary(t *testing.T) {
	const timeout = 5 * time.Second
	machine := idle.NewMachine(timeout)
	t0 := time.Unix(1000, 0)
	state := idle.NewRunState(t0)
	base := snapshot(100, 50)

	// Exactly at the deadline: no transition
	state, action := machine.Tick(state, base, snapshot(100, 50), t0.Add(timeout))
	assert.Equal(t, idle.ActionNone, action)
	assert.Equal(t, idle.StateActive, state.State)

	// Just past the deadline: exactly one spin-down
	now := t0.Add(timeout + time.Millisecond)
	state, action = machine.Tick(state, base, snapshot(100, 50), now)
	assert.Equal(t, idle.ActionPowerDown, action)
	assert.Equal(t, idle.StateStandby, state.State)
	assert.Equal(t, now, state.LastTransition)

	// Still idle: no second spin-down
	for i := 1; i <= 3; i++ {
		state, action = machine.Tick(state, base, snapshot(100, 50), now.Add(time.Duration(i)*time.Second))
		assert.Equal(t, idle.ActionNone, action)
		assert.Equal(t, idle.StateStandby, state.State)
	}
}

func TestWakeFromStandby(t *testing.T) {
	machine := idle.NewMachine(5 * time.Second)
	t0 := time.Unix(1000, 0)
	state := idle.NewRunState(t0)
	state.State = idle.StateStandby
	state.LastTransition = t0

	// Activity while asleep wakes exactly once
	now := t0.Add(30 * time.Second)
	state, action := machine.Tick(state, snapshot(100, 50), snapshot(101, 50), now)
	assert.Equal(t, idle.ActionWakeUp, action)
	assert.Equal(t, idle.StateActive, state.State)
	assert.Equal(t, now, state.LastAccess)
	assert.Equal(t, now, state.LastTransition)

	// An identical follow-up tick does not wake again
	state, action = machine.Tick(state, snapshot(101, 50), snapshot(101, 50), now.Add(time.Second))
	assert.Equal(t, idle.ActionNone, action)
	assert.Equal(t, idle.StateActive, state.State)
}

func TestWakeTakesPrecedenceOverTimeout(t *testing.T) {
	// A tick that both shows activity and exceeds the timeout must end
	// Active: the activity refreshes last access before the timeout check.
	machine := idle.NewMachine(5 * time.Second)
	t0 := time.Unix(1000, 0)
	state := idle.NewRunState(t0)

	now := t0.Add(time.Hour)
	state, action := machine.Tick(state, snapshot(100, 50), snapshot(200, 50), now)
	assert.Equal(t, idle.ActionNone, action)
	assert.Equal(t, idle.StateActive, state.State)
	assert.Equal(t, now, state.LastAccess)
}

func TestFirstTickHasNoPrevious(t *testing.T) {
	machine := idle.NewMachine(5 * time.Second)
	t0 := time.Unix(1000, 0)
	state := idle.NewRunState(t0)

	state, action := machine.Tick(state, nil, snapshot(100, 50), t0.Add(time.Second))
	assert.Equal(t, idle.ActionNone, action)
	assert.Equal(t, idle.StateActive, state.State)
	assert.Equal(t, t0, state.LastAccess, "first tick must not count as access")
}

func TestEndToEndScenario(t *testing.T) {
	const timeout = 5 * time.Second
	machine := idle.NewMachine(timeout)
	t0 := time.Unix(0, 0)
	state := idle.NewRunState(t0)

	var prev idle.Snapshot
	var powerDowns, wakeUps int

	tick := func(second int64, cur idle.Snapshot) {
		now := t0.Add(time.Duration(second) * time.Second)
		var action idle.Action
		state, action = machine.Tick(state, prev, cur, now)
		prev = cur
		switch action {
		case idle.ActionPowerDown:
			// The driver replaces prev with the post-spin-down re-read;
			// here the counters did not move, so prev already matches it.
			powerDowns++
		case idle.ActionWakeUp:
			wakeUps++
		}
	}

	// Unchanged counters for ticks t=0..6
	for s := int64(0); s <= 5; s++ {
		tick(s, snapshot(100, 50))
		require.Equal(t, idle.StateActive, state.State, "still active at t=%d", s)
	}
	tick(6, snapshot(100, 50))
	assert.Equal(t, idle.StateStandby, state.State)
	assert.Equal(t, 1, powerDowns)
	assert.Equal(t, 0, wakeUps)

	// No flapping while asleep
	tick(7, snapshot(100, 50))
	assert.Equal(t, 1, powerDowns)

	// Counter change at t=8 wakes the devices
	tick(8, snapshot(150, 50))
	assert.Equal(t, idle.StateActive, state.State)
	assert.Equal(t, 1, wakeUps)
	assert.Equal(t, 1, powerDowns)
	assert.Equal(t, t0.Add(8*time.Second), state.LastAccess)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0:00:00"},
		{59, "0:00:59"},
		{3661, "1:01:01"},
		{90000, "25:00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, idle.FormatDuration(time.Duration(tt.seconds)*time.Second))
	}
}
