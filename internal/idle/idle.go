// Package idle decides when a set of disks has gone idle and when it has
// been accessed again. The decision is a pure function of two counter
// snapshots and the clock, so the whole transition logic runs without
// real time or real devices.
package idle

import (
	"fmt"
	"time"
)

// State is the power state of the monitored device set. The set is
// managed as a single unit: one access to any device keeps all of them
// awake.
type State int

const (
	StateActive State = iota
	StateStandby
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateStandby:
		return "standby"
	default:
		return "unknown"
	}
}

// Action is the side effect a tick asks the caller to perform
type Action int

const (
	ActionNone Action = iota
	ActionPowerDown
	ActionWakeUp
)

// RunState is the machine's per-run state, owned by the poll loop and
// threaded through each Tick call.
type RunState struct {
	State          State
	LastAccess     time.Time
	LastTransition time.Time
}

// NewRunState returns the initial state: devices assumed active and
// last accessed now.
func NewRunState(now time.Time) RunState {
	return RunState{
		State:          StateActive,
		LastAccess:     now,
		LastTransition: now,
	}
}

// Machine applies the transition rules for one monitored device set
type Machine struct {
	timeout time.Duration
}

func NewMachine(timeout time.Duration) *Machine {
	return &Machine{timeout: timeout}
}

// Tick evaluates one poll iteration. prev may be nil on the first tick,
// which counts as "no activity yet". Activity is always checked before
// the idle timeout, so a tick that both shows activity and exceeds the
// timeout wakes the devices rather than re-sleeping them. The timeout
// comparison is strictly greater than: a tick landing exactly on the
// deadline does not spin down.
func (m *Machine) Tick(rs RunState, prev, cur Snapshot, now time.Time) (RunState, Action) {
	action := ActionNone

	if prev != nil && Changed(prev, cur) {
		if rs.State == StateStandby {
			rs.State = StateActive
			rs.LastTransition = now
			action = ActionWakeUp
		}
		rs.LastAccess = now
	}

	if rs.State == StateActive && now.Sub(rs.LastAccess) > m.timeout {
		rs.State = StateStandby
		rs.LastTransition = now
		action = ActionPowerDown
	}

	return rs, action
}

// FormatDuration renders a duration as H:MM:SS. Hours are not capped at
// 24, so a three-day standby reads "72:00:00".
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)

	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
