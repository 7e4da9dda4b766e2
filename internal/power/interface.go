package power

import (
	"context"

	"codeberg.org/mutker/diskctl/internal/diskstats"
)

// Controller drives the devices' power state through external commands.
// Both operations are best-effort: individual command failures are not
// surfaced, the next counter read reflects whatever actually happened.
type Controller interface {
	// SpinDown puts all devices into standby and returns a fresh
	// counter snapshot taken after a grace period, so the spin-down
	// commands' own I/O is not misread as activity on the next tick.
	SpinDown(ctx context.Context, devices []string) (diskstats.Snapshot, error)

	// WakeUp forces all devices out of standby with a minimal read
	WakeUp(ctx context.Context, devices []string)
}
