package power

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"codeberg.org/mutker/diskctl/internal/diskstats"
	"codeberg.org/mutker/diskctl/internal/errors"
	"codeberg.org/mutker/diskctl/internal/logger"
)

const (
	hdparmCommand = "hdparm"

	// Wait after the spin-down commands return before re-reading the
	// counters, so their own I/O footprint has settled.
	defaultGracePeriod = 5 * time.Second
)

// CommandRunner executes one external command to completion
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Config holds controller settings
type Config struct {
	// GracePeriod overrides the post-spin-down settling delay.
	// Zero means the default.
	GracePeriod time.Duration

	// Runner overrides command execution, for tests. Nil means exec.
	Runner CommandRunner
}

type hdparmController struct {
	stats       diskstats.Source
	gracePeriod time.Duration
	run         CommandRunner
}

// NewController returns a Controller that spins devices down with
// "hdparm -y" and wakes them with "hdparm --read-sector 0", re-reading
// counters from the given source after spin-down.
func NewController(stats diskstats.Source, cfg Config) Controller {
	c := &hdparmController{
		stats:       stats,
		gracePeriod: cfg.GracePeriod,
		run:         cfg.Runner,
	}
	if c.gracePeriod == 0 {
		c.gracePeriod = defaultGracePeriod
	}
	if c.run == nil {
		c.run = execRunner
	}

	return c
}

func (c *hdparmController) SpinDown(ctx context.Context, devices []string) (diskstats.Snapshot, error) {
	errFactory := errors.New()

	c.fanOut(ctx, devices, func(device string) []string {
		return []string{"-y", device}
	})

	time.Sleep(c.gracePeriod)

	snapshot, err := c.stats.Read(devices)
	if err != nil {
		return nil, errFactory.Wrap(ErrRereadStats, err)
	}

	return snapshot, nil
}

func (c *hdparmController) WakeUp(ctx context.Context, devices []string) {
	c.fanOut(ctx, devices, func(device string) []string {
		return []string{"--read-sector", "0", device}
	})
}

// fanOut launches one command per device concurrently and joins all of
// them before returning. One hung command therefore stalls the whole
// tick; there is no per-command timeout.
func (c *hdparmController) fanOut(ctx context.Context, devices []string, args func(device string) []string) {
	var wg sync.WaitGroup
	for _, device := range devices {
		wg.Add(1)
		go func(device string) {
			defer wg.Done()
			if err := c.run(ctx, hdparmCommand, args(device)...); err != nil {
				// Best-effort: the next counter read reflects reality
				logger.Debug().Err(err).Str("device", device).Msg("power command failed")
			}
		}(device)
	}
	wg.Wait()
}

func execRunner(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
