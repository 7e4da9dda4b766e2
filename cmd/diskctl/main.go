package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/diskctl/internal/config"
	"codeberg.org/mutker/diskctl/internal/diskstats"
	"codeberg.org/mutker/diskctl/internal/errors"
	"codeberg.org/mutker/diskctl/internal/idle"
	"codeberg.org/mutker/diskctl/internal/logger"
	"codeberg.org/mutker/diskctl/internal/metrics"
	"codeberg.org/mutker/diskctl/internal/pid"
	"codeberg.org/mutker/diskctl/internal/power"
)

// version is set at build time via -ldflags
var version = "dev"

type app struct {
	cfg       *config.Config
	devices   []string
	reader    *diskstats.Reader
	ctrl      power.Controller
	machine   *idle.Machine
	collector metrics.Collector

	state idle.RunState
	prev  idle.Snapshot
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Version {
		fmt.Printf("diskctl %s\n", version)
		return
	}

	logger.Init(cfg.Debug, cfg.Verbose(), logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write PID file")
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("failed to remove PID file")
		}
	}()

	a, err := newApp(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if err := a.loop(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
		os.Exit(1)
	}
	logger.Info().Msg("Exiting...")
}

func newApp(cfg *config.Config) (*app, error) {
	errFactory := errors.New()

	devices, err := diskstats.ResolveDevices(cfg.Devices)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrResolveDevices, err)
	}
	logger.Info().
		Strs("devices", devices).
		Int("timeout", cfg.Timeout).
		Msg("Monitoring devices")

	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = cfg.Metrics
	if cfg.Database != "" {
		metricsCfg.DBPath = cfg.Database
	}
	collector, err := metrics.NewService(metricsCfg)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitMetrics, err)
	}

	reader := diskstats.NewReader(diskstats.ProcPath)

	return &app{
		cfg:       cfg,
		devices:   devices,
		reader:    reader,
		ctrl:      power.NewController(reader, power.Config{}),
		machine:   idle.NewMachine(time.Duration(cfg.Timeout) * time.Second),
		collector: collector,
		state:     idle.NewRunState(time.Now()),
	}, nil
}

func (a *app) close() {
	if err := a.collector.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close metrics collector")
	}
}

// loop polls the device counters at a fixed cadence and feeds them into
// the state machine. Exactly one tick is processed at a time; the power
// actions run inside the tick that requested them.
func (a *app) loop(ctx context.Context) error {
	errFactory := errors.New()

	interval := time.Duration(a.cfg.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.tick(ctx, time.Now()); err != nil {
				return errFactory.Wrap(errors.ErrMainLoop, err)
			}
		}
	}
}

func (a *app) tick(ctx context.Context, now time.Time) error {
	errFactory := errors.New()

	snapshot, err := a.reader.Read(a.devices)
	if err != nil {
		return errFactory.Wrap(errors.ErrReadStats, err)
	}

	before := a.state
	active := idle.Changed(a.prev, snapshot)
	state, action := a.machine.Tick(a.state, a.prev, snapshot, now)
	a.state = state
	a.prev = snapshot

	switch action {
	case idle.ActionPowerDown:
		logger.Info().
			Strs("devices", a.devices).
			Str("idle_time", idle.FormatDuration(now.Sub(before.LastAccess))).
			Msg("Spinning down devices")
		// The fresh post-spin-down snapshot becomes the next tick's
		// baseline, so the spin-down commands' own I/O is not read
		// back as activity.
		fresh, err := a.ctrl.SpinDown(ctx, a.devices)
		if err != nil {
			return errFactory.Wrap(errors.ErrSpinDownDevices, err)
		}
		a.prev = fresh
	case idle.ActionWakeUp:
		logger.Info().
			Strs("devices", a.devices).
			Str("standby_time", idle.FormatDuration(now.Sub(before.LastAccess))).
			Msg("Activity detected, waking up devices")
		a.ctrl.WakeUp(ctx, a.devices)
	case idle.ActionNone:
	}

	a.logStatus(now, snapshot)

	sample := &metrics.Sample{
		Timestamp: now,
		Power: metrics.PowerMetrics{
			State:        a.state.State.String(),
			StateSeconds: int64(now.Sub(a.state.LastTransition) / time.Second),
		},
		Activity: metrics.ActivityMetrics{
			Active:  active,
			Devices: len(snapshot),
		},
	}
	if err := a.collector.Record(ctx, sample); err != nil {
		logger.Warn().Err(err).Msg("failed to record metrics sample")
	}

	return nil
}

func (a *app) logStatus(now time.Time, snapshot idle.Snapshot) {
	if a.cfg.Debug {
		logger.Debug().
			Str("state", a.state.State.String()).
			Time("last_access", a.state.LastAccess).
			Time("last_transition", a.state.LastTransition).
			Int("devices", len(snapshot)).
			Int("timeout", a.cfg.Timeout).
			Msg("")
	} else if a.cfg.Verbose() {
		logger.Info().
			Str("state", a.state.State.String()).
			Str("idle_time", idle.FormatDuration(now.Sub(a.state.LastAccess))).
			Msg("")
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
