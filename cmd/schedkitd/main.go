package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"schedkit/internal/config"
	"schedkit/internal/eventbus"
	"schedkit/internal/jobrun"
	"schedkit/internal/scheduler"
	"schedkit/pkg/logx"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./schedkit.yaml", "path to schedule file (yaml or json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
		File: logx.FileConfig{
			Enabled: cfg.Log.File.Enabled,
			Path:    cfg.Log.File.Path,
		},
		Mirror: logx.MirrorConfig{
			Enabled:  cfg.Log.Mirror.Enabled,
			MinLevel: cfg.Log.Mirror.MinLevel,
			PerSec:   cfg.Log.Mirror.PerSec,
		},
	})
	defer logSvc.Close()

	bus := eventbus.New()

	if err := run(ctx, cfg, cfgPath, log, bus); err != nil {
		log.Error("fatal", logx.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, cfgPath string, log logx.Logger, bus eventbus.Bus) error {
	jitterMax, err := cfg.JitterMax()
	if err != nil {
		return err
	}
	sched := scheduler.New(scheduler.Config{JitterMax: jitterMax}, log, bus)

	specs, err := cfg.JobSpecs()
	if err != nil {
		return err
	}
	now := time.Now()
	for _, spec := range specs {
		runner := jobrun.New(spec.Name, spec.Command, spec.Timeout, log)
		var opts []scheduler.JobOption
		if spec.Jitter > 0 {
			opts = append(opts, scheduler.WithJitter(spec.Jitter))
		}

		startAt := spec.StartAt
		if startAt.IsZero() {
			startAt = now
		}
		switch {
		case spec.Cron != "":
			_, err = sched.AddCron(spec.Name, spec.Cron, runner.Run, opts...)
		case spec.Every != "":
			_, err = sched.AddEvery(spec.Name, startAt, spec.Every, runner.Run, opts...)
		default:
			_, err = sched.AddInterval(spec.Name, startAt, spec.Interval, runner.Run, opts...)
		}
		if err != nil {
			return err
		}
	}

	// Under systemd with WatchdogSec set, keep the watchdog fed by the
	// scheduler itself: a fixed-interval job at half the deadline.
	if wd, err := daemon.SdWatchdogEnabled(false); err == nil && wd > 0 {
		_, err := sched.AddInterval("systemd-watchdog", time.Now().Add(wd/2), wd/2, func() {
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		})
		if err != nil {
			return err
		}
		log.Info("systemd watchdog keepalive enabled", logx.Duration("interval", wd/2))
	}

	go tailEvents(ctx, bus, log)
	go func() {
		if err := config.Watch(ctx, cfgPath, log, bus); err != nil {
			log.Warn("schedule watch unavailable", logx.Err(err))
		}
	}()

	if err := sched.StartAll(); err != nil {
		return err
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	log.Info("schedkitd ready", logx.Int("jobs", len(sched.Snapshot())), logx.String("config", cfgPath))

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	sched.Stop()
	return nil
}

// tailEvents surfaces job lifecycle events at operator-visible levels;
// drivers themselves log at debug.
func tailEvents(ctx context.Context, bus eventbus.Bus, log logx.Logger) {
	events, unsub := bus.Subscribe(128)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			je, _ := e.Data.(scheduler.JobEvent)
			switch e.Type {
			case eventbus.JobFired:
				log.Info("job fired", logx.String("job", je.Name), logx.Time("deadline", je.Deadline))
			case eventbus.JobSkipped:
				log.Warn("job fell behind",
					logx.String("job", je.Name),
					logx.Int("skipped", je.Skipped),
					logx.Time("deadline", je.Deadline))
			case eventbus.JobStopped:
				log.Info("job stopped", logx.String("job", je.Name))
			}
		}
	}
}
