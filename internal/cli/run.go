package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/f451labs/sysmon/internal/agent"
	"github.com/f451labs/sysmon/internal/config"
	"github.com/f451labs/sysmon/internal/dash"
	"github.com/f451labs/sysmon/internal/device"
	"github.com/f451labs/sysmon/internal/feed"
	"github.com/f451labs/sysmon/internal/logger"
	"github.com/f451labs/sysmon/internal/sample"
	"github.com/f451labs/sysmon/internal/telemetry"
	"github.com/f451labs/sysmon/internal/ui"
	"github.com/f451labs/sysmon/internal/upload"
	"github.com/mattn/go-isatty"
)

// runAgent wires the configured collaborators and runs the loop until it
// terminates. Fatal CONFIG and forced FEED errors surface as the returned
// error; everything else is handled inside the loop.
func runAgent(ctx context.Context, ov config.Overrides) error {
	cfg, err := config.LoadOrDefault(configFlag, ov)
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Close(log)

	if cfg.MetricsAddr != "" {
		errCh := telemetry.Serve(cfg.MetricsAddr)
		go func() {
			if err := <-errCh; err != nil {
				log.Error("metrics listener stopped: %v", err)
			}
		}()
		log.Info("metrics listening on %s", cfg.MetricsAddr)
	}

	var collector sample.Collector
	if cfg.Demo {
		collector = sample.NewDemo(cfg.Rounding, 0)
		log.Info("demo mode: using simulated readings")
	} else {
		collector = sample.NewSpeedTest(cfg.Rounding)
	}

	var (
		scheduler *upload.Scheduler
		validator agent.Validator
	)
	if cfg.UploadMode != config.UploadNo {
		client, err := feed.NewClient(
			feed.Config{Username: cfg.AIOID, Key: cfg.AIOKey},
			feed.Dependencies{Logger: log},
		)
		if err != nil {
			return err
		}
		feeds := map[sample.Metric]string{
			sample.Download: cfg.FeedDwnld,
			sample.Upload:   cfg.FeedUpld,
			sample.Ping:     cfg.FeedPing,
		}
		scheduler = upload.New(client, feeds, cfg.Delay, cfg.Freq, cfg.Throttle,
			cfg.MaxUploads, upload.WithLogger(log))
		validator = client
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dashboard, console := buildTerminal(cfg)
	dev := buildDevice(cfg, dashboard, log)

	if dashboard != nil {
		dashboard.Start()
		// A dashboard quit (q / ctrl+c in the alt screen) ends the run the
		// same way a signal does.
		go func() {
			<-dashboard.Done()
			stop()
		}()
		defer dashboard.Stop()
	}

	params := agent.Params{
		Config:    cfg,
		Collector: collector,
		Device:    dev,
		Scheduler: scheduler,
		Validator: validator,
		Console:   console,
		Logger:    log,
		Version:   version,
	}
	// A nil *dash.Dashboard must stay a nil interface in the agent.
	if dashboard != nil {
		params.Dashboard = dashboard
	}
	return agent.New(params).Run(ctx)
}

// buildLogger honors LOGFILE and LOGLVL. Without a log file the fallback
// depends on the terminal: stderr when there is no dashboard to corrupt,
// discard otherwise.
func buildLogger(cfg *config.Config) (logger.Logger, error) {
	level := logger.ParseLevel(cfg.LogLvl)
	if cfg.LogFile != "" {
		return logger.NewFile(cfg.LogFile, level)
	}
	if cfg.NoCLI || !isatty.IsTerminal(os.Stdout.Fd()) {
		return logger.NewStderr(level), nil
	}
	return logger.Noop(), nil
}

// buildTerminal picks the terminal surface: the interactive dashboard on
// a TTY, the plain console mirror otherwise, nothing under --noCLI.
func buildTerminal(cfg *config.Config) (*dash.Dashboard, *ui.Console) {
	if cfg.NoCLI {
		return nil, nil
	}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return dash.New(version), nil
	}
	return nil, ui.NewConsole(os.Stdout)
}

// buildDevice selects the LED variant once at startup. A Sense HAT that
// fails to open degrades to no LED output rather than killing the run.
func buildDevice(cfg *config.Config, dashboard *dash.Dashboard, log logger.Logger) device.Device {
	switch cfg.LED {
	case config.LEDOff:
		return device.Noop{}
	case config.LEDSim:
		if dashboard != nil {
			return dashboard.Device()
		}
		log.Warn("LED=sim needs the dashboard; continuing without LED output")
		return device.Noop{}
	default:
		hat, err := device.OpenSenseHat(log)
		if err != nil {
			log.Warn("Sense HAT unavailable, continuing without LED output: %v", err)
			if dashboard != nil {
				return dashboard.Device()
			}
			return device.Noop{}
		}
		return hat
	}
}
