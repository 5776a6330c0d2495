// Package main is the entry point for the Deal Finder.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/deal-finder/business/messaging"
	"github.com/fd1az/deal-finder/business/planning"
	planningApp "github.com/fd1az/deal-finder/business/planning/app"
	planningDI "github.com/fd1az/deal-finder/business/planning/di"
	"github.com/fd1az/deal-finder/business/pricing"
	pricingDI "github.com/fd1az/deal-finder/business/pricing/di"
	"github.com/fd1az/deal-finder/business/scanning"
	"github.com/fd1az/deal-finder/internal/apm"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/config"
	"github.com/fd1az/deal-finder/internal/health"
	"github.com/fd1az/deal-finder/internal/logger"
	"github.com/fd1az/deal-finder/internal/metrics"
	"github.com/fd1az/deal-finder/internal/monolith"
	"github.com/fd1az/deal-finder/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type options struct {
	configPath string
	tuiMode    bool
	once       bool
	schedule   string
	mode       string
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	once := flag.Bool("once", false, "Run a single planning pass and exit")
	schedule := flag.String("schedule", "", "Cron schedule for runs, e.g. \"@every 30m\" (overrides config)")
	mode := flag.String("mode", "", "Planning mode: pipeline or agent (overrides config)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("deal-finder %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	opts := options{
		configPath: *configPath,
		tuiMode:    !*cliMode,
		once:       *once,
		schedule:   *schedule,
		mode:       *mode,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !opts.tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if apperror.KindOf(err) == apperror.KindConfig {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if opts.mode != "" {
		cfg.Planning.Mode = opts.mode
	}
	if opts.schedule != "" {
		cfg.Planning.Schedule = opts.schedule
	}
	if opts.once {
		cfg.Planning.Schedule = ""
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg.App.TUIMode = opts.tuiMode

	var log *logger.Logger
	if opts.tuiMode {
		// the TUI owns the terminal; warnings surface in its logs panel
		log = logger.New(ui.NewLogWriter(), logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	} else {
		log = logger.New(os.Stderr, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
		log.Info(ctx, "starting Deal Finder",
			"version", version,
			"environment", cfg.App.Environment,
			"mode", cfg.Planning.Mode,
		)
	}

	if cfg.Telemetry.Enabled {
		stop, err := startTelemetry(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Dependency order: planning resolves the other three.
	modules := []monolith.Module{
		&pricing.Module{},
		&scanning.Module{},
		&messaging.Module{},
		&planning.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if cfg.Health.Enabled {
		healthServer := health.NewServer(cfg.Health.Port, version, log)
		healthServer.RegisterOptional("ollama", health.PingCheck(mono.LocalLLM().Ping))
		healthServer.RegisterCheck("qdrant", health.PingCheck(pricingDI.GetVectorStore(mono.Services()).Ping))
		if err := healthServer.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		}
		defer healthServer.Stop(context.Background())
	}

	if opts.tuiMode {
		startFunc := func() (func(), error) {
			probeServices(ctx, mono)
			if err := mono.StartModules(ctx, modules...); err != nil {
				return nil, fmt.Errorf("failed to start modules: %w", err)
			}
			return startRuns(ctx, mono)
		}
		return runTUI(ctx, cfg, startFunc)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCLI(ctx, mono, log)
}

func startTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (func(), error) {
	headers := apm.ParseHeaders(cfg.Telemetry.OTLPHeaders)

	traceProvider, err := apm.NewTraceProvider(ctx, apm.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Provider:    apm.Provider(cfg.Telemetry.Exporter),
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     headers,
	}, log)
	if err != nil {
		return nil, err
	}

	providers := []metrics.Option{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithExporter(metrics.Prometheus()),
	}
	if apm.Provider(cfg.Telemetry.Exporter) == apm.OTLPProvider && cfg.Telemetry.OTLPEndpoint != "" {
		providers = append(providers, metrics.WithExporter(
			metrics.OTLP(cfg.Telemetry.OTLPEndpoint, headers, false)))
	}

	meterProvider, err := metrics.NewMetricProvider(ctx, providers...)
	if err != nil {
		_ = traceProvider.Stop()
		return nil, err
	}

	go func() {
		port := strconv.Itoa(cfg.Telemetry.PrometheusPort)
		if err := metrics.ServePrometheusMetrics(ctx, log, metrics.WithPort(port)); err != nil {
			log.Warn(ctx, "prometheus metrics server stopped", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = meterProvider.Shutdown(shutdownCtx)
		_ = traceProvider.Stop()
	}, nil
}

// startRuns performs one run, then starts the scheduler when a schedule is
// configured, and binds the run-now key. The returned func stops runs.
func startRuns(ctx context.Context, mono monolith.Monolith) (func(), error) {
	cfg := mono.Config()
	log := mono.Logger()
	framework := planningDI.GetFramework(mono.Services())

	var (
		busy sync.Mutex
		wg   sync.WaitGroup
	)
	runOnce := func() {
		defer busy.Unlock()
		if _, err := framework.Run(ctx); err != nil {
			log.Error(ctx, "run failed", "error", err)
		}
	}

	// first run right away so the screen is not empty until the first tick
	busy.Lock()
	runOnce()
	if cfg.Planning.Schedule == "" || ctx.Err() != nil {
		ui.SetRunNow(func() bool {
			if ctx.Err() != nil || !busy.TryLock() {
				return false
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				runOnce()
			}()
			return true
		})
		return wg.Wait, nil
	}

	scheduler, err := planningApp.NewScheduler(framework, cfg.Planning.Schedule, log)
	if err != nil {
		return nil, err
	}
	if err := scheduler.Start(ctx); err != nil {
		return nil, err
	}
	ui.SetRunNow(scheduler.Trigger)

	ui.Send(ui.ScheduleMsg{Spec: cfg.Planning.Schedule, Next: scheduler.Next()})

	return scheduler.Stop, nil
}

func runCLI(ctx context.Context, mono monolith.Monolith, log *logger.Logger) error {
	cfg := mono.Config()
	framework := planningDI.GetFramework(mono.Services())
	defer planningDI.GetReporter(mono.Services()).Stop()

	if cfg.Planning.Schedule == "" {
		log.Info(ctx, "all modules started, running once", "mode", framework.Mode())
		_, err := framework.Run(ctx)
		return err
	}

	scheduler, err := planningApp.NewScheduler(framework, cfg.Planning.Schedule, log)
	if err != nil {
		return err
	}
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info(ctx, "all modules started, waiting for scheduled runs",
		"schedule", cfg.Planning.Schedule, "next", scheduler.Next())

	<-ctx.Done()

	log.Info(ctx, "shutting down")
	scheduler.Stop()

	return nil
}

// probeServices pings the collaborators that have a fallback so the startup
// screen can show which path runs will take.
func probeServices(ctx context.Context, mono monolith.Monolith) {
	ui.Send(ui.StartupMsg{Step: "config", Status: "done"})

	probe := func(step, name string, ping func(context.Context) error) {
		ui.Send(ui.StartupMsg{Step: step, Status: "connecting"})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		latency, err := health.Probe(pingCtx, ping)
		ui.Send(ui.ServiceStatusMsg{Name: name, Connected: err == nil, Latency: latency})
		if err != nil {
			ui.Send(ui.StartupMsg{Step: step, Status: "failed", Message: name + " unavailable: " + err.Error()})
			return
		}
		ui.Send(ui.StartupMsg{Step: step, Status: "connected"})
	}

	probe("local", "ollama", mono.LocalLLM().Ping)
	probe("vector", "qdrant", pricingDI.GetVectorStore(mono.Services()).Ping)

	// the remote backend has no cheap ping; its breaker reports failures per call
	ui.Send(ui.StartupMsg{Step: "remote", Status: "done"})
}

func runTUI(ctx context.Context, cfg *config.Config, startFunc func() (func(), error)) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	p := tea.NewProgram(ui.New(cfg.Planning.DealThresholdDecimal()), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		stop, err := startFunc()
		if err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		<-ctx.Done()

		stop()
		errCh <- nil
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
