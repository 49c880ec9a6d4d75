// Command cwstats records Castle Wars round statistics from a game client bridge.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cwstats/recorder/internal/api"
	"github.com/cwstats/recorder/internal/cache"
	"github.com/cwstats/recorder/internal/client"
	"github.com/cwstats/recorder/internal/config"
	"github.com/cwstats/recorder/internal/dispatcher"
	"github.com/cwstats/recorder/internal/handlers"
	"github.com/cwstats/recorder/internal/influx"
	"github.com/cwstats/recorder/internal/logging"
	"github.com/cwstats/recorder/internal/monitor"
	intOtel "github.com/cwstats/recorder/internal/otel"
	"github.com/cwstats/recorder/internal/parser"
	"github.com/cwstats/recorder/internal/queue"
	"github.com/cwstats/recorder/internal/round"
	"github.com/cwstats/recorder/internal/session"
	"github.com/cwstats/recorder/internal/summary"
	"github.com/cwstats/recorder/internal/tracker"
	"github.com/cwstats/recorder/pkg/hostinterface"

	"github.com/rs/zerolog"
)

// Version and BuildDate can be set at build time via ldflags
var (
	Version   = "0.3.0"
	BuildDate = "unknown"
)

// AppName prefixes log and database files.
const AppName = "cwstats"

// outboxInterval is how often summary lines are flushed to the host.
const outboxInterval = 100 * time.Millisecond

func main() {
	boot, err := config.LoadBootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err := config.Load(boot.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config, using defaults: %v\n", err)
	}
	level := config.GetString("logLevel")
	if boot.LogLevel != "" {
		level = boot.LogLevel
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	command := "run"
	if len(args) > 0 {
		command = strings.ToLower(args[0])
		args = args[1:]
	}

	switch command {
	case "run":
		err = run(ctx, level)
	case "rounds":
		err = listRounds(os.Stdout, args)
	case "export":
		err = exportRounds(os.Stdout, args)
	case "migrate":
		err = migrateBackups(os.Stdout, args)
	case "version":
		fmt.Printf("%s %s (built %s)\n", AppName, Version, BuildDate)
	default:
		err = fmt.Errorf("unknown command %q (want run, rounds, export, migrate or version)", command)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// openLogFile creates the session log file, moving an existing one aside.
func openLogFile(logsDir string, sessionStart time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create logs dir: %w", err)
	}
	path := logging.LogFilePath(logsDir, AppName, sessionStart)
	if _, err := os.Stat(path); err == nil {
		_ = os.Rename(path, path+".old")
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, path, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, path, nil
}

func zerologLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func run(ctx context.Context, level string) error {
	sessionStart := time.Now()

	// Logging
	var logWriter io.Writer
	logFile, logPath, err := openLogFile(config.GetString("logsDir"), sessionStart)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v, logging to stderr\n", err)
	} else {
		defer logFile.Close()
		logWriter = logFile
	}

	status := round.NewContext()
	slogManager := logging.NewSlogManager()
	slogManager.SetContextProvider(status.LogAttrs)

	var graylogErr error
	if config.GetBool("graylog.enabled") {
		gw, err := logging.NewGraylogWriter(config.GetString("graylog.address"))
		if err != nil {
			graylogErr = err
		} else {
			defer gw.Close()
			slogManager.SetGraylog(gw)
		}
	}

	otelProvider, otelErr := intOtel.New(intOtel.FromSettings(config.GetOTelConfig(), Version, logWriter))
	if otelErr != nil {
		otelProvider, _ = intOtel.New(intOtel.Config{})
	}

	slogManager.Setup(logWriter, level, otelProvider.LoggerProvider())
	logger := slogManager.Logger()
	intOtel.RouteErrors(logger)
	logger.Info("Starting up", "version", Version, "buildDate", BuildDate, "logFile", logPath)
	if graylogErr != nil {
		logger.Warn("Graylog disabled", "error", graylogErr)
	}
	if otelErr != nil {
		logger.Error("Failed to initialize OTel provider", "error", otelErr)
	}

	zlogOut := logWriter
	if zlogOut == nil {
		zlogOut = os.Stderr
	}
	zlog := zerolog.New(zlogOut).With().Timestamp().Logger().Level(zerologLevel(level))

	// Storage
	apiCfg := config.GetAPIConfig()
	backend, err := createStorageBackend(config.GetStorageConfig(), apiCfg, sessionStart, logger)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close storage backend", "error", err)
		}
	}()

	// Dispatcher and wire protocol
	d, err := dispatcher.New(logging.NewDispatcherLogger(zlog.With().Str("component", "dispatcher").Logger()))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	inputCfg := config.GetInputConfig()
	if err := inputCfg.Validate(); err != nil {
		return err
	}
	var base io.Writer = os.Stdout
	if inputCfg.Source == "websocket" {
		base = nil
	}
	writer := hostinterface.NewWriter(base)
	bridgeOpts := []hostinterface.Option{hostinterface.WithLogger(logger)}
	if inputCfg.ErrorReplies {
		bridgeOpts = append(bridgeOpts, hostinterface.WithErrorReplies())
	}
	bridge := hostinterface.NewBridge(d, writer, bridgeOpts...)

	// Status server
	statusCfg := config.GetStatusConfig()
	monitorDeps := monitor.Dependencies{
		Address:    statusCfg.Address,
		CacheTTL:   statusCfg.CacheTTL,
		Status:     status,
		Logger:     logger,
		StatusFile: filepath.Join(config.GetString("logsDir"), "status.json"),
	}
	if inputCfg.Source == "websocket" {
		if !statusCfg.Enabled {
			return errors.New("websocket input needs status.enabled")
		}
		monitorDeps.Websocket = bridge.WebsocketHandler()
	}
	monitorService := monitor.NewService(monitorDeps)
	d.Observe(monitorService.ObserveCommand)
	if statusCfg.Enabled {
		if err := monitorService.Start(); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := monitorService.Stop(stopCtx); err != nil {
				logger.Warn("Status server did not stop cleanly", "error", err)
			}
		}()
	}

	sinks := []session.RoundSink{backend, monitorService}

	// InfluxDB
	var metrics handlers.MetricWriter
	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		im := influx.NewManager(
			zlog.With().Str("component", "influx").Logger(),
			influxCfg,
			filepath.Join(config.GetString("logsDir"), "influx_backup.log.gz"),
		)
		if err := im.Connect(ctx); err != nil {
			logger.Error("Failed to connect to InfluxDB", "error", err)
		} else {
			defer im.Close()
			sinks = append(sinks, im)
			metrics = im
		}
	}

	// Upload
	hooks := &roundHooks{backend: backend, flusher: slogManager, logger: logger}
	if apiCfg.Enabled {
		apiClient := api.New(apiCfg.ServerURL, apiCfg.APIKey)
		hooks.uploader = apiClient
		go checkServerStatus(apiClient, logger)
	}
	sinks = append(sinks, hooks)
	defer hooks.Wait()

	// Round pipeline
	state := client.NewState(cache.NewEntityCache())
	statsTracker := tracker.New(state, logger)
	outbox := queue.New[string]()
	controller := session.New(state, statsTracker, outbox,
		session.WithSinks(sinks...),
		session.WithStatus(status),
		session.WithHighlighter(summary.ColorTag(config.GetString("summary.highlight"))),
		session.WithLogger(logger),
	)

	handlers.NewService(handlers.Dependencies{
		Parser:    parser.NewParser(logger, Version),
		State:     state,
		Tracker:   statsTracker,
		Session:   controller,
		Logger:    logger,
		Log:       slogManager.WriteLog,
		Metrics:   metrics,
		QueueSize: inputCfg.QueueSize,
	}).RegisterHandlers(d)

	outboxDone := make(chan struct{})
	stopOutbox := make(chan struct{})
	go func() {
		defer close(outboxDone)
		drainOutbox(outbox, writer, stopOutbox, logger)
	}()

	logger.Info("Reading host commands", "source", inputCfg.Source)
	serveErr := serve(ctx, bridge, inputCfg)
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logger.Error("Input stopped", "error", serveErr)
	}

	// Shutdown: finish queued commands, then drop any live round.
	d.Close()
	controller.Shutdown()
	close(stopOutbox)
	<-outboxDone

	logger.Info("Shutting down", "roundsPlayed", status.Get().RoundsPlayed)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := otelProvider.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to shut down OTel provider", "error", err)
	}
	if errors.Is(serveErr, context.Canceled) {
		return nil
	}
	return serveErr
}

func serve(ctx context.Context, bridge *hostinterface.Bridge, cfg config.InputConfig) error {
	switch cfg.Source {
	case "file":
		return bridge.ServeFile(ctx, cfg.Path, hostinterface.TailOptions{PollInterval: cfg.PollInterval})
	case "websocket":
		<-ctx.Done()
		return ctx.Err()
	case "stdin", "":
		// a blocked stdin read cannot be interrupted, so cancellation wins the race
		errCh := make(chan error, 1)
		go func() { errCh <- bridge.Serve(ctx, os.Stdin) }()
		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	default:
		return fmt.Errorf("unknown input source %q", cfg.Source)
	}
}

// drainOutbox forwards summary lines to the host as they are queued, and on
// every outboxInterval, until stop is closed. Whatever is left is sent last.
func drainOutbox(outbox *queue.Queue[string], writer *hostinterface.Writer, stop <-chan struct{}, logger *slog.Logger) {
	ticker := time.NewTicker(outboxInterval)
	defer ticker.Stop()

	flush := func() {
		if lines := outbox.GetAndEmpty(); len(lines) > 0 {
			if err := writer.Drain(lines); err != nil {
				logger.Error("Failed to send summary to host", "error", err)
			}
		}
	}
	for {
		select {
		case <-stop:
			flush()
			return
		case <-outbox.Ready():
			flush()
		case <-ticker.C:
			flush()
		}
	}
}

func checkServerStatus(c *api.Client, logger *slog.Logger) {
	if err := c.Healthcheck(); err != nil {
		logger.Info("Stats web service is offline", "error", err)
		return
	}
	logger.Info("Stats web service is online")
}
