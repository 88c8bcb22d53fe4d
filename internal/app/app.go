package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	server "radfield/server"
	servernet "radfield/server/internal/net"
	"radfield/server/internal/radiation"
	"radfield/server/internal/scenario"
	"radfield/server/internal/sim"
	"radfield/server/internal/telemetry"
	"radfield/server/internal/tickstore"
	"radfield/server/internal/tracelog"
	"radfield/server/internal/tuning"
	"radfield/server/logging"
	radlog "radfield/server/logging/radiation"
	loggingsinks "radfield/server/logging/sinks"
)

const (
	defaultConfigPath = "config/tuning.yaml"
	tracePrefix       = "rays"
	shutdownTimeout   = 5 * time.Second
)

// Config carries command-line overrides. Empty fields defer to the tuning
// file.
type Config struct {
	ConfigPath   string
	ListenAddr   string
	ScenarioPath string
	Logger       *log.Logger
}

// Run assembles the server and blocks until ctx is cancelled or the HTTP
// listener fails.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	tune, err := loadTuning(cfg.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.ListenAddr != "" {
		tune.ListenAddr = cfg.ListenAddr
	}
	if cfg.ScenarioPath != "" {
		tune.ScenarioPath = cfg.ScenarioPath
	}

	router, closeSinks, err := buildRouter(tune.Logging)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
		closeSinks()
	}()

	metrics := logging.NewMetrics()

	file, err := scenario.Load(tune.ScenarioPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	world, err := file.Build()
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	system := radiation.NewSystem(tune.RadiationConfig())

	var trace *tracelog.Writer
	if tune.Debug.TraceDir != "" {
		trace = tracelog.NewWriter(tune.Debug.TraceDir, tracePrefix)
		defer func() {
			if cerr := trace.Close(); cerr != nil {
				logger.Printf("failed to close trace writer: %v", cerr)
			}
		}()
	}

	var store *tickstore.Store
	if tune.Debug.TickStorePath != "" {
		store, err = tickstore.Open(tune.Debug.TickStorePath)
		if err != nil {
			return fmt.Errorf("open tick store: %w", err)
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				logger.Printf("failed to close tick store: %v", cerr)
			}
		}()
	}

	hub := server.NewHub(logger, tune.ScenarioPath, tune.TickRateHz)
	recorder := server.NewDebugRecorder(hub, trace, logging.SystemClock{}, logger)
	system.SetObserver(recorder)
	system.OnDegenerateGrid(func(gridID string) {
		radlog.GridDegenerate(ctx, router, recorder.CurrentTick(), gridID)
	})
	hub.OnSubscriberCount(func(count int) {
		radlog.ObserverChanged(ctx, router, recorder.CurrentTick(), count > 0, count)
	})

	engine := server.NewEngine(world, system, sim.Deps{
		Logger:  telemetry.WrapLogger(logger),
		Metrics: telemetry.WrapMetrics(metrics),
		Clock:   logging.SystemClock{},
	})

	loop := sim.NewLoop(engine, sim.LoopConfig{
		TickRate:        tune.TickRateHz,
		CatchupMaxTicks: tune.CatchupMaxTicks,
	}, sim.LoopHooks{
		Prepare: func(tc sim.TickContext) {
			recorder.BeginTick(tc.Tick)
		},
		AfterStep: func(result sim.StepResult) {
			radlog.PassCompleted(ctx, router, result.Tick, radlog.PassCompletedPayload{
				ElapsedMs:     result.Report.ElapsedMs,
				SourceCount:   result.Report.SourceCount,
				ReceiverCount: result.Report.ReceiverCount,
				RaysTraced:    result.Report.RaysTraced,
				RaysReached:   result.Report.RaysReached,
			})
			if store != nil {
				if serr := store.RecordPass(result.Report, result.Now); serr != nil {
					logger.Printf("failed to record pass summary: %v", serr)
				}
			}
		},
	})

	stop := make(chan struct{})
	go loop.Run(stop)
	defer close(stop)

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		Logger:   logger,
		TickRate: tune.TickRateHz,
		Scenario: tune.ScenarioPath,
		Loop:     loop,
		Metrics:  metrics,
		Store:    store,
	})

	srv := &http.Server{Addr: tune.ListenAddr, Handler: handler}
	logger.Printf("server listening on %s (scenario %s, %d Hz)", srv.Addr, tune.ScenarioPath, tune.TickRateHz)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if serr := srv.Shutdown(shutdownCtx); serr != nil {
			logger.Printf("server shutdown: %v", serr)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

// loadTuning reads the tuning file, falling back to defaults when the default
// path does not exist. An explicit path must exist.
func loadTuning(path string) (tuning.Tuning, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	t, err := tuning.Load(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return tuning.Default(), nil
		}
		return t, fmt.Errorf("load tuning: %w", err)
	}
	return t, nil
}

func buildRouter(cfg tuning.LoggingTuning) (*logging.Router, func(), error) {
	logCfg := logging.DefaultConfig()
	if len(cfg.Sinks) > 0 {
		logCfg.EnabledSinks = cfg.Sinks
	}
	logCfg.MinimumSeverity = parseSeverity(cfg.MinSeverity)
	if cfg.JSONPath != "" {
		logCfg.JSON.FilePath = cfg.JSONPath
	}

	var namedSinks []logging.NamedSink
	var closers []func()
	if logCfg.HasSink("console") {
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "console",
			Sink: loggingsinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if logCfg.HasSink("json") && logCfg.JSON.FilePath != "" {
		f, err := os.OpenFile(logCfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open json log: %w", err)
		}
		namedSinks = append(namedSinks, logging.NamedSink{
			Name: "json",
			Sink: loggingsinks.NewJSON(f, logCfg.JSON.FlushInterval),
		})
		closers = append(closers, func() { f.Close() })
	}

	router, err := logging.NewRouter(logging.SystemClock{}, logCfg, namedSinks)
	if err != nil {
		for _, closer := range closers {
			closer()
		}
		return nil, nil, fmt.Errorf("construct logging router: %w", err)
	}
	closeAll := func() {
		for _, closer := range closers {
			closer()
		}
	}
	return router, closeAll, nil
}

func parseSeverity(raw string) logging.Severity {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return logging.SeverityDebug
	case "warn", "warning":
		return logging.SeverityWarn
	case "error":
		return logging.SeverityError
	default:
		return logging.SeverityInfo
	}
}
