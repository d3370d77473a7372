package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hydra/aware/internal/cache"
	"github.com/hydra/aware/internal/config"
	"github.com/hydra/aware/internal/engine"
	"github.com/hydra/aware/internal/engine/tile"
	"github.com/hydra/aware/internal/frame"
	"github.com/hydra/aware/internal/logging"
	"github.com/hydra/aware/internal/monitor"
	"github.com/hydra/aware/internal/orchestrator"
	intOtel "github.com/hydra/aware/internal/otel"
	"github.com/hydra/aware/internal/projection"
	"github.com/hydra/aware/internal/reconcile"
	"github.com/hydra/aware/internal/scene"
	"github.com/hydra/aware/internal/uistate"
	"github.com/hydra/aware/internal/world"
)

const appName = "aware"

func configFileName() string {
	return config.FileName
}

// app holds the ambient services shared by all commands.
type app struct {
	sessionStart time.Time
	slog         *logging.SlogManager
	logger       *slog.Logger
	otel         *intOtel.Provider
	logFile      io.WriteCloser
	store        *cache.Store
}

// newApp loads config, then sets up logging and OpenTelemetry. A missing
// config file is not fatal; defaults are used.
func newApp(dir string) (*app, error) {
	a := &app{
		sessionStart: time.Now(),
		slog:         logging.NewSlogManager(),
		store:        cache.NewStore(),
	}

	cfgErr := config.Load(dir)
	if cfgErr != nil {
		config.LoadDefaults()
	}

	if logsDir := config.GetString("logsDir"); logsDir != "" {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return nil, fmt.Errorf("create logs dir: %w", err)
		}
		f, err := os.OpenFile(logging.LogFilePath(logsDir, appName, a.sessionStart), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
	}

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		BatchTimeout:   otelCfg.BatchTimeout,
		MetricInterval: otelCfg.MetricInterval,
		LogWriter:      a.logWriter(),
		MetricWriter:   a.logWriter(),
		Endpoint:       otelCfg.Endpoint,
		Insecure:       otelCfg.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	provider.Install()
	a.otel = provider

	opts := logging.Options{
		Level:    config.GetString("logLevel"),
		Provider: provider.LoggerProvider(),
		Context:  a.logContext,
	}
	if a.logFile != nil {
		opts.File = a.logFile
	}
	if gl := config.GetGraylogConfig(); gl.Enabled {
		opts.GraylogAddress = gl.Address
	}
	setupErr := a.slog.Setup(opts)
	a.logger = a.slog.Logger()
	if setupErr != nil {
		a.logger.Warn("Log sink unavailable", "error", setupErr)
	}
	if cfgErr != nil {
		a.logger.Warn("Failed to load config, using defaults", "error", cfgErr)
	}

	return a, nil
}

// logWriter returns the log file, or nil when logging to stdout.
func (a *app) logWriter() io.Writer {
	if a.logFile == nil {
		return nil
	}
	return a.logFile
}

func (a *app) logContext() []slog.Attr {
	connected, _ := a.store.Status()
	return []slog.Attr{
		slog.Bool("connected", connected),
		slog.Int("entities", a.store.Snapshot().Len()),
	}
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.otel.Shutdown(ctx); err != nil {
		a.logger.Error("OTel shutdown failed", "error", err)
	}
	_ = a.slog.Close()
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func (a *app) worldClient() (world.Client, error) {
	return world.NewClient(config.GetWorldConfig(), a.logger)
}

// initialState maps the map config onto the view state.
func initialState(cfg config.MapConfig) uistate.State {
	st := uistate.DefaultState()
	if cfg.BaseLayer != "" {
		st.BaseLayer = engine.BaseLayer(cfg.BaseLayer)
	}
	if cfg.SceneMode != "" {
		st.SceneMode = engine.SceneMode(cfg.SceneMode)
	}
	st.Coverage = cfg.Coverage
	return st
}

// pipeline is the running stream-to-scene chain.
type pipeline struct {
	store        *cache.Store
	reconciler   *reconcile.Reconciler
	adapter      *tile.Adapter
	scene        *scene.Scene
	ui           *uistate.Store
	orchestrator *orchestrator.Orchestrator
	frames       *frame.Loop
	monitor      *monitor.Service
}

func (a *app) newPipeline(client world.Client) (*pipeline, error) {
	mapCfg := config.GetMapConfig()

	rec, err := reconcile.New(client, a.store, config.GetStreamConfig(),
		reconcile.WithLogger(a.logger),
		reconcile.WithMeterProvider(a.otel.MeterProvider()),
	)
	if err != nil {
		return nil, fmt.Errorf("reconciler: %w", err)
	}

	p := &pipeline{
		store:      a.store,
		reconciler: rec,
		adapter: tile.New(tile.Options{
			IconSize:        mapCfg.IconSize,
			SectorMinZoom:   mapCfg.SectorMinZoom,
			SymbolCacheSize: mapCfg.SymbolCacheSize,
			Logger:          a.logger,
		}),
		scene: scene.New(),
		ui:    uistate.New(initialState(mapCfg)),
	}
	p.orchestrator = orchestrator.New(p.adapter, p.ui, a.logger)
	p.frames = frame.New(a.store, p.adapter, frame.WithLogger(a.logger))
	p.monitor = monitor.NewService(monitor.Dependencies{
		Stream:   rec.Status,
		Entities: func() int { return a.store.Snapshot().Len() },
		Frames:   p.frames.Stats,
		Path:     config.GetString("statusFile"),
		Logger:   a.logger,
	})
	return p, nil
}

// start wires the orchestrator before mounting so the ready event is seen.
func (p *pipeline) start(ctx context.Context) error {
	p.orchestrator.Start()
	if err := p.adapter.Mount(p.scene); err != nil {
		return fmt.Errorf("mount map: %w", err)
	}
	p.frames.Start()
	go p.frames.Run(ctx, frame.DefaultRefreshInterval)
	p.reconciler.Start()
	return p.monitor.Start()
}

func (p *pipeline) stop() {
	p.monitor.Stop()
	p.reconciler.Stop()
	p.frames.Stop()
	p.orchestrator.Stop()
	p.adapter.Destroy()
}

// handler serves the scene as GeoJSON, the track list and the monitor report.
func (p *pipeline) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/scene", p.scene)
	mux.HandleFunc("/tracks", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = writeJSON(w, projection.TrackList(p.store.Snapshot(), time.Now()))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = writeJSON(w, p.monitor.Report())
	})
	return mux
}

func serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving scene", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
