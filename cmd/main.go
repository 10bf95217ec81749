package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/merch/internal/adapters/catalog"
	"github.com/okian/merch/internal/adapters/http/api"
	"github.com/okian/merch/internal/adapters/http/swagger"
	"github.com/okian/merch/internal/adapters/publish"
	"github.com/okian/merch/internal/adapters/repository"
	"github.com/okian/merch/internal/adapters/scheduler"
	service "github.com/okian/merch/internal/app"
	"github.com/okian/merch/internal/config"
	"github.com/okian/merch/pkg/logger"
	"github.com/okian/merch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("merch: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	lg := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		lg.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	source, closeSource, err := newCatalogSource(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer func() { _ = closeSource() }()

	cache := repository.NewCache(repository.WithLogger(lg.Named("cache")))
	opts := []service.Option{
		service.WithLogger(lg),
		service.WithTouchpoints(cfg.Touchpoints),
		service.WithCatalogSource(source),
		service.WithCache(cache),
	}

	pub, err := newPublisher(ctx, cfg, lg)
	if err != nil {
		return err
	}
	if pub != nil {
		defer func() { _ = pub.Close() }()
		opts = append(opts, service.WithPublisher(pub))
	}

	svc, err := service.New(opts...)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	// A failed initial load leaves rankings unavailable until the next
	// scheduled reload succeeds.
	if err := svc.ReloadCatalog(ctx); err != nil {
		lg.Warn(ctx, "initial catalog load failed", logger.String("source", source.Name()), logger.Error(err))
	}

	go cache.Run(ctx)
	go startSystemMetricsUpdater(ctx)

	if cfg.Scheduler.Enabled {
		sched := newScheduler(cfg, svc, lg)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv := newHTTPServer(cfg.Addr, newMux(svc, lg))
	serveErr := make(chan error, 1)
	go func() {
		lg.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	lg.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	lg.Info(ctx, "server stopped")
	return nil
}

// newCatalogSource builds the configured catalog source. The returned
// closer releases any connection the source holds.
func newCatalogSource(ctx context.Context, cfg *config.Config, lg logger.Logger) (service.CatalogSource, func() error, error) {
	opts := []catalog.Option{
		catalog.WithSkipMalformed(cfg.Catalog.SkipMalformed),
		catalog.WithLogger(lg.Named("catalog")),
	}
	switch cfg.Catalog.Source {
	case config.CatalogPostgres:
		db, err := catalog.OpenPostgres(ctx, cfg.Catalog.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog database: %w", err)
		}
		return catalog.NewPostgresSource(db, opts...), db.Close, nil
	case config.CatalogCSV:
		return catalog.NewCSVSource(cfg.Catalog.Path, opts...), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", catalog.ErrUnknownSource, cfg.Catalog.Source)
	}
}

// newPublisher connects the Redis publisher when enabled. It returns nil
// when publishing is disabled.
func newPublisher(ctx context.Context, cfg *config.Config, lg logger.Logger) (*publish.RedisPublisher, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	client := publish.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pub := publish.NewRedisPublisher(client,
		publish.WithKeyPrefix(cfg.Redis.KeyPrefix),
		publish.WithLogger(lg.Named("publish")),
	)
	if err := pub.Ping(ctx); err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return pub, nil
}

func newScheduler(cfg *config.Config, svc *service.Service, lg logger.Logger) *scheduler.Scheduler {
	opts := []scheduler.Option{
		scheduler.WithLogger(lg.Named("scheduler")),
		scheduler.WithTick(cfg.Scheduler.Tick()),
	}
	if cfg.Scheduler.ReloadCatalog {
		opts = append(opts, scheduler.WithCatalogReloader(svc))
	}
	return scheduler.New(svc, svc.RefreshIntervals(), opts...)
}

func newMux(svc *service.Service, lg logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, api.WithLogger(lg.Named("api"))).Register(mux)
	return mux
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
