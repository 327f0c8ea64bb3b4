package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/deck/internal/adapters/http/api"
	"github.com/okian/deck/internal/adapters/http/site"
	"github.com/okian/deck/internal/adapters/http/swagger"
	app "github.com/okian/deck/internal/app"
	"github.com/okian/deck/internal/config"
	"github.com/okian/deck/pkg/logger"
	"github.com/okian/deck/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Configure(metricsOptions(cfg.Metrics)...)

	svc := app.New(
		app.WithLogger(loggerInstance.Named("service")),
		app.WithConfig(cfg),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	handler, err := newHandler(ctx, cfg, svc, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build routes", logger.Error(err))
		return
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Bool("gated", svc.GateEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newHandler mounts the API, the pages and the docs on one mux and puts the
// gate in front of all of them.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) (http.Handler, error) {
	e := svc.Engagement()
	if e == nil {
		return nil, app.ErrNotStarted
	}

	mux := http.NewServeMux()

	apiServer := api.NewServer(svc,
		api.WithGatePath(cfg.GatePath),
		api.WithVerifyPath(cfg.VerifyPath),
		api.WithPublicPaths(cfg.PublicPaths),
		api.WithCookie(cfg.CookieName, cfg.SecureCookie),
		api.WithLogger(log.Named("api")),
	)
	apiServer.Register(ctx, mux)

	// Register API docs under /api-docs
	swagger.Register(ctx, mux)

	pages, err := site.New(e,
		site.WithPaths(cfg.GatePath, cfg.VerifyPath),
		site.WithGated(svc.GateEnabled()),
		site.WithLogger(log.Named("site")),
	)
	if err != nil {
		return nil, fmt.Errorf("build site: %w", err)
	}
	pages.Register(ctx, mux)

	return apiServer.Gate().Wrap(mux), nil
}

// metricsOptions maps the metrics config block onto manager options.
func metricsOptions(c config.Metrics) []metrics.Option {
	return []metrics.Option{
		metrics.WithMetricsEnabled(c.Enabled),
		metrics.WithNamespace(c.Namespace),
		metrics.WithSubsystem(c.Subsystem),
		metrics.WithMetricPrefix(c.Prefix),
		metrics.WithHistogramBuckets(c.Buckets),
		metrics.WithRefreshInterval(c.RefreshInterval),
		metrics.WithCustomLabels(c.Labels),
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
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

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
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

// updateServiceMetrics refreshes gauges derived from service state.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	if enabled, ok := stats["gateEnabled"].(bool); ok {
		metrics.UpdateGateEnabled(enabled)
	}
}
