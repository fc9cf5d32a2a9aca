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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/cfcoach/internal/config"
	"github.com/okian/cfcoach/internal/domain/model"
	"github.com/okian/cfcoach/pkg/logger"
	"github.com/okian/cfcoach/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

// runOptions holds the command line flags.
type runOptions struct {
	configPath string
	handle     string
	runNow     bool
	test       bool
	once       bool
	ephemeral  bool
}

func main() {
	// Go and process collectors stay off the default registry; the service
	// exports its own system gauges.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "cfcoach",
		Short: "Codeforces practice coach",
		Long: "cfcoach analyses a Codeforces user's submissions, ranks the weakest tags, " +
			"recommends problems near the current rating and delivers a daily report.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	cmd.Flags().StringVar(&opts.handle, "handle", "", "Codeforces handle to coach (overrides the configured one)")
	cmd.Flags().BoolVar(&opts.runNow, "run-now", false, "queue a run right after startup")
	cmd.Flags().BoolVar(&opts.test, "test", false, "run every test_interval instead of daily")
	cmd.Flags().BoolVar(&opts.once, "once", false, "run once, print the report and exit")
	cmd.Flags().BoolVar(&opts.ephemeral, "ephemeral", false, "keep runs in memory only (no CSV, history DB or plot)")
	return cmd
}

func run(ctx context.Context, opts *runOptions) error {
	if err := logger.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	if opts.configPath != "" {
		if err := os.Setenv(config.EnvConfigFile, opts.configPath); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Error(err))
		return err
	}
	if opts.handle != "" {
		cfg.Handle = opts.handle
	}
	if opts.ephemeral {
		cfg.Persist = false
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if opts.once {
		return runOnce(ctx, cfg, log)
	}
	return serve(ctx, cfg, opts, log)
}

// runOnce performs a single run without the scheduler or the HTTP server.
func runOnce(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, err := buildService(ctx, cfg, log, "")
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		return err
	}
	defer svc.Close()

	rep, err := svc.RunOnce(ctx)
	if err != nil {
		log.Error(ctx, "run failed", logger.Error(err))
		return err
	}
	if !cfg.Dashboard {
		fmt.Println(rep.Text())
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, opts *runOptions, log logger.Logger) error {
	spec, err := scheduleSpec(cfg, opts.test)
	if err != nil {
		log.Error(ctx, "invalid schedule", logger.Error(err))
		return err
	}
	svc, err := buildService(ctx, cfg, log, spec)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		return err
	}
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	if opts.runNow && !svc.Trigger(ctx, model.SourceStartup) {
		log.Warn(ctx, "startup run was not queued")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg.DataDir),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error(ctx, "HTTP server failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater refreshes the memory and goroutine gauges.
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

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

