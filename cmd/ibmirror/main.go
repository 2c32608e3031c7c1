package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/ibmirror/internal/auth"
	"github.com/rickgao/ibmirror/internal/config"
	"github.com/rickgao/ibmirror/internal/connection"
	"github.com/rickgao/ibmirror/internal/database"
	"github.com/rickgao/ibmirror/internal/metrics"
	"github.com/rickgao/ibmirror/internal/notify"
	"github.com/rickgao/ibmirror/internal/poller"
	"github.com/rickgao/ibmirror/internal/router"
	"github.com/rickgao/ibmirror/internal/session"
	"github.com/rickgao/ibmirror/internal/version"
	"github.com/rickgao/ibmirror/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/ibmirror.local.yaml", "path to config file")
	flag.Parse()

	// Load configuration before logging so the level and file apply.
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg.Log)
	if err != nil {
		slog.Error("failed to open log file", "error", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting ibmirror",
		"version", version.String(),
		"config", *configPath,
		"instance_id", cfg.Instance.ID,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("ibmirror failed", "error", err)
		os.Exit(1)
	}
	logger.Info("ibmirror stopped")
}

func newLogger(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var out io.Writer = os.Stdout
	closeFn := func() {}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stdout, f)
		closeFn = func() { f.Close() }
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	return logger, closeFn, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("history timezone: %w", err)
	}

	// Optional Postgres for durable bars
	var pool *pgxpool.Pool
	if cfg.DatabaseEnabled() {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()

		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		logger.Info("database connected")
	}

	// History sinks
	var sinks []writer.Sink
	if cfg.History.CSVDir != "" {
		sinks = append(sinks, writer.NewCSVSink(cfg.History.CSVDir))
	}
	if cfg.History.Postgres && pool != nil {
		sinks = append(sinks, writer.NewPostgresSink(pool))
	}
	var flusher *writer.Flusher
	if len(sinks) > 0 {
		flusher = writer.NewFlusher(writer.FlusherConfig{QueueSize: cfg.History.QueueSize},
			writer.NewMultiSink(sinks, m, logger), m, logger)
	}

	// Gateway client
	clientCfg := connection.ClientConfig{
		URL:             cfg.Gateway.URL,
		PingTimeout:     cfg.Gateway.PingTimeout,
		WriteTimeout:    cfg.Gateway.WriteTimeout,
		HeartbeatPeriod: cfg.Gateway.HeartbeatPeriod,
		EventBufferSize: cfg.Gateway.EventBufferSize,
	}
	if cfg.Auth.KeyID != "" {
		creds, err := auth.LoadCredentials(cfg.Auth.KeyID, cfg.Auth.PrivateKeyPath)
		if err != nil {
			return fmt.Errorf("load credentials: %w", err)
		}
		clientCfg.Signer = creds
	}
	client := connection.NewClient(clientCfg, logger)

	logger.Info("connecting to gateway", "url", cfg.Gateway.URL)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect gateway: %w", err)
	}
	defer client.Close()

	// Session
	sessCfg := session.DefaultConfig()
	sessCfg.ClientID = cfg.Instance.ClientID
	sessCfg.Router = router.Config{RestampDelay: cfg.Orders.RestampDelay, Location: loc}
	sessCfg.Notify = notify.Config{QueueSize: cfg.Notify.QueueSize}

	var sink router.HistorySink
	if flusher != nil {
		sink = flusher
	}
	sess := session.New(sessCfg, client, sink, m, logger)
	sess.SetHandler(logHandler(logger))

	if flusher != nil {
		if err := flusher.Start(ctx); err != nil {
			return err
		}
	}
	if err := sess.Start(ctx); err != nil {
		return err
	}

	var clock *poller.Clock
	if cfg.Clock.Interval > 0 {
		clock = poller.NewClock(poller.Config{Interval: cfg.Clock.Interval}, client, logger)
		clock.Start(ctx)
	}

	var db pinger
	if pool != nil {
		db = pool
	}
	healthServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           newHandler(sess, db, client, reg, cfg.Metrics.Path),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting health server", "port", cfg.Metrics.Port)
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	// Reconnection is left to the supervisor: a dead gateway ends the run.
	g.Go(func() error {
		select {
		case err := <-client.Errors():
			return fmt.Errorf("gateway: %w", err)
		case <-gctx.Done():
			return nil
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if clock != nil {
			clock.Stop(shutdownCtx)
		}
		if err := sess.Stop(shutdownCtx); err != nil {
			logger.Warn("session stop", "error", err)
		}
		if flusher != nil {
			if err := flusher.Stop(shutdownCtx); err != nil {
				logger.Warn("history flusher stop", "error", err)
			}
		}
		return healthServer.Shutdown(shutdownCtx)
	})

	logger.Info("ibmirror running",
		"session", sess.ID().String(),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	return g.Wait()
}

// logHandler logs every notification at debug level and gateway errors at
// warn.
func logHandler(logger *slog.Logger) notify.Handler {
	return notify.HandlerFunc(func(n notify.Notification) {
		switch v := n.(type) {
		case notify.GatewayError:
			logger.Warn("gateway error", "id", v.ID, "code", v.Code, "message", v.Message)
		case notify.Order:
			logger.Info("order update", "order_id", v.Record.ID, "symbol", v.Record.Symbol, "status", v.Record.Status)
		case notify.History:
			if v.Completed {
				logger.Info("historical data completed", "series", v.Flushed)
			}
		default:
			logger.Debug("notification", "kind", n.Kind().String())
		}
	})
}
