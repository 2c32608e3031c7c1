// streamtest connects to the gateway bridge, subscribes to market data for
// the given stocks and prints mirrored notifications to the console.
// Usage: go run ./cmd/streamtest --config configs/ibmirror.local.yaml --symbols AAPL,MSFT
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rickgao/ibmirror/internal/auth"
	"github.com/rickgao/ibmirror/internal/config"
	"github.com/rickgao/ibmirror/internal/connection"
	"github.com/rickgao/ibmirror/internal/notify"
	"github.com/rickgao/ibmirror/internal/session"
)

func main() {
	configPath := flag.String("config", "configs/ibmirror.example.yaml", "path to config file")
	symbols := flag.String("symbols", "AAPL", "comma-separated stock symbols")
	verbose := flag.Bool("verbose", false, "print full notification JSON")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	// Load config
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	clientCfg := connection.DefaultClientConfig()
	clientCfg.URL = cfg.Gateway.URL
	if cfg.Auth.KeyID != "" {
		creds, err := auth.LoadCredentials(cfg.Auth.KeyID, cfg.Auth.PrivateKeyPath)
		if err != nil {
			logger.Error("failed to load credentials", "error", err)
			os.Exit(1)
		}
		clientCfg.Signer = creds
		logger.Info("using signed handshake", "key_id", creds.KeyID)
	}

	client := connection.NewClient(clientCfg, logger)
	logger.Info("connecting to gateway", "url", clientCfg.URL)
	if err := client.Connect(ctx); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	sess := session.New(session.DefaultConfig(), client, nil, nil, logger)
	sess.SetHandler(printer(*verbose))

	if err := sess.Start(ctx); err != nil {
		logger.Error("failed to start session", "error", err)
		os.Exit(1)
	}

	for _, s := range strings.Split(*symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sess.Stock(strings.ToUpper(s))
		}
	}
	if err := sess.RequestMarketData(); err != nil {
		logger.Error("market data request failed", "error", err)
	}
	if err := sess.RequestPositionUpdates(true); err != nil {
		logger.Error("position request failed", "error", err)
	}

	// Stats printer
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := sess.Stats()
				logger.Info("stats",
					"connected", client.IsConnected(),
					"contracts", stats.Contracts,
					"events", stats.Classifier.Received,
					"duplicates", stats.Classifier.Duplicates,
					"parse_errors", stats.Classifier.ParseErrors,
					"delivered", stats.Hub.Delivered,
					"queued", stats.Hub.Queued,
				)
			}
		}
	}()

	logger.Info("streaming started - press Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-client.Errors():
		logger.Error("gateway connection lost", "error", err)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Info("shutting down...")
	sess.CancelMarketData()
	sess.Stop(shutdownCtx)

	logger.Info("shutdown complete")
}

func printer(verbose bool) notify.Handler {
	return notify.HandlerFunc(func(n notify.Notification) {
		tag := strings.ToUpper(n.Kind().String())
		if verbose {
			data, _ := json.MarshalIndent(n, "", "  ")
			fmt.Printf("[%s] %s\n", tag, data)
			return
		}

		switch v := n.(type) {
		case notify.MarketData:
			fmt.Printf("[%s] %s bid=%.2f x %d ask=%.2f x %d last=%.2f x %d\n",
				tag, v.Symbol, v.Tick.Bid, v.Tick.BidSize, v.Tick.Ask, v.Tick.AskSize, v.Tick.Last, v.Tick.LastSize)
		case notify.RTVolume:
			fmt.Printf("[%s] %s %v x %v vwap=%.4f at %s\n",
				tag, v.Tick.Symbol, v.Tick.Last, v.Tick.LastSize, v.Tick.VWAP, v.Tick.Time.Format(time.RFC3339Nano))
		case notify.Order:
			fmt.Printf("[%s] #%d %s %s\n", tag, v.Record.ID, v.Record.Symbol, v.Record.Status)
		case notify.Position:
			fmt.Printf("[%s] %s %d @ %.2f\n", tag, v.Position.Symbol, v.Position.Position, v.Position.AvgCost)
		case notify.GatewayError:
			fmt.Printf("[%s] id=%d code=%d %s\n", tag, v.ID, v.Code, v.Message)
		default:
			fmt.Printf("[%s]\n", tag)
		}
	})
}
