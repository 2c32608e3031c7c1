package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/ibmirror/internal/metrics"
	"github.com/rickgao/ibmirror/internal/model"
	"github.com/rickgao/ibmirror/internal/session"
)

// pinger reports database health. *pgxpool.Pool satisfies it.
type pinger interface {
	Ping(ctx context.Context) error
}

// connState reports gateway health. *connection.Client satisfies it.
type connState interface {
	IsConnected() bool
}

// newHandler creates the HTTP handler for health, debug and metrics.
func newHandler(sess *session.Session, db pinger, gw connState, g prometheus.Gatherer, metricsPath string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Session    string         `json:"session"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Session:    sess.ID().String(),
			Components: make(map[string]any),
		}

		if gw.IsConnected() {
			health.Components["gateway"] = "connected"
		} else {
			health.Status = "unhealthy"
			health.Components["gateway"] = "disconnected"
		}

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["postgres"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["postgres"] = "connected"
			}
		}

		stats := sess.Stats()
		health.Components["session"] = map[string]any{
			"contracts":     stats.Contracts,
			"orders":        stats.Orders,
			"events":        stats.Classifier.Received,
			"notifications": stats.Hub.Delivered,
			"queued":        stats.Hub.Queued,
			"server_time":   sess.Time(),
			"next_order_id": sess.NextOrderID(),
			"account":       sess.AccountCode(),
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/orders", func(w http.ResponseWriter, r *http.Request) {
		orders := sess.Stores().Orders.All()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count":  len(orders),
			"orders": orders,
		})
	})

	mux.HandleFunc("/debug/market", func(w http.ResponseWriter, r *http.Request) {
		type row struct {
			ID     int        `json:"id"`
			Symbol string     `json:"symbol"`
			Tick   model.Tick `json:"tick"`
		}
		rows := sess.Stores().MarketData.Rows()
		out := make([]row, 0, len(rows))
		for id, tick := range rows {
			out = append(out, row{ID: id, Symbol: sess.TickerSymbol(id), Tick: tick})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"count": len(out),
			"rows":  out,
		})
	})

	mux.Handle(metricsPath, metrics.Handler(g))

	return mux
}
