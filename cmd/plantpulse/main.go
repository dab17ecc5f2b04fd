package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plantpulse/plantpulse/internal/advisory"
	"github.com/plantpulse/plantpulse/internal/alerts"
	"github.com/plantpulse/plantpulse/internal/api"
	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/engine"
	"github.com/plantpulse/plantpulse/internal/ingest"
	"github.com/plantpulse/plantpulse/internal/notify"
	"github.com/plantpulse/plantpulse/internal/store"
	"github.com/plantpulse/plantpulse/internal/sweep"
	"github.com/plantpulse/plantpulse/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("plantpulse starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Engine.HTTPPort,
		"sources", len(cfg.Engine.Sources),
		"telemetry_retention", cfg.Engine.TelemetryRetention,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Fleet store with background telemetry retention.
	st := store.NewMemory(cfg.Engine.TelemetryRetention)
	go st.Run(ctx)

	// Notification fan-out: structured log always, webhooks when configured.
	base := notify.Multi{notify.LogDispatcher{}}
	if len(cfg.Engine.Notify.Webhooks) > 0 {
		base = append(base, notify.NewWebhookDispatcher(cfg.Engine.Notify))
	}

	// Alert rules evaluated on every fleet assessment pass. Built even
	// with zero rules so a hot-reload can introduce the first ones.
	alertEngine := alerts.New(cfg.Engine.Alerts, base)

	// WebSocket hub — broadcasts the fleet snapshot to dashboards, and
	// joins the fan-out so incident events push out ahead of the tick.
	hub := ws.New(st, alertEngine, cfg.Engine.BroadcastInterval)

	knowledge := advisory.NewKnowledgeBase()
	eng := engine.New(engine.Options{
		Config:     cfg.Engine,
		Store:      st,
		Advisor:    knowledge,
		Dispatcher: append(notify.Multi{hub}, base...),
	})

	// Telemetry collectors, one per configured sensor source.
	var collectors []*ingest.Collector
	for _, src := range cfg.Engine.Sources {
		c, err := ingest.New(src)
		if err != nil {
			slog.Error("skipping source — could not build collector", "source", src.ID, "err", err)
			continue
		}
		collectors = append(collectors, c)
		slog.Info("registered source", "id", src.ID, "equipment_id", src.EquipmentID, "endpoint", src.Endpoint)
	}
	if len(collectors) == 0 {
		slog.Warn("no sensor sources configured — telemetry must arrive via the API")
	}

	// Hot-reload: alert rules are swapped in place. Ports, sources and
	// sweep cadence need a restart and only log a reminder.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			alertEngine.SetRules(updated.Engine.Alerts)
			if len(updated.Engine.Sources) != len(cfg.Engine.Sources) {
				slog.Warn("config: source list changed — restart to apply")
			}
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Background sweeps: collection, assessment, prediction, retrain,
	// advisory refresh and SLA escalation.
	runner := sweep.NewRunner(sweep.Tasks(sweep.Deps{
		Config:     cfg.Engine.Sweeps,
		Engine:     eng,
		Store:      st,
		Collectors: collectors,
		Alerts:     alertEngine,
		Refresher:  knowledge,
	}), cfg.Engine.Sweeps.ErrorBackoff, prometheus.DefaultRegisterer)
	go runner.Run(ctx)

	go hub.Run(ctx)

	// Combined HTTP server: REST API + WebSocket hub + Prometheus metrics.
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.APIKeyMiddleware(
		cfg.Engine.API.Mode,
		cfg.Engine.API.EffectiveHeader(),
		cfg.Engine.API.Key(),
		api.New(eng, st, alertEngine),
	))
	httpMux.Handle("/ws/stream", hub)
	httpMux.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Engine.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Engine.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("plantpulse shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
