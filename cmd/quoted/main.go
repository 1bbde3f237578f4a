package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/AndrewSteel/isin-quotes/internal/api"
	"github.com/AndrewSteel/isin-quotes/internal/calendar"
	"github.com/AndrewSteel/isin-quotes/internal/config"
	"github.com/AndrewSteel/isin-quotes/internal/database"
	"github.com/AndrewSteel/isin-quotes/internal/model"
	"github.com/AndrewSteel/isin-quotes/internal/publish"
	"github.com/AndrewSteel/isin-quotes/internal/recorder"
	"github.com/AndrewSteel/isin-quotes/internal/scheduler"
	"github.com/AndrewSteel/isin-quotes/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/quoted.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting quoted",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"upstream", cfg.Upstream.BaseURL,
		"instruments", len(cfg.Instruments),
	)

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

	// Exchange calendar
	cal, err := loadCalendar(cfg.CalendarFile)
	if err != nil {
		logger.Error("failed to load calendar", "error", err, "path", cfg.CalendarFile)
		os.Exit(1)
	}

	// Fetch client
	client := api.NewClient(
		cfg.Upstream.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Upstream.Timeout),
	)
	fetcher := scheduler.FetcherFunc(func(ctx context.Context, isin, exchange string) (model.QuoteSample, error) {
		sample, _, err := client.FetchQuote(ctx, isin, exchange)
		return sample, err
	})

	// Publication path: dispatcher fanning out to the hub, the log sink,
	// and (when configured) the Postgres recorder.
	dispatcher := publish.NewDispatcher(logger)
	hub := publish.NewHub(publish.HubConfig{}, logger)
	dispatcher.Attach(hub)
	dispatcher.Attach(publish.NewLogSink(logger))

	var pool *pgxpool.Pool
	var rec *recorder.Recorder
	if cfg.Database != nil {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		pool, err = database.Connect(ctx, *cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		rec = recorder.New(cfg.Recorder, pool, logger)
		dispatcher.Attach(rec)
		logger.Info("database connected, recorder enabled")
	}

	// Scheduler
	sched := scheduler.New(scheduler.Config{
		RealtimeInterval:  cfg.Scheduler.RealtimeInterval,
		FetchTimeout:      cfg.Scheduler.FetchTimeout,
		SafetyCeiling:     cfg.Scheduler.SafetyCeiling,
		BackoffBase:       cfg.Scheduler.BackoffBase,
		BackoffCap:        cfg.Scheduler.BackoffCap,
		RateLimitCooldown: cfg.Scheduler.RateLimitCooldown,
		DegradedThreshold: cfg.Scheduler.DegradedThreshold,
	}, fetcher, cal, dispatcher, logger)

	for _, inst := range cfg.Instruments {
		if _, err := sched.Track(scheduler.Instrument{
			Key:              inst.Key(),
			FallbackInterval: inst.Interval(),
		}); err != nil {
			logger.Error("failed to track instrument", "error", err)
			os.Exit(1)
		}
	}

	// HTTP surface: subscriber stream plus health
	mux := http.NewServeMux()
	mux.Handle("/stream", hub)
	mux.Handle("/health", healthHandler(sched, hub, pool))

	server := &http.Server{
		Addr:    cfg.Server.Listen,
		Handler: mux,
	}

	// Start components
	if err := dispatcher.Start(ctx); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
		os.Exit(1)
	}
	if rec != nil {
		if err := rec.Start(ctx); err != nil {
			logger.Error("failed to start recorder", "error", err)
			os.Exit(1)
		}
	}
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.Server.Listen)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("quoted running", "health_url", "http://localhost"+cfg.Server.Listen+"/health")

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		cancel()
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop", "error", err)
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		logger.Warn("dispatcher stop", "error", err)
	}
	if rec != nil {
		if err := rec.Stop(shutdownCtx); err != nil {
			logger.Warn("recorder stop", "error", err)
		}
	}
	hub.Close()

	logger.Info("quoted stopped")
}

// loadCalendar reads the session table from disk, falling back to the
// built-in table when no file is configured.
func loadCalendar(path string) (*calendar.Calendar, error) {
	if path == "" {
		return calendar.Default(), nil
	}
	return calendar.LoadFile(path)
}

// healthHandler reports component health as JSON.
func healthHandler(sched *scheduler.Scheduler, hub *publish.Hub, pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		snapshot := sched.Snapshot()
		suspended := 0
		for _, st := range snapshot {
			if st.State == model.StateSuspended {
				suspended++
			}
		}
		health.Components["scheduler"] = map[string]any{
			"instruments": len(snapshot),
			"suspended":   suspended,
		}
		if len(snapshot) > 0 && suspended == len(snapshot) {
			health.Status = "degraded"
		}

		health.Components["hub"] = map[string]any{
			"subscribers": hub.SubscriberCount(),
		}

		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["database"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["database"] = "connected"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}
