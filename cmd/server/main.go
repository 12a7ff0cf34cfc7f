package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"gate-access-service/internal/auth"
	"gate-access-service/internal/camera"
	"gate-access-service/internal/config"
	"gate-access-service/internal/db"
	"gate-access-service/internal/dedup"
	"gate-access-service/internal/feed"
	"gate-access-service/internal/gate"
	api "gate-access-service/internal/http"
	"gate-access-service/internal/repository"
	"gate-access-service/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		log = log.Level(level)
	}
	if cfg.Log.Pretty {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	var store repository.Store
	switch cfg.Storage.Driver {
	case "memory":
		store = repository.NewMemoryStore()
		log.Warn().Msg("using in-memory store, events are lost on restart")
	default:
		gormDB, err := db.Connect(cfg.Database.DSN, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		store = repository.NewAccessRepository(gormDB)
	}

	var gateTrigger service.GateTrigger
	if cfg.Gate.URL != "" {
		gateTrigger = gate.NewClient(cfg.Gate.URL, cfg.Gate.Timeout, log)
	} else {
		log.Warn().Msg("no gate url configured, gate actuation disabled")
	}

	var feedPublisher service.FeedPublisher
	if cfg.Feed.Enabled {
		publisher, err := feed.NewPublisher(cfg.Feed.BootstrapServers, cfg.Feed.Topic, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start feed publisher")
		}
		defer publisher.Close()
		feedPublisher = publisher
	}

	tracker := dedup.NewTracker(cfg.Cooldown())
	pipeline := service.NewPipeline(store, tracker, gateTrigger, feedPublisher, service.PipelineOptions{
		MinPlateLength:      cfg.Pipeline.MinPlateLength,
		ConfidenceThreshold: cfg.Pipeline.ConfidenceThreshold,
		IoUThreshold:        cfg.Pipeline.IoUThreshold,
	}, log)

	authManager := auth.NewManager(
		cfg.Auth.AdminUsername,
		cfg.Auth.AdminPassword,
		cfg.Auth.JWTSecret,
		cfg.Auth.TokenTTL,
	)

	handler := api.NewHandler(pipeline, authManager, log)
	router := api.NewRouter(handler, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodically drop cooldown entries well past the window.
	go func() {
		ticker := time.NewTicker(10 * cfg.Cooldown())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tracker.Evict(10 * cfg.Cooldown())
			}
		}
	}()

	if cfg.Camera.Enabled {
		source := camera.NewSource(
			cfg.Camera.URL,
			cfg.Camera.Username,
			cfg.Camera.Password,
			cfg.Camera.MinConfidence,
			pipeline,
			log,
		)
		go func() {
			if err := source.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("camera source exited")
			}
		}()
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}
