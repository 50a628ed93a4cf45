package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sotacaballorey/guinote/internal/auth"
	"github.com/sotacaballorey/guinote/internal/cache"
	"github.com/sotacaballorey/guinote/internal/config"
	"github.com/sotacaballorey/guinote/internal/database"
	"github.com/sotacaballorey/guinote/internal/events"
	"github.com/sotacaballorey/guinote/internal/logging"
	"github.com/sotacaballorey/guinote/internal/models"
	"github.com/sotacaballorey/guinote/internal/server"
	"github.com/sotacaballorey/guinote/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := realMain(ctx); err != nil {
		log.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.LogJSON)

	matchStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := server.RegistryOptions{
		Store:        matchStore,
		Retention:    cfg.MatchRetention,
		WinThreshold: cfg.WinThreshold,
	}

	var statsReader server.StatsReader
	if cfg.DatabaseURL != "" {
		pool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		statsRepo := database.NewStatsRepository(pool)
		opts.Stats = statsRepo
		statsReader = statsRepo
		friends, err := cache.NewFriendCache(database.NewFriendRepository(pool), cfg.FriendCacheSize)
		if err != nil {
			return err
		}
		opts.Friends = friends
	} else {
		log.Warn("DATABASE_URL not set; ratings are not recorded and friends-only rooms reject joiners.")
	}

	if cfg.NatsURL != "" {
		pub, err := events.Connect(cfg.NatsURL)
		if err != nil {
			return err
		}
		defer pub.Close()
		opts.Publisher = pub
	}

	registry := server.NewRegistry(server.NewHub(), opts)
	if err := registry.RestoreAll(ctx); err != nil {
		log.WithError(err).Warn("Could not restore stored matches.")
	}

	defaults := models.DefaultMatchConfig()
	defaults.TurnTimeout = cfg.DefaultTurnPreset()
	srv := &server.Server{
		Auth:          auth.New(cfg.JWTSecret),
		Registry:      registry,
		Store:         matchStore,
		Stats:         statsReader,
		DefaultConfig: defaults,
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Listening on %s.", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return registry.RunSweeper(gctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down.")
		registry.CloseAll("Server shutting down.")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore builds the configured match store and connects the action log.
func openStore(ctx context.Context, cfg *config.Config) (store.MatchStore, func(), error) {
	ttl := cfg.MatchRetention + 24*time.Hour
	switch cfg.StoreDriver {
	case config.DriverRedis:
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(rdb, ttl), func() { _ = rdb.Close() }, nil
	case config.DriverBolt:
		bs, err := store.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return bs, func() { _ = bs.Close() }, nil
	default:
		log.Warn("Using in-memory match store; matches do not survive a restart.")
		return store.NewMemoryStore(), func() {}, nil
	}
}
