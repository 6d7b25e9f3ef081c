package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/safar/agromarket/internal/api"
	"github.com/safar/agromarket/internal/auth"
	"github.com/safar/agromarket/internal/cart"
	"github.com/safar/agromarket/internal/config"
	"github.com/safar/agromarket/internal/database"
	"github.com/safar/agromarket/internal/logger"
	"github.com/safar/agromarket/internal/market"
	"github.com/safar/agromarket/internal/metrics"
	"github.com/safar/agromarket/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Load config: %v", err)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("connected to database")

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(db); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	log.Info("connected to redis")

	loc, err := cfg.Stats.Location()
	if err != nil {
		return err
	}

	provider := auth.NewProvider(auth.SQLAccounts{DB: db}, auth.NewRedisSessions(rdb), cfg.Auth, log)
	carts := cart.NewStore(rdb, cfg.Redis.CartTTL)

	refresher, err := metrics.NewRefresher(cfg.Stats.Schedule, loc, func(ctx context.Context) (market.AdminStats, error) {
		return store.AdminStats(ctx, db)
	}, log)
	if err != nil {
		return err
	}
	if err := refresher.Refresh(ctx); err != nil {
		log.WithError(err).Warn("initial stats refresh failed")
	}
	refresher.Start()
	defer func() { <-refresher.Stop().Done() }()

	srv := api.NewServer(db, provider, carts, log, api.Options{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		AuthRatePerMinute: cfg.Auth.AuthRatePerMinute,
		Location:          loc,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
