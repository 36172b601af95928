package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bitewise-app/bitewise-backend/api/routes"
	"github.com/bitewise-app/bitewise-backend/internal/achievements"
	"github.com/bitewise-app/bitewise-backend/internal/economy"
	"github.com/bitewise-app/bitewise-backend/internal/leaderboard"
	"github.com/bitewise-app/bitewise-backend/internal/missions"
	"github.com/bitewise-app/bitewise-backend/internal/notifications"
	"github.com/bitewise-app/bitewise-backend/internal/orders"
	"github.com/bitewise-app/bitewise-backend/internal/referrals"
	"github.com/bitewise-app/bitewise-backend/internal/wallet"
	"github.com/bitewise-app/bitewise-backend/pkg/config"
	"github.com/bitewise-app/bitewise-backend/pkg/db"
	"github.com/bitewise-app/bitewise-backend/pkg/logger"
	"github.com/bitewise-app/bitewise-backend/pkg/metrics"
	"github.com/bitewise-app/bitewise-backend/pkg/migrate"
	"github.com/bitewise-app/bitewise-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	rewardsMetrics := metrics.NewRewardsMetrics(registry)

	gormDB := dbClient.DB()
	economyRepo := economy.NewRepository(gormDB)

	walletService, err := wallet.NewService(wallet.ServiceParams{
		DB:      gormDB,
		Repo:    wallet.NewRepository(gormDB),
		Economy: economyRepo,
		Rewards: cfg.Rewards,
		Logger:  logg,
		Metrics: rewardsMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	leaderboardService, err := leaderboard.NewService(redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create leaderboard service", err)
		os.Exit(1)
	}

	achievementsService, err := achievements.NewService(achievements.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create achievements service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		DB:           gormDB,
		Repo:         orders.NewRepository(gormDB),
		Economy:      economyRepo,
		Leaderboard:  leaderboardService,
		Achievements: achievementsService,
		Notifier:     notificationsService,
		Logger:       logg,
		Metrics:      rewardsMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	referralsService, err := referrals.NewService(referrals.ServiceParams{
		DB:      gormDB,
		Repo:    referrals.NewRepository(gormDB),
		Wallet:  walletService,
		Rewards: cfg.Rewards,
		Logger:  logg,
		Metrics: rewardsMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create referrals service", err)
		os.Exit(1)
	}

	missionsService, err := missions.NewService(gormDB, missions.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create missions service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Wallet:        walletService,
			Orders:        ordersService,
			Referrals:     referralsService,
			Missions:      missionsService,
			Leaderboard:   leaderboardService,
			Notifications: notificationsService,
		}, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
