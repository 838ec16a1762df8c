package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/incentraworks/incentra-backend/api/routes"
	"github.com/incentraworks/incentra-backend/internal/limits"
	"github.com/incentraworks/incentra-backend/internal/notifications"
	"github.com/incentraworks/incentra-backend/internal/requests"
	"github.com/incentraworks/incentra-backend/internal/users"
	"github.com/incentraworks/incentra-backend/pkg/config"
	"github.com/incentraworks/incentra-backend/pkg/db"
	"github.com/incentraworks/incentra-backend/pkg/logger"
	"github.com/incentraworks/incentra-backend/pkg/metrics"
	"github.com/incentraworks/incentra-backend/pkg/migrate"
	"github.com/incentraworks/incentra-backend/pkg/redis"
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

	usersRepo := users.NewRepository(dbClient.DB())
	limitsRepo := limits.NewRepository(dbClient.DB())

	limitsService, err := limits.NewService(limitsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create limits service", err)
		os.Exit(1)
	}
	usersService, err := users.NewService(usersRepo, limitsRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	requestsRepo, err := requests.NewRepository(dbClient.DB())
	if err != nil {
		logg.Error(context.Background(), "failed to create requests repository", err)
		os.Exit(1)
	}
	decisionMetrics := metrics.NewDecisionMetrics(prometheus.DefaultRegisterer)
	requestsService, err := requests.NewService(requestsRepo, usersRepo, limitsRepo, notificationsService, dbClient, decisionMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create requests service", err)
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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			usersService,
			limitsService,
			requestsService,
			notificationsService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
