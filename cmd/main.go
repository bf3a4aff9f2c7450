package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shenikar/incident_dashboard/internal/config"
	v1 "github.com/shenikar/incident_dashboard/internal/handler/http/v1"
	"github.com/shenikar/incident_dashboard/internal/metrics"
	"github.com/shenikar/incident_dashboard/internal/repository"
	"github.com/shenikar/incident_dashboard/internal/repository/seed"
	"github.com/shenikar/incident_dashboard/internal/service"
	"github.com/shenikar/incident_dashboard/internal/webhook"
	"github.com/shenikar/incident_dashboard/pkg/logger"
	"github.com/shenikar/incident_dashboard/pkg/postgres"
	redisclient "github.com/shenikar/incident_dashboard/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/incident_dashboard/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Incident Dashboard API
// @version 1.0
// @description Incident query and aggregation API with an in-memory fallback store.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbpool := connectDurable(ctx, cfg, log)
	if dbpool != nil {
		defer dbpool.Close()
	}

	redisClient := connectRedis(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Вебхуки работают только через очередь в Redis
	var publisher webhook.WebhookPublisher
	if redisClient != nil {
		publisher = webhook.NewRedisWebhookPublisher(redisClient)
		webhook.NewWebhookWorker(redisClient, log, cfg).Start(ctx)
	}

	// Резервное хранилище с демонстрационными данными
	demo, err := seed.Demo(time.Now())
	if err != nil {
		log.Fatalf("Failed to load demo incidents: %v", err)
	}
	fallback := repository.NewMemoryStore(demo)

	// Инициализация репозиториев
	durable := repository.NewPostgresRepository(dbpool, redisClient, cfg.CacheTTL)

	// Инициализация сервисов
	m := metrics.New()
	incidentService := service.NewIncidentService(durable, fallback, log, cfg, publisher, m)

	// Инициализация хэндлеров
	handler := v1.NewHandler(incidentService, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.WithField("durable", durable.Status()).Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}

// connectDurable поднимает пул PostgreSQL. Без DATABASE_URL возвращает nil,
// и сервис работает только на резервном хранилище.
func connectDurable(ctx context.Context, cfg *config.Config, log *logrus.Logger) *pgxpool.Pool {
	if !cfg.DurableConfigured() {
		log.Warn("DATABASE_URL is not set, serving demo data from memory")
		return nil
	}

	log.Info("Running database migrations...")
	if err := postgres.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.WithError(err).Warn("Failed to run database migrations")
	} else {
		log.Info("Database migrations applied successfully")
	}

	dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		if dbpool == nil {
			log.WithError(err).Error("Failed to configure PostgreSQL, serving demo data from memory")
			return nil
		}
		log.WithError(err).Warn("PostgreSQL is unreachable, requests will fall back until it recovers")
		return dbpool
	}
	log.Info("Successfully connected to PostgreSQL")
	return dbpool
}

// connectRedis подключает кеш и очередь вебхуков, если задан REDIS_ADDR
func connectRedis(ctx context.Context, cfg *config.Config, log *logrus.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR is not set, cache and webhooks are disabled")
		return nil
	}
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Warn("Failed to connect to Redis, cache and webhooks are disabled")
		return nil
	}
	log.Info("Successfully connected to Redis")
	return redisClient
}
