package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/shenikar/civic_issue_map/internal/classifier"
	"github.com/shenikar/civic_issue_map/internal/config"
	v1 "github.com/shenikar/civic_issue_map/internal/handler/http/v1"
	"github.com/shenikar/civic_issue_map/internal/ratelimit"
	"github.com/shenikar/civic_issue_map/internal/realtime"
	"github.com/shenikar/civic_issue_map/internal/repository"
	"github.com/shenikar/civic_issue_map/internal/service"
	"github.com/shenikar/civic_issue_map/internal/webhook"
	"github.com/shenikar/civic_issue_map/pkg/logger"
	"github.com/shenikar/civic_issue_map/pkg/postgres"
	redisclient "github.com/shenikar/civic_issue_map/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/civic_issue_map/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const issueRateLimitPrefix = "ratelimit:issues"

// @title Civic Issue Map API
// @version 1.0
// @description Backend for the civic issue map: issues, discussion groups, chat and image analysis.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
		migrationURL = strings.Replace(migrationURL, "postgresql://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown; отменяется до остановки сервера, чтобы закрыть SSE-потоки
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Инициализация издателя вебхуков
	webhookPublisher := webhook.NewRedisWebhookPublisher(redisClient)

	// Инициализация и запуск воркера вебхуков
	webhookWorker := webhook.NewWebhookWorker(redisClient, log, cfg)
	webhookWorker.Start(ctx)

	// Инициализация репозиториев
	issueRepo := repository.NewIssueRepository(dbpool, redisClient, cfg.IssueCacheTTL)
	groupRepo := repository.NewGroupRepository(dbpool)
	messageRepo := repository.NewMessageRepository(dbpool)
	userRepo := repository.NewUserRepository(dbpool)

	broadcaster := realtime.NewRedisBroadcaster(redisClient, log)
	imageClassifier := classifier.New(cfg, log)
	if imageClassifier == nil {
		log.Warn("CLASSIFIER_URL is not set, new issues will be saved as unverified")
	}

	// Инициализация сервисов
	services := v1.Services{
		Issues: service.NewIssueService(issueRepo, imageClassifier, broadcaster, webhookPublisher, log, cfg),
		Groups: service.NewGroupService(groupRepo, issueRepo, log),
		Chat:   service.NewChatService(messageRepo, groupRepo, broadcaster, log),
		Users:  service.NewUserService(userRepo, log),
	}

	limiter := ratelimit.NewRedisLimiter(redisClient, issueRateLimitPrefix, cfg.IssueRateLimit, ratelimit.DefaultWindow)

	// Инициализация хэндлеров
	handler := v1.NewHandler(services, limiter, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	router.Use(v1.CORSMiddleware(cfg.CORSOrigins))
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	select {
	case <-webhookWorker.Done():
	case <-shutdownCtx.Done():
		log.Warn("Webhook worker did not stop in time")
	}

	log.Info("Server gracefully stopped")
}
