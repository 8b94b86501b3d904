package main

import (
	"context"
	"time"

	"lost-persons/config"
	"lost-persons/internal/handler"
	"lost-persons/internal/proxy"
	"lost-persons/internal/redis"
	"lost-persons/internal/repository"
	"lost-persons/internal/repository/memory"
	"lost-persons/internal/server"
	"lost-persons/internal/services"
	"lost-persons/internal/storage"
	"lost-persons/pkg/database"
	"lost-persons/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	log := logger.New(logMode)
	defer log.Sync()
	logger.SetGlobalLogger(log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	var (
		limiter *redis.RateLimiter
		cache   *redis.CacheStore
	)
	if cfg.RedisEnabled {
		client, err := redis.Connect(ctx, redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatal("redis connection failed", zap.Error(err))
		}
		defer client.Close()

		limits := redis.DefaultRateLimitConfig()
		limits.MessageLimit = cfg.MessageRateLimit
		limits.AuthLimit = cfg.AuthRateLimit
		limiter = redis.NewRateLimiter(client, limits)
		cache = redis.NewCacheStore(client, cfg.UserCacheTTL)
		log.Info("redis connected", zap.String("host", cfg.RedisHost))
	} else {
		log.Warn("redis disabled: rate limiting and identity cache are off")
	}

	var presigner services.Presigner
	if cfg.S3Enabled() {
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PublicBase: cfg.S3PublicBase,
			PresignTTL: cfg.S3PresignTTL,
		})
		if err != nil {
			log.Fatal("s3 client setup failed", zap.Error(err))
		}
		presigner = s3Client
	} else {
		log.Warn("s3 not configured: photo uploads are unavailable")
	}

	access := proxy.NewAccessControl()
	directory := services.NewDirectory(store.Users(), cache, log)
	notifications := services.NewNotificationService(store, log, cfg.FanoutConcurrency)
	authService := services.NewAuthService(store.Users(), directory, cfg)
	conversations := services.NewConversationService(store, directory, access, log)

	handlers := &server.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Reports:       handler.NewReportHandler(services.NewReportService(store, directory, access, notifications, log)),
		Sightings:     handler.NewSightingHandler(services.NewSightingService(store, directory, access, notifications, log)),
		Conversations: handler.NewConversationHandler(conversations),
		Messages:      handler.NewMessageHandler(services.NewMessageService(store, conversations, directory, notifications, log)),
		Notifications: handler.NewNotificationHandler(notifications),
		Users:         handler.NewUserHandler(services.NewUserService(store.Users(), directory, access)),
		Uploads:       handler.NewUploadHandler(services.NewUploadService(presigner)),
	}

	worker := services.NewOutboxWorker(store.Outbox(), notifications, log, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	worker.Start()

	srv := server.New(cfg, log)
	srv.SetupRoutes(handlers, authService, limiter, store)
	if err := srv.Start(); err != nil {
		log.Error("server exited with error", zap.Error(err))
	}

	worker.Stop()
	log.Info("outbox worker stopped")
}

// openStore selects the persistence backend from STORAGE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Store, func()) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("using in-memory store: data is lost on restart")
		return memory.NewStore(), func() {}
	case config.StoragePostgres:
		db, err := database.Connect(ctx, cfg)
		if err != nil {
			log.Fatal("database connection failed", zap.Error(err))
		}
		if err := database.ApplyMigrations(ctx, db, log); err != nil {
			log.Fatal("failed to apply migrations", zap.Error(err))
		}
		log.Info("database ready", zap.String("host", cfg.DBHost), zap.String("name", cfg.DBName))
		return repository.NewPostgresStore(db), func() { _ = db.Close() }
	default:
		log.Fatal("unknown storage driver", zap.String("driver", cfg.StorageDriver))
		return nil, nil
	}
}
