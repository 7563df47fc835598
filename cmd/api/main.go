package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/estate-crm-api/internal/config"
	"github.com/noah-isme/estate-crm-api/internal/database"
	"github.com/noah-isme/estate-crm-api/internal/handler"
	"github.com/noah-isme/estate-crm-api/internal/middleware"
	"github.com/noah-isme/estate-crm-api/internal/models"
	"github.com/noah-isme/estate-crm-api/internal/repository"
	"github.com/noah-isme/estate-crm-api/internal/router"
	"github.com/noah-isme/estate-crm-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	ctx := context.Background()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Lead{},
		&models.Property{},
		&models.ChangeRecord{},
		&models.SequenceCounter{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, change records will not be published")
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	entityStore := repository.NewEntityStore(db)
	recordRepo := repository.NewChangeRecordRepository(db)

	var sequences service.SequenceGenerator
	switch cfg.SequenceBackend {
	case config.SequenceBackendRedis:
		sequences = service.NewRedisSequence(redisClient, entityStore, logger)
	default:
		sequences = service.NewCounterSequence(repository.NewSequenceRepository(db), logger)
	}

	displayCache := service.NewRedisDisplayCache(redisClient, cfg.DisplayCacheTTL, logger)
	composer := service.NewMessageComposer(entityStore, displayCache, service.CatalogFor(cfg.AuditLocale), logger)
	publisher := service.NewNATSRecordPublisher(natsConn, cfg.NATSSubject, logger)
	writer := service.NewRecordWriter(sequences, recordRepo, composer, publisher, validate, logger)

	entityService := service.NewEntityService(entityStore, sequences, writer, composer, logger)
	recordService := service.NewRecordService(recordRepo, validate, logger)

	entityHandlers := make(map[models.EntityKind]*handler.EntityHandler, len(models.EntityKinds))
	for _, kind := range models.EntityKinds {
		entityHandlers[kind] = handler.NewEntityHandler(kind, entityService, logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		RecordHandler:  handler.NewRecordHandler(recordService, logger),
		EntityHandlers: entityHandlers,
		JWTMiddleware:  middleware.JWTProtected(cfg.JWTSecret),
		WriteRateLimit: middleware.RateLimit("entities", cfg.WriteRateLimit, cfg.WriteRateWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Str("sequence_backend", cfg.SequenceBackend).Msg("server started")
	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
