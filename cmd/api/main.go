package main

import (
	"context"
	"errors"
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

	"github.com/noah-isme/campus-admin-api/internal/agent"
	"github.com/noah-isme/campus-admin-api/internal/config"
	"github.com/noah-isme/campus-admin-api/internal/database"
	"github.com/noah-isme/campus-admin-api/internal/events"
	"github.com/noah-isme/campus-admin-api/internal/handler"
	"github.com/noah-isme/campus-admin-api/internal/knowledge"
	"github.com/noah-isme/campus-admin-api/internal/middleware"
	"github.com/noah-isme/campus-admin-api/internal/observability"
	"github.com/noah-isme/campus-admin-api/internal/repository"
	"github.com/noah-isme/campus-admin-api/internal/router"
	"github.com/noah-isme/campus-admin-api/internal/service"
	"github.com/noah-isme/campus-admin-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "production" {
		logger = logger.Level(zerolog.InfoLevel)
	}

	observability.RegisterMetrics()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, assistant memory stays in process")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, domain events are dropped")
		} else {
			defer natsConn.Drain()
			publisher = events.NewNATSPublisher(natsConn, cfg.EventSubjectPrefix, logger)
		}
	}

	passwordHash := cfg.AdminPasswordHash
	if passwordHash == "" {
		passwordHash, err = service.HashPassword(cfg.AdminPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to hash admin password")
		}
	}

	var (
		model    ai.ChatModel = ai.Unavailable{}
		embedder ai.Embedder  = ai.Unavailable{}
	)
	if cfg.AIEnabled() {
		client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey:         cfg.AIAPIKey,
			BaseURL:        cfg.AIBaseURL,
			Model:          cfg.AIModel,
			EmbeddingModel: cfg.AIEmbeddingModel,
			MaxTokens:      cfg.AIMaxTokens,
			Temperature:    cfg.AITemperature,
			Timeout:        cfg.AITimeout,
			Logger:         logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create completion client")
		}
		model, embedder = client, client
	} else {
		logger.Warn().Msg("no completion api key configured, chat and assistant answers will fail")
	}

	faq, err := knowledge.LoadFAQ(cfg.KnowledgeFAQPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load faq table")
	}

	index, err := knowledge.LoadIndex(cfg.KnowledgeIndexPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.KnowledgeIndexPath).Msg("knowledge index unavailable, semantic answers degrade")
		index = nil
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	uow := repository.NewUnitOfWork(db)
	studentRepo := repository.NewStudentRepository(uow)
	activityRepo := repository.NewActivityLogRepository(uow)
	analyticsRepo := repository.NewAnalyticsRepository(uow)

	studentService := service.NewStudentService(studentRepo, activityRepo, validate, publisher, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, logger)
	notificationService := service.NewNotificationService(studentRepo, nil, validate, publisher, logger)
	authService := service.NewAuthService(service.AuthConfig{
		Username:     cfg.AdminUsername,
		PasswordHash: passwordHash,
		Secret:       cfg.JWTSecret,
		TTL:          cfg.JWTTTL,
	}, validate, logger)

	retriever := knowledge.NewSemanticRetriever(index, embedder, cfg.KnowledgeTopK, logger)

	var memory knowledge.Memory = knowledge.NewLocalMemory(cfg.MemoryWindow)
	if redisClient != nil {
		memory = knowledge.NewRedisMemory(redisClient, cfg.MemoryWindow, cfg.MemoryTTL)
	}
	assistant := knowledge.NewAssistant(retriever, model, memory, logger)

	registry, err := agent.NewRegistry(logger, agent.NewCampusTools(agent.CampusServices{
		Students:      studentService,
		Analytics:     analyticsService,
		Notifications: notificationService,
		FAQ:           faq,
		Retriever:     retriever,
	})...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build tool registry")
	}
	policy, err := agent.NewPolicy(registry)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to render agent policy")
	}
	dispatcher := agent.NewDispatcher(model, registry, policy, cfg.AIMaxSteps, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	probes := map[string]handler.Probe{
		"database": func(ctx context.Context) error { return database.PingDB(ctx, db) },
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return database.PingRedis(ctx, redisClient) }
	}
	if natsConn != nil {
		probes["nats"] = func(context.Context) error { return database.NATSStatus(natsConn) }
	}

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authService, logger),
		StudentHandler:   handler.NewStudentHandler(studentService, notificationService, logger),
		AnalyticsHandler: handler.NewAnalyticsHandler(analyticsService, logger),
		ChatHandler:      handler.NewChatHandler(dispatcher, validate, cfg.StreamChunkSize, logger),
		KnowledgeHandler: handler.NewKnowledgeHandler(faq, retriever, assistant, validate, logger),
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret, cfg.AdminUsername),
		AdminRoles:       []string{service.AdminRole},
		HealthProbes:     probes,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Bool("ai_enabled", cfg.AIEnabled()).Msg("server started")
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
