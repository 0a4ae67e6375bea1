package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"realtime-service/internal/auth"
	"realtime-service/internal/cache"
	"realtime-service/internal/config"
	"realtime-service/internal/db"
	"realtime-service/internal/handlers"
	"realtime-service/internal/middleware"
	"realtime-service/internal/observability"
	"realtime-service/internal/rabbitmq"
	"realtime-service/internal/repositories"
	"realtime-service/internal/services"
	"realtime-service/internal/telemetry"
	"realtime-service/internal/ws"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracer(ctx, "realtime-service", cfg.OTLP.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracer")
	}
	defer func() { _ = shutdownTracer(ctx) }()

	database, err := db.Connect(cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}

	previews, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, conversation previews uncached")
		previews = nil
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()

	messageRepo := repositories.NewMessageRepo(database)
	reactionRepo := repositories.NewReactionRepo(database)
	callRepo := repositories.NewCallRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	userDir := repositories.NewUserDir(database)

	hub := ws.NewHub()
	verifier := auth.NewVerifier(cfg.Auth.Secret)

	notificationService := services.NewNotificationService(notificationRepo, hub, publisher)

	var previewCache services.PreviewCache
	if previews != nil {
		previewCache = previews
	}
	messageService := services.NewMessageService(messageRepo, reactionRepo, hub, notificationService, previewCache)
	callService := services.NewCallService(callRepo)

	if cfg.Calls.ReapEnabled {
		go callService.RunReaper(ctx, cfg.Calls.ReapEvery, cfg.Calls.StaleAfter)
	}

	relay := ws.NewRelayHandler(hub, verifier, messageService, callService, notificationService, userDir, publisher)

	var handlerCache handlers.PreviewCache
	if previews != nil {
		handlerCache = previews
	}
	messageHandler := handlers.NewMessageHandler(messageService, userDir, handlerCache)
	callHandler := handlers.NewCallHandler(callService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("realtime-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/conversations", authMiddleware, messageHandler.ListConversations)
	router.GET("/conversations/:user_id/messages", authMiddleware, messageHandler.GetHistory)
	router.POST("/messages", authMiddleware, messageHandler.PostMessage)
	router.POST("/messages/:message_id/reactions", authMiddleware, messageHandler.React)
	router.DELETE("/messages/:message_id/reactions", authMiddleware, messageHandler.Unreact)

	router.POST("/calls", authMiddleware, callHandler.StartCall)
	router.POST("/calls/finalize", authMiddleware, callHandler.FinalizeCall)
	router.GET("/calls", authMiddleware, callHandler.ListCalls)

	router.GET("/notifications", authMiddleware, notificationHandler.List)
	router.POST("/notifications/:notification_id/read", authMiddleware, notificationHandler.MarkRead)
	router.POST("/notifications/read-all", authMiddleware, notificationHandler.MarkAllRead)
	router.POST("/internal/notifications", authMiddleware, notificationHandler.Produce)

	router.GET("/ws", relay.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("relay listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
