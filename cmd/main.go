package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/wooyoung-dev/petmeet/internal/infrastructure/configs"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/events"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/messaging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/metrics"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/profanity"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/ratelimiter"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/sse"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/tracing"
	"github.com/wooyoung-dev/petmeet/internal/persistence/db"
	"github.com/wooyoung-dev/petmeet/internal/persistence/repository"
	"github.com/wooyoung-dev/petmeet/internal/presentation/api"
	alarmsHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/alarms"
	healthHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/health"
	messagesHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/messages"
	topicsHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/topics"
	"github.com/wooyoung-dev/petmeet/internal/service"
)

const serviceName = "petmeet-notify"

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		FilePath: cfg.Logger.FilePath,
		Encoding: cfg.Logger.Encoding,
		Level:    cfg.Logger.Level,
		Logger:   cfg.Logger.Logger,
	})
	logger.Init()

	mongoClient, err := db.NewMongoClient(ctx, cfg.Mongo)
	if err != nil {
		log.Fatal(err)
	}
	defer db.DisconnectMongo(ctx, mongoClient)

	gormDB, err := db.NewPostgres(cfg.Postgres)
	if err != nil {
		log.Fatal(err)
	}
	defer db.ClosePostgres(gormDB)

	rabbitmq, err := messaging.NewRabbitMQ(cfg.Broker, logger)
	if err != nil {
		log.Fatal(err)
	}
	defer rabbitmq.Close()

	logger.Info(logging.RabbitMQ, logging.Startup, "broker connection established", nil)

	m := metrics.New()

	messageRepository := repository.NewChatMessageRepository(mongoClient.Database(cfg.Mongo.Database), cfg.Mongo.MessageTTL)
	if err := messageRepository.EnsureIndexes(ctx); err != nil {
		log.Fatal(err)
	}
	alarmRepository := repository.NewAlarmRepository(gormDB)
	membershipReader := repository.NewMembershipReader(gormDB)

	emitterRegistry := sse.NewRegistry()

	dispatcher := events.NewPushDispatcher(messageRepository, alarmRepository, membershipReader, emitterRegistry, logger, m)
	consumers := events.NewConsumerRegistry(rabbitmq, dispatcher, logger, m)
	publisher := events.NewEventPublisher(rabbitmq, logger, m)

	chatService := service.NewChatService(publisher, messageRepository, membershipReader, profanity.NewFilter(), logger)
	alarmService := service.NewAlarmService(alarmRepository, emitterRegistry, publisher, logger, m, cfg.SSE.IdleTimeout)

	go alarmService.RunRetentionSweeper(ctx, cfg.Retention.SweepInterval, cfg.Retention.ReadAlarmTTL, cfg.Retention.UnreadAlarmTTL)

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})

	app := api.NewApplication(
		cfg,
		messagesHandler.NewHandler(chatService),
		alarmsHandler.NewHandler(alarmService, logger, cfg.SSE.KeepAliveInterval, cfg.SSE.IdleTimeout),
		topicsHandler.NewHandler(consumers),
		healthHandler.NewHandler(mongoClient, gormDB),
		emitterRegistry,
		logger,
		rl,
	)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	runErr := app.Run(mux)

	// Listeners drain before the deferred store and broker teardown run, so
	// no delivery lands in a closing store. This holds on the error path
	// too, which is why the error is logged rather than fatal: Fatal would
	// exit before the defers close anything.
	consumers.Shutdown()
	logger.Info(logging.General, logging.Shutdown, "listeners drained", nil)

	if runErr != nil {
		logger.Error(logging.General, logging.Shutdown, "server stopped with error", map[logging.ExtraKey]any{
			logging.ErrorMessage: runErr.Error(),
		})
	}
}
