package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/configs"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/ratelimiter"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/sse"
	alarmsHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/alarms"
	healthHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/health"
	messagesHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/messages"
	topicsHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/topics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Application struct {
	config          *configs.Config
	messagesHandler *messagesHandler.Handler
	alarmsHandler   *alarmsHandler.Handler
	topicsHandler   *topicsHandler.Handler
	healthHandler   *healthHandler.Handler
	emitters        *sse.Registry
	logger          logging.Logger
	ratelimiter     ratelimiter.Limiter
}

func NewApplication(
	config *configs.Config,
	messages *messagesHandler.Handler,
	alarms *alarmsHandler.Handler,
	topics *topicsHandler.Handler,
	health *healthHandler.Handler,
	emitters *sse.Registry,
	logger logging.Logger,
	limiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:          config,
		messagesHandler: messages,
		alarmsHandler:   alarms,
		topicsHandler:   topics,
		healthHandler:   health,
		emitters:        emitters,
		logger:          logger,
		ratelimiter:     limiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Use(app.enableCors)
	r.Use(app.loggerMiddleware)
	r.Use(app.rateLimiterMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	// The stream route stays outside the timeout group: the connection is
	// long-lived by design and closes through its own idle timer.
	r.Get("/api/alarms/connect", app.alarmsHandler.StreamHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/api", func(r chi.Router) {
			r.Route("/rooms/{roomId}", func(r chi.Router) {
				r.Post("/messages", app.messagesHandler.SendMessageHandler)
				r.Get("/messages", app.messagesHandler.ListMessagesHandler)
				r.Get("/messages/media", app.messagesHandler.ListMediaHandler)
			})

			r.Route("/alarms", func(r chi.Router) {
				r.Post("/", app.alarmsHandler.CreateAlarmHandler)
				r.Get("/", app.alarmsHandler.ListAlarmsHandler)
				r.Post("/{alarmId}/read", app.alarmsHandler.ReadAlarmHandler)
			})

			r.Route("/topics", func(r chi.Router) {
				r.Post("/", app.topicsHandler.ProvisionHandler)
				r.Get("/", app.topicsHandler.ListTopicsHandler)
				r.Delete("/{kind}/{id}", app.topicsHandler.DeprovisionHandler)
			})

			r.Get("/health", app.healthHandler.GetLiveness)
			r.Get("/healthz", app.healthHandler.GetLiveness)
			r.Get("/live", app.healthHandler.GetLiveness)
			r.Get("/ready", app.healthHandler.GetReadiness)
		})
	})

	return otelhttp.NewHandler(r, "petmeet-notify")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:     mux,
		ReadTimeout: app.config.HTTP.ReadTimeout,
		// No write timeout: streaming responses outlive any fixed deadline.
		// Non-streaming routes are bounded by the router's timeout group.
		WriteTimeout: 0,
		IdleTimeout:  time.Minute,
	}

	// Open streams would otherwise hold Shutdown until its deadline: the
	// stream handlers block in their select loops, so wake them all as the
	// drain begins.
	srv.RegisterOnShutdown(app.emitters.CompleteAll)

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
