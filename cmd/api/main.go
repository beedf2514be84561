package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/scheduler-api/internal/config"
	"github.com/jwalitptl/scheduler-api/internal/handler"
	blockHandler "github.com/jwalitptl/scheduler-api/internal/handler/block"
	leaveHandler "github.com/jwalitptl/scheduler-api/internal/handler/leave"
	scheduleHandler "github.com/jwalitptl/scheduler-api/internal/handler/schedule"
	slotHandler "github.com/jwalitptl/scheduler-api/internal/handler/slot"
	"github.com/jwalitptl/scheduler-api/internal/repository/postgres"
	"github.com/jwalitptl/scheduler-api/internal/router"
	blockService "github.com/jwalitptl/scheduler-api/internal/service/block"
	bookingService "github.com/jwalitptl/scheduler-api/internal/service/booking"
	eventService "github.com/jwalitptl/scheduler-api/internal/service/event"
	leaveService "github.com/jwalitptl/scheduler-api/internal/service/leave"
	scheduleService "github.com/jwalitptl/scheduler-api/internal/service/schedule"
	slotService "github.com/jwalitptl/scheduler-api/internal/service/slot"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
	redisBroker "github.com/jwalitptl/scheduler-api/pkg/messaging/redis"
	"github.com/jwalitptl/scheduler-api/pkg/metrics"
	"github.com/jwalitptl/scheduler-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	db, err := postgres.NewDB(cfg.DBConfig())
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	scheduleRepo := postgres.NewScheduleRepository(db)
	slotRepo := postgres.NewSlotRepository(db)
	configRepo := postgres.NewSlotConfigurationRepository(db)
	blockRepo := postgres.NewBlockRepository(db)
	leaveRepo := postgres.NewLeaveRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	m := metrics.NewMetrics("scheduler", "api")
	emitter := eventService.NewService(outboxRepo, log)

	scheduleSvc := scheduleService.NewService(scheduleRepo, slotRepo, log)
	slotSvc := slotService.NewService(slotRepo, scheduleRepo, configRepo, blockRepo, emitter, m, log)
	bookingSvc := bookingService.NewService(slotRepo, blockRepo, emitter, m, log)
	blockSvc := blockService.NewService(blockRepo, slotRepo, emitter, m, log)
	leaveSvc := leaveService.NewService(leaveRepo, scheduleRepo, appointmentRepo, blockSvc, bookingSvc, emitter, log)

	h := handler.NewHandler(db)
	r := router.NewRouter(h, router.Config{
		RateLimit:     rate.Limit(cfg.API.RateLimit),
		RateBurst:     cfg.API.RateBurst,
		MetricsPrefix: "scheduler_http",
	},
		scheduleHandler.NewHandler(scheduleSvc),
		slotHandler.NewHandler(slotSvc, bookingSvc),
		blockHandler.NewHandler(blockSvc),
		leaveHandler.NewHandler(leaveSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	brokerLogger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "redis").Logger()
	broker, err := redisBroker.NewRedisBroker(redisBroker.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
		MinIdleConns: 2,
	}, &brokerLogger)
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	processorCtx, stopProcessor := context.WithCancel(context.Background())
	defer stopProcessor()

	outboxProcessor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  time.Duration(cfg.Outbox.PollIntervalSeconds) * time.Second,
		RetryAttempts: cfg.Outbox.RetryAttempts,
		RetryDelay:    time.Duration(cfg.Outbox.RetryDelaySeconds) * time.Second,
	}, log, m)
	go outboxProcessor.Start(processorCtx)

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	stopProcessor()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
