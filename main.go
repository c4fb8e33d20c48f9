// File: mediq/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediq/config"
	"mediq/cron"
	"mediq/database"
	"mediq/database/repository"
	"mediq/handlers"
	"mediq/routes"
	"mediq/services/booking"
	"mediq/services/intake"
	"mediq/services/matching"
	"mediq/services/tasks"
	"mediq/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	mongoClient := database.InitDB()
	defer database.CloseDB(mongoClient)
	db := mongoClient.Database(config.AppConfig.DatabaseName)

	cacheClient := utils.NewCacheClient()
	defer cacheClient.Close()

	// Repositories.
	slotRepo := repository.NewMongoSlotRepo(db)
	sessionRepo := repository.NewMongoSessionRepo(db)
	doctorRepo := repository.NewMongoDoctorRepo(db)
	appointmentRepo := repository.NewMongoAppointmentRepo(db)

	for name, ensure := range map[string]func() error{
		"slots":        slotRepo.EnsureIndexes,
		"sessions":     sessionRepo.EnsureIndexes,
		"doctors":      doctorRepo.EnsureIndexes,
		"appointments": appointmentRepo.EnsureIndexes,
	} {
		if err := ensure(); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}

	// Task queue client for fire-and-forget events.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()

	// Services.
	matcher := &matching.DefaultMatcher{
		DoctorRepo:  doctorRepo,
		SlotRepo:    slotRepo,
		CacheClient: cacheClient,
		Rules:       matching.DefaultRules(),
		WindowDays:  config.AppConfig.BookingWindowDays,
		CacheTTL:    time.Duration(config.AppConfig.MatchCacheTTLSeconds) * time.Second,
		Logger:      logger,
	}
	coordinator := &booking.DefaultCoordinator{
		SlotRepo:        slotRepo,
		DoctorRepo:      doctorRepo,
		AppointmentRepo: appointmentRepo,
		Events:          tasks.NewAsynqEmitter(asynqClient, logger),
		HoldTTL:         config.HoldTTL(),
		Logger:          logger,
	}
	engine := &intake.DefaultEngine{
		Sessions:           sessionRepo,
		Doctors:            doctorRepo,
		Matcher:            matcher,
		Coordinator:        coordinator,
		IdleTimeout:        config.SessionIdleTimeout(),
		MaxClarifyingTurns: config.AppConfig.MaxClarifyingTurns,
		WindowDays:         config.AppConfig.BookingWindowDays,
		Vocab:              matching.Vocabulary(matching.DefaultRules()),
		Logger:             logger,
	}

	// Background worker: hold expiry, idle-session sweep, audit events.
	cron.InitSweepWorker(engine, slotRepo, logger)

	hb := &handlers.HandlerBundle{
		Engine:       engine,
		Coordinator:  coordinator,
		Doctors:      doctorRepo,
		Appointments: appointmentRepo,
	}
	router := routes.SetupRouter(hb)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Info("starting server", zap.String("port", config.AppConfig.AppPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
