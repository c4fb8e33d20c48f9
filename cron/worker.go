package cron

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"mediq/config"
	"mediq/database/repository"
	slotRepo "mediq/database/repository/slot"
	"mediq/models"
	"mediq/services/intake"
	"mediq/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// InitSweepWorker runs the async worker and scheduler in the background.
// It drains hold-expiry tasks, the periodic idle-session sweep, and the
// booking audit hook. Correctness never depends on it: the slot store
// expires holds lazily on access.
func InitSweepWorker(engine intake.Engine, slots repository.SlotRepository, logger *zap.Logger) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeHoldExpire, handleHoldExpire(slots, logger))
	mux.HandleFunc(tasks.TypeSessionSweep, handleSessionSweep(engine, logger))
	mux.HandleFunc(tasks.TypeSlotSweep, handleSlotSweep(slots, logger))
	mux.HandleFunc(tasks.TypeBookingConfirmed, handleBookingConfirmed(logger))

	go func() {
		log.Println("[SweepWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SweepWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SweepWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()

	startScheduler(redisOpts, logger)
}

// startScheduler registers the recurring sweep entries.
func startScheduler(redisOpts asynq.RedisClientOpt, logger *zap.Logger) {
	scheduler := asynq.NewScheduler(redisOpts, nil)

	if _, err := scheduler.Register("@every 5m", asynq.NewTask(tasks.TypeSessionSweep, nil)); err != nil {
		logger.Error("failed to register session sweep", zap.Error(err))
	}
	if _, err := scheduler.Register("@every 1m", asynq.NewTask(tasks.TypeSlotSweep, nil)); err != nil {
		logger.Error("failed to register slot sweep", zap.Error(err))
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("scheduler stopped", zap.Error(err))
		}
	}()
}

// handleHoldExpire releases one lapsed hold. A hold that was confirmed,
// already released, or re-taken is left alone.
func handleHoldExpire(slots repository.SlotRepository, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.HoldPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid hold payload", zap.Error(err))
			return err
		}

		slot, err := slots.Get(ctx, p.DoctorID, p.Date, p.Start)
		if err != nil {
			return err
		}
		if slot == nil || slot.Status != models.SlotHeld || slot.HeldBySessionID != p.SessionID {
			return nil
		}
		if slot.HoldLive(time.Now()) {
			// The session re-held the same slot with a fresh TTL.
			return nil
		}

		err = slots.Release(ctx, p.DoctorID, p.Date, p.Start, p.SessionID)
		if err != nil && !errors.Is(err, slotRepo.ErrNotHeld) {
			return err
		}
		if err == nil {
			logger.Info("released expired hold",
				zap.String("sessionId", p.SessionID),
				zap.String("doctorId", p.DoctorID),
				zap.String("date", p.Date),
				zap.Int("start", p.Start))
		}
		return nil
	}
}

// handleSessionSweep abandons idle sessions and releases their holds.
func handleSessionSweep(engine intake.Engine, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := engine.AbandonIdle(ctx)
		if err != nil {
			logger.Error("session sweep failed", zap.Error(err))
			return err
		}
		if n > 0 {
			logger.Info("abandoned idle sessions", zap.Int("count", n))
		}
		return nil
	}
}

// handleSlotSweep flips any lingering expired holds back to FREE so
// availability listings stay tidy between accesses.
func handleSlotSweep(slots repository.SlotRepository, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := slots.ReleaseExpired(ctx, time.Now())
		if err != nil {
			logger.Error("slot sweep failed", zap.Error(err))
			return err
		}
		if n > 0 {
			logger.Info("swept expired holds", zap.Int64("count", n))
		}
		return nil
	}
}

// handleBookingConfirmed is the audit/notification hook; downstream
// delivery is out of scope, so it logs the durable facts.
func handleBookingConfirmed(logger *zap.Logger) asynq.HandlerFunc {
	return func(_ context.Context, task *asynq.Task) error {
		var a models.Appointment
		if err := json.Unmarshal(task.Payload(), &a); err != nil {
			logger.Error("invalid booking event payload", zap.Error(err))
			return err
		}
		logger.Info("booking confirmed",
			zap.String("appointmentId", a.ID),
			zap.String("doctorId", a.DoctorID),
			zap.String("date", a.Date),
			zap.Int("start", a.Start),
			zap.String("patient", a.PatientName))
		return nil
	}
}
