package tasks

import (
	"context"
	"encoding/json"
	"time"

	"mediq/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task type names shared between the emitter and the worker.
const (
	TypeBookingConfirmed = "audit:booking_confirmed"
	TypeHoldExpire       = "hold:expire"
	TypeSessionSweep     = "sessions:sweep"
	TypeSlotSweep        = "slots:sweep"
)

// HoldPayload identifies one slot hold for delayed expiry release.
type HoldPayload struct {
	SessionID string    `json:"sessionId"`
	DoctorID  string    `json:"doctorId"`
	Date      string    `json:"date"`
	Start     int       `json:"start"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AsynqEmitter implements booking.EventEmitter over the task queue. All
// emissions are fire-and-forget: enqueue failures are logged and dropped,
// never surfaced into the booking path.
type AsynqEmitter struct {
	Client *asynq.Client
	Logger *zap.Logger
}

func NewAsynqEmitter(client *asynq.Client, logger *zap.Logger) *AsynqEmitter {
	return &AsynqEmitter{Client: client, Logger: logger}
}

// BookingConfirmed publishes the audit hook for a confirmed booking.
func (e *AsynqEmitter) BookingConfirmed(_ context.Context, a *models.Appointment) {
	payload, err := json.Marshal(a)
	if err != nil {
		e.Logger.Error("failed to marshal booking event", zap.Error(err))
		return
	}
	if _, err := e.Client.Enqueue(asynq.NewTask(TypeBookingConfirmed, payload)); err != nil {
		e.Logger.Warn("failed to enqueue booking-confirmed event",
			zap.String("appointmentId", a.ID), zap.Error(err))
	}
}

// HoldPlaced schedules a release pass shortly after the hold's expiry. Lazy
// expiry in the slot store keeps correctness if this task never runs.
func (e *AsynqEmitter) HoldPlaced(_ context.Context, sessionID string, pb *models.PendingBooking) {
	payload, err := json.Marshal(HoldPayload{
		SessionID: sessionID,
		DoctorID:  pb.DoctorID,
		Date:      pb.Date,
		Start:     pb.Start,
		ExpiresAt: pb.ExpiresAt,
	})
	if err != nil {
		e.Logger.Error("failed to marshal hold payload", zap.Error(err))
		return
	}
	task := asynq.NewTask(TypeHoldExpire, payload)
	if _, err := e.Client.Enqueue(task, asynq.ProcessAt(pb.ExpiresAt.Add(5*time.Second))); err != nil {
		e.Logger.Warn("failed to schedule hold expiry",
			zap.String("sessionId", sessionID), zap.Error(err))
	}
}

// HoldReleased is informational only.
func (e *AsynqEmitter) HoldReleased(_ context.Context, sessionID string, pb *models.PendingBooking) {
	e.Logger.Info("hold released",
		zap.String("sessionId", sessionID),
		zap.String("doctorId", pb.DoctorID),
		zap.String("date", pb.Date),
		zap.Int("start", pb.Start))
}
