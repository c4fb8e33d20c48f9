package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediq/database/repository"
	slotRepo "mediq/database/repository/slot"
	"mediq/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Coordinator serializes hold and confirmation requests for a session
// against the slot store. It never retries a conflict on its own: the intake
// engine must re-offer availability so the patient confirms the new choice.
//
// Coordinator methods mutate the passed session (pending booking only) but
// do not persist it; the caller owns the session write and is expected to
// hold the per-session lock.
type Coordinator interface {
	RequestHold(ctx context.Context, s *models.IntakeSession, doctorID, date string, start int) (*models.PendingBooking, error)
	ConfirmBooking(ctx context.Context, s *models.IntakeSession, info models.PatientInfo) (*models.Appointment, error)
	CancelHold(ctx context.Context, s *models.IntakeSession) error
	Availability(ctx context.Context, doctor *models.Doctor, from time.Time, days int) ([]models.AvailableSlot, error)
}

// DefaultCoordinator implements Coordinator.
type DefaultCoordinator struct {
	SlotRepo        repository.SlotRepository
	DoctorRepo      repository.DoctorRepository
	AppointmentRepo repository.AppointmentRepository
	Events          EventEmitter
	HoldTTL         time.Duration
	Now             func() time.Time
	Logger          *zap.Logger
}

func (c *DefaultCoordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *DefaultCoordinator) events() EventEmitter {
	if c.Events != nil {
		return c.Events
	}
	return NopEmitter{}
}

// RequestHold validates the requested slot and delegates the atomic
// reservation to the slot store. A session has at most one pending booking:
// a new hold request implicitly releases a prior unconfirmed hold.
func (c *DefaultCoordinator) RequestHold(ctx context.Context, s *models.IntakeSession, doctorID, date string, start int) (*models.PendingBooking, error) {
	doctor, err := c.DoctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch doctor %s: %w", doctorID, err)
	}
	if doctor == nil {
		return nil, NewNotFoundError("unknown doctor %s", doctorID)
	}

	now := c.now()
	day, err := models.ParseDay(date, now.Location())
	if err != nil {
		return nil, NewValidationError("%v", err)
	}
	slotStart := day.Add(time.Duration(start) * time.Minute)
	if slotStart.Before(now) {
		return nil, NewValidationError("slot %s %s is in the past", date, models.FormatClock(start))
	}
	if !doctor.CoversSlot(day, start) {
		return nil, NewValidationError("slot %s %s is outside Dr. %s's working hours", date, models.FormatClock(start), doctor.Name)
	}

	// Release any prior unconfirmed hold before claiming the new slot.
	if s.PendingBooking != nil {
		if err := c.CancelHold(ctx, s); err != nil {
			return nil, err
		}
	}

	slot, err := c.SlotRepo.TryHold(ctx, doctorID, date, start, s.SessionID, c.HoldTTL)
	if err != nil {
		var ce *slotRepo.ConflictError
		if errors.As(err, &ce) {
			return nil, NewConflictError("slot %s %s is already %s", date, models.FormatClock(start), ce.Status)
		}
		return nil, err
	}

	s.PendingBooking = &models.PendingBooking{
		DoctorID:  doctorID,
		Date:      date,
		Start:     start,
		ExpiresAt: slot.HoldExpiresAt,
	}
	c.events().HoldPlaced(ctx, s.SessionID, s.PendingBooking)
	return s.PendingBooking, nil
}

// ConfirmBooking finalizes the session's pending hold into a durable
// appointment record. Ownership is re-validated by the slot store: a hold
// that lapsed is reported as expired, never silently re-booked.
func (c *DefaultCoordinator) ConfirmBooking(ctx context.Context, s *models.IntakeSession, info models.PatientInfo) (*models.Appointment, error) {
	pb := s.PendingBooking
	if pb == nil {
		return nil, NewStateError("session %s has no pending booking to confirm", s.SessionID)
	}
	if info.Name == "" {
		return nil, NewValidationError("patient name is required to confirm a booking")
	}

	slot, err := c.SlotRepo.Confirm(ctx, pb.DoctorID, pb.Date, pb.Start, s.SessionID, info.Name, info.Notes)
	if err != nil {
		switch {
		case errors.Is(err, slotRepo.ErrHoldExpired):
			s.PendingBooking = nil
			return nil, NewExpiredError("hold on %s %s expired before confirmation", pb.Date, models.FormatClock(pb.Start))
		case slotRepo.IsConflict(err):
			s.PendingBooking = nil
			return nil, NewConflictError("slot %s %s was taken by another session", pb.Date, models.FormatClock(pb.Start))
		default:
			return nil, err
		}
	}

	doctor, err := c.DoctorRepo.GetByID(ctx, pb.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch doctor %s: %w", pb.DoctorID, err)
	}
	duration := 30
	if doctor != nil && doctor.SlotDurationMins > 0 {
		duration = doctor.SlotDurationMins
	}

	appt := &models.Appointment{
		ID:          uuid.New().String(),
		DoctorID:    pb.DoctorID,
		SessionID:   s.SessionID,
		PatientRef:  s.PatientRef,
		PatientName: info.Name,
		Date:        pb.Date,
		Start:       pb.Start,
		End:         pb.Start + duration,
		Symptoms:    append([]string(nil), s.Symptoms...),
		Notes:       info.Notes,
		CreatedAt:   slot.UpdatedAt,
	}
	if err := c.AppointmentRepo.Create(ctx, appt); err != nil {
		if c.Logger != nil {
			c.Logger.Error("slot booked but appointment record failed",
				zap.String("sessionId", s.SessionID), zap.Error(err))
		}
		return nil, err
	}

	s.PendingBooking = nil
	c.events().BookingConfirmed(ctx, appt)
	return appt, nil
}

// CancelHold releases the session's pending hold, if any. Calling it with no
// active hold is a no-op.
func (c *DefaultCoordinator) CancelHold(ctx context.Context, s *models.IntakeSession) error {
	pb := s.PendingBooking
	if pb == nil {
		return nil
	}
	err := c.SlotRepo.Release(ctx, pb.DoctorID, pb.Date, pb.Start, s.SessionID)
	if err != nil && !errors.Is(err, slotRepo.ErrNotHeld) {
		return err
	}
	if err == nil {
		c.events().HoldReleased(ctx, s.SessionID, pb)
	}
	s.PendingBooking = nil
	return nil
}
