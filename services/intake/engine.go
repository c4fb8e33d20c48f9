package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mediq/database/repository"
	"mediq/models"
	"mediq/services/booking"
	"mediq/services/matching"

	"go.uber.org/zap"
)

// Engine drives the conversational intake flow. It owns per-session
// serialization: no two requests for the same session id execute
// concurrently.
type Engine interface {
	// HandleMessage processes one patient chat message and returns the next
	// reply. Validation and state problems become clarifying replies, never
	// errors; only storage failures propagate.
	HandleMessage(ctx context.Context, sessionID, text string) (*models.ChatReply, error)

	// RequestHold reserves a slot for the session (UI-driven shortcut for
	// the SELECTING_SLOT step).
	RequestHold(ctx context.Context, sessionID, doctorID, date, clock string) (*models.HoldResult, error)

	// ConfirmAppointment finalizes the session's pending hold.
	ConfirmAppointment(ctx context.Context, sessionID string, info models.PatientInfo) (*models.Appointment, error)

	// GetSession returns the stored session, nil when unknown.
	GetSession(ctx context.Context, sessionID string) (*models.IntakeSession, error)

	// AbandonIdle marks idle sessions abandoned and releases their holds.
	// Returns the number of sessions transitioned.
	AbandonIdle(ctx context.Context) (int, error)
}

// DefaultEngine implements Engine.
type DefaultEngine struct {
	Sessions    repository.SessionRepository
	Doctors     repository.DoctorRepository
	Matcher     matching.Matcher
	Coordinator booking.Coordinator

	IdleTimeout        time.Duration
	MaxClarifyingTurns int
	WindowDays         int
	Vocab              map[string]bool
	Now                func() time.Time
	Logger             *zap.Logger

	locks sessionLocks
}

func (e *DefaultEngine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *DefaultEngine) log() *zap.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return zap.NewNop()
}

// HandleMessage implements Engine.
func (e *DefaultEngine) HandleMessage(ctx context.Context, sessionID, text string) (*models.ChatReply, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, booking.NewValidationError("session id is required")
	}
	unlock := e.locks.lock(sessionID)
	defer unlock()

	now := e.now()
	s, err := e.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	fresh := s == nil
	if fresh {
		s = &models.IntakeSession{
			SessionID: sessionID,
			State:     models.StateGreeting,
			CreatedAt: now,
		}
	}

	if !fresh && !s.State.Terminal() && s.IdleFor(e.IdleTimeout, now) {
		if err := e.abandonLocked(ctx, s); err != nil {
			return nil, err
		}
	}

	restarted := false
	if s.State == models.StateAbandoned {
		// A message to an abandoned session starts a fresh cycle on the same
		// id. The transcript stays for audit; symptoms and ranking do not
		// carry over.
		s.State = models.StateGreeting
		s.Symptoms = nil
		s.CandidateDoctors = nil
		s.SelectedDoctorID = ""
		s.ClarifyingTurns = 0
		restarted = true
	}

	s.AddTurn("patient", text, now)
	s.LastActiveAt = now

	reply, err := e.dispatch(ctx, s, text, restarted)
	if err != nil {
		return nil, err
	}
	s.AddTurn("assistant", reply.Reply, now)

	if err := e.Sessions.Put(ctx, s); err != nil {
		return nil, err
	}
	reply.SessionID = s.SessionID
	reply.State = s.State
	return reply, nil
}

// dispatch routes a message by conversation state. It returns an error only
// for storage failures; everything else folds into the reply.
func (e *DefaultEngine) dispatch(ctx context.Context, s *models.IntakeSession, text string, restarted bool) (*models.ChatReply, error) {
	if s.State == models.StateBooked {
		return &models.ChatReply{Reply: alreadyBookedReply()}, nil
	}

	trimmed := strings.TrimSpace(text)

	switch s.State {
	case models.StateGreeting:
		if trimmed == "" || isGreetingOnly(trimmed) {
			return &models.ChatReply{Reply: greetingReply(restarted)}, nil
		}
		// First substantive message.
		s.State = models.StateCollectingSymptoms
		return e.collectSymptoms(ctx, s, text, false)

	case models.StateCollectingSymptoms:
		return e.collectSymptoms(ctx, s, text, false)

	case models.StateRecommending:
		if doctorID, ok := parseDoctorSelection(trimmed, s.CandidateDoctors); ok {
			return e.selectDoctor(ctx, s, doctorID, "")
		}
		// Anything else is treated as more symptom description.
		return e.collectSymptoms(ctx, s, text, false)

	case models.StateSelectingSlot:
		if date, start, ok := parseSlotSelection(trimmed); ok {
			return e.holdSlot(ctx, s, date, start)
		}
		if doctorID, ok := parseDoctorSelection(trimmed, s.CandidateDoctors); ok {
			return e.selectDoctor(ctx, s, doctorID, "")
		}
		if hits := intersectsVocab(matching.Tokenize(text), e.Vocab); len(hits) > 0 {
			// Symptom amendment backs the flow up to recommending.
			return e.collectSymptoms(ctx, s, text, true)
		}
		return e.reofferAvailability(ctx, s, "I didn't catch a slot there.")

	case models.StateAwaitingConfirmation:
		if isCancel(trimmed) {
			if err := e.Coordinator.CancelHold(ctx, s); err != nil {
				return nil, err
			}
			s.State = models.StateSelectingSlot
			return e.reofferAvailability(ctx, s, "No problem, I've released that slot.")
		}
		if name, ok := parseConfirmation(trimmed); ok {
			return e.confirmFromChat(ctx, s, name)
		}
		if hits := intersectsVocab(matching.Tokenize(text), e.Vocab); len(hits) > 0 {
			if err := e.Coordinator.CancelHold(ctx, s); err != nil {
				return nil, err
			}
			return e.collectSymptoms(ctx, s, text, true)
		}
		return &models.ChatReply{Reply: askNameReply()}, nil
	}

	return nil, fmt.Errorf("session %s in unexpected state %s", s.SessionID, s.State)
}

// collectSymptoms merges new symptom tokens and re-runs the matcher. When
// amendment is set the message arrived in a later state and only
// vocabulary tokens are merged.
func (e *DefaultEngine) collectSymptoms(ctx context.Context, s *models.IntakeSession, text string, amendment bool) (*models.ChatReply, error) {
	tokens := matching.Tokenize(text)
	if amendment {
		tokens = intersectsVocab(tokens, e.Vocab)
	}
	s.AddSymptoms(tokens)

	ranked, err := e.Matcher.Match(ctx, s.Symptoms)
	if err != nil {
		return nil, err
	}

	if len(ranked) == 0 {
		s.ClarifyingTurns++
		if s.ClarifyingTurns < e.MaxClarifyingTurns {
			s.State = models.StateCollectingSymptoms
			return &models.ChatReply{Reply: clarifyingReply(s.ClarifyingTurns)}, nil
		}
		// Clarifying budget exhausted: fall back to general practice.
		gps, err := e.Doctors.ListBySpecialty(ctx, models.GeneralPractice)
		if err != nil {
			return nil, err
		}
		if len(gps) == 0 {
			s.State = models.StateCollectingSymptoms
			return &models.ChatReply{Reply: noDoctorsReply()}, nil
		}
		for _, d := range gps {
			ranked = append(ranked, models.RankedDoctor{
				DoctorID: d.ID, Name: d.Name, Specialty: d.Specialty,
			})
		}
		s.State = models.StateRecommending
		s.CandidateDoctors = doctorIDs(ranked)
		return &models.ChatReply{Reply: recommendReply(ranked, true), CandidateDoctors: ranked}, nil
	}

	s.State = models.StateRecommending
	s.CandidateDoctors = doctorIDs(ranked)
	return &models.ChatReply{Reply: recommendReply(ranked, false), CandidateDoctors: ranked}, nil
}

// selectDoctor moves the session to slot selection and offers availability.
func (e *DefaultEngine) selectDoctor(ctx context.Context, s *models.IntakeSession, doctorID, lead string) (*models.ChatReply, error) {
	doctor, err := e.Doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return &models.ChatReply{Reply: noDoctorsReply()}, nil
	}

	s.SelectedDoctorID = doctorID
	s.State = models.StateSelectingSlot

	slots, err := e.Coordinator.Availability(ctx, doctor, e.now(), e.WindowDays)
	if err != nil {
		return nil, err
	}
	return &models.ChatReply{
		Reply:          availabilityReply(doctor, slots, lead),
		AvailableSlots: slots,
	}, nil
}

// holdSlot attempts the reservation for the selected doctor.
func (e *DefaultEngine) holdSlot(ctx context.Context, s *models.IntakeSession, date string, start int) (*models.ChatReply, error) {
	if s.SelectedDoctorID == "" {
		return e.reofferAvailability(ctx, s, "Pick a doctor first, then a slot.")
	}
	doctor, err := e.Doctors.GetByID(ctx, s.SelectedDoctorID)
	if err != nil {
		return nil, err
	}

	pb, err := e.Coordinator.RequestHold(ctx, s, s.SelectedDoctorID, date, start)
	if err != nil {
		switch booking.KindOf(err) {
		case booking.KindConflict:
			// The slot went to someone else between listing and choosing.
			// Re-offer fresh availability; the patient must confirm a new
			// choice, never get silently rebooked.
			return e.reofferAvailability(ctx, s, "That slot was just taken.")
		case booking.KindValidation, booking.KindNotFound:
			return e.reofferAvailability(ctx, s, bookingMessage(err))
		default:
			return nil, err
		}
	}

	s.State = models.StateAwaitingConfirmation
	return &models.ChatReply{Reply: holdPlacedReply(pb, doctor)}, nil
}

// confirmFromChat finalizes the booking from a confirmation message.
func (e *DefaultEngine) confirmFromChat(ctx context.Context, s *models.IntakeSession, name string) (*models.ChatReply, error) {
	if name == "" {
		return &models.ChatReply{Reply: askNameReply()}, nil
	}

	appt, err := e.Coordinator.ConfirmBooking(ctx, s, models.PatientInfo{Name: name})
	if err != nil {
		switch booking.KindOf(err) {
		case booking.KindExpired:
			s.State = models.StateSelectingSlot
			return e.reofferAvailability(ctx, s, "Sorry, that reservation expired before you confirmed.")
		case booking.KindConflict:
			s.State = models.StateSelectingSlot
			return e.reofferAvailability(ctx, s, "Sorry, that slot was taken in the meantime.")
		case booking.KindValidation, booking.KindState:
			return &models.ChatReply{Reply: askNameReply()}, nil
		default:
			return nil, err
		}
	}

	s.State = models.StateBooked
	return &models.ChatReply{Reply: bookedReply(appt), Booking: appt}, nil
}

// reofferAvailability re-queries free slots for the selected doctor and
// keeps the session in SELECTING_SLOT.
func (e *DefaultEngine) reofferAvailability(ctx context.Context, s *models.IntakeSession, lead string) (*models.ChatReply, error) {
	s.State = models.StateSelectingSlot
	doctor, err := e.Doctors.GetByID(ctx, s.SelectedDoctorID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return &models.ChatReply{Reply: noDoctorsReply()}, nil
	}
	slots, err := e.Coordinator.Availability(ctx, doctor, e.now(), e.WindowDays)
	if err != nil {
		return nil, err
	}
	return &models.ChatReply{
		Reply:          availabilityReply(doctor, slots, lead),
		AvailableSlots: slots,
	}, nil
}

// RequestHold implements the direct hold endpoint.
func (e *DefaultEngine) RequestHold(ctx context.Context, sessionID, doctorID, date, clock string) (*models.HoldResult, error) {
	start, err := models.ParseClock(clock)
	if err != nil {
		return nil, booking.NewValidationError("%v", err)
	}

	unlock := e.locks.lock(sessionID)
	defer unlock()

	s, err := e.loadActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pb, err := e.Coordinator.RequestHold(ctx, s, doctorID, date, start)
	if err != nil {
		if booking.IsKind(err, booking.KindConflict) && s.State == models.StateAwaitingConfirmation {
			// The prior hold was released above; fall back to slot selection.
			s.State = models.StateSelectingSlot
			if perr := e.Sessions.Put(ctx, s); perr != nil {
				return nil, perr
			}
		}
		return nil, err
	}

	s.SelectedDoctorID = doctorID
	s.State = models.StateAwaitingConfirmation
	s.LastActiveAt = e.now()
	if err := e.Sessions.Put(ctx, s); err != nil {
		return nil, err
	}
	return &models.HoldResult{
		Status:    "HELD",
		ExpiresAt: pb.ExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

// ConfirmAppointment implements the direct confirmation endpoint.
func (e *DefaultEngine) ConfirmAppointment(ctx context.Context, sessionID string, info models.PatientInfo) (*models.Appointment, error) {
	unlock := e.locks.lock(sessionID)
	defer unlock()

	s, err := e.loadActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.PendingBooking == nil {
		return nil, booking.NewStateError("session %s has no pending hold", sessionID)
	}

	appt, err := e.Coordinator.ConfirmBooking(ctx, s, info)
	if err != nil {
		kind := booking.KindOf(err)
		if kind == booking.KindExpired || kind == booking.KindConflict {
			s.State = models.StateSelectingSlot
			s.LastActiveAt = e.now()
			if perr := e.Sessions.Put(ctx, s); perr != nil {
				return nil, perr
			}
		}
		return nil, err
	}

	s.State = models.StateBooked
	s.LastActiveAt = e.now()
	if err := e.Sessions.Put(ctx, s); err != nil {
		return nil, err
	}
	return appt, nil
}

// GetSession implements Engine.
func (e *DefaultEngine) GetSession(ctx context.Context, sessionID string) (*models.IntakeSession, error) {
	return e.Sessions.Get(ctx, sessionID)
}

// loadActive fetches a session and rejects booking actions on expired or
// terminal sessions.
func (e *DefaultEngine) loadActive(ctx context.Context, sessionID string) (*models.IntakeSession, error) {
	s, err := e.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, booking.NewNotFoundError("unknown session %s", sessionID)
	}
	if !s.State.Terminal() && s.IdleFor(e.IdleTimeout, e.now()) {
		if err := e.abandonLocked(ctx, s); err != nil {
			return nil, err
		}
		if err := e.Sessions.Put(ctx, s); err != nil {
			return nil, err
		}
	}
	if s.State.Terminal() {
		return nil, booking.NewStateError("session %s is %s and read-only", sessionID, s.State)
	}
	return s, nil
}

// abandonLocked releases any pending hold and marks the session abandoned.
// Caller holds the session lock and owns persistence.
func (e *DefaultEngine) abandonLocked(ctx context.Context, s *models.IntakeSession) error {
	if err := e.Coordinator.CancelHold(ctx, s); err != nil {
		return err
	}
	s.State = models.StateAbandoned
	e.log().Info("session abandoned after idle timeout", zap.String("sessionId", s.SessionID))
	return nil
}

// AbandonIdle implements the sweeper entry point.
func (e *DefaultEngine) AbandonIdle(ctx context.Context) (int, error) {
	cutoff := e.now().Add(-e.IdleTimeout)
	idle, err := e.Sessions.ListIdle(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range idle {
		s := &idle[i]
		unlock := e.locks.lock(s.SessionID)
		// Re-read under the lock; the session may have woken up.
		current, err := e.Sessions.Get(ctx, s.SessionID)
		if err != nil {
			unlock()
			return count, err
		}
		if current == nil || current.State.Terminal() || !current.IdleFor(e.IdleTimeout, e.now()) {
			unlock()
			continue
		}
		if err := e.abandonLocked(ctx, current); err != nil {
			unlock()
			return count, err
		}
		if err := e.Sessions.Put(ctx, current); err != nil {
			unlock()
			return count, err
		}
		count++
		unlock()
	}
	return count, nil
}

// bookingMessage extracts the human-readable part of a typed booking error.
func bookingMessage(err error) string {
	var be *booking.Error
	if errors.As(err, &be) {
		return be.Message + "."
	}
	return "That didn't work."
}

func doctorIDs(ranked []models.RankedDoctor) []string {
	ids := make([]string, 0, len(ranked))
	for _, d := range ranked {
		ids = append(ids, d.DoctorID)
	}
	return ids
}
