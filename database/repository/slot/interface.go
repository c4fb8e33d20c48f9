package slotRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mediq/models"
)

// Sentinel errors for slot state transitions. Callers distinguish these from
// storage failures, which are returned as-is.
var (
	// ErrHoldExpired means the caller's hold lapsed (or never existed) by the
	// time confirmation ran.
	ErrHoldExpired = errors.New("hold expired")
	// ErrNotHeld means a release found no live hold owned by the caller.
	ErrNotHeld = errors.New("slot not held by session")
)

// ConflictError reports that a hold or confirm lost to another session. It
// names the status the slot had at the time of the attempt.
type ConflictError struct {
	Status models.SlotStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot unavailable: currently %s", e.Status)
}

// IsConflict reports whether err is a slot conflict.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// SlotRepository is the single source of truth for slot reservations.
// TryHold and Confirm on the same (doctor, date, start) key are linearizable:
// implementations use a single atomic conditional update scoped to that key.
type SlotRepository interface {
	// TryHold transitions FREE -> HELD for sessionID, treating an expired
	// hold as FREE. Returns ConflictError if another session holds or booked
	// the slot.
	TryHold(ctx context.Context, doctorID, date string, start int, sessionID string, ttl time.Duration) (*models.AppointmentSlot, error)

	// Confirm transitions HELD -> BOOKED, but only for the session owning an
	// unexpired hold. Returns ErrHoldExpired if the hold lapsed or the row
	// reverted to FREE, ConflictError if another session owns the slot.
	Confirm(ctx context.Context, doctorID, date string, start int, sessionID, patientName, notes string) (*models.AppointmentSlot, error)

	// Release transitions HELD -> FREE for the owning session. Returns
	// ErrNotHeld when there is nothing to release; that is a no-op, not a
	// failure.
	Release(ctx context.Context, doctorID, date string, start int, sessionID string) error

	// Get fetches the slot row, if one has materialized.
	Get(ctx context.Context, doctorID, date string, start int) (*models.AppointmentSlot, error)

	// ListTaken returns the rows that make a slot unavailable on the given
	// dates: BOOKED rows plus HELD rows whose hold is still live.
	ListTaken(ctx context.Context, doctorID string, dates []string) ([]models.AppointmentSlot, error)

	// CountBooked counts BOOKED slots for a doctor across the given dates.
	// Used as the load-balancing snapshot for matcher tie-breaks.
	CountBooked(ctx context.Context, doctorID string, dates []string) (int64, error)

	// ReleaseExpired flips HELD rows whose hold lapsed back to FREE. Lazy
	// expiry in TryHold/Confirm keeps correctness without this; the sweeper
	// calls it so availability listings stay tidy.
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)
}
