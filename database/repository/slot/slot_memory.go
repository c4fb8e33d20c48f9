package slotRepo

import (
	"context"
	"sync"
	"time"

	"mediq/models"
)

// slotEntry pairs a slot row with its own mutex so transitions on one slot
// key never serialize against unrelated keys.
type slotEntry struct {
	mu   sync.Mutex
	slot models.AppointmentSlot
}

// MemorySlotRepo is an in-process SlotRepository with the same transition
// semantics as the Mongo implementation. It backs tests and local runs
// without a database.
type MemorySlotRepo struct {
	entries sync.Map // models.SlotKey -> *slotEntry
	nowFn   func() time.Time
}

// NewMemorySlotRepo constructs an empty in-memory slot store.
func NewMemorySlotRepo() *MemorySlotRepo {
	return &MemorySlotRepo{nowFn: time.Now}
}

// SetClock overrides the repository clock. Test hook.
func (r *MemorySlotRepo) SetClock(now func() time.Time) {
	r.nowFn = now
}

func (r *MemorySlotRepo) entry(doctorID, date string, start int) *slotEntry {
	key := models.SlotKey(doctorID, date, start)
	e := &slotEntry{slot: models.AppointmentSlot{
		DoctorID: doctorID,
		Date:     date,
		Start:    start,
		Status:   models.SlotFree,
	}}
	actual, _ := r.entries.LoadOrStore(key, e)
	return actual.(*slotEntry)
}

func (r *MemorySlotRepo) TryHold(_ context.Context, doctorID, date string, start int, sessionID string, ttl time.Duration) (*models.AppointmentSlot, error) {
	now := r.nowFn().UTC()
	e := r.entry(doctorID, date, start)
	e.mu.Lock()
	defer e.mu.Unlock()

	claimable := e.slot.Status == models.SlotFree ||
		(e.slot.Status == models.SlotHeld && !now.Before(e.slot.HoldExpiresAt))
	if !claimable {
		return nil, &ConflictError{Status: e.slot.Status}
	}
	e.slot.Status = models.SlotHeld
	e.slot.HeldBySessionID = sessionID
	e.slot.HoldExpiresAt = now.Add(ttl)
	e.slot.UpdatedAt = now
	out := e.slot
	return &out, nil
}

func (r *MemorySlotRepo) Confirm(_ context.Context, doctorID, date string, start int, sessionID, patientName, notes string) (*models.AppointmentSlot, error) {
	now := r.nowFn().UTC()
	e := r.entry(doctorID, date, start)
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.slot.Status {
	case models.SlotFree:
		return nil, ErrHoldExpired
	case models.SlotBooked:
		return nil, &ConflictError{Status: models.SlotBooked}
	}
	if e.slot.HeldBySessionID != sessionID {
		return nil, &ConflictError{Status: models.SlotHeld}
	}
	if !now.Before(e.slot.HoldExpiresAt) {
		return nil, ErrHoldExpired
	}
	e.slot.Status = models.SlotBooked
	e.slot.BookedPatientName = patientName
	e.slot.Notes = notes
	e.slot.HeldBySessionID = ""
	e.slot.HoldExpiresAt = time.Time{}
	e.slot.UpdatedAt = now
	out := e.slot
	return &out, nil
}

func (r *MemorySlotRepo) Release(_ context.Context, doctorID, date string, start int, sessionID string) error {
	now := r.nowFn().UTC()
	e := r.entry(doctorID, date, start)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.slot.Status != models.SlotHeld || e.slot.HeldBySessionID != sessionID {
		return ErrNotHeld
	}
	e.slot.Status = models.SlotFree
	e.slot.HeldBySessionID = ""
	e.slot.HoldExpiresAt = time.Time{}
	e.slot.UpdatedAt = now
	return nil
}

func (r *MemorySlotRepo) Get(_ context.Context, doctorID, date string, start int) (*models.AppointmentSlot, error) {
	key := models.SlotKey(doctorID, date, start)
	v, ok := r.entries.Load(key)
	if !ok {
		return nil, nil
	}
	e := v.(*slotEntry)
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.slot
	return &out, nil
}

func (r *MemorySlotRepo) ListTaken(_ context.Context, doctorID string, dates []string) ([]models.AppointmentSlot, error) {
	now := r.nowFn().UTC()
	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d] = true
	}

	var taken []models.AppointmentSlot
	r.entries.Range(func(_, v any) bool {
		e := v.(*slotEntry)
		e.mu.Lock()
		s := e.slot
		e.mu.Unlock()
		if s.DoctorID != doctorID || !wanted[s.Date] {
			return true
		}
		if s.Status == models.SlotBooked || s.HoldLive(now) {
			taken = append(taken, s)
		}
		return true
	})
	return taken, nil
}

func (r *MemorySlotRepo) CountBooked(_ context.Context, doctorID string, dates []string) (int64, error) {
	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d] = true
	}

	var n int64
	r.entries.Range(func(_, v any) bool {
		e := v.(*slotEntry)
		e.mu.Lock()
		s := e.slot
		e.mu.Unlock()
		if s.DoctorID == doctorID && wanted[s.Date] && s.Status == models.SlotBooked {
			n++
		}
		return true
	})
	return n, nil
}

func (r *MemorySlotRepo) ReleaseExpired(_ context.Context, now time.Time) (int64, error) {
	now = now.UTC()
	var n int64
	r.entries.Range(func(_, v any) bool {
		e := v.(*slotEntry)
		e.mu.Lock()
		if e.slot.Status == models.SlotHeld && !now.Before(e.slot.HoldExpiresAt) {
			e.slot.Status = models.SlotFree
			e.slot.HeldBySessionID = ""
			e.slot.HoldExpiresAt = time.Time{}
			e.slot.UpdatedAt = now
			n++
		}
		e.mu.Unlock()
		return true
	})
	return n, nil
}
