package booking

import (
	"context"
	"testing"
	"time"

	slotRepo "mediq/database/repository/slot"
	"mediq/models"
)

// testNow is a Monday morning; the test doctor works Mondays 09:00-17:00.
var testNow = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

type fakeDoctorRepo struct {
	doctors []models.Doctor
}

func (f *fakeDoctorRepo) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	for i := range f.doctors {
		if f.doctors[i].ID == id {
			d := f.doctors[i]
			return &d, nil
		}
	}
	return nil, nil
}

func (f *fakeDoctorRepo) ListBySpecialty(_ context.Context, s models.Specialty) ([]models.Doctor, error) {
	var out []models.Doctor
	for _, d := range f.doctors {
		if d.Specialty == s {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDoctorRepo) ListAll(_ context.Context) ([]models.Doctor, error) {
	return append([]models.Doctor(nil), f.doctors...), nil
}

type fakeAppointmentRepo struct {
	created []models.Appointment
}

func (f *fakeAppointmentRepo) Create(_ context.Context, a *models.Appointment) error {
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeAppointmentRepo) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	for i := range f.created {
		if f.created[i].ID == id {
			a := f.created[i]
			return &a, nil
		}
	}
	return nil, nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, doctorID, date string) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range f.created {
		if (doctorID == "" || a.DoctorID == doctorID) && (date == "" || a.Date == date) {
			out = append(out, a)
		}
	}
	return out, nil
}

type captureEmitter struct {
	confirmed []string
	placed    []string
	released  []string
}

func (c *captureEmitter) BookingConfirmed(_ context.Context, a *models.Appointment) {
	c.confirmed = append(c.confirmed, a.ID)
}

func (c *captureEmitter) HoldPlaced(_ context.Context, sessionID string, _ *models.PendingBooking) {
	c.placed = append(c.placed, sessionID)
}

func (c *captureEmitter) HoldReleased(_ context.Context, sessionID string, _ *models.PendingBooking) {
	c.released = append(c.released, sessionID)
}

func testDoctor() models.Doctor {
	return models.Doctor{
		ID:        "doc-neuro-1",
		Name:      "Asha Rao",
		Specialty: models.Neurology,
		WorkingHours: []models.WorkingWindow{
			{Weekday: time.Monday, Start: 540, End: 1020},
		},
		SlotDurationMins: 30,
	}
}

type coordFixture struct {
	coord *DefaultCoordinator
	slots *slotRepo.MemorySlotRepo
	appts *fakeAppointmentRepo
	ev    *captureEmitter
	now   time.Time
}

func newCoordFixture() *coordFixture {
	f := &coordFixture{
		slots: slotRepo.NewMemorySlotRepo(),
		appts: &fakeAppointmentRepo{},
		ev:    &captureEmitter{},
		now:   testNow,
	}
	f.slots.SetClock(func() time.Time { return f.now })
	f.coord = &DefaultCoordinator{
		SlotRepo:        f.slots,
		DoctorRepo:      &fakeDoctorRepo{doctors: []models.Doctor{testDoctor()}},
		AppointmentRepo: f.appts,
		Events:          f.ev,
		HoldTTL:         5 * time.Minute,
		Now:             func() time.Time { return f.now },
	}
	return f
}

func newSession(id string) *models.IntakeSession {
	return &models.IntakeSession{
		SessionID: id,
		State:     models.StateSelectingSlot,
		Symptoms:  []string{"headache"},
	}
}

func TestRequestHoldValidation(t *testing.T) {
	f := newCoordFixture()
	ctx := context.Background()
	s := newSession("sess-1")

	cases := []struct {
		name     string
		doctorID string
		date     string
		start    int
		kind     Kind
	}{
		{"unknown doctor", "doc-nope", "2026-01-05", 540, KindNotFound},
		{"bad date", "doc-neuro-1", "Jan 5th", 540, KindValidation},
		{"slot in the past", "doc-neuro-1", "2026-01-04", 540, KindValidation},
		{"outside working hours", "doc-neuro-1", "2026-01-05", 480, KindValidation},
		{"wrong weekday", "doc-neuro-1", "2026-01-06", 540, KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.coord.RequestHold(ctx, s, tc.doctorID, tc.date, tc.start)
			if KindOf(err) != tc.kind {
				t.Fatalf("want kind %q, got %v", tc.kind, err)
			}
		})
	}
	if s.PendingBooking != nil {
		t.Fatalf("failed holds must not leave a pending booking: %+v", s.PendingBooking)
	}
}

func TestRequestHoldSetsPendingBooking(t *testing.T) {
	f := newCoordFixture()
	ctx := context.Background()
	s := newSession("sess-1")

	pb, err := f.coord.RequestHold(ctx, s, "doc-neuro-1", "2026-01-05", 540)
	if err != nil {
		t.Fatal(err)
	}
	if pb.DoctorID != "doc-neuro-1" || pb.Date != "2026-01-05" || pb.Start != 540 {
		t.Fatalf("unexpected pending booking %+v", pb)
	}
	if want := f.now.Add(5 * time.Minute); !pb.ExpiresAt.Equal(want) {
		t.Fatalf("want expiry %v, got %v", want, pb.ExpiresAt)
	}
	if len(f.ev.placed) != 1 || f.ev.placed[0] != "sess-1" {
		t.Fatalf("want one hold-placed event for sess-1, got %v", f.ev.placed)
	}
}

func TestRequestHoldConflict(t *testing.T) {
	f := newCoordFixture()
	ctx := context.Background()

	other := newSession("sess-other")
	if _, err := f.coord.RequestHold(ctx, other, "doc-neuro-1", "2026-01-05", 540); err != nil {
		t.Fatal(err)
	}

	s := newSession("sess-1")
	_, err := f.coord.RequestHold(ctx, s, "doc-neuro-1", "2026-01-05", 540)
	if !IsKind(err, KindConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
}

func TestRequestHoldReleasesPriorHold(t *testing.T) {
	f := newCoordFixture()
	ctx := context.Background()
	s := newSession("sess-1")

	if _, err := f.coord.RequestHold(ctx, s, "doc-neuro-1", "2026-01-05", 540); err != nil {
		t.Fatal(err)
	}
	if _, err := f.coord.RequestHold(ctx, s, "doc-neuro-1", "2026-01-05", 600); err != nil {
		t.Fatal(err)
	}

	// The first slot must be claimable again by someone else.
	other := newSession("sess-2")
	if _, err := f.coord.RequestHold(ctx, other, "doc-neuro-1", "2026-01-05", 540); err != nil {
		t.Fatalf("prior hold was not released: %v", err)
	}
	if len(f.ev.released) != 1 || f.ev.released[0] != "sess-1" {
		t.Fatalf("want one hold-released event for sess-1, got %v", f.ev.released)
	}
}

func TestConfirmBookingHappyPath(t *testing.T) {
	f := newCoordFixture()
	ctx := context.Background()
	s := newSession("sess-1")

	if _, err := f.coord.RequestHold(ctx, s, "doc-neuro-1", "2026-01-05", 540); err != nil {
		t.Fatal(err)
	}
	appt, err := f.coord.ConfirmBooking(ctx, s, models.PatientInfo{Name: "Jane Doe", Notes: "first visit"})
	if err != nil {
		t.Fatal(err)
	}

	if appt.DoctorID != "doc-neuro-1" || appt.Date != "2026-01-05" || appt.Start != 540 || appt.End != 570 {
		t.Fatalf("unexpected appointment %+v", appt)
	}
	if appt.PatientName != "Jane Doe" || len(appt.Symptoms) != 1 || appt.Symptoms[0] != "headache" {
		t.Fatalf("appointment missing patient context: %+v", appt)
	}
	if s.PendingBooking != nil {
		t.Fatal("pending booking must clear after confirmation")
	}
	if len(f.appts.created) != 1 {
		t.Fatalf("want 1 appointment record, got %d", len(f.appts.created))
	}
	if len(f.ev.confirmed) != 1 || f.ev.confirmed[0] != appt.ID {
		t.Fatalf("want booking-confirmed event for %s, got %v", appt.ID, f.ev.confirmed)
	}

	slot, _ := f.slots.Get(ctx, "doc-neuro-1", "2026-01-05", 540)
	if slot.Status != models.SlotBooked {
		t.Fatalf("want slot BOOKED, got %s", slot.Status)
	}
}

func TestConfirmBookingGuards(t *testing.T) {
	f := newCoordFixture()
	ctx := context.Background()

	s := newSession("sess-1")
	if _, err := f.coord.ConfirmBooking(ctx, s, models.PatientInfo{Name: "Jane Doe"}); !IsKind(err, KindState) {
		t.Fatalf("no pending booking: want state error, got %v", err)
	}

	if _, err := f.coord.RequestHold(ctx, s, "doc-neuro-1", "2026-01-05", 540); err != nil {
		t.Fatal(err)
	}
	if _, err := f.coord.ConfirmBooking(ctx, s, models.PatientInfo{}); !IsKind(err, KindValidation) {
		t.Fatalf("missing name: want validation error, got %v", err)
	}
	if s.PendingBooking == nil {
		t.Fatal("validation failure must keep the hold")
	}
}

func TestConfirmBookingExpiredHold(t *testing.T) {
	f := newCoordFixture()
	ctx := context.Background()
	s := newSession("sess-1")

	if _, err := f.coord.RequestHold(ctx, s, "doc-neuro-1", "2026-01-05", 540); err != nil {
		t.Fatal(err)
	}

	f.now = f.now.Add(10 * time.Minute)
	_, err := f.coord.ConfirmBooking(ctx, s, models.PatientInfo{Name: "Jane Doe"})
	if !IsKind(err, KindExpired) {
		t.Fatalf("want expired error, got %v", err)
	}
	if s.PendingBooking != nil {
		t.Fatal("expired confirmation must clear the pending booking")
	}
	if len(f.appts.created) != 0 {
		t.Fatal("expired confirmation must not book anything")
	}
}

func TestCancelHoldIsIdempotent(t *testing.T) {
	f := newCoordFixture()
	ctx := context.Background()
	s := newSession("sess-1")

	if err := f.coord.CancelHold(ctx, s); err != nil {
		t.Fatalf("cancel with no hold must be a no-op, got %v", err)
	}

	if _, err := f.coord.RequestHold(ctx, s, "doc-neuro-1", "2026-01-05", 540); err != nil {
		t.Fatal(err)
	}
	if err := f.coord.CancelHold(ctx, s); err != nil {
		t.Fatal(err)
	}
	if err := f.coord.CancelHold(ctx, s); err != nil {
		t.Fatalf("second cancel must be a no-op, got %v", err)
	}

	slot, _ := f.slots.Get(ctx, "doc-neuro-1", "2026-01-05", 540)
	if slot.Status != models.SlotFree {
		t.Fatalf("want slot FREE after cancel, got %s", slot.Status)
	}
}

func TestAvailabilityExcludesTakenAndPastSlots(t *testing.T) {
	f := newCoordFixture()
	ctx := context.Background()
	doctor := testDoctor()

	// 09:00-17:00 at 30 minutes is 16 ticks on the working Monday.
	slots, err := f.coord.Availability(ctx, &doctor, f.now, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 16 {
		t.Fatalf("want 16 open slots, got %d", len(slots))
	}
	if slots[0].Start != 540 || slots[0].Time != "09:00" || slots[0].End != 570 {
		t.Fatalf("unexpected first slot %+v", slots[0])
	}

	// A live hold and a booking both disappear from the listing.
	s := newSession("sess-1")
	if _, err := f.coord.RequestHold(ctx, s, "doc-neuro-1", "2026-01-05", 540); err != nil {
		t.Fatal(err)
	}
	other := newSession("sess-2")
	if _, err := f.coord.RequestHold(ctx, other, "doc-neuro-1", "2026-01-05", 600); err != nil {
		t.Fatal(err)
	}
	if _, err := f.coord.ConfirmBooking(ctx, other, models.PatientInfo{Name: "Sam Okafor"}); err != nil {
		t.Fatal(err)
	}

	slots, err = f.coord.Availability(ctx, &doctor, f.now, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 14 {
		t.Fatalf("want 14 open slots after hold+booking, got %d", len(slots))
	}
	for _, sl := range slots {
		if sl.Start == 540 || sl.Start == 600 {
			t.Fatalf("taken slot still offered: %+v", sl)
		}
	}

	// Late in the day, already-started slots drop out.
	afternoon := time.Date(2026, 1, 5, 16, 10, 0, 0, time.UTC)
	slots, err = f.coord.Availability(ctx, &doctor, afternoon, 1)
	if err != nil {
		t.Fatal(err)
	}
	// Only 16:30 remains open today.
	if len(slots) != 1 || slots[0].Time != "16:30" {
		t.Fatalf("want only the 16:30 slot, got %+v", slots)
	}
}
