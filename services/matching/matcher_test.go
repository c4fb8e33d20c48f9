package matching

import (
	"context"
	"reflect"
	"testing"
	"time"

	slotRepo "mediq/database/repository/slot"
	"mediq/models"
)

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

func newTestMatcher(doctors []models.Doctor, slots *slotRepo.MemorySlotRepo) *DefaultMatcher {
	return &DefaultMatcher{
		DoctorRepo: &fakeDoctorRepo{doctors: doctors},
		SlotRepo:   slots,
		Rules:      DefaultRules(),
		WindowDays: 7,
		Now:        func() time.Time { return time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC) },
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("I have a headache, and I feel very dizzy!")
	want := []string{"dizzy", "headache"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize: want %v, got %v", want, got)
	}

	if toks := Tokenize("   "); len(toks) != 0 {
		t.Fatalf("blank input should tokenize to nothing, got %v", toks)
	}
}

func TestMatchHeadacheAndDizzyScoresNeurologyOnce(t *testing.T) {
	doctors := []models.Doctor{
		{ID: "doc-neuro-1", Name: "Asha Rao", Specialty: models.Neurology},
	}
	m := newTestMatcher(doctors, slotRepo.NewMemorySlotRepo())

	// "headache" and "dizzy" hit the same rule; its weight counts once.
	ranked, err := m.Match(context.Background(), Tokenize("I have a headache and feel dizzy"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 1 {
		t.Fatalf("want 1 candidate, got %d", len(ranked))
	}
	if ranked[0].DoctorID != "doc-neuro-1" || ranked[0].Score != 5 {
		t.Fatalf("want doc-neuro-1 with score 5, got %+v", ranked[0])
	}
}

func TestMatchAccumulatesAcrossRules(t *testing.T) {
	doctors := []models.Doctor{
		{ID: "doc-neuro-1", Name: "Asha Rao", Specialty: models.Neurology},
	}
	m := newTestMatcher(doctors, slotRepo.NewMemorySlotRepo())

	// "headache" (weight 5) and "tremor" (weight 6) are separate neurology
	// rules, so their weights add.
	ranked, err := m.Match(context.Background(), Tokenize("headache and a tremor"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 1 || ranked[0].Score != 11 {
		t.Fatalf("want score 11, got %+v", ranked)
	}
}

func TestMatchEmptyAndUnmatchedTokens(t *testing.T) {
	m := newTestMatcher(nil, slotRepo.NewMemorySlotRepo())

	ranked, err := m.Match(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 0 {
		t.Fatalf("empty tokens should yield no candidates, got %v", ranked)
	}

	ranked, err = m.Match(context.Background(), Tokenize("general malaise nothing specific"))
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 0 {
		t.Fatalf("no rule hit should yield no candidates, got %v", ranked)
	}
}

func TestMatchTieBreaksByLoadThenID(t *testing.T) {
	doctors := []models.Doctor{
		{ID: "doc-neuro-1", Name: "Asha Rao", Specialty: models.Neurology},
		{ID: "doc-neuro-2", Name: "Ben Odhiambo", Specialty: models.Neurology},
		{ID: "doc-neuro-3", Name: "Carla Mendes", Specialty: models.Neurology},
	}
	slots := slotRepo.NewMemorySlotRepo()
	ctx := context.Background()

	// doc-neuro-1 carries one booking inside the load window.
	if _, err := slots.TryHold(ctx, "doc-neuro-1", "2026-01-06", 540, "sess-x", time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := slots.Confirm(ctx, "doc-neuro-1", "2026-01-06", 540, "sess-x", "Jane Doe", ""); err != nil {
		t.Fatal(err)
	}

	m := newTestMatcher(doctors, slots)
	ranked, err := m.Match(ctx, Tokenize("migraine"))
	if err != nil {
		t.Fatal(err)
	}

	got := make([]string, 0, len(ranked))
	for _, r := range ranked {
		got = append(got, r.DoctorID)
	}
	// Equal scores: the unloaded doctors come first, ordered by id.
	want := []string{"doc-neuro-2", "doc-neuro-3", "doc-neuro-1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want order %v, got %v", want, got)
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	doctors := []models.Doctor{
		{ID: "doc-gp-1", Name: "Dan Osei", Specialty: models.GeneralPractice},
		{ID: "doc-neuro-1", Name: "Asha Rao", Specialty: models.Neurology},
		{ID: "doc-neuro-2", Name: "Ben Odhiambo", Specialty: models.Neurology},
	}
	m := newTestMatcher(doctors, slotRepo.NewMemorySlotRepo())
	tokens := Tokenize("fever with a bad headache")

	first, err := m.Match(context.Background(), tokens)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := m.Match(context.Background(), tokens)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged: %v vs %v", i, first, again)
		}
	}
	// Neurology (5) outranks general practice (2).
	if first[0].Specialty != models.Neurology {
		t.Fatalf("want neurology ranked first, got %+v", first[0])
	}
}
