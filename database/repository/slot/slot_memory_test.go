package slotRepo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"mediq/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTryHoldExactlyOneWinner(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	results := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 540, fmt.Sprintf("session-%d", i), 5*time.Minute)
			results[i] = err
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range results {
		if err == nil {
			winners++
			continue
		}
		if !IsConflict(err) {
			t.Fatalf("worker %d: want ConflictError, got %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("want exactly 1 winning hold, got %d", winners)
	}

	slot, err := repo.Get(ctx, "doc-1", "2026-01-05", 540)
	if err != nil {
		t.Fatal(err)
	}
	if slot == nil || slot.Status != models.SlotHeld {
		t.Fatalf("want slot HELD after race, got %+v", slot)
	}
}

func TestTryHoldReclaimsExpiredHold(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	repo.SetClock(fixedClock(start))

	if _, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 540, "sess-1", 5*time.Minute); err != nil {
		t.Fatalf("first hold: %v", err)
	}

	// Still live: second session must lose.
	repo.SetClock(fixedClock(start.Add(4 * time.Minute)))
	if _, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 540, "sess-2", 5*time.Minute); !IsConflict(err) {
		t.Fatalf("want conflict against live hold, got %v", err)
	}

	// Lapsed: the slot is claimable again without any sweeper running.
	repo.SetClock(fixedClock(start.Add(6 * time.Minute)))
	slot, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 540, "sess-2", 5*time.Minute)
	if err != nil {
		t.Fatalf("hold after expiry: %v", err)
	}
	if slot.HeldBySessionID != "sess-2" {
		t.Fatalf("want hold owned by sess-2, got %q", slot.HeldBySessionID)
	}

	// The original session's confirm must not steal the slot back.
	if _, err := repo.Confirm(ctx, "doc-1", "2026-01-05", 540, "sess-1", "Jane Doe", ""); !IsConflict(err) {
		t.Fatalf("want conflict for stale owner, got %v", err)
	}
}

func TestConfirmLifecycle(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	repo.SetClock(fixedClock(start))

	if _, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 600, "sess-1", 5*time.Minute); err != nil {
		t.Fatalf("hold: %v", err)
	}
	slot, err := repo.Confirm(ctx, "doc-1", "2026-01-05", 600, "sess-1", "Jane Doe", "first visit")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if slot.Status != models.SlotBooked || slot.BookedPatientName != "Jane Doe" {
		t.Fatalf("want BOOKED for Jane Doe, got %+v", slot)
	}
	if slot.HeldBySessionID != "" {
		t.Fatalf("booked slot should drop hold owner, got %q", slot.HeldBySessionID)
	}

	// Booked is final: no hold, no second confirm, no release.
	if _, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 600, "sess-2", 5*time.Minute); !IsConflict(err) {
		t.Fatalf("want conflict holding booked slot, got %v", err)
	}
	if _, err := repo.Confirm(ctx, "doc-1", "2026-01-05", 600, "sess-1", "Jane Doe", ""); !IsConflict(err) {
		t.Fatalf("want conflict re-confirming booked slot, got %v", err)
	}
	if err := repo.Release(ctx, "doc-1", "2026-01-05", 600, "sess-1"); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("want ErrNotHeld releasing booked slot, got %v", err)
	}
}

func TestConfirmExpiredHold(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	repo.SetClock(fixedClock(start))

	if _, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 540, "sess-1", 5*time.Minute); err != nil {
		t.Fatalf("hold: %v", err)
	}

	repo.SetClock(fixedClock(start.Add(10 * time.Minute)))
	if _, err := repo.Confirm(ctx, "doc-1", "2026-01-05", 540, "sess-1", "Jane Doe", ""); !errors.Is(err, ErrHoldExpired) {
		t.Fatalf("want ErrHoldExpired, got %v", err)
	}
}

func TestReleaseRequiresOwner(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()

	if _, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 540, "sess-1", 5*time.Minute); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := repo.Release(ctx, "doc-1", "2026-01-05", 540, "sess-2"); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("want ErrNotHeld for non-owner, got %v", err)
	}
	if err := repo.Release(ctx, "doc-1", "2026-01-05", 540, "sess-1"); err != nil {
		t.Fatalf("owner release: %v", err)
	}

	slot, err := repo.Get(ctx, "doc-1", "2026-01-05", 540)
	if err != nil {
		t.Fatal(err)
	}
	if slot.Status != models.SlotFree {
		t.Fatalf("want FREE after release, got %s", slot.Status)
	}
}

func TestListTakenSkipsExpiredHolds(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	repo.SetClock(fixedClock(start))

	if _, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 540, "sess-1", 5*time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 600, "sess-2", time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 660, "sess-3", time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Confirm(ctx, "doc-1", "2026-01-05", 660, "sess-3", "Sam Okafor", ""); err != nil {
		t.Fatal(err)
	}

	// Ten minutes later the 540 hold has lapsed; it must not block listings.
	repo.SetClock(fixedClock(start.Add(10 * time.Minute)))
	taken, err := repo.ListTaken(ctx, "doc-1", []string{"2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	got := make(map[int]models.SlotStatus, len(taken))
	for _, s := range taken {
		got[s.Start] = s.Status
	}
	if len(got) != 2 || got[600] != models.SlotHeld || got[660] != models.SlotBooked {
		t.Fatalf("want live hold at 600 and booking at 660, got %v", got)
	}

	n, err := repo.CountBooked(ctx, "doc-1", []string{"2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 booked, got %d", n)
	}
}

func TestReleaseExpiredSweep(t *testing.T) {
	repo := NewMemorySlotRepo()
	ctx := context.Background()
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	repo.SetClock(fixedClock(start))

	if _, err := repo.TryHold(ctx, "doc-1", "2026-01-05", 540, "sess-1", 5*time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.TryHold(ctx, "doc-2", "2026-01-05", 540, "sess-2", time.Hour); err != nil {
		t.Fatal(err)
	}

	n, err := repo.ReleaseExpired(ctx, start.Add(10*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("want 1 swept hold, got %d", n)
	}

	slot, _ := repo.Get(ctx, "doc-1", "2026-01-05", 540)
	if slot.Status != models.SlotFree {
		t.Fatalf("want swept slot FREE, got %s", slot.Status)
	}
	slot, _ = repo.Get(ctx, "doc-2", "2026-01-05", 540)
	if slot.Status != models.SlotHeld {
		t.Fatalf("live hold must survive the sweep, got %s", slot.Status)
	}
}
