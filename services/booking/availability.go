package booking

import (
	"context"
	"fmt"
	"time"

	"mediq/models"
)

// Availability expands a doctor's working hours over the booking window
// starting at from and subtracts booked and live-held slots. Slots in the
// past are never offered.
func (c *DefaultCoordinator) Availability(ctx context.Context, doctor *models.Doctor, from time.Time, days int) ([]models.AvailableSlot, error) {
	if days <= 0 {
		days = 7
	}

	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, from.AddDate(0, 0, i).Format("2006-01-02"))
	}

	taken, err := c.SlotRepo.ListTaken(ctx, doctor.ID, dates)
	if err != nil {
		return nil, fmt.Errorf("failed to list taken slots: %w", err)
	}
	unavailable := make(map[string]bool, len(taken))
	for _, t := range taken {
		unavailable[models.SlotKey(t.DoctorID, t.Date, t.Start)] = true
	}

	var available []models.AvailableSlot
	for i := 0; i < days; i++ {
		day := from.AddDate(0, 0, i)
		dayStr := dates[i]
		dayMidnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

		for _, tick := range doctor.SlotTicks(day) {
			// Skip slots that already started.
			if dayMidnight.Add(time.Duration(tick) * time.Minute).Before(from) {
				continue
			}
			if unavailable[models.SlotKey(doctor.ID, dayStr, tick)] {
				continue
			}
			available = append(available, models.AvailableSlot{
				DoctorID: doctor.ID,
				Date:     dayStr,
				Start:    tick,
				End:      tick + doctor.SlotDurationMins,
				Time:     models.FormatClock(tick),
			})
		}
	}
	return available, nil
}
