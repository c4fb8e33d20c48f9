package models

import "time"

// Specialty is a doctor's medical domain, the target of symptom matching.
type Specialty string

const (
	GeneralPractice  Specialty = "general_practice"
	Neurology        Specialty = "neurology"
	Cardiology       Specialty = "cardiology"
	Dermatology      Specialty = "dermatology"
	Gastroenterology Specialty = "gastroenterology"
	Orthopedics      Specialty = "orthopedics"
	Pulmonology      Specialty = "pulmonology"
	Pediatrics       Specialty = "pediatrics"
	ENT              Specialty = "ent"
)

// WorkingWindow is a recurring weekly availability window.
// Start and End are minutes from midnight (e.g., 540 for 9:00 AM).
type WorkingWindow struct {
	Weekday time.Weekday `bson:"weekday" json:"weekday"`
	Start   int          `bson:"start" json:"start"`
	End     int          `bson:"end" json:"end"`
}

// Doctor is a bookable provider. Owned by the admin subsystem; the intake
// engine treats it as read-only reference data.
type Doctor struct {
	ID               string          `bson:"id" json:"id"`
	Name             string          `bson:"name" json:"name"`
	Specialty        Specialty       `bson:"specialty" json:"specialty"`
	WorkingHours     []WorkingWindow `bson:"workingHours" json:"workingHours"`
	SlotDurationMins int             `bson:"slotDurationMins" json:"slotDurationMins"`
}

// CoversSlot reports whether a slot starting at start minutes on the given
// day falls inside one of the doctor's working windows.
func (d *Doctor) CoversSlot(day time.Time, start int) bool {
	for _, w := range d.WorkingHours {
		if w.Weekday != day.Weekday() {
			continue
		}
		if start >= w.Start && start+d.SlotDurationMins <= w.End {
			return true
		}
	}
	return false
}

// SlotTicks returns the slot start offsets for the given day, aligned to the
// doctor's slot granularity.
func (d *Doctor) SlotTicks(day time.Time) []int {
	if d.SlotDurationMins <= 0 {
		return nil
	}
	var ticks []int
	for _, w := range d.WorkingHours {
		if w.Weekday != day.Weekday() {
			continue
		}
		for t := w.Start; t+d.SlotDurationMins <= w.End; t += d.SlotDurationMins {
			ticks = append(ticks, t)
		}
	}
	return ticks
}
