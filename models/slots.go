package models

import (
	"fmt"
	"time"
)

// SlotStatus is the lifecycle state of an appointment slot row.
type SlotStatus string

const (
	SlotFree   SlotStatus = "FREE"
	SlotHeld   SlotStatus = "HELD"
	SlotBooked SlotStatus = "BOOKED"
)

// AppointmentSlot is one bookable (doctor, date, time) unit. A row
// materializes only once the slot is first held or booked; an absent row
// means FREE.
type AppointmentSlot struct {
	DoctorID          string     `bson:"doctorId" json:"doctorId"`
	Date              string     `bson:"date" json:"date"` // "2006-01-02"
	Start             int        `bson:"start" json:"start"`
	Status            SlotStatus `bson:"status" json:"status"`
	HeldBySessionID   string     `bson:"heldBySessionId,omitempty" json:"heldBySessionId,omitempty"`
	HoldExpiresAt     time.Time  `bson:"holdExpiresAt,omitempty" json:"holdExpiresAt,omitempty"`
	BookedPatientName string     `bson:"bookedPatientName,omitempty" json:"bookedPatientName,omitempty"`
	Notes             string     `bson:"notes,omitempty" json:"notes,omitempty"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// HoldLive reports whether the slot carries an unexpired hold.
func (s *AppointmentSlot) HoldLive(now time.Time) bool {
	return s.Status == SlotHeld && now.Before(s.HoldExpiresAt)
}

// AvailableSlot is the free-slot view returned to patients.
type AvailableSlot struct {
	DoctorID string `json:"doctorId"`
	Date     string `json:"date"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Time     string `json:"time"` // "15:04" rendering of Start
}

// SlotKey identifies a slot uniquely across the store.
func SlotKey(doctorID, date string, start int) string {
	return fmt.Sprintf("%s|%s|%d", doctorID, date, start)
}

// ParseClock converts an "HH:MM" string to minutes from midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

// ParseDay parses a "2006-01-02" date string in the given location.
func ParseDay(date string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return d, nil
}
