package models

import "time"

// Appointment is the durable record of a confirmed booking. This is the
// artifact the admin panel reads.
type Appointment struct {
	ID          string    `bson:"id" json:"id"`
	DoctorID    string    `bson:"doctorId" json:"doctorId"`
	SessionID   string    `bson:"sessionId" json:"sessionId"`
	PatientRef  string    `bson:"patientRef,omitempty" json:"patientRef,omitempty"`
	PatientName string    `bson:"patientName" json:"patientName"`
	Date        string    `bson:"date" json:"date"`
	Start       int       `bson:"start" json:"start"`
	End         int       `bson:"end" json:"end"`
	Symptoms    []string  `bson:"symptoms,omitempty" json:"symptoms,omitempty"` // snapshot at confirmation time
	Notes       string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// PatientInfo is what the patient supplies when confirming a booking.
type PatientInfo struct {
	Name  string `json:"name" binding:"required"`
	Notes string `json:"notes,omitempty"`
}
