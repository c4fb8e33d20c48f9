package models

// RankedDoctor is one entry of a symptom-match result, highest score first.
type RankedDoctor struct {
	DoctorID  string    `json:"doctorId"`
	Name      string    `json:"name"`
	Specialty Specialty `json:"specialty"`
	Score     float64   `json:"score"`
}

// ChatReply is the engine's response to one patient message.
type ChatReply struct {
	SessionID        string          `json:"sessionId"`
	Reply            string          `json:"reply"`
	State            SessionState    `json:"state"`
	CandidateDoctors []RankedDoctor  `json:"candidateDoctors,omitempty"`
	AvailableSlots   []AvailableSlot `json:"availableSlots,omitempty"`
	Booking          *Appointment    `json:"booking,omitempty"`
}

// HoldResult is returned by the hold endpoint.
type HoldResult struct {
	Status    string `json:"status"` // "HELD" or "CONFLICT"
	ExpiresAt string `json:"expiresAt,omitempty"`
}
