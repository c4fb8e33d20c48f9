package models

import "time"

// SessionState tracks where a patient conversation is in the intake flow.
type SessionState string

const (
	StateGreeting             SessionState = "GREETING"
	StateCollectingSymptoms   SessionState = "COLLECTING_SYMPTOMS"
	StateRecommending         SessionState = "RECOMMENDING"
	StateSelectingSlot        SessionState = "SELECTING_SLOT"
	StateAwaitingConfirmation SessionState = "AWAITING_CONFIRMATION"
	StateBooked               SessionState = "BOOKED"
	StateAbandoned            SessionState = "ABANDONED"
)

// Terminal reports whether the session can accept no further booking actions.
func (s SessionState) Terminal() bool {
	return s == StateBooked || s == StateAbandoned
}

// TranscriptTurn is a single chat message in a session transcript.
type TranscriptTurn struct {
	Role string    `bson:"role" json:"role"` // "patient" or "assistant"
	Text string    `bson:"text" json:"text"`
	At   time.Time `bson:"at" json:"at"`
}

// PendingBooking records the slot a session currently holds, by key only.
// The slot row itself is owned by the slot repository.
type PendingBooking struct {
	DoctorID  string    `bson:"doctorId" json:"doctorId"`
	Date      string    `bson:"date" json:"date"` // "2006-01-02"
	Start     int       `bson:"start" json:"start"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}

// IntakeSession holds the durable state of one patient conversation.
type IntakeSession struct {
	SessionID        string           `bson:"sessionId" json:"sessionId"`
	PatientRef       string           `bson:"patientRef,omitempty" json:"patientRef,omitempty"`
	State            SessionState     `bson:"state" json:"state"`
	Transcript       []TranscriptTurn `bson:"transcript" json:"transcript"`
	Symptoms         []string         `bson:"symptoms" json:"symptoms"` // normalized tokens, set semantics
	CandidateDoctors []string         `bson:"candidateDoctors,omitempty" json:"candidateDoctors,omitempty"`
	SelectedDoctorID string           `bson:"selectedDoctorId,omitempty" json:"selectedDoctorId,omitempty"`
	PendingBooking   *PendingBooking  `bson:"pendingBooking,omitempty" json:"pendingBooking,omitempty"`
	ClarifyingTurns  int              `bson:"clarifyingTurns" json:"clarifyingTurns"`
	CreatedAt        time.Time        `bson:"createdAt" json:"createdAt"`
	LastActiveAt     time.Time        `bson:"lastActiveAt" json:"lastActiveAt"`
}

// AddTurn appends a message to the transcript.
func (s *IntakeSession) AddTurn(role, text string, at time.Time) {
	s.Transcript = append(s.Transcript, TranscriptTurn{Role: role, Text: text, At: at})
}

// AddSymptoms merges normalized tokens into the symptom set.
// Returns the number of tokens that were actually new.
func (s *IntakeSession) AddSymptoms(tokens []string) int {
	seen := make(map[string]bool, len(s.Symptoms))
	for _, t := range s.Symptoms {
		seen[t] = true
	}
	added := 0
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			s.Symptoms = append(s.Symptoms, t)
			added++
		}
	}
	return added
}

// IdleFor reports whether the session has been inactive longer than d.
func (s *IntakeSession) IdleFor(d time.Duration, now time.Time) bool {
	return now.Sub(s.LastActiveAt) > d
}
