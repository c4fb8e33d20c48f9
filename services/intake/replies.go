package intake

import (
	"fmt"
	"strings"
	"time"

	"mediq/models"
)

func greetingReply(restarted bool) string {
	if restarted {
		return "Welcome back. Your previous conversation timed out, so let's start over. What symptoms are you experiencing?"
	}
	return "Hello! I can help you find the right doctor and book an appointment. What symptoms are you experiencing?"
}

func clarifyingReply(turn int) string {
	if turn <= 1 {
		return "I couldn't match that to a specialty yet. Could you describe your symptoms in a bit more detail?"
	}
	return "Thanks. Could you mention where it hurts or what feels wrong, e.g. \"headache\", \"rash\" or \"stomach pain\"?"
}

func recommendReply(ranked []models.RankedDoctor, fallback bool) string {
	var b strings.Builder
	if fallback {
		b.WriteString("I couldn't pin down a specialty from your symptoms, so here are our general practitioners:\n")
	} else {
		b.WriteString("Based on your symptoms, here are the doctors I recommend:\n")
	}
	for i, d := range ranked {
		fmt.Fprintf(&b, "%d. Dr. %s (%s)\n", i+1, d.Name, d.Specialty)
	}
	b.WriteString("Reply with a number to pick a doctor.")
	return b.String()
}

func noDoctorsReply() string {
	return "I'm sorry, no doctors are available right now. Please try again later or contact the front desk."
}

func availabilityReply(doctor *models.Doctor, slots []models.AvailableSlot, lead string) string {
	var b strings.Builder
	if lead != "" {
		b.WriteString(lead)
		b.WriteString("\n")
	}
	if len(slots) == 0 {
		fmt.Fprintf(&b, "Dr. %s has no free slots in the coming days. You can pick another doctor from the list.", doctor.Name)
		return b.String()
	}
	fmt.Fprintf(&b, "Dr. %s is available at:\n", doctor.Name)
	max := len(slots)
	if max > 10 {
		max = 10
	}
	for _, s := range slots[:max] {
		fmt.Fprintf(&b, "- %s %s\n", s.Date, s.Time)
	}
	b.WriteString("Reply with a date and time (e.g. \"2025-01-09 13:00\") to reserve a slot.")
	return b.String()
}

func holdPlacedReply(pb *models.PendingBooking, doctor *models.Doctor) string {
	return fmt.Sprintf(
		"I've reserved %s %s with Dr. %s until %s. Reply \"confirm <your full name>\" to book it, or \"cancel\" to pick another slot.",
		pb.Date, models.FormatClock(pb.Start), doctor.Name, pb.ExpiresAt.Format(time.Kitchen))
}

func askNameReply() string {
	return "Almost done: please reply \"confirm <your full name>\" so I can put the booking under your name."
}

func bookedReply(a *models.Appointment) string {
	return fmt.Sprintf(
		"You're booked! Appointment %s on %s at %s for %s. See you then.",
		a.ID, a.Date, models.FormatClock(a.Start), a.PatientName)
}

func alreadyBookedReply() string {
	return "This conversation already ended with a confirmed booking. Start a new chat to book another appointment."
}
