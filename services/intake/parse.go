package intake

import (
	"regexp"
	"strconv"
	"strings"

	"mediq/models"
)

var (
	dateRe  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	clockRe = regexp.MustCompile(`\b(\d{1,2}:\d{2})\b`)
)

var greetings = map[string]bool{
	"hi": true, "hello": true, "hey": true, "hiya": true, "yo": true,
	"good morning": true, "good afternoon": true, "good evening": true,
}

// isGreetingOnly reports whether the message is a bare greeting with no
// substantive content.
func isGreetingOnly(text string) bool {
	t := strings.ToLower(strings.TrimRight(strings.TrimSpace(text), ".!?"))
	return greetings[t]
}

// parseDoctorSelection resolves a patient message to one of the candidate
// doctor ids: a 1-based list position ("2", "doctor 2") or a literal id.
func parseDoctorSelection(text string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	fields := strings.Fields(strings.ToLower(text))
	for _, f := range fields {
		for _, id := range candidates {
			if f == strings.ToLower(id) {
				return id, true
			}
		}
		if n, err := strconv.Atoi(f); err == nil && n >= 1 && n <= len(candidates) {
			return candidates[n-1], true
		}
	}
	return "", false
}

// parseSlotSelection extracts a date and start time from a message like
// "book 2025-01-09 at 13:00".
func parseSlotSelection(text string) (date string, start int, ok bool) {
	dm := dateRe.FindStringSubmatch(text)
	cm := clockRe.FindStringSubmatch(text)
	if dm == nil || cm == nil {
		return "", 0, false
	}
	mins, err := models.ParseClock(cm[1])
	if err != nil {
		return "", 0, false
	}
	return dm[1], mins, true
}

// isCancel reports whether the patient is backing out of the pending slot.
func isCancel(text string) bool {
	switch strings.ToLower(strings.TrimRight(strings.TrimSpace(text), ".!?")) {
	case "no", "cancel", "back", "go back", "nevermind", "never mind":
		return true
	}
	return false
}

// parseConfirmation detects a confirmation message and extracts the patient
// name, if given: "confirm Jane Doe" or "yes Jane Doe". The second return is
// whether the message is a confirmation at all.
func parseConfirmation(text string) (name string, ok bool) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"confirm", "yes"} {
		if lower == prefix {
			return "", true
		}
		if strings.HasPrefix(lower, prefix+" ") {
			return strings.TrimSpace(trimmed[len(prefix):]), true
		}
	}
	return "", false
}

// intersectsVocab reports whether any token is a known symptom token, and
// returns the matching tokens.
func intersectsVocab(tokens []string, vocab map[string]bool) []string {
	var hits []string
	for _, t := range tokens {
		if vocab[t] {
			hits = append(hits, t)
		}
	}
	return hits
}
