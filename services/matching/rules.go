package matching

import "mediq/models"

// Vocabulary flattens a rule set into its token universe. The intake engine
// uses it to spot symptom-describing messages in any conversation state.
func Vocabulary(rules []models.SymptomRule) map[string]bool {
	vocab := make(map[string]bool)
	for _, r := range rules {
		for _, t := range r.Tokens {
			vocab[t] = true
		}
	}
	return vocab
}

// DefaultRules is the built-in symptom-to-specialty rule set. Rules are
// static reference data; weights reflect how strongly a token set points at
// a specialty.
func DefaultRules() []models.SymptomRule {
	return []models.SymptomRule{
		{Tokens: []string{"headache", "migraine", "dizzy", "dizziness", "vertigo"}, Specialty: models.Neurology, Weight: 5},
		{Tokens: []string{"numbness", "tingling", "seizure", "tremor"}, Specialty: models.Neurology, Weight: 6},
		{Tokens: []string{"chest", "palpitations", "palpitation"}, Specialty: models.Cardiology, Weight: 6},
		{Tokens: []string{"heart", "pressure", "hypertension"}, Specialty: models.Cardiology, Weight: 4},
		{Tokens: []string{"rash", "itch", "itchy", "itching", "acne", "eczema", "hives"}, Specialty: models.Dermatology, Weight: 5},
		{Tokens: []string{"skin", "mole", "spots"}, Specialty: models.Dermatology, Weight: 3},
		{Tokens: []string{"stomach", "nausea", "vomiting", "diarrhea", "constipation"}, Specialty: models.Gastroenterology, Weight: 5},
		{Tokens: []string{"abdominal", "heartburn", "indigestion", "bloating"}, Specialty: models.Gastroenterology, Weight: 4},
		{Tokens: []string{"back", "joint", "knee", "shoulder", "fracture", "sprain"}, Specialty: models.Orthopedics, Weight: 4},
		{Tokens: []string{"bone", "hip", "ankle", "wrist"}, Specialty: models.Orthopedics, Weight: 3},
		{Tokens: []string{"cough", "wheezing", "breathless", "breathlessness", "asthma"}, Specialty: models.Pulmonology, Weight: 5},
		{Tokens: []string{"breathing", "shortness", "breath"}, Specialty: models.Pulmonology, Weight: 4},
		{Tokens: []string{"ear", "throat", "sinus", "hearing", "hoarse", "tonsil"}, Specialty: models.ENT, Weight: 4},
		{Tokens: []string{"nose", "nasal", "congestion"}, Specialty: models.ENT, Weight: 3},
		{Tokens: []string{"child", "baby", "infant", "toddler"}, Specialty: models.Pediatrics, Weight: 5},
		{Tokens: []string{"fever", "tired", "fatigue", "cold", "flu", "chills"}, Specialty: models.GeneralPractice, Weight: 2},
	}
}
