package models

// SymptomRule maps a set of symptom tokens to a specialty with a relevance
// weight. Rules are static reference data, read-only at runtime.
type SymptomRule struct {
	Tokens    []string  `json:"tokens"`
	Specialty Specialty `json:"specialty"`
	Weight    float64   `json:"weight"`
}
