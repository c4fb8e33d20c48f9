package matching

import (
	"sort"
	"strings"
	"unicode"
)

// stopWords are tokens that carry no symptom signal and are dropped during
// normalization.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "am": true, "are": true, "been": true,
	"but": true, "feel": true, "feeling": true, "for": true, "from": true,
	"got": true, "had": true, "has": true, "have": true, "i": true, "im": true,
	"in": true, "is": true, "it": true, "its": true, "my": true, "of": true,
	"on": true, "or": true, "since": true, "so": true, "some": true,
	"the": true, "there": true, "this": true, "to": true, "very": true,
	"was": true, "with": true, "ive": true, "me": true, "really": true,
	"bit": true, "little": true, "also": true,
}

// Tokenize normalizes free text into a deduplicated, sorted token set:
// lower-cased, punctuation stripped, stop words removed.
func Tokenize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}
