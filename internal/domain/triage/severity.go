package triage

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Severity labels, most to least urgent.
const (
	SeverityCritical = "Critical"
	SeverityHigh     = "High"
	SeverityMedium   = "Medium"
	SeverityLow      = "Low"
)

type weightedSymptom struct {
	phrase string
	weight int
}

// severityVocabulary maps reference symptom phrases to urgency weights.
// Ordered so equal combined scores resolve the same way every run.
var severityVocabulary = []weightedSymptom{
	{"chest pain", 5},
	{"shortness of breath", 5},
	{"difficulty breathing", 5},
	{"unconscious", 5},
	{"severe bleeding", 5},
	{"stroke", 5},
	{"weakness one side", 5},
	{"seizure", 5},

	{"fainting", 4},
	{"severe headache", 4},
	{"severe pain", 4},
	{"abdominal pain", 4},
	{"high fever", 4},
	{"vomiting blood", 4},

	{"moderate pain", 3},
	{"fever", 3},
	{"vomiting", 3},
	{"dehydration", 3},

	{"cough", 2},
	{"sore throat", 2},
	{"dizzy", 2},
	{"fatigue", 1},
}

// NormalizeSeverity maps a free-form severity value to one of the four
// labels. Matching is case-insensitive after trimming; anything
// unrecognized (or absent) becomes Low so a sloppy model answer can never
// produce an out-of-enum record.
func NormalizeSeverity(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	default:
		return SeverityLow
	}
}

var weightLabels = map[int]string{
	5: SeverityCritical,
	4: SeverityHigh,
	3: SeverityMedium,
	2: SeverityLow,
	1: SeverityLow,
}

// arabicSynonyms substitutes common Arabic complaint terms with the English
// vocabulary phrase. Longer keys are listed first so compound phrases win
// over their parts.
var arabicSynonyms = []struct{ from, to string }{
	{"الم الصدر", "chest pain"},
	{"ضيق تنفس", "shortness of breath"},
	{"صداع", "headache"},
	{"دوخه", "dizzy"},
	{"دوار", "dizzy"},
	{"نزيف", "bleeding"},
	{"اغماء", "fainting"},
	{"ترجيع", "vomiting"},
	{"حمى", "fever"},
	{"الام", "pain"},
	{"الم", "pain"},
}

// normalizeSymptom lowercases the phrase and replaces known Arabic terms.
func normalizeSymptom(text string) string {
	if text == "" {
		return ""
	}
	t := strings.ToLower(strings.TrimSpace(text))
	for _, syn := range arabicSynonyms {
		if strings.Contains(t, syn.from) {
			t = syn.to
			break
		}
	}
	return t
}

// ScoreSymptoms maps free-text symptom phrases to a severity label. This
// is a heuristic pre-classifier; the model finalizes triage. Each phrase
// is fuzzily matched against the vocabulary and the best weighted match
// across all phrases decides the label. Empty input scores Low.
func ScoreSymptoms(symptoms []string) string {
	if len(symptoms) == 0 {
		return SeverityLow
	}

	bestScore := 0
	bestWeight := 1

	for _, symptom := range symptoms {
		norm := normalizeSymptom(symptom)
		for _, ref := range severityVocabulary {
			similarity := (fuzzy.PartialRatio(norm, ref.phrase) + fuzzy.TokenSortRatio(norm, ref.phrase)) / 2
			combined := ref.weight*20 + similarity
			if combined > bestScore {
				bestScore = combined
				bestWeight = ref.weight
			}
		}
	}

	label, ok := weightLabels[bestWeight]
	if !ok {
		return SeverityLow
	}
	return label
}
