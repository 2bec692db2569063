package nlp

import (
	"context"
	"strings"
)

// Sentinel phrases returned when extraction cannot produce usable symptoms.
const (
	// UnknownSymptom is returned for blank input, before any upstream call.
	UnknownSymptom = "unknown symptom"
	// GeneralSymptom is returned when the model finds no usable spans.
	GeneralSymptom = "general symptom"
)

// Extractor turns free text into an ordered list of lowercase symptom
// phrases. Implementations must uphold the sentinel contract above: blank
// input yields [UnknownSymptom] without an upstream call, and a response
// with no usable spans yields [GeneralSymptom].
type Extractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}

// cleanPhrases lowercases, trims, and drops phrases of length <= 2,
// substituting the GeneralSymptom sentinel when nothing survives.
func cleanPhrases(phrases []string) []string {
	cleaned := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if len(p) > 2 {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return []string{GeneralSymptom}
	}
	return cleaned
}
