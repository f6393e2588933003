// Package vocab implements vocabulary knowledge arithmetic: confidence
// levels, review transitions, and coverage statistics.
package vocab

import (
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
)

// Confidence bounds. 0 means never seen, 5 means fully mastered.
const (
	MinConfidence = 0
	MaxConfidence = 5

	// KnownThreshold is the confidence level at and above which a word
	// counts as known for coverage and statistics.
	KnownThreshold = 4
)

// ClampConfidence forces n into the valid [0, 5] range.
func ClampConfidence(n int) int {
	if n < MinConfidence {
		return MinConfidence
	}
	if n > MaxConfidence {
		return MaxConfidence
	}
	return n
}

// ReviewStep returns the confidence after one review: +1 on a correct
// answer, -1 on an incorrect one, clamped.
func ReviewStep(confidence int, correct bool) int {
	if correct {
		return ClampConfidence(confidence + 1)
	}
	return ClampConfidence(confidence - 1)
}

// IsKnown reports whether a confidence level counts as known.
func IsKnown(confidence int) bool {
	return confidence >= KnownThreshold
}

// ComputeStats aggregates progress rows into counts and a known percentage.
// An empty input yields all-zero stats (no division by zero).
func ComputeStats(rows []domain.Progress) domain.VocabularyStats {
	var stats domain.VocabularyStats
	for _, row := range rows {
		stats.TotalWords++
		switch {
		case IsKnown(row.Confidence):
			stats.KnownWords++
		case row.Confidence > MinConfidence:
			stats.LearningWords++
		default:
			stats.NewWords++
		}
	}
	if stats.TotalWords > 0 {
		stats.KnownPct = float64(stats.KnownWords) / float64(stats.TotalWords) * 100
	}
	return stats
}

// Coverage is how much of a token stream a user already knows.
type Coverage struct {
	TotalTokens   int     `json:"total_tokens"`
	KnownTokens   int     `json:"known_tokens"`
	UnknownTokens int     `json:"unknown_tokens"`
	UniqueUnknown int     `json:"unique_unknown"`
	KnownPct      float64 `json:"known_pct"`
}

// ComputeCoverage grades a token stream against a lemma→confidence map.
// Tokens are expected to be lemmatized already; unknown lemmas (absent from
// the map) count as confidence 0.
func ComputeCoverage(lemmas []string, confidence map[string]int) Coverage {
	var cov Coverage
	unknownSeen := make(map[string]struct{})

	for _, lemma := range lemmas {
		cov.TotalTokens++
		if IsKnown(confidence[lemma]) {
			cov.KnownTokens++
			continue
		}
		cov.UnknownTokens++
		unknownSeen[lemma] = struct{}{}
	}
	cov.UniqueUnknown = len(unknownSeen)
	if cov.TotalTokens > 0 {
		cov.KnownPct = float64(cov.KnownTokens) / float64(cov.TotalTokens) * 100
	}
	return cov
}
