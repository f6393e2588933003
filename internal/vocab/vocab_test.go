package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
)

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{-1, 0},
		{0, 0},
		{3, 3},
		{5, 5},
		{6, 5},
		{100, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampConfidence(tt.in))
	}
}

func TestReviewStep(t *testing.T) {
	assert.Equal(t, 3, ReviewStep(2, true))
	assert.Equal(t, 1, ReviewStep(2, false))
	// Clamped at the bounds
	assert.Equal(t, 5, ReviewStep(5, true))
	assert.Equal(t, 0, ReviewStep(0, false))
}

func progressRows(confidences ...int) []domain.Progress {
	rows := make([]domain.Progress, len(confidences))
	for i, c := range confidences {
		rows[i] = domain.Progress{Lemma: "w", Confidence: c}
	}
	return rows
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(progressRows(0, 0, 1, 3, 4, 5, 5, 5))
	assert.Equal(t, 8, stats.TotalWords)
	assert.Equal(t, 4, stats.KnownWords)
	assert.Equal(t, 2, stats.LearningWords)
	assert.Equal(t, 2, stats.NewWords)
	assert.InDelta(t, 50.0, stats.KnownPct, 0.001)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Equal(t, 0, stats.TotalWords)
	assert.Equal(t, 0.0, stats.KnownPct)
}

func TestComputeCoverage(t *testing.T) {
	confidence := map[string]int{
		"der":  5,
		"hund": 4,
		"baum": 2,
	}
	lemmas := []string{"der", "hund", "beißen", "der", "baum", "beißen"}

	cov := ComputeCoverage(lemmas, confidence)
	assert.Equal(t, 6, cov.TotalTokens)
	assert.Equal(t, 3, cov.KnownTokens) // der, hund, der
	assert.Equal(t, 3, cov.UnknownTokens)
	assert.Equal(t, 2, cov.UniqueUnknown) // beißen, baum
	assert.InDelta(t, 50.0, cov.KnownPct, 0.001)
}

func TestComputeCoverage_Empty(t *testing.T) {
	cov := ComputeCoverage(nil, map[string]int{})
	assert.Equal(t, 0, cov.TotalTokens)
	assert.Equal(t, 0.0, cov.KnownPct)
}
