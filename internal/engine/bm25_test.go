package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDF_DecreasesAsDocFrequencyRises(t *testing.T) {
	rare := idf(100, 1)
	common := idf(100, 50)
	assert.Greater(t, rare, common)
}

func TestBM25Score_MatchesFormula(t *testing.T) {
	p := defaultBM25Params()
	idfValue := idf(10, 2)

	got := p.score(idfValue, 3, 20, 15)

	want := idfValue * (3 * (p.k1 + 1)) / (3 + p.k1*(1-p.b+p.b*20/15))
	assert.InDelta(t, want, got, 1e-12)
}

func TestFuzzyPenalty_ExactMatchIsOne(t *testing.T) {
	assert.Equal(t, 1.0, fuzzyPenalty(0, 5))
}

func TestFuzzyPenalty_ScalesWithDistanceOverQueryLength(t *testing.T) {
	got := fuzzyPenalty(1, 4)
	assert.InDelta(t, 0.75, got, 1e-12)
}

func TestFuzzyPenalty_NeverNegative(t *testing.T) {
	got := fuzzyPenalty(10, 2)
	assert.Equal(t, 0.0, got)
}

func TestIDF_IsNonNegativeForTypicalCorpora(t *testing.T) {
	got := idf(1000, 1)
	assert.True(t, got > 0 && !math.IsNaN(got))
}
