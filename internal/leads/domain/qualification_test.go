package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Qualification
	}{
		{score: 1000, want: QualificationHot},
		{score: 80, want: QualificationHot},
		{score: 79, want: QualificationWarm},
		{score: 50, want: QualificationWarm},
		{score: 49, want: QualificationLow},
		{score: 20, want: QualificationLow},
		{score: 19, want: QualificationCold},
		{score: 0, want: QualificationCold},
		{score: -40, want: QualificationCold},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %d", tt.score)
	}
}

func TestClassifyIsMonotonic(t *testing.T) {
	rank := map[Qualification]int{QualificationCold: 0, QualificationLow: 1, QualificationWarm: 2, QualificationHot: 3}
	prev := rank[Classify(-200)]
	for score := -199; score <= 200; score++ {
		cur := rank[Classify(score)]
		assert.GreaterOrEqual(t, cur, prev, "score %d", score)
		prev = cur
	}
}

func TestQualificationLabels(t *testing.T) {
	assert.Equal(t, "Alto", QualificationHot.Label())
	assert.Equal(t, "Medio", QualificationWarm.Label())
	assert.Equal(t, "Basso", QualificationLow.Label())
	assert.Equal(t, "Molto Basso", QualificationCold.Label())
	assert.False(t, Qualification("lukewarm").Valid())
}
