package entity_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"analysis_backend/internal/feature/emotion/domain/entity"
)

func TestNewFaceEmotion(t *testing.T) {
	t.Parallel()

	got := entity.NewFaceEmotion([]entity.EmotionScore{
		{Label: entity.LabelSad, Score: 40},
		{Label: entity.LabelHappy, Score: 40},
		{Label: entity.LabelFear, Score: -3},
		{Label: entity.LabelAngry, Score: math.NaN()},
	})

	assert.Equal(t, entity.LabelSad, got.DominantEmotion)
	assert.Equal(t, []entity.EmotionScore{
		{Label: entity.LabelSad, Score: 40},
		{Label: entity.LabelHappy, Score: 40},
		{Label: entity.LabelFear, Score: 0},
		{Label: entity.LabelAngry, Score: 0},
	}, got.Emotions)

	empty := entity.NewFaceEmotion(nil)
	assert.Empty(t, empty.DominantEmotion)
	assert.Empty(t, empty.Emotions)
}
