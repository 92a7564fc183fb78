package adaptive

import "github.com/ErDashrath/PragatiPath-sub000/internal/models"

// InitialDifficulty maps prior combined mastery onto the starting bucket
// for a new session.
func InitialDifficulty(mastery float64) models.DifficultyLevel {
	switch {
	case mastery < 0.2:
		return models.DifficultyVeryEasy
	case mastery < 0.4:
		return models.DifficultyEasy
	case mastery < 0.7:
		return models.DifficultyModerate
	default:
		return models.DifficultyDifficult
	}
}

// NextDifficulty applies the adaptive progression rules: advance one bucket
// on a hot streak with high mastery, regress one bucket on a cold streak or
// low mastery, otherwise hold. Both ends saturate.
func (c Config) NextDifficulty(current models.DifficultyLevel, consecutiveCorrect, consecutiveIncorrect int, mastery float64) models.DifficultyLevel {
	rank := current.Rank()
	if rank < 0 {
		return current
	}

	switch {
	case consecutiveCorrect >= c.AdvanceStreak && mastery > c.AdvanceMastery:
		if rank < len(models.DifficultyOrder)-1 {
			rank++
		}
	case consecutiveIncorrect >= c.RegressStreak || mastery < c.RegressMastery:
		if rank > 0 {
			rank--
		}
	}

	return models.DifficultyOrder[rank]
}

// fallbackBuckets is the fixed priority order tried when the target bucket
// has no items, with the original target removed.
var fallbackBuckets = []models.DifficultyLevel{
	models.DifficultyModerate,
	models.DifficultyEasy,
	models.DifficultyDifficult,
	models.DifficultyVeryEasy,
}

// FallbackOrder returns the buckets to try after the target came up empty.
func FallbackOrder(target models.DifficultyLevel) []models.DifficultyLevel {
	order := make([]models.DifficultyLevel, 0, len(fallbackBuckets)-1)
	for _, level := range fallbackBuckets {
		if level != target {
			order = append(order, level)
		}
	}
	return order
}
