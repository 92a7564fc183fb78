package adaptive

import (
	"fmt"

	"github.com/ErDashrath/PragatiPath-sub000/internal/knowledge"
	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

// finalMastery is the last recorded combined mastery, or the initial
// estimate when no questions were answered.
func finalMastery(session *models.LearningSession) float64 {
	if n := len(session.MasteryProgression); n > 0 {
		return session.MasteryProgression[n-1]
	}
	return session.InitialMastery
}

// BuildSummary derives the post-session report from recorded state alone;
// it never touches stores and works on both active and completed sessions.
func BuildSummary(session *models.LearningSession) models.SessionSummary {
	final := finalMastery(session)

	accuracy := 0.0
	if session.QuestionsAttempted > 0 {
		accuracy = float64(session.CorrectCount) / float64(session.QuestionsAttempted)
	}

	stats := difficultyStats(session.DifficultyHistory)
	level := knowledge.ClassifyLevel(final)

	return models.SessionSummary{
		SessionID:          session.ID,
		SkillID:            session.SkillID,
		Status:             session.Status,
		EndReason:          session.EndReason,
		QuestionsAttempted: session.QuestionsAttempted,
		CorrectCount:       session.CorrectCount,
		Accuracy:           accuracy,
		InitialMastery:     session.InitialMastery,
		FinalMastery:       final,
		MasteryDelta:       final - session.InitialMastery,
		MasteryLevel:       string(level),
		Difficulty:         stats,
		Recommendations:    recommendations(accuracy, session.QuestionsAttempted, level),
	}
}

// difficultyStats counts bucket advances and regressions across the
// session's difficulty history.
func difficultyStats(history []models.DifficultyLevel) models.DifficultyStats {
	stats := models.DifficultyStats{}
	if len(history) == 0 {
		return stats
	}
	stats.Starting = history[0]
	stats.Final = history[len(history)-1]
	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1].Rank(), history[i].Rank()
		switch {
		case cur > prev:
			stats.Advances++
		case cur < prev:
			stats.Regressions++
		}
	}
	return stats
}

func recommendations(accuracy float64, attempted int, level knowledge.Level) []string {
	var recs []string

	if attempted > 0 {
		if accuracy < 0.5 {
			recs = append(recs, "Review the explanations for the questions you answered incorrectly before your next session.")
		} else if accuracy > 0.8 {
			recs = append(recs, fmt.Sprintf("Strong accuracy (%.0f%%). You are ready to handle harder questions.", accuracy*100))
		}
	}

	switch level {
	case knowledge.LevelNovice:
		recs = append(recs, "Focus on fundamentals. Shorter, frequent sessions at easier difficulty will build your base faster.")
	case knowledge.LevelDeveloping:
		recs = append(recs, "Keep practicing at your current difficulty. Consistency matters more than volume right now.")
	case knowledge.LevelProficient:
		recs = append(recs, "Mix in harder questions to push past a plateau.")
	case knowledge.LevelAdvanced:
		recs = append(recs, "Work mostly at the difficult level and use spaced reviews to retain what you have learned.")
	case knowledge.LevelExpert:
		recs = append(recs, "Mastery is high. Periodic spaced reviews are enough to maintain this skill.")
	}

	return recs
}
