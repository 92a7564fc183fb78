package adaptive

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

func TestBuildSummaryCountsTransitions(t *testing.T) {
	session := &models.LearningSession{
		ID:                 uuid.New(),
		SkillID:            "algebra",
		Status:             models.SessionCompleted,
		EndReason:          models.EndExhausted,
		QuestionsAttempted: 5,
		CorrectCount:       3,
		InitialMastery:     0.3,
		MasteryProgression: []float64{0.35, 0.45, 0.4, 0.5, 0.6},
		DifficultyHistory: []models.DifficultyLevel{
			models.DifficultyEasy,
			models.DifficultyEasy,
			models.DifficultyModerate,
			models.DifficultyEasy,
			models.DifficultyModerate,
			models.DifficultyDifficult,
		},
	}

	summary := BuildSummary(session)

	if summary.Accuracy != 0.6 {
		t.Errorf("accuracy = %f, want 0.6", summary.Accuracy)
	}
	if summary.FinalMastery != 0.6 {
		t.Errorf("final mastery = %f, want 0.6", summary.FinalMastery)
	}
	if diff := summary.MasteryDelta - 0.3; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("mastery delta = %f, want 0.3", summary.MasteryDelta)
	}
	if summary.Difficulty.Advances != 3 {
		t.Errorf("advances = %d, want 3", summary.Difficulty.Advances)
	}
	if summary.Difficulty.Regressions != 1 {
		t.Errorf("regressions = %d, want 1", summary.Difficulty.Regressions)
	}
	if summary.Difficulty.Starting != models.DifficultyEasy || summary.Difficulty.Final != models.DifficultyDifficult {
		t.Errorf("difficulty span = %s..%s, want easy..difficult", summary.Difficulty.Starting, summary.Difficulty.Final)
	}
}

func TestBuildSummaryUnansweredSession(t *testing.T) {
	session := &models.LearningSession{
		ID:                uuid.New(),
		SkillID:           "algebra",
		Status:            models.SessionCompleted,
		EndReason:         models.EndNoContent,
		InitialMastery:    0.42,
		DifficultyHistory: []models.DifficultyLevel{models.DifficultyModerate},
	}

	summary := BuildSummary(session)

	if summary.Accuracy != 0 {
		t.Errorf("accuracy = %f, want 0", summary.Accuracy)
	}
	if summary.FinalMastery != 0.42 {
		t.Errorf("final mastery = %f, want initial 0.42", summary.FinalMastery)
	}
	if summary.MasteryDelta != 0 {
		t.Errorf("mastery delta = %f, want 0", summary.MasteryDelta)
	}
}

func TestRecommendationsLowAccuracy(t *testing.T) {
	session := &models.LearningSession{
		ID:                 uuid.New(),
		QuestionsAttempted: 5,
		CorrectCount:       1,
		MasteryProgression: []float64{0.2},
		DifficultyHistory:  []models.DifficultyLevel{models.DifficultyEasy},
	}

	summary := BuildSummary(session)

	var foundReview bool
	for _, rec := range summary.Recommendations {
		if strings.Contains(rec, "incorrectly") {
			foundReview = true
		}
	}
	if !foundReview {
		t.Errorf("recommendations %v missing review guidance for 20%% accuracy", summary.Recommendations)
	}
	if summary.MasteryLevel != "novice" {
		t.Errorf("level = %s, want novice", summary.MasteryLevel)
	}
}

func TestRecommendationsHighAccuracy(t *testing.T) {
	session := &models.LearningSession{
		ID:                 uuid.New(),
		QuestionsAttempted: 10,
		CorrectCount:       9,
		MasteryProgression: []float64{0.88},
		DifficultyHistory:  []models.DifficultyLevel{models.DifficultyDifficult},
	}

	summary := BuildSummary(session)

	var foundHarder bool
	for _, rec := range summary.Recommendations {
		if strings.Contains(rec, "harder") {
			foundHarder = true
		}
	}
	if !foundHarder {
		t.Errorf("recommendations %v missing harder-questions guidance for 90%% accuracy", summary.Recommendations)
	}
	if summary.MasteryLevel != "expert" {
		t.Errorf("level = %s, want expert", summary.MasteryLevel)
	}
}
