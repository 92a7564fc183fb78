package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// EndReason records why a session reached the completed state.
type EndReason string

const (
	EndExhausted    EndReason = "question_budget_exhausted"
	EndMastered     EndReason = "mastery_threshold_reached"
	EndNoContent    EndReason = "no_questions_available"
	EndExpired      EndReason = "time_limit_expired"
	EndStudentEnded EndReason = "ended_by_student"
)

// LearningSession is the state of one adaptive session. The progression and
// history slices are append-only; counters are mutated only by the
// orchestrator under the session lock.
type LearningSession struct {
	ID                   uuid.UUID         `json:"id"`
	StudentID            int64             `json:"student_id"`
	Subject              string            `json:"subject"`
	ChapterID            *int64            `json:"chapter_id,omitempty"`
	SkillID              string            `json:"skill_id"`
	Status               SessionStatus     `json:"status"`
	EndReason            EndReason         `json:"end_reason,omitempty"`
	CurrentDifficulty    DifficultyLevel   `json:"current_difficulty"`
	CurrentItemID        *int64            `json:"current_item_id,omitempty"`
	MaxQuestions         int               `json:"max_questions"`
	QuestionsAttempted   int               `json:"questions_attempted"`
	CorrectCount         int               `json:"correct_count"`
	ConsecutiveCorrect   int               `json:"consecutive_correct"`
	ConsecutiveIncorrect int               `json:"consecutive_incorrect"`
	InitialMastery       float64           `json:"initial_mastery"`
	MasteryProgression   []float64         `json:"mastery_progression"`
	DifficultyHistory    []DifficultyLevel `json:"difficulty_history"`
	StartedAt            time.Time         `json:"started_at"`
	ExpiresAt            *time.Time        `json:"expires_at,omitempty"`
	CompletedAt          *time.Time        `json:"completed_at,omitempty"`
}

// ── Request Types ─────────────────────────────────────

type StartSessionRequest struct {
	Subject          string `json:"subject"`
	ChapterID        *int64 `json:"chapter_id,omitempty"`
	MaxQuestions     int    `json:"max_questions"`
	TimeLimitMinutes int    `json:"time_limit_minutes,omitempty"`
}

type SessionAnswerRequest struct {
	ItemID           int64  `json:"item_id"`
	SelectedOptionID string `json:"selected_option_id"`
	ResponseTimeMs   *int64 `json:"response_time_ms,omitempty"`
}

// ── Response Types ────────────────────────────────────

type StartSessionResponse struct {
	Success            bool            `json:"success"`
	Message            string          `json:"message,omitempty"`
	SessionID          uuid.UUID       `json:"session_id,omitempty"`
	SkillID            string          `json:"skill_id,omitempty"`
	InitialMastery     float64         `json:"initial_mastery"`
	MasteryLevel       string          `json:"mastery_level,omitempty"`
	StartingDifficulty DifficultyLevel `json:"starting_difficulty,omitempty"`
	MaxQuestions       int             `json:"max_questions"`
}

type NextQuestionResponse struct {
	Completed      bool        `json:"completed"`
	EndReason      EndReason   `json:"end_reason,omitempty"`
	QuestionNumber int         `json:"question_number,omitempty"`
	Question       *ServedItem `json:"question,omitempty"`
}

type SessionAnswerResponse struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message,omitempty"`
	Correct         bool            `json:"correct"`
	CorrectOptionID string          `json:"correct_option_id,omitempty"`
	Explanation     string          `json:"explanation,omitempty"`
	BKTMastery      float64         `json:"bkt_mastery"`
	TrendPrediction float64         `json:"trend_prediction"`
	CombinedMastery float64         `json:"combined_mastery"`
	MasteryLevel    string          `json:"mastery_level,omitempty"`
	NextDifficulty  DifficultyLevel `json:"next_difficulty,omitempty"`
	Completed       bool            `json:"completed"`
	EndReason       EndReason       `json:"end_reason,omitempty"`
}

// ── Summary Types ─────────────────────────────────────

type DifficultyStats struct {
	Starting    DifficultyLevel `json:"starting"`
	Final       DifficultyLevel `json:"final"`
	Advances    int             `json:"advances"`
	Regressions int             `json:"regressions"`
}

type SessionSummary struct {
	SessionID          uuid.UUID       `json:"session_id"`
	SkillID            string          `json:"skill_id"`
	Status             SessionStatus   `json:"status"`
	EndReason          EndReason       `json:"end_reason,omitempty"`
	QuestionsAttempted int             `json:"questions_attempted"`
	CorrectCount       int             `json:"correct_count"`
	Accuracy           float64         `json:"accuracy"`
	InitialMastery     float64         `json:"initial_mastery"`
	FinalMastery       float64         `json:"final_mastery"`
	MasteryDelta       float64         `json:"mastery_delta"`
	MasteryLevel       string          `json:"mastery_level"`
	Difficulty         DifficultyStats `json:"difficulty"`
	Recommendations    []string        `json:"recommendations"`
}

type SessionListResponse struct {
	Sessions []LearningSession `json:"sessions"`
	Total    int               `json:"total"`
}
