package models

import "time"

// SkillMasteryState holds the Bayesian knowledge tracing parameters for one
// (student, skill) pair. PLearn is the only field mutated per observation;
// the other three are fixed per-skill configuration.
type SkillMasteryState struct {
	StudentID int64     `json:"student_id"`
	SkillID   string    `json:"skill_id"`
	PLearn    float64   `json:"p_learn"`
	PTransit  float64   `json:"p_transit"`
	PSlip     float64   `json:"p_slip"`
	PGuess    float64   `json:"p_guess"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrendState is a student's rolling skill-prediction vector: one probability
// per skill plus a short outcome history used for diagnostics.
type TrendState struct {
	StudentID   int64              `json:"student_id"`
	Predictions map[string]float64 `json:"predictions"`
	History     map[string][]int64 `json:"history"`
}

// SkillMastery is the persisted per-skill entry of a student's profile,
// written when a session finalizes.
type SkillMastery struct {
	SkillID   string    `json:"skill_id"`
	Mastery   float64   `json:"mastery"`
	Level     string    `json:"level"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MasteryProfileResponse struct {
	StudentID int64              `json:"student_id"`
	Skills    []SkillMastery     `json:"skills"`
	Trend     map[string]float64 `json:"trend"`
}
