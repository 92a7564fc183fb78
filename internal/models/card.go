package models

import "time"

// ReviewStage is the coarse progression label layered on top of SM-2
// intervals, in WaniKani order. Burned cards are never scheduled again
// unless explicitly reset.
type ReviewStage string

const (
	StageApprentice1 ReviewStage = "apprentice_1"
	StageApprentice2 ReviewStage = "apprentice_2"
	StageApprentice3 ReviewStage = "apprentice_3"
	StageApprentice4 ReviewStage = "apprentice_4"
	StageGuru1       ReviewStage = "guru_1"
	StageGuru2       ReviewStage = "guru_2"
	StageMaster      ReviewStage = "master"
	StageEnlightened ReviewStage = "enlightened"
	StageBurned      ReviewStage = "burned"
)

// StageOrder lists the stages from first to terminal.
var StageOrder = []ReviewStage{
	StageApprentice1,
	StageApprentice2,
	StageApprentice3,
	StageApprentice4,
	StageGuru1,
	StageGuru2,
	StageMaster,
	StageEnlightened,
	StageBurned,
}

// Rank returns the position of the stage in StageOrder, or -1 if invalid.
func (s ReviewStage) Rank() int {
	for i, stage := range StageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// ReviewCard is the per-(student, item) spaced-repetition state,
// mutated only by the SRS scheduler.
type ReviewCard struct {
	ID            int64       `json:"id"`
	StudentID     int64       `json:"student_id"`
	ItemID        int64       `json:"item_id"`
	EaseFactor    float64     `json:"ease_factor"`
	IntervalDays  int         `json:"interval_days"`
	Repetition    int         `json:"repetition"`
	Stage         ReviewStage `json:"stage"`
	CorrectStreak int         `json:"correct_streak"`
	TotalReviews  int         `json:"total_reviews"`
	LastQuality   int         `json:"last_quality"`
	DueDate       time.Time   `json:"due_date"`
	Suspended     bool        `json:"suspended"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ── Request/Response Types ────────────────────────────

type SubmitReviewRequest struct {
	Quality        int    `json:"quality"`
	ResponseTimeMs *int64 `json:"response_time_ms,omitempty"`
}

type DueCardView struct {
	CardID       int64       `json:"card_id"`
	ItemID       int64       `json:"item_id"`
	Stage        ReviewStage `json:"stage"`
	EaseFactor   float64     `json:"ease_factor"`
	IntervalDays int         `json:"interval_days"`
	DueDate      time.Time   `json:"due_date"`
	Priority     float64     `json:"priority"`
	Question     *ServedItem `json:"question,omitempty"`
}

type DueCardListResponse struct {
	Cards []DueCardView `json:"cards"`
	Total int           `json:"total"`
}

type ReviewResultResponse struct {
	Card         ReviewCard `json:"card"`
	Correct      bool       `json:"correct"`
	StageChanged bool       `json:"stage_changed"`
	NextReviewAt time.Time  `json:"next_review_at"`
}
