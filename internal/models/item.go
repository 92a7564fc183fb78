package models

import "time"

type DifficultyLevel string

const (
	DifficultyVeryEasy  DifficultyLevel = "very_easy"
	DifficultyEasy      DifficultyLevel = "easy"
	DifficultyModerate  DifficultyLevel = "moderate"
	DifficultyDifficult DifficultyLevel = "difficult"
)

var ValidDifficultyLevels = map[DifficultyLevel]bool{
	DifficultyVeryEasy:  true,
	DifficultyEasy:      true,
	DifficultyModerate:  true,
	DifficultyDifficult: true,
}

// DifficultyOrder lists the levels from easiest to hardest.
var DifficultyOrder = []DifficultyLevel{
	DifficultyVeryEasy,
	DifficultyEasy,
	DifficultyModerate,
	DifficultyDifficult,
}

// Rank returns the position of the level in DifficultyOrder, or -1 if invalid.
func (d DifficultyLevel) Rank() int {
	for i, level := range DifficultyOrder {
		if level == d {
			return i
		}
	}
	return -1
}

type Subject struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Chapter struct {
	ID        int64     `json:"id"`
	SubjectID int64     `json:"subject_id"`
	Name      string    `json:"name"`
	SkillKey  string    `json:"skill_key"`
	CreatedAt time.Time `json:"created_at"`
}

// ── Core Structs ───────────────────────────────────────

type Item struct {
	ID              int64           `json:"id"`
	Subject         string          `json:"subject"`
	ChapterID       *int64          `json:"chapter_id,omitempty"`
	SkillID         string          `json:"skill_id"`
	QuestionText    string          `json:"question_text"`
	CorrectOptionID string          `json:"correct_option_id"`
	Explanation     string          `json:"explanation"`
	Options         []ItemOption    `json:"options"`
	Difficulty      float64         `json:"difficulty"`     // IRT b, typically -3..3
	Discrimination  float64         `json:"discrimination"` // IRT a, > 0
	Guessing        float64         `json:"guessing"`       // IRT c, 0..1
	DifficultyLevel DifficultyLevel `json:"difficulty_level"`
	IsActive        bool            `json:"is_active"`
	TimesAttempted  int             `json:"times_attempted"`
	TimesCorrect    int             `json:"times_correct"`
	CreatedAt       time.Time       `json:"created_at"`
}

type ItemOption struct {
	ID         int64  `json:"id"`
	ItemID     int64  `json:"item_id"`
	OptionID   string `json:"option_id"`
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
}

// ── Serving Types (strip answers before sending to clients) ───────────

type ServedItem struct {
	ID              int64           `json:"id"`
	Subject         string          `json:"subject"`
	SkillID         string          `json:"skill_id"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level"`
	QuestionText    string          `json:"question_text"`
	Options         []ServedOption  `json:"options"`
}

type ServedOption struct {
	OptionID   string `json:"option_id"`
	OptionText string `json:"option_text"`
}

func (it *Item) ToServedItem() ServedItem {
	served := ServedItem{
		ID:              it.ID,
		Subject:         it.Subject,
		SkillID:         it.SkillID,
		DifficultyLevel: it.DifficultyLevel,
		QuestionText:    it.QuestionText,
	}
	for _, opt := range it.Options {
		served.Options = append(served.Options, ServedOption{
			OptionID:   opt.OptionID,
			OptionText: opt.OptionText,
		})
	}
	return served
}
