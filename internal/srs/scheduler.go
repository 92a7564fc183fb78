package srs

import (
	"math"
	"time"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

const (
	// PassThreshold is the lowest quality counted as a successful recall.
	PassThreshold = 3

	// InitialEaseFactor seeds new cards; MinEaseFactor is the SM-2 floor.
	InitialEaseFactor = 2.5
	MinEaseFactor     = 1.3

	// MaxIntervalDays caps the computed review interval.
	MaxIntervalDays = 365

	// failureEasePenalty is subtracted from the ease factor on a failed review.
	failureEasePenalty = 0.15
)

// stageGate is what a card must show before leaving a stage: a minimum
// correct streak and a minimum total review count. Higher stages gate harder.
type stageGate struct {
	minStreak  int
	minReviews int
}

var stageGates = map[models.ReviewStage]stageGate{
	models.StageApprentice1: {minStreak: 1, minReviews: 1},
	models.StageApprentice2: {minStreak: 1, minReviews: 2},
	models.StageApprentice3: {minStreak: 2, minReviews: 3},
	models.StageApprentice4: {minStreak: 2, minReviews: 4},
	models.StageGuru1:       {minStreak: 3, minReviews: 6},
	models.StageGuru2:       {minStreak: 3, minReviews: 8},
	models.StageMaster:      {minStreak: 4, minReviews: 12},
	models.StageEnlightened: {minStreak: 5, minReviews: 16},
}

// expectedSeconds is the anticipated response time per passing quality level,
// used for the optional interval multiplier.
var expectedSeconds = map[int]float64{
	3: 30,
	4: 20,
	5: 12,
}

// Scheduler computes SM-2 state transitions for review cards.
type Scheduler struct {
	MaxInterval int
}

func NewScheduler() *Scheduler {
	return &Scheduler{MaxInterval: MaxIntervalDays}
}

// NewCard returns the spaced-repetition state created on first exposure
// to an item.
func NewCard(studentID, itemID int64, now time.Time) models.ReviewCard {
	return models.ReviewCard{
		StudentID:    studentID,
		ItemID:       itemID,
		EaseFactor:   InitialEaseFactor,
		IntervalDays: 1,
		Stage:        models.StageApprentice1,
		DueDate:      now.AddDate(0, 0, 1),
	}
}

// ProcessReview applies one review observation to a card. quality is 0-5;
// values below PassThreshold reset the interval and regress the stage.
// responseTimeMs, when present, scales the interval by a factor in
// [0.95, 1.1] based on speed relative to the expected time for the quality.
func (s *Scheduler) ProcessReview(card models.ReviewCard, quality int, responseTimeMs *int64, now time.Time) models.ReviewCard {
	if quality < 0 {
		quality = 0
	}
	if quality > 5 {
		quality = 5
	}

	card.LastQuality = quality
	card.TotalReviews++

	if quality < PassThreshold {
		card.Repetition = 0
		card.IntervalDays = 1
		card.EaseFactor = math.Max(MinEaseFactor, card.EaseFactor-failureEasePenalty)
		card.CorrectStreak = 0
		card.Stage = regressStage(card.Stage)
		card.DueDate = now.AddDate(0, 0, card.IntervalDays)
		card.UpdatedAt = now
		return card
	}

	card.Repetition++
	card.CorrectStreak++

	q := float64(quality)
	card.EaseFactor = math.Max(MinEaseFactor, card.EaseFactor+(0.1-(5-q)*(0.08+(5-q)*0.02)))

	switch card.Repetition {
	case 1:
		card.IntervalDays = 1
	case 2:
		card.IntervalDays = 6
	default:
		card.IntervalDays = int(math.Round(float64(card.IntervalDays) * card.EaseFactor))
	}

	if responseTimeMs != nil {
		scaled := float64(card.IntervalDays) * timeMultiplier(quality, *responseTimeMs)
		card.IntervalDays = int(math.Round(scaled))
	}
	if card.IntervalDays < 1 {
		card.IntervalDays = 1
	}
	if card.IntervalDays > s.MaxInterval {
		card.IntervalDays = s.MaxInterval
	}

	if next, ok := advanceStage(card); ok {
		card.Stage = next
	}

	if card.Stage == models.StageBurned {
		// Burned cards leave the review rotation entirely.
		card.IntervalDays = 0
		card.DueDate = now
	} else {
		card.DueDate = now.AddDate(0, 0, card.IntervalDays)
	}
	card.UpdatedAt = now

	return card
}

// ResetCard returns a burned (or otherwise stuck) card to the first
// apprentice stage with fresh SM-2 state.
func (s *Scheduler) ResetCard(card models.ReviewCard, now time.Time) models.ReviewCard {
	card.Stage = models.StageApprentice1
	card.EaseFactor = InitialEaseFactor
	card.IntervalDays = 1
	card.Repetition = 0
	card.CorrectStreak = 0
	card.DueDate = now.AddDate(0, 0, 1)
	card.UpdatedAt = now
	return card
}

// advanceStage reports the next stage when the card's streak and review
// count clear the current stage's gate.
func advanceStage(card models.ReviewCard) (models.ReviewStage, bool) {
	gate, ok := stageGates[card.Stage]
	if !ok {
		return card.Stage, false // burned has no gate
	}
	if card.CorrectStreak < gate.minStreak || card.TotalReviews < gate.minReviews {
		return card.Stage, false
	}

	rank := card.Stage.Rank()
	if rank < 0 || rank+1 >= len(models.StageOrder) {
		return card.Stage, false
	}
	return models.StageOrder[rank+1], true
}

// regressStage drops the stage one step on failure, two steps from the
// master tier and above, with a floor at the first apprentice stage.
func regressStage(stage models.ReviewStage) models.ReviewStage {
	steps := 1
	switch stage {
	case models.StageMaster, models.StageEnlightened, models.StageBurned:
		steps = 2
	}

	rank := stage.Rank() - steps
	if rank < 0 {
		rank = 0
	}
	return models.StageOrder[rank]
}

// timeMultiplier maps response speed onto an interval factor in [0.95, 1.1]:
// answers at half the expected time or faster earn the full bonus, answers
// slower than twice the expected time take the full penalty.
func timeMultiplier(quality int, responseTimeMs int64) float64 {
	expected, ok := expectedSeconds[quality]
	if !ok || responseTimeMs <= 0 {
		return 1.0
	}

	ratio := (float64(responseTimeMs) / 1000.0) / expected
	switch {
	case ratio <= 0.5:
		return 1.1
	case ratio <= 1.0:
		return 1.1 - 0.2*(ratio-0.5)
	case ratio <= 2.0:
		return 1.0 - 0.05*(ratio-1.0)
	default:
		return 0.95
	}
}

// PriorityScore orders the due queue: overdue cards first, then cards that
// are both difficult (low ease) and early-stage.
func PriorityScore(card models.ReviewCard, now time.Time) float64 {
	overdueHours := now.Sub(card.DueDate).Hours()
	if overdueHours < 0 {
		overdueHours = 0
	}
	if overdueHours > 72 {
		overdueHours = 72
	}

	easeBonus := (InitialEaseFactor - card.EaseFactor) * 2

	stageBase := 0.0
	if rank := card.Stage.Rank(); rank >= 0 {
		stageBase = float64(len(models.StageOrder) - rank)
	}

	return overdueHours + easeBonus + stageBase
}
