package srs

import (
	"math"
	"testing"
	"time"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func TestNewCardDefaults(t *testing.T) {
	card := NewCard(1, 100, testNow)

	if card.EaseFactor != InitialEaseFactor {
		t.Errorf("ease factor = %f, want %f", card.EaseFactor, InitialEaseFactor)
	}
	if card.Stage != models.StageApprentice1 {
		t.Errorf("stage = %s, want %s", card.Stage, models.StageApprentice1)
	}
	if card.IntervalDays != 1 {
		t.Errorf("interval = %d, want 1", card.IntervalDays)
	}
}

func TestFailureResetsProgress(t *testing.T) {
	s := NewScheduler()
	card := models.ReviewCard{
		EaseFactor:    2.5,
		IntervalDays:  30,
		Repetition:    5,
		Stage:         models.StageGuru1,
		CorrectStreak: 4,
		TotalReviews:  8,
	}

	for quality := 0; quality < PassThreshold; quality++ {
		updated := s.ProcessReview(card, quality, nil, testNow)
		if updated.Repetition != 0 {
			t.Errorf("quality=%d: repetition = %d, want 0", quality, updated.Repetition)
		}
		if updated.IntervalDays != 1 {
			t.Errorf("quality=%d: interval = %d, want 1", quality, updated.IntervalDays)
		}
		if updated.CorrectStreak != 0 {
			t.Errorf("quality=%d: streak = %d, want 0", quality, updated.CorrectStreak)
		}
		if math.Abs(updated.EaseFactor-2.35) > 1e-9 {
			t.Errorf("quality=%d: ease = %f, want 2.35", quality, updated.EaseFactor)
		}
		if updated.Stage != models.StageApprentice4 {
			t.Errorf("quality=%d: stage = %s, want %s", quality, updated.Stage, models.StageApprentice4)
		}
	}
}

func TestFailureRegressesTwoStepsFromMaster(t *testing.T) {
	s := NewScheduler()

	tests := []struct {
		stage models.ReviewStage
		want  models.ReviewStage
	}{
		{models.StageMaster, models.StageGuru1},
		{models.StageEnlightened, models.StageGuru2},
		{models.StageBurned, models.StageMaster},
		{models.StageApprentice1, models.StageApprentice1}, // floor
		{models.StageApprentice2, models.StageApprentice1},
	}

	for _, tt := range tests {
		card := models.ReviewCard{EaseFactor: 2.5, IntervalDays: 10, Stage: tt.stage}
		updated := s.ProcessReview(card, 1, nil, testNow)
		if updated.Stage != tt.want {
			t.Errorf("failure from %s: stage = %s, want %s", tt.stage, updated.Stage, tt.want)
		}
	}
}

func TestEaseFactorFloor(t *testing.T) {
	s := NewScheduler()
	card := models.ReviewCard{EaseFactor: 1.3, IntervalDays: 1, Stage: models.StageApprentice1}

	for i := 0; i < 10; i++ {
		card = s.ProcessReview(card, 0, nil, testNow)
		if card.EaseFactor < MinEaseFactor {
			t.Fatalf("review %d: ease = %f below floor %f", i, card.EaseFactor, MinEaseFactor)
		}
	}
}

func TestSuccessIntervalProgression(t *testing.T) {
	s := NewScheduler()
	card := models.ReviewCard{EaseFactor: 2.5, Stage: models.StageApprentice1}

	card = s.ProcessReview(card, 5, nil, testNow)
	if card.IntervalDays != 1 {
		t.Errorf("first review interval = %d, want 1", card.IntervalDays)
	}

	card = s.ProcessReview(card, 5, nil, testNow)
	if card.IntervalDays != 6 {
		t.Errorf("second review interval = %d, want 6", card.IntervalDays)
	}

	previous := card.IntervalDays
	for i := 0; i < 5; i++ {
		card = s.ProcessReview(card, 5, nil, testNow)
		if card.IntervalDays < previous {
			t.Fatalf("review %d: interval %d decreased from %d under quality=5", i+3, card.IntervalDays, previous)
		}
		if card.EaseFactor < MinEaseFactor {
			t.Fatalf("review %d: ease %f below floor", i+3, card.EaseFactor)
		}
		previous = card.IntervalDays
	}
}

func TestQualityFourKeepsEaseSteady(t *testing.T) {
	// ease 2.5, interval 6, repetition 2, quality 4:
	// ease stays 2.5 (0.1 - 1*(0.08+0.02) = 0), interval = round(6*2.5) = 15.
	s := NewScheduler()
	card := models.ReviewCard{
		EaseFactor:    2.5,
		IntervalDays:  6,
		Repetition:    2,
		Stage:         models.StageApprentice3,
		CorrectStreak: 2,
		TotalReviews:  2,
	}

	updated := s.ProcessReview(card, 4, nil, testNow)
	if math.Abs(updated.EaseFactor-2.5) > 1e-9 {
		t.Errorf("ease = %f, want 2.5", updated.EaseFactor)
	}
	if updated.IntervalDays != 15 {
		t.Errorf("interval = %d, want 15", updated.IntervalDays)
	}
	if updated.Stage != models.StageApprentice4 {
		t.Errorf("stage = %s, want %s (streak and review gates met)", updated.Stage, models.StageApprentice4)
	}
}

func TestIntervalCap(t *testing.T) {
	s := NewScheduler()
	card := models.ReviewCard{
		EaseFactor:   2.5,
		IntervalDays: 300,
		Repetition:   10,
		Stage:        models.StageGuru1,
	}

	updated := s.ProcessReview(card, 5, nil, testNow)
	if updated.IntervalDays > MaxIntervalDays {
		t.Errorf("interval = %d, want <= %d", updated.IntervalDays, MaxIntervalDays)
	}
}

func TestStageAdvancementGates(t *testing.T) {
	s := NewScheduler()

	// Streak met but review count not: hold the stage.
	card := models.ReviewCard{
		EaseFactor:    2.5,
		IntervalDays:  6,
		Repetition:    2,
		Stage:         models.StageGuru1,
		CorrectStreak: 3,
		TotalReviews:  4,
	}
	updated := s.ProcessReview(card, 5, nil, testNow)
	if updated.Stage != models.StageGuru1 {
		t.Errorf("stage = %s, want held at %s (review gate not met)", updated.Stage, models.StageGuru1)
	}

	// Both gates met: advance.
	card.TotalReviews = 6
	updated = s.ProcessReview(card, 5, nil, testNow)
	if updated.Stage != models.StageGuru2 {
		t.Errorf("stage = %s, want %s", updated.Stage, models.StageGuru2)
	}
}

func TestBurnedCardLeavesRotation(t *testing.T) {
	s := NewScheduler()
	card := models.ReviewCard{
		EaseFactor:    2.8,
		IntervalDays:  200,
		Repetition:    20,
		Stage:         models.StageEnlightened,
		CorrectStreak: 5,
		TotalReviews:  16,
	}

	updated := s.ProcessReview(card, 5, nil, testNow)
	if updated.Stage != models.StageBurned {
		t.Fatalf("stage = %s, want %s", updated.Stage, models.StageBurned)
	}
	if updated.IntervalDays != 0 {
		t.Errorf("burned interval = %d, want 0", updated.IntervalDays)
	}
}

func TestResetCard(t *testing.T) {
	s := NewScheduler()
	card := models.ReviewCard{
		EaseFactor:   2.9,
		IntervalDays: 0,
		Repetition:   25,
		Stage:        models.StageBurned,
	}

	reset := s.ResetCard(card, testNow)
	if reset.Stage != models.StageApprentice1 {
		t.Errorf("stage = %s, want %s", reset.Stage, models.StageApprentice1)
	}
	if reset.EaseFactor != InitialEaseFactor {
		t.Errorf("ease = %f, want %f", reset.EaseFactor, InitialEaseFactor)
	}
	if reset.IntervalDays != 1 || reset.Repetition != 0 {
		t.Errorf("interval/repetition = %d/%d, want 1/0", reset.IntervalDays, reset.Repetition)
	}
}

func TestTimeMultiplierBounds(t *testing.T) {
	for quality := 3; quality <= 5; quality++ {
		for _, ms := range []int64{1, 1000, 10000, 60000, 600000} {
			got := timeMultiplier(quality, ms)
			if got < 0.95 || got > 1.1 {
				t.Errorf("timeMultiplier(%d, %d) = %f, out of [0.95, 1.1]", quality, ms, got)
			}
		}
	}
}

func TestFastAnswerExtendsInterval(t *testing.T) {
	s := NewScheduler()
	base := models.ReviewCard{
		EaseFactor:   2.5,
		IntervalDays: 20,
		Repetition:   4,
		Stage:        models.StageGuru1,
	}

	fast := int64(2000)    // well under expected for quality 5
	slow := int64(120_000) // well over

	fastCard := s.ProcessReview(base, 5, &fast, testNow)
	slowCard := s.ProcessReview(base, 5, &slow, testNow)
	if fastCard.IntervalDays <= slowCard.IntervalDays {
		t.Errorf("fast interval %d should exceed slow interval %d", fastCard.IntervalDays, slowCard.IntervalDays)
	}
}

func TestPriorityScoreOrdering(t *testing.T) {
	overdue := models.ReviewCard{EaseFactor: 2.5, Stage: models.StageGuru1, DueDate: testNow.Add(-48 * time.Hour)}
	fresh := models.ReviewCard{EaseFactor: 2.5, Stage: models.StageGuru1, DueDate: testNow}
	if PriorityScore(overdue, testNow) <= PriorityScore(fresh, testNow) {
		t.Error("overdue card should outrank a freshly due card")
	}

	hard := models.ReviewCard{EaseFactor: 1.3, Stage: models.StageGuru1, DueDate: testNow}
	easy := models.ReviewCard{EaseFactor: 2.5, Stage: models.StageGuru1, DueDate: testNow}
	if PriorityScore(hard, testNow) <= PriorityScore(easy, testNow) {
		t.Error("low-ease card should outrank a high-ease card")
	}

	early := models.ReviewCard{EaseFactor: 2.5, Stage: models.StageApprentice1, DueDate: testNow}
	late := models.ReviewCard{EaseFactor: 2.5, Stage: models.StageEnlightened, DueDate: testNow}
	if PriorityScore(early, testNow) <= PriorityScore(late, testNow) {
		t.Error("early-stage card should outrank a late-stage card")
	}

	// Overdue contribution is capped.
	week := models.ReviewCard{EaseFactor: 2.5, Stage: models.StageGuru1, DueDate: testNow.Add(-7 * 24 * time.Hour)}
	month := models.ReviewCard{EaseFactor: 2.5, Stage: models.StageGuru1, DueDate: testNow.Add(-30 * 24 * time.Hour)}
	if PriorityScore(week, testNow) != PriorityScore(month, testNow) {
		t.Error("overdue hours beyond the cap should not change the score")
	}
}
