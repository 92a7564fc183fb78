package knowledge

import (
	"math"
	"testing"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

func TestPredictUnseenSkillDefaults(t *testing.T) {
	p := NewTrendPredictor()

	if got := p.Predict(nil, "algebra"); got != TrendSeed {
		t.Errorf("Predict(nil state) = %f, want %f", got, TrendSeed)
	}

	state := &models.TrendState{StudentID: 1}
	if got := p.Predict(state, "algebra"); got != TrendSeed {
		t.Errorf("Predict(empty state) = %f, want %f", got, TrendSeed)
	}
}

func TestUpdateNudges(t *testing.T) {
	p := NewTrendPredictor()
	state := &models.TrendState{StudentID: 1}

	got := p.Update(state, "algebra", true)
	if math.Abs(got-0.6) > 1e-9 {
		t.Errorf("first correct update = %f, want 0.6", got)
	}

	got = p.Update(state, "algebra", false)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("after correct then incorrect = %f, want 0.5", got)
	}
}

func TestUpdateClampsAtBounds(t *testing.T) {
	p := NewTrendPredictor()
	state := &models.TrendState{StudentID: 1}

	for i := 0; i < 50; i++ {
		got := p.Update(state, "algebra", true)
		if got < 0 || got > 1 {
			t.Fatalf("update %d: prediction %f out of [0,1]", i, got)
		}
	}
	if got := p.Predict(state, "algebra"); got != 1 {
		t.Errorf("after 50 correct updates = %f, want 1", got)
	}

	for i := 0; i < 50; i++ {
		got := p.Update(state, "algebra", false)
		if got < 0 || got > 1 {
			t.Fatalf("update %d: prediction %f out of [0,1]", i, got)
		}
	}
	if got := p.Predict(state, "algebra"); got != 0 {
		t.Errorf("after 50 incorrect updates = %f, want 0", got)
	}
}

func TestUpdateAlternatingSigns(t *testing.T) {
	p := NewTrendPredictor()
	state := &models.TrendState{StudentID: 1}

	for i := 0; i < 101; i++ {
		got := p.Update(state, "geometry", i%2 == 0)
		if got < 0 || got > 1 {
			t.Fatalf("update %d: prediction %f out of [0,1]", i, got)
		}
	}
}

func TestHistoryBufferCapped(t *testing.T) {
	p := NewTrendPredictor()
	state := &models.TrendState{StudentID: 1}

	for i := 0; i < TrendHistorySize*3; i++ {
		p.Update(state, "algebra", true)
	}
	if got := len(state.History["algebra"]); got != TrendHistorySize {
		t.Errorf("history length = %d, want %d", got, TrendHistorySize)
	}
}

func TestSkillsAreIndependent(t *testing.T) {
	p := NewTrendPredictor()
	state := &models.TrendState{StudentID: 1}

	p.Update(state, "algebra", true)
	if got := p.Predict(state, "geometry"); got != TrendSeed {
		t.Errorf("untouched skill = %f, want seed %f", got, TrendSeed)
	}
}
