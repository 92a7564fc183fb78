package knowledge

import "github.com/ErDashrath/PragatiPath-sub000/internal/models"

const (
	// TrendSeed is the prediction assigned to skills with no observations.
	TrendSeed = 0.5

	// TrendStep is the per-observation nudge applied to a skill's prediction.
	TrendStep = 0.1

	// TrendHistorySize caps the per-skill outcome buffer.
	TrendHistorySize = 20
)

// Predictor estimates the probability a student answers the next question on
// a skill correctly. The additive trend heuristic below is one implementation;
// a trained sequence model can be swapped in without touching the orchestrator.
type Predictor interface {
	Predict(state *models.TrendState, skillID string) float64
	Update(state *models.TrendState, skillID string, correct bool) float64
}

// TrendPredictor nudges a rolling per-skill prediction up or down by a fixed
// step per observation, clamped to [0,1].
type TrendPredictor struct {
	Step float64
}

func NewTrendPredictor() *TrendPredictor {
	return &TrendPredictor{Step: TrendStep}
}

func (p *TrendPredictor) Predict(state *models.TrendState, skillID string) float64 {
	if state == nil || state.Predictions == nil {
		return TrendSeed
	}
	if prediction, ok := state.Predictions[skillID]; ok {
		return prediction
	}
	return TrendSeed
}

func (p *TrendPredictor) Update(state *models.TrendState, skillID string, correct bool) float64 {
	if state.Predictions == nil {
		state.Predictions = make(map[string]float64)
	}
	if state.History == nil {
		state.History = make(map[string][]int64)
	}

	prediction := p.Predict(state, skillID)
	if correct {
		prediction += p.Step
	} else {
		prediction -= p.Step
	}
	prediction = clamp01(prediction)
	state.Predictions[skillID] = prediction

	outcome := int64(0)
	if correct {
		outcome = 1
	}
	history := append(state.History[skillID], outcome)
	if len(history) > TrendHistorySize {
		history = history[len(history)-TrendHistorySize:]
	}
	state.History[skillID] = history

	return prediction
}
