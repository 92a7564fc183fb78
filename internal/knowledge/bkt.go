package knowledge

import "github.com/ErDashrath/PragatiPath-sub000/internal/models"

// DefaultSkillParams returns the prior used when a student touches a skill
// for the first time.
func DefaultSkillParams(studentID int64, skillID string) models.SkillMasteryState {
	return models.SkillMasteryState{
		StudentID: studentID,
		SkillID:   skillID,
		PLearn:    0.1,
		PTransit:  0.1,
		PSlip:     0.2,
		PGuess:    0.2,
	}
}

// Update applies one observed answer to the mastery estimate using standard
// Bayesian knowledge tracing: a posterior step conditioned on correctness,
// then the learning transition P_L' = P(L|obs) + (1 - P(L|obs)) * P_T.
// Only PLearn changes; slip, guess, and transition are fixed configuration.
//
// The second return value is false when both posterior terms are zero.
// In that case the state is returned unchanged rather than dividing by zero.
func Update(state models.SkillMasteryState, correct bool) (models.SkillMasteryState, bool) {
	posterior, ok := posteriorMastery(state.PLearn, state.PSlip, state.PGuess, correct)
	if !ok {
		return state, false
	}

	state.PLearn = clamp01(posterior + (1-posterior)*state.PTransit)
	return state, true
}

// posteriorMastery computes P(L|observation) via Bayes' rule.
func posteriorMastery(pLearn, pSlip, pGuess float64, correct bool) (float64, bool) {
	var numerator, denominator float64
	if correct {
		numerator = pLearn * (1 - pSlip)
		denominator = numerator + (1-pLearn)*pGuess
	} else {
		numerator = pLearn * pSlip
		denominator = numerator + (1-pLearn)*(1-pGuess)
	}

	if denominator == 0 {
		return pLearn, false
	}
	return numerator / denominator, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
