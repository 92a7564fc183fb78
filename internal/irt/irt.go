package irt

import (
	"math"

	"github.com/ErDashrath/PragatiPath-sub000/internal/models"
)

const (
	// ThetaMin and ThetaMax bound the ability scale.
	ThetaMin = -3.0
	ThetaMax = 3.0

	// maxExponent keeps the logistic safe for extreme theta values.
	maxExponent = 500.0
)

// ThetaFromMastery maps a combined mastery probability onto the ability
// scale via a half-logit transform. The probability is clamped away from
// 0 and 1 before the transform, the result clamped to [-3, 3].
func ThetaFromMastery(p float64) float64 {
	if p < 0.01 {
		p = 0.01
	}
	if p > 0.99 {
		p = 0.99
	}

	theta := 0.5 * math.Log(p/(1-p))
	if theta < ThetaMin {
		return ThetaMin
	}
	if theta > ThetaMax {
		return ThetaMax
	}
	return theta
}

// ProbabilityCorrect evaluates the 3-parameter logistic model
// c + (1-c) / (1 + exp(-a*(theta-b))) for the given ability and item.
func ProbabilityCorrect(theta float64, item models.Item) float64 {
	exponent := -item.Discrimination * (theta - item.Difficulty)
	if exponent > maxExponent {
		exponent = maxExponent
	}
	if exponent < -maxExponent {
		exponent = -maxExponent
	}

	return item.Guessing + (1-item.Guessing)/(1+math.Exp(exponent))
}

// Information returns the Fisher information the item carries about a
// student at the given ability. Used for diagnostics, not selection.
func Information(theta float64, item models.Item) float64 {
	p := ProbabilityCorrect(theta, item)
	q := 1 - p
	if p <= item.Guessing || q == 0 {
		return 0
	}

	a := item.Discrimination
	c := item.Guessing
	// Standard 3PL information: a^2 * (q/p) * ((p-c)/(1-c))^2.
	ratio := (p - c) / (1 - c)
	return a * a * (q / p) * ratio * ratio
}
