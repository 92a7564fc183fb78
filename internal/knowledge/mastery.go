package knowledge

const (
	// BKTWeight and TrendWeight blend the two model outputs into the single
	// combined score consumed by difficulty selection. Tunable constants,
	// not derived values.
	BKTWeight   = 0.7
	TrendWeight = 0.3
)

// Level is the coarse five-bucket classification of a combined mastery score.
type Level string

const (
	LevelNovice     Level = "novice"
	LevelDeveloping Level = "developing"
	LevelProficient Level = "proficient"
	LevelAdvanced   Level = "advanced"
	LevelExpert     Level = "expert"
)

// Combine blends BKT mastery with the trend prediction, clamped to [0,1].
func Combine(bktMastery, trendPrediction float64) float64 {
	return clamp01(BKTWeight*bktMastery + TrendWeight*trendPrediction)
}

// ClassifyLevel maps a combined mastery score onto the five mastery levels.
// Buckets are half-open except the top one.
func ClassifyLevel(score float64) Level {
	switch {
	case score < 0.30:
		return LevelNovice
	case score < 0.50:
		return LevelDeveloping
	case score < 0.70:
		return LevelProficient
	case score < 0.85:
		return LevelAdvanced
	default:
		return LevelExpert
	}
}
