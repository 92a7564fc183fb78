package adaptive

import (
	"os"
	"strconv"
	"time"
)

// Config carries the orchestrator's tunable constants. The defaults mirror
// the values the progression and exit rules were designed around; none of
// them is derived from data.
type Config struct {
	// DefaultMaxQuestions is used when a start-session request does not set
	// its own budget.
	DefaultMaxQuestions int

	// AdvanceStreak / AdvanceMastery gate moving up one difficulty bucket.
	AdvanceStreak  int
	AdvanceMastery float64

	// RegressStreak / RegressMastery gate moving down one bucket.
	RegressStreak  int
	RegressMastery float64

	// MasteryExitThreshold ends the session early as a success.
	MasteryExitThreshold float64

	// ExposureWindow excludes items served to the student this recently.
	ExposureWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		DefaultMaxQuestions:  10,
		AdvanceStreak:        2,
		AdvanceMastery:       0.7,
		RegressStreak:        2,
		RegressMastery:       0.3,
		MasteryExitThreshold: 0.9,
		ExposureWindow:       24 * time.Hour,
	}
}

// ConfigFromEnv starts from the defaults and applies environment overrides.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("SESSION_MAX_QUESTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultMaxQuestions = n
		}
	}
	if v := os.Getenv("EXPOSURE_WINDOW_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ExposureWindow = time.Duration(n) * time.Hour
		}
	}

	return cfg
}
