package progression

import (
	"math"

	"github.com/2beens/liftlog/internal/workouts"
)

// TargetReps is the rep count every session in the window has to reach
// before the weight goes up.
const TargetReps = 8

type Outcome string

const (
	OutcomeInsufficientHistory Outcome = "insufficient_history"
	OutcomeIncrease            Outcome = "increase"
	OutcomeMaintain            Outcome = "maintain"
)

type Result struct {
	Outcome         Outcome `json:"outcome"`
	LastWeight      float64 `json:"lastWeight"`
	SuggestedWeight float64 `json:"suggestedWeight"`
	Increase        float64 `json:"increase"`
}

// Available reports whether a weight is suggested at all.
func (r Result) Available() bool {
	return r.Outcome != OutcomeInsufficientHistory
}

// Evaluate applies linear progression to logs, which must be ordered
// oldest first. Only the last MinSessions entries are considered.
func Evaluate(logs []workouts.WorkoutLog, params Params) Result {
	minSessions := params.MinSessions
	if minSessions < 1 {
		minSessions = 1
	}

	if len(logs) < minSessions {
		return Result{Outcome: OutcomeInsufficientHistory}
	}

	window := logs[len(logs)-minSessions:]
	lastWeight := window[len(window)-1].Weight

	for _, l := range window {
		if l.Reps < TargetReps {
			return Result{
				Outcome:         OutcomeMaintain,
				LastWeight:      lastWeight,
				SuggestedWeight: lastWeight,
			}
		}
	}

	increase := math.Min(lastWeight*params.BaseIncreasePct/100, params.MaxIncreaseKg)
	return Result{
		Outcome:         OutcomeIncrease,
		LastWeight:      lastWeight,
		SuggestedWeight: lastWeight + increase,
		Increase:        increase,
	}
}

// Recommend returns the suggested next weight, or false when the history
// is too short to recommend anything.
func Recommend(logs []workouts.WorkoutLog, params Params) (float64, bool) {
	res := Evaluate(logs, params)
	if !res.Available() {
		return 0, false
	}
	return res.SuggestedWeight, true
}
