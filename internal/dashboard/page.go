package dashboard

import (
	"fmt"

	"github.com/2beens/liftlog/internal/progression"
	"github.com/2beens/liftlog/internal/workouts"
)

const notEnoughDataMessage = "Not enough data to make a recommendation. Keep logging your workouts!"

type Flash struct {
	Level   string
	Message string
}

type RecommendationCard struct {
	ExerciseName string
	Available    bool
	LastWeight   string
	Recommended  string
	Message      string
}

func newRecommendationCard(rec progression.Recommendation) RecommendationCard {
	card := RecommendationCard{
		ExerciseName: rec.ExerciseName,
		Available:    rec.Available(),
	}
	if !card.Available {
		card.Message = notEnoughDataMessage
		return card
	}
	card.LastWeight = fmt.Sprintf("Last logged weight: %.2f kg", *rec.LastWeight)
	card.Recommended = fmt.Sprintf("Recommended weight: %.2f kg", *rec.SuggestedWeight)
	return card
}

type ParamLimits struct {
	MinBaseIncrease float64
	MaxBaseIncrease float64
	MinMaxIncrease  float64
	MaxMaxIncrease  float64
	MinSessions     int
	MaxSessions     int
}

var paramLimits = ParamLimits{
	MinBaseIncrease: progression.MinBaseIncreasePct,
	MaxBaseIncrease: progression.MaxBaseIncreasePct,
	MinMaxIncrease:  progression.MinMaxIncreaseKg,
	MaxMaxIncrease:  progression.MaxMaxIncreaseKg,
	MinSessions:     progression.MinMinSessions,
	MaxSessions:     progression.MaxMinSessions,
}

type LogLimits struct {
	MinSets, MaxSets     int
	MinReps, MaxReps     int
	MinWeight, MaxWeight float64
	WeightStep           float64
}

var logLimits = LogLimits{
	MinSets:    workouts.MinSets,
	MaxSets:    workouts.MaxSets,
	MinReps:    workouts.MinReps,
	MaxReps:    workouts.MaxReps,
	MinWeight:  workouts.MinWeight,
	MaxWeight:  workouts.MaxWeight,
	WeightStep: workouts.WeightStep,
}

// PageData is everything the index page renders.
type PageData struct {
	Flash    *Flash
	Warnings []string
	LoggedIn bool
	Today    string

	Exercises          []workouts.Exercise
	SelectedExerciseID int
	Prefill            workouts.Prefill

	Logs []workouts.WorkoutLog
	Edit *workouts.WorkoutLog

	ChartExerciseID int
	Chart           *Chart
	ChartEmpty      string

	Params          progression.Params
	ParamLimits     ParamLimits
	LogLimits       LogLimits
	Recommendations []RecommendationCard
}
