package workouts

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	MinSets    = 1
	MaxSets    = 10
	MinReps    = 1
	MaxReps    = 100
	MinWeight  = 0.0
	MaxWeight  = 500.0
	WeightStep = 0.5

	maxExerciseNameLen = 255
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// NormalizeExerciseName trims the name and checks it is usable.
func NormalizeExerciseName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if len(name) > maxExerciseNameLen {
		return "", &ValidationError{Field: "name", Message: fmt.Sprintf("longer than %d characters", maxExerciseNameLen)}
	}
	return name, nil
}

func (l WorkoutLog) Validate() error {
	if l.ExerciseID <= 0 {
		return &ValidationError{Field: "exercise", Message: "must be selected"}
	}
	if l.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "required"}
	}
	if l.Sets < MinSets || l.Sets > MaxSets {
		return &ValidationError{Field: "sets", Message: fmt.Sprintf("must be between %d and %d", MinSets, MaxSets)}
	}
	if l.Reps < MinReps || l.Reps > MaxReps {
		return &ValidationError{Field: "reps", Message: fmt.Sprintf("must be between %d and %d", MinReps, MaxReps)}
	}
	if math.IsNaN(l.Weight) || l.Weight < MinWeight || l.Weight > MaxWeight {
		return &ValidationError{Field: "weight", Message: fmt.Sprintf("must be between %.0f and %.0f kg", MinWeight, MaxWeight)}
	}
	if math.Mod(l.Weight, WeightStep) != 0 {
		return &ValidationError{Field: "weight", Message: fmt.Sprintf("must be a multiple of %.1f kg", WeightStep)}
	}
	return nil
}
