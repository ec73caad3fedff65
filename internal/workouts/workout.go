package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrExerciseInUse    = errors.New("exercise has logged workouts")
	ErrLogNotFound      = errors.New("workout log not found")
)

// DateLayout is the wire and storage format of a workout date.
const DateLayout = "2006-01-02"

type Exercise struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// WorkoutLog is a single logged session of one exercise.
// Weight is in kilograms, Date carries no time of day.
type WorkoutLog struct {
	ID           int       `json:"id"`
	ExerciseID   int       `json:"exerciseId"`
	ExerciseName string    `json:"exerciseName,omitempty"`
	Date         time.Time `json:"date"`
	Sets         int       `json:"sets"`
	Reps         int       `json:"reps"`
	Weight       float64   `json:"weight"`
}

func (l WorkoutLog) DateString() string {
	return l.Date.Format(DateLayout)
}

// Store is the persistence contract shared by the postgres and sqlite backends.
// Logs of one exercise are ordered by date, ties broken by insertion order.
type Store interface {
	AddExercise(ctx context.Context, name string) (*Exercise, error)
	GetExercise(ctx context.Context, id int) (*Exercise, error)
	ListExercises(ctx context.Context) ([]Exercise, error)
	DeleteExercise(ctx context.Context, id int) error

	AddLog(ctx context.Context, log WorkoutLog) (*WorkoutLog, error)
	GetLog(ctx context.Context, id int) (*WorkoutLog, error)
	UpdateLog(ctx context.Context, log *WorkoutLog) error
	DeleteLog(ctx context.Context, id int) error
	ListLogs(ctx context.Context) ([]WorkoutLog, error)
	ListExerciseLogs(ctx context.Context, exerciseID int) ([]WorkoutLog, error)
	LastLog(ctx context.Context, exerciseID int) (*WorkoutLog, error)
}

// Day truncates t to a UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Message: fmt.Sprintf("expected YYYY-MM-DD, got %q", s)}
	}
	return t, nil
}

// Prefill holds the values the log form starts with for an exercise.
type Prefill struct {
	ExerciseID  int     `json:"exerciseId"`
	Sets        int     `json:"sets"`
	Reps        int     `json:"reps"`
	Weight      float64 `json:"weight"`
	FromHistory bool    `json:"fromHistory"`
}

var DefaultPrefill = Prefill{
	Sets:   3,
	Reps:   8,
	Weight: 20.0,
}

// PrefillFrom copies the last logged values, or falls back to DefaultPrefill.
func PrefillFrom(exerciseID int, last *WorkoutLog) Prefill {
	if last == nil {
		p := DefaultPrefill
		p.ExerciseID = exerciseID
		return p
	}
	return Prefill{
		ExerciseID:  exerciseID,
		Sets:        last.Sets,
		Reps:        last.Reps,
		Weight:      last.Weight,
		FromHistory: true,
	}
}
