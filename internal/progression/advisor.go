package progression

import (
	"context"
	"fmt"

	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/internal/workouts"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=$GOFILE -destination=advisor_mocks_test.go -package=progression_test

const maxConcurrentFetches = 4

type workoutsRepo interface {
	GetExercise(ctx context.Context, id int) (*workouts.Exercise, error)
	ListExercises(ctx context.Context) ([]workouts.Exercise, error)
	ListExerciseLogs(ctx context.Context, exerciseID int) ([]workouts.WorkoutLog, error)
}

type Recommendation struct {
	ExerciseID      int      `json:"exerciseId"`
	ExerciseName    string   `json:"exerciseName"`
	Sessions        int      `json:"sessions"`
	Outcome         Outcome  `json:"outcome"`
	LastWeight      *float64 `json:"lastWeight,omitempty"`
	SuggestedWeight *float64 `json:"suggestedWeight,omitempty"`
	Params          Params   `json:"params"`
}

func (r Recommendation) Available() bool {
	return r.SuggestedWeight != nil
}

// Advisor computes recommendations for stored exercises.
type Advisor struct {
	repo           workoutsRepo
	metricsManager *metrics.Manager
}

func NewAdvisor(repo workoutsRepo, metricsManager *metrics.Manager) *Advisor {
	return &Advisor{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (a *Advisor) ForExercise(ctx context.Context, exerciseID int, params Params) (_ *Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "advisor.progression.exercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, workouts.ErrExerciseNotFound)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	exercise, err := a.repo.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	return a.evaluate(ctx, *exercise, params)
}

// All returns one recommendation per exercise, in the order the store lists them.
func (a *Advisor) All(ctx context.Context, params Params) (_ []Recommendation, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "advisor.progression.all")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exercises, err := a.repo.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	span.SetAttributes(attribute.Int("exercises.count", len(exercises)))

	recommendations := make([]Recommendation, len(exercises))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, exercise := range exercises {
		g.Go(func() error {
			rec, err := a.evaluate(gCtx, exercise, params)
			if err != nil {
				return err
			}
			recommendations[i] = *rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return recommendations, nil
}

func (a *Advisor) evaluate(ctx context.Context, exercise workouts.Exercise, params Params) (*Recommendation, error) {
	logs, err := a.repo.ListExerciseLogs(ctx, exercise.ID)
	if err != nil {
		return nil, fmt.Errorf("list logs of exercise %d: %w", exercise.ID, err)
	}

	res := Evaluate(logs, params)
	a.metricsManager.CounterRecommendations.WithLabelValues(string(res.Outcome)).Inc()

	rec := &Recommendation{
		ExerciseID:   exercise.ID,
		ExerciseName: exercise.Name,
		Sessions:     len(logs),
		Outcome:      res.Outcome,
		Params:       params,
	}
	if len(logs) > 0 {
		last := logs[len(logs)-1].Weight
		rec.LastWeight = &last
	}
	if res.Available() {
		suggested := res.SuggestedWeight
		rec.SuggestedWeight = &suggested
	}

	return rec, nil
}
