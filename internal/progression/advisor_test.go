package progression_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/2beens/liftlog/internal/db"
	"github.com/2beens/liftlog/internal/progression"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/workouts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAdvisor_ForExercise(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockworkoutsRepo(ctrl)
	advisor := progression.NewAdvisor(repoMock, metrics.NewTestManager())

	repoMock.EXPECT().GetExercise(gomock.Any(), 1).Return(&workouts.Exercise{ID: 1, Name: "Squat"}, nil)
	repoMock.EXPECT().ListExerciseLogs(gomock.Any(), 1).Return(
		sessions([2]float64{8, 100}, [2]float64{8, 100}, [2]float64{8, 100}), nil,
	)

	rec, err := advisor.ForExercise(context.Background(), 1, progression.DefaultParams)
	require.NoError(t, err)
	assert.Equal(t, "Squat", rec.ExerciseName)
	assert.Equal(t, 3, rec.Sessions)
	assert.Equal(t, progression.OutcomeIncrease, rec.Outcome)
	require.True(t, rec.Available())
	assert.Equal(t, 100.0, *rec.LastWeight)
	assert.Equal(t, 102.5, *rec.SuggestedWeight)
}

func TestAdvisor_ForExercise_NotEnoughData(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockworkoutsRepo(ctrl)
	advisor := progression.NewAdvisor(repoMock, metrics.NewTestManager())

	repoMock.EXPECT().GetExercise(gomock.Any(), 1).Return(&workouts.Exercise{ID: 1, Name: "Squat"}, nil)
	repoMock.EXPECT().ListExerciseLogs(gomock.Any(), 1).Return(sessions([2]float64{8, 60}), nil)
	repoMock.EXPECT().GetExercise(gomock.Any(), 2).Return(&workouts.Exercise{ID: 2, Name: "Row"}, nil)
	repoMock.EXPECT().ListExerciseLogs(gomock.Any(), 2).Return([]workouts.WorkoutLog{}, nil)

	rec, err := advisor.ForExercise(context.Background(), 1, progression.DefaultParams)
	require.NoError(t, err)
	assert.False(t, rec.Available())
	assert.Equal(t, progression.OutcomeInsufficientHistory, rec.Outcome)
	require.NotNil(t, rec.LastWeight)
	assert.Equal(t, 60.0, *rec.LastWeight)

	rec, err = advisor.ForExercise(context.Background(), 2, progression.DefaultParams)
	require.NoError(t, err)
	assert.Nil(t, rec.LastWeight)
	assert.Nil(t, rec.SuggestedWeight)
}

func TestAdvisor_ForExercise_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockworkoutsRepo(ctrl)
	advisor := progression.NewAdvisor(repoMock, metrics.NewTestManager())

	repoMock.EXPECT().GetExercise(gomock.Any(), 9).Return(nil, workouts.ErrExerciseNotFound)

	_, err := advisor.ForExercise(context.Background(), 9, progression.DefaultParams)
	assert.ErrorIs(t, err, workouts.ErrExerciseNotFound)
}

func TestAdvisor_All(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockworkoutsRepo(ctrl)
	advisor := progression.NewAdvisor(repoMock, metrics.NewTestManager())

	exercises := []workouts.Exercise{
		{ID: 1, Name: "Bench Press"},
		{ID: 2, Name: "Deadlift"},
		{ID: 3, Name: "Squat"},
		{ID: 4, Name: "Row"},
		{ID: 5, Name: "Curl"},
	}
	repoMock.EXPECT().ListExercises(gomock.Any()).Return(exercises, nil)
	repoMock.EXPECT().
		ListExerciseLogs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, id int) ([]workouts.WorkoutLog, error) {
			w := float64(id * 20)
			if id%2 == 0 {
				return sessions([2]float64{8, w}, [2]float64{8, w}, [2]float64{5, w}), nil
			}
			return sessions([2]float64{8, w}, [2]float64{8, w}, [2]float64{8, w}), nil
		}).Times(len(exercises))

	recs, err := advisor.All(context.Background(), progression.DefaultParams)
	require.NoError(t, err)
	require.Len(t, recs, len(exercises))

	for i, rec := range recs {
		assert.Equal(t, exercises[i].ID, rec.ExerciseID)
		assert.Equal(t, exercises[i].Name, rec.ExerciseName)
		require.NotNil(t, rec.SuggestedWeight)
		w := float64(rec.ExerciseID * 20)
		if rec.ExerciseID%2 == 0 {
			assert.Equal(t, progression.OutcomeMaintain, rec.Outcome)
			assert.Equal(t, w, *rec.SuggestedWeight)
		} else {
			assert.Equal(t, progression.OutcomeIncrease, rec.Outcome)
			assert.InDelta(t, w*1.025, *rec.SuggestedWeight, 1e-9)
		}
	}
}

func TestAdvisor_All_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockworkoutsRepo(ctrl)
	advisor := progression.NewAdvisor(repoMock, metrics.NewTestManager())

	repoMock.EXPECT().ListExercises(gomock.Any()).Return(nil, errors.New("db down"))
	_, err := advisor.All(context.Background(), progression.DefaultParams)
	assert.Error(t, err)

	repoMock.EXPECT().ListExercises(gomock.Any()).Return([]workouts.Exercise{{ID: 1, Name: "Squat"}}, nil)
	repoMock.EXPECT().ListExerciseLogs(gomock.Any(), 1).Return(nil, errors.New("db down"))
	_, err = advisor.All(context.Background(), progression.DefaultParams)
	assert.Error(t, err)
}

func TestAdvisor_All_NoExercises(t *testing.T) {
	ctrl := gomock.NewController(t)
	repoMock := NewMockworkoutsRepo(ctrl)
	advisor := progression.NewAdvisor(repoMock, metrics.NewTestManager())

	repoMock.EXPECT().ListExercises(gomock.Any()).Return([]workouts.Exercise{}, nil)
	recs, err := advisor.All(context.Background(), progression.DefaultParams)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

// Bench Press scenario against a real store: three clean sessions at 20 kg
// earn 20.5 kg, a fourth session with 5 reps drops back to maintaining.
func TestAdvisor_EndToEnd_BenchPress(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := db.NewSQLiteDB(ctx, db.InMemorySQLite)
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	store := workouts.NewSQLiteRepo(sqlDB)
	advisor := progression.NewAdvisor(store, metrics.NewTestManager())

	bench, err := store.AddExercise(ctx, "Bench Press")
	require.NoError(t, err)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.AddLog(ctx, workouts.WorkoutLog{
			ExerciseID: bench.ID, Date: day.AddDate(0, 0, i), Sets: 3, Reps: 8, Weight: 20,
		})
		require.NoError(t, err)
	}

	rec, err := advisor.ForExercise(ctx, bench.ID, progression.DefaultParams)
	require.NoError(t, err)
	require.True(t, rec.Available())
	assert.Equal(t, progression.OutcomeIncrease, rec.Outcome)
	assert.InDelta(t, 20.5, *rec.SuggestedWeight, 1e-9)

	_, err = store.AddLog(ctx, workouts.WorkoutLog{
		ExerciseID: bench.ID, Date: day.AddDate(0, 0, 3), Sets: 3, Reps: 5, Weight: 20,
	})
	require.NoError(t, err)

	rec, err = advisor.ForExercise(ctx, bench.ID, progression.DefaultParams)
	require.NoError(t, err)
	require.True(t, rec.Available())
	assert.Equal(t, progression.OutcomeMaintain, rec.Outcome)
	assert.Equal(t, 20.0, *rec.SuggestedWeight)
	assert.Equal(t, 4, rec.Sessions)
}
