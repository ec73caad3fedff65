package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const logColumns = `l.id, l.exercise_id, e.name, l.date, l.sets, l.reps, l.weight`

// Repo is the postgres backed Store.
type Repo struct {
	db *pgxpool.Pool
}

var _ Store = (*Repo)(nil)

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) AddExercise(ctx context.Context, name string) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.exercise.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name, err = NormalizeExerciseName(name)
	if err != nil {
		return nil, err
	}

	exercise := Exercise{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO exercises (name, created_at) VALUES ($1, $2) RETURNING id;`,
		exercise.Name, exercise.CreatedAt,
	).Scan(&exercise.ID); err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}

	span.SetAttributes(attribute.Int("exercise.id", exercise.ID))
	return &exercise, nil
}

func (r *Repo) GetExercise(ctx context.Context, id int) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.exercise.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrExerciseNotFound)
	}()
	span.SetAttributes(attribute.Int("id", id))

	var e Exercise
	err = r.db.QueryRow(
		ctx,
		`SELECT id, name, created_at FROM exercises WHERE id = $1;`,
		id,
	).Scan(&e.ID, &e.Name, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, err
	}

	return &e, nil
}

func (r *Repo) ListExercises(ctx context.Context) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.exercise.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, name, created_at FROM exercises ORDER BY name, id;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := make([]Exercise, 0)
	for rows.Next() {
		var e Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		exercises = append(exercises, e)
	}

	return exercises, rows.Err()
}

// DeleteExercise refuses to remove an exercise that still has logs.
func (r *Repo) DeleteExercise(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.exercise.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrExerciseNotFound, ErrExerciseInUse)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM exercises WHERE id = $1`,
		id,
	)
	if pkg.IsForeignKeyViolationError(err) {
		return ErrExerciseInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExerciseNotFound
	}
	return nil
}

func (r *Repo) AddLog(ctx context.Context, wl WorkoutLog) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.log.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrExerciseNotFound)
	}()
	span.SetAttributes(attribute.Int("exercise.id", wl.ExerciseID))

	wl.Date = Day(wl.Date)
	if err := wl.Validate(); err != nil {
		return nil, err
	}

	err = r.db.QueryRow(
		ctx,
		`INSERT INTO workout_logs
				(date, exercise_id, sets, reps, weight)
				VALUES ($1, $2, $3, $4, $5)
			RETURNING id;`,
		wl.Date, wl.ExerciseID, wl.Sets, wl.Reps, wl.Weight,
	).Scan(&wl.ID)
	if pkg.IsForeignKeyViolationError(err) {
		return nil, ErrExerciseNotFound
	}
	if pkg.IsCheckViolationError(err) {
		return nil, &ValidationError{Field: "log", Message: "rejected by table constraints"}
	}
	if err != nil {
		return nil, fmt.Errorf("insert workout log: %w", err)
	}

	span.SetAttributes(attribute.Int("log.id", wl.ID))
	return &wl, nil
}

func (r *Repo) GetLog(ctx context.Context, id int) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.log.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrLogNotFound)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+logColumns+`
			FROM workout_logs l
			JOIN exercises e ON e.id = l.exercise_id
			WHERE l.id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs, err := r.rows2logs(rows)
	if err != nil {
		return nil, err
	}
	if len(logs) != 1 {
		return nil, ErrLogNotFound
	}

	return &logs[0], nil
}

func (r *Repo) UpdateLog(ctx context.Context, wl *WorkoutLog) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.log.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrLogNotFound, ErrExerciseNotFound)
	}()
	span.SetAttributes(attribute.Int("id", wl.ID))

	wl.Date = Day(wl.Date)
	if err := wl.Validate(); err != nil {
		return err
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE workout_logs SET date = $1, exercise_id = $2, sets = $3, reps = $4, weight = $5 WHERE id = $6;`,
		wl.Date, wl.ExerciseID, wl.Sets, wl.Reps, wl.Weight, wl.ID,
	)
	if pkg.IsForeignKeyViolationError(err) {
		return ErrExerciseNotFound
	}
	if pkg.IsCheckViolationError(err) {
		return &ValidationError{Field: "log", Message: "rejected by table constraints"}
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}

	return nil
}

func (r *Repo) DeleteLog(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.log.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrLogNotFound)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM workout_logs WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}
	return nil
}

// ListLogs returns all logs with exercise names, most recent first.
func (r *Repo) ListLogs(ctx context.Context) (_ []WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.log.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+logColumns+`
			FROM workout_logs l
			JOIN exercises e ON e.id = l.exercise_id
			ORDER BY l.date DESC, l.id DESC;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.rows2logs(rows)
}

// ListExerciseLogs returns the logs of one exercise, oldest first.
func (r *Repo) ListExerciseLogs(ctx context.Context, exerciseID int) (_ []WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.log.list_exercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+logColumns+`
			FROM workout_logs l
			JOIN exercises e ON e.id = l.exercise_id
			WHERE l.exercise_id = $1
			ORDER BY l.date ASC, l.id ASC;`,
		exerciseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs, err := r.rows2logs(rows)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("logs.count", len(logs)))

	return logs, nil
}

func (r *Repo) LastLog(ctx context.Context, exerciseID int) (_ *WorkoutLog, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.log.last")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err, ErrLogNotFound)
	}()
	span.SetAttributes(attribute.Int("exercise.id", exerciseID))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+logColumns+`
			FROM workout_logs l
			JOIN exercises e ON e.id = l.exercise_id
			WHERE l.exercise_id = $1
			ORDER BY l.date DESC, l.id DESC
			LIMIT 1;`,
		exerciseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs, err := r.rows2logs(rows)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, ErrLogNotFound
	}

	return &logs[0], nil
}

func (r *Repo) rows2logs(rows pgx.Rows) ([]WorkoutLog, error) {
	logs := make([]WorkoutLog, 0)
	for rows.Next() {
		var wl WorkoutLog
		if err := rows.Scan(
			&wl.ID, &wl.ExerciseID, &wl.ExerciseName, &wl.Date, &wl.Sets, &wl.Reps, &wl.Weight,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		wl.Date = Day(wl.Date)
		logs = append(logs, wl)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}
